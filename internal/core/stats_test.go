package core

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var statsNow = time.Date(2025, 10, 17, 15, 30, 0, 0, time.UTC)

func tx(id string, typ TransactionType, status TransactionStatus, rupees int64, category string, at time.Time) Transaction {
	return Transaction{
		ID:                 id,
		UserID:             "u1",
		Type:               typ,
		Amount:             Rupees(rupees),
		Recipient:          "John Doe",
		RecipientAccountID: "user1@upi",
		Status:             status,
		Timestamp:          at,
		Category:           category,
	}
}

func TestAggregateEmpty(t *testing.T) {
	s := Aggregate(nil, statsNow)

	assert.Equal(t, 0, s.TotalCount)
	assert.Equal(t, "0", s.SuccessRate)
	assert.Empty(t, s.CategoryBreakdown)
	require.Len(t, s.DailyVolume, DailyWindow)
	for _, dv := range s.DailyVolume {
		assert.True(t, dv.Total.IsZero(), "day %s should be zero", dv.Date)
	}
	assert.Equal(t, "2025-10-11", s.DailyVolume[0].Date)
	assert.Equal(t, "Oct 11", s.DailyVolume[0].Label)
	assert.Equal(t, "2025-10-17", s.DailyVolume[6].Date)
	assert.Equal(t, "Oct 17", s.DailyVolume[6].Label)
}

func TestAggregateSingleSentToday(t *testing.T) {
	s := Aggregate([]Transaction{
		tx("a", TypeSent, StatusSuccess, 500, CategoryFood, statsNow.Add(-time.Hour)),
	}, statsNow)

	assert.Equal(t, 1, s.TotalCount)
	assert.Equal(t, 1, s.SuccessCount)
	assert.Equal(t, Rupees(500), s.TotalSent)
	assert.Equal(t, Money{}, s.TotalReceived)
	assert.Equal(t, "100.0", s.SuccessRate)
	assert.Equal(t, map[string]Money{CategoryFood: Rupees(500)}, s.CategoryBreakdown)

	last := s.DailyVolume[DailyWindow-1]
	assert.Equal(t, Rupees(500), last.Sent)
	assert.Equal(t, Money{}, last.Received)
	assert.Equal(t, Rupees(500), last.Total)
}

func TestAggregateFailedExcludedFromSums(t *testing.T) {
	s := Aggregate([]Transaction{
		tx("a", TypeSent, StatusFailed, 200, CategoryBills, statsNow),
	}, statsNow)

	assert.Equal(t, 1, s.TotalCount)
	assert.Equal(t, 1, s.FailedCount)
	assert.Equal(t, 0, s.SuccessCount)
	assert.True(t, s.TotalSent.IsZero())
	assert.True(t, s.TotalReceived.IsZero())
	assert.Empty(t, s.CategoryBreakdown)
	assert.Equal(t, "0.0", s.SuccessRate)
	for _, dv := range s.DailyVolume {
		assert.True(t, dv.Total.IsZero())
	}
}

func TestAggregateMixed(t *testing.T) {
	day := 24 * time.Hour
	txs := []Transaction{
		tx("1", TypeSent, StatusSuccess, 100, CategoryFood, statsNow.Add(-2*day)),
		tx("2", TypeSent, StatusSuccess, 250, CategoryFood, statsNow),
		tx("3", TypeSent, StatusSuccess, 75, CategoryBills, statsNow.Add(-6*day)),
		tx("4", TypeReceived, StatusSuccess, 1000, CategoryTransfer, statsNow.Add(-2*day)),
		tx("5", TypeSent, StatusPending, 999, CategoryShopping, statsNow),
		tx("6", TypeReceived, StatusFailed, 50, CategoryTransfer, statsNow),
		// outside the 7 day window but still part of the totals
		tx("7", TypeSent, StatusSuccess, 40, CategoryEntertainment, statsNow.Add(-7*day)),
		tx("8", TypeSent, StatusSuccess, 10, "", statsNow),
	}
	s := Aggregate(txs, statsNow)

	assert.Equal(t, 8, s.TotalCount)
	assert.Equal(t, 6, s.SuccessCount)
	assert.Equal(t, 1, s.FailedCount)
	assert.LessOrEqual(t, s.SuccessCount+s.FailedCount, s.TotalCount)
	assert.Equal(t, Rupees(475), s.TotalSent)
	assert.Equal(t, Rupees(1000), s.TotalReceived)
	assert.Equal(t, "75.0", s.SuccessRate)
	assert.Equal(t, map[string]Money{
		CategoryFood:          Rupees(350),
		CategoryBills:         Rupees(75),
		CategoryEntertainment: Rupees(40),
	}, s.CategoryBreakdown)

	var categorized Money
	for _, v := range s.CategoryBreakdown {
		categorized = categorized.Add(v)
	}
	assert.Equal(t, s.TotalSent, categorized.Add(Rupees(10)))

	assert.Equal(t, Rupees(75), s.DailyVolume[0].Sent)
	assert.Equal(t, Rupees(100), s.DailyVolume[4].Sent)
	assert.Equal(t, Rupees(1000), s.DailyVolume[4].Received)
	assert.Equal(t, Rupees(1100), s.DailyVolume[4].Total)
	assert.Equal(t, Rupees(260), s.DailyVolume[6].Sent)
	assert.True(t, s.DailyVolume[6].Received.IsZero())
}

func TestAggregateOrderIndependentAndIdempotent(t *testing.T) {
	txs := []Transaction{
		tx("1", TypeSent, StatusSuccess, 100, CategoryFood, statsNow.Add(-48*time.Hour)),
		tx("2", TypeReceived, StatusSuccess, 300, CategoryTransfer, statsNow),
		tx("3", TypeSent, StatusFailed, 20, CategoryBills, statsNow.Add(-24*time.Hour)),
	}
	reversed := []Transaction{txs[2], txs[1], txs[0]}

	first := Aggregate(txs, statsNow)
	assert.Equal(t, first, Aggregate(txs, statsNow))
	assert.Equal(t, first, Aggregate(reversed, statsNow))
}

func TestAggregateBucketsInLocationOfNow(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2025, 10, 17, 1, 0, 0, 0, ist)
	// 20:00 UTC on the 16th is 01:30 on the 17th in IST.
	late := time.Date(2025, 10, 16, 20, 0, 0, 0, time.UTC)

	s := Aggregate([]Transaction{tx("a", TypeSent, StatusSuccess, 10, CategoryFood, late)}, now)
	assert.Equal(t, "2025-10-17", s.DailyVolume[6].Date)
	assert.Equal(t, Rupees(10), s.DailyVolume[6].Sent)
	assert.True(t, s.DailyVolume[5].Sent.IsZero())
}

func TestAggregateWindowAcrossMonthBoundary(t *testing.T) {
	now := time.Date(2025, 3, 2, 8, 0, 0, 0, time.UTC)
	s := Aggregate(nil, now)
	labels := make([]string, 0, DailyWindow)
	for _, dv := range s.DailyVolume {
		labels = append(labels, dv.Label)
	}
	assert.Equal(t, []string{"Feb 24", "Feb 25", "Feb 26", "Feb 27", "Feb 28", "Mar 1", "Mar 2"}, labels)
}

func TestSuccessRateRoundsHalfUp(t *testing.T) {
	cases := []struct {
		success, total int
		want           string
	}{
		{1, 1, "100.0"},
		{2, 3, "66.7"},
		{1, 3, "33.3"},
		{1, 16, "6.3"}, // 6.25
		{1, 80, "1.3"}, // 1.25
		{0, 5, "0.0"},
		{45, 50, "90.0"},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d/%d", tc.success, tc.total), func(t *testing.T) {
			assert.Equal(t, tc.want, SuccessRate(tc.success, tc.total))
		})
	}
}

func TestRecentAndBreakdown(t *testing.T) {
	var txs []Transaction
	for i := 0; i < 15; i++ {
		txs = append(txs, tx(fmt.Sprintf("%02d", i), TypeSent, StatusSuccess, 1, CategoryFood, statsNow.Add(time.Duration(i)*time.Minute)))
	}
	recent := Recent(txs, 10)
	require.Len(t, recent, 10)
	assert.Equal(t, "14", recent[0].ID)
	assert.Equal(t, "05", recent[9].ID)
	assert.Equal(t, "00", txs[0].ID, "input must not be reordered")

	got := BreakdownByAmount(map[string]Money{"Food": Rupees(5), "Bills": Rupees(9), "Shopping": Rupees(5)})
	assert.Equal(t, []CategoryAmount{
		{Name: "Bills", Amount: Rupees(9)},
		{Name: "Food", Amount: Rupees(5)},
		{Name: "Shopping", Amount: Rupees(5)},
	}, got)
}
