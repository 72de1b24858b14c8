package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DailyWindow is the number of calendar days covered by Stats.DailyVolume.
const DailyWindow = 7

const dayLabelLayout = "Jan 2"

// Aggregate summarizes one user's transactions as of now. Input order does
// not matter. Days are bucketed by calendar date in now's location.
func Aggregate(txs []Transaction, now time.Time) Stats {
	stats := Stats{
		TotalCount:        len(txs),
		SuccessRate:       "0",
		CategoryBreakdown: make(map[string]Money),
		DailyVolume:       make([]DailyVolume, DailyWindow),
	}

	loc := now.Location()
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)
	dayIndex := make(map[string]int, DailyWindow)
	for i := range stats.DailyVolume {
		day := today.AddDate(0, 0, i-(DailyWindow-1))
		key := day.Format(time.DateOnly)
		stats.DailyVolume[i] = DailyVolume{Date: key, Label: day.Format(dayLabelLayout)}
		dayIndex[key] = i
	}

	for _, t := range txs {
		switch t.Status {
		case StatusSuccess:
			stats.SuccessCount++
		case StatusFailed:
			stats.FailedCount++
			continue
		case StatusPending:
			continue
		default:
			continue
		}

		bucket, inWindow := dayIndex[t.Timestamp.In(loc).Format(time.DateOnly)]
		switch t.Type {
		case TypeSent:
			stats.TotalSent = stats.TotalSent.Add(t.Amount)
			if t.Category != "" {
				stats.CategoryBreakdown[t.Category] = stats.CategoryBreakdown[t.Category].Add(t.Amount)
			}
			if inWindow {
				stats.DailyVolume[bucket].Sent = stats.DailyVolume[bucket].Sent.Add(t.Amount)
			}
		case TypeReceived:
			stats.TotalReceived = stats.TotalReceived.Add(t.Amount)
			if inWindow {
				stats.DailyVolume[bucket].Received = stats.DailyVolume[bucket].Received.Add(t.Amount)
			}
		}
	}

	for i := range stats.DailyVolume {
		dv := &stats.DailyVolume[i]
		dv.Total = dv.Sent.Add(dv.Received)
	}

	if stats.TotalCount > 0 {
		stats.SuccessRate = SuccessRate(stats.SuccessCount, stats.TotalCount)
	}
	return stats
}

// SuccessRate returns success/total as a percentage with one decimal,
// rounded half-up. Callers guarantee total > 0.
func SuccessRate(success, total int) string {
	pct := decimal.NewFromInt(int64(success)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total)))
	return pct.StringFixed(1)
}

// SortNewestFirst orders transactions by timestamp descending, breaking ties
// by id so the order is stable across stores.
func SortNewestFirst(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Timestamp.Equal(txs[j].Timestamp) {
			return txs[i].Timestamp.After(txs[j].Timestamp)
		}
		return txs[i].ID > txs[j].ID
	})
}

// Recent returns up to n of the newest transactions without modifying txs.
func Recent(txs []Transaction, n int) []Transaction {
	out := append([]Transaction(nil), txs...)
	SortNewestFirst(out)
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// BreakdownByAmount flattens a category breakdown, largest amount first.
func BreakdownByAmount(breakdown map[string]Money) []CategoryAmount {
	out := make([]CategoryAmount, 0, len(breakdown))
	for name, amount := range breakdown {
		out = append(out, CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Paise != out[j].Amount.Paise {
			return out[i].Amount.Paise > out[j].Amount.Paise
		}
		return out[i].Name < out[j].Name
	})
	return out
}
