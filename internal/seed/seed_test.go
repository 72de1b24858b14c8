package seed

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adiawaskar/smart-upi-poc/internal/core"
	"github.com/adiawaskar/smart-upi-poc/internal/store/memory"
)

var seedNow = time.Date(2025, 10, 17, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return seedNow }

func TestTransactionsAreValidAndInRange(t *testing.T) {
	txs, err := NewGenerator(7, fixedNow).Transactions("u1", 0)
	require.NoError(t, err)
	require.Len(t, txs, DefaultCount)

	oldest := seedNow.AddDate(0, 0, -(HistoryDays - 1))
	ids := map[string]bool{}
	for i, tx := range txs {
		require.NoError(t, tx.Validate())
		assert.Equal(t, "u1", tx.UserID)
		assert.GreaterOrEqual(t, tx.Amount.Paise, core.Rupees(100).Paise)
		assert.LessOrEqual(t, tx.Amount.Paise, core.Rupees(5099).Paise)
		assert.True(t, strings.HasPrefix(tx.RecipientAccountID, "user"))
		assert.True(t, strings.HasSuffix(tx.RecipientAccountID, "@upi"))
		assert.Contains(t, Recipients, tx.Recipient)
		assert.True(t, core.IsCategory(tx.Category))
		assert.False(t, tx.Timestamp.After(seedNow))
		assert.False(t, tx.Timestamp.Before(oldest))
		if i > 0 {
			assert.False(t, tx.Timestamp.After(txs[i-1].Timestamp), "newest first")
		}
		assert.False(t, ids[tx.ID], "duplicate id %s", tx.ID)
		ids[tx.ID] = true
	}
}

func TestTransactionsAreDeterministic(t *testing.T) {
	a, err := NewGenerator(42, fixedNow).Transactions("u1", 20)
	require.NoError(t, err)
	b, err := NewGenerator(42, fixedNow).Transactions("u1", 20)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := NewGenerator(43, fixedNow).Transactions("u1", 20)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestMixLeansSentAndSuccessful(t *testing.T) {
	txs, err := NewGenerator(1, fixedNow).Transactions("u1", 2000)
	require.NoError(t, err)

	var sent, success int
	for _, tx := range txs {
		if tx.Type == core.TypeSent {
			sent++
		}
		if tx.Status == core.StatusSuccess {
			success++
		}
	}
	assert.InDelta(t, 0.6, float64(sent)/float64(len(txs)), 0.05)
	assert.InDelta(t, 0.9, float64(success)/float64(len(txs)), 0.03)
}

func TestPopulate(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	txs, err := NewGenerator(3, fixedNow).Populate(ctx, s, "u9", 12)
	require.NoError(t, err)

	stored, err := s.ListTransactions(ctx, "u9")
	require.NoError(t, err)
	assert.Equal(t, txs, stored)
}
