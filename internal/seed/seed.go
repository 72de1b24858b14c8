// Package seed generates demo transaction histories.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/adiawaskar/smart-upi-poc/internal/core"
	"github.com/adiawaskar/smart-upi-poc/internal/store"
)

const (
	DefaultCount = 50
	// HistoryDays is how far back generated records reach.
	HistoryDays = 30
)

// Recipients are the counterparties used in generated records.
var Recipients = []string{"John Doe", "Jane Smith", "Bob Wilson", "Alice Brown", "Charlie Davis"}

// Generator builds random but plausible transaction histories. The same seed
// and clock always produce the same records.
type Generator struct {
	rng *rand.Rand
	now func() time.Time
}

func NewGenerator(seed int64, now func() time.Time) *Generator {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Generator{rng: rand.New(rand.NewSource(seed)), now: now}
}

// Transactions returns n records for userID, newest first. n <= 0 yields
// DefaultCount records.
func (g *Generator) Transactions(userID string, n int) ([]core.Transaction, error) {
	if n <= 0 {
		n = DefaultCount
	}
	now := g.now()
	out := make([]core.Transaction, 0, n)
	for i := 0; i < n; i++ {
		t, err := g.transaction(userID, now)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	core.SortNewestFirst(out)
	return out, nil
}

func (g *Generator) transaction(userID string, now time.Time) (core.Transaction, error) {
	id, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("generate id: %w", err)
	}

	typ := core.TypeReceived
	if g.rng.Float64() > 0.4 {
		typ = core.TypeSent
	}

	d := core.TransactionDraft{
		UserID:             userID,
		Type:               typ,
		Amount:             core.Rupees(int64(g.rng.Intn(5000) + 100)),
		Recipient:          Recipients[g.rng.Intn(len(Recipients))],
		RecipientAccountID: fmt.Sprintf("user%03d@upi", g.rng.Intn(1000)),
		Status:             g.status(),
		Category:           core.Categories[g.rng.Intn(len(core.Categories))],
	}
	at := now.AddDate(0, 0, -g.rng.Intn(HistoryDays))
	return d.Record(id.String(), at), nil
}

func (g *Generator) status() core.TransactionStatus {
	if g.rng.Float64() > 0.1 {
		return core.StatusSuccess
	}
	if g.rng.Float64() > 0.5 {
		return core.StatusPending
	}
	return core.StatusFailed
}

// Populate generates n records for userID and imports them into s.
func (g *Generator) Populate(ctx context.Context, s store.TransactionImporter, userID string, n int) ([]core.Transaction, error) {
	txs, err := g.Transactions(userID, n)
	if err != nil {
		return nil, err
	}
	if err := s.ImportTransactions(ctx, txs); err != nil {
		return nil, fmt.Errorf("import demo transactions: %w", err)
	}
	return txs, nil
}
