package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/adiawaskar/smart-upi-poc/internal/cache"
	"github.com/adiawaskar/smart-upi-poc/internal/core"
	applog "github.com/adiawaskar/smart-upi-poc/internal/log"
	"github.com/adiawaskar/smart-upi-poc/internal/store"
)

// RecentLimit is how many records the dashboard shows.
const RecentLimit = 10

// Publisher announces stored transactions to other processes.
type Publisher interface {
	PublishTransactionCreated(ctx context.Context, t core.Transaction) error
}

// Seeder fills an empty history with demo records.
type Seeder interface {
	Populate(ctx context.Context, s store.TransactionImporter, userID string, n int) ([]core.Transaction, error)
}

// TransactionRepository is the slice of the record store the service needs.
type TransactionRepository interface {
	store.TransactionStore
	store.TransactionImporter
}

// SendMoneyRequest is the transfer form as submitted.
type SendMoneyRequest struct {
	Recipient          string
	RecipientAccountID string
	Amount             string
	Category           string
}

type TransactionServiceConfig struct {
	Store     TransactionRepository
	Publisher Publisher // optional
	// StatsCache holds per-user Stats. Nil disables caching.
	StatsCache *cache.Loading[core.Stats]
	// Seeder, when set, populates a user's first empty listing.
	Seeder    Seeder
	SeedCount int
	Now       func() time.Time
}

// TransactionService orchestrates transfers, listings and dashboard
// statistics across the record store, cache and event bus.
type TransactionService struct {
	store     TransactionRepository
	publisher Publisher
	stats     *cache.Loading[core.Stats]
	seeder    Seeder
	seedCount int
	now       func() time.Time

	seedMu sync.Mutex
}

func NewTransactionService(cfg TransactionServiceConfig) *TransactionService {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &TransactionService{
		store:     cfg.Store,
		publisher: cfg.Publisher,
		stats:     cfg.StatsCache,
		seeder:    cfg.Seeder,
		seedCount: cfg.SeedCount,
		now:       now,
	}
}

// ParseSendMoney validates the transfer form and builds a sent, successful
// draft for userID.
func ParseSendMoney(userID string, req SendMoneyRequest) (core.TransactionDraft, error) {
	if strings.TrimSpace(req.Recipient) == "" {
		return core.TransactionDraft{}, core.ErrEmptyRecipient
	}
	if strings.TrimSpace(req.RecipientAccountID) == "" {
		return core.TransactionDraft{}, core.ErrEmptyRecipientAddr
	}
	paise, err := core.ParseDecimalToPaise(req.Amount)
	if err != nil {
		return core.TransactionDraft{}, err
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = core.DefaultCategory
	}
	d := core.TransactionDraft{
		UserID:             userID,
		Type:               core.TypeSent,
		Amount:             core.Money{Paise: paise},
		Recipient:          req.Recipient,
		RecipientAccountID: req.RecipientAccountID,
		Status:             core.StatusSuccess,
		Category:           category,
	}
	if err := d.Validate(); err != nil {
		return core.TransactionDraft{}, err
	}
	return d, nil
}

// SendMoney saves a transfer and publishes it. The record is returned once it
// is stored; publish failures are logged only.
func (s *TransactionService) SendMoney(ctx context.Context, userID string, req SendMoneyRequest) (core.Transaction, error) {
	d, err := ParseSendMoney(userID, req)
	if err != nil {
		return core.Transaction{}, err
	}

	t, err := s.store.AppendTransaction(ctx, d)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.invalidate(userID)

	slog.InfoContext(ctx, "Transaction created", applog.NewFields().
		WithOperation(applog.OpCreate).
		WithUserID(userID).
		WithTransaction(t.ID, t.Type.String(), t.Status.String(), t.Amount.Paise, t.Category).
		ToSlice()...)

	if err := s.publish(ctx, t); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event", applog.NewFields().
			WithOperation(applog.OpPublish).
			WithTransactionID(t.ID).
			WithError(err).
			WithErrorType(applog.ErrorTypeNetwork).
			ToSlice()...)
	}
	return t, nil
}

func (s *TransactionService) publish(ctx context.Context, t core.Transaction) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No event publisher configured, skipping transaction event")
		return nil
	}
	return s.publisher.PublishTransactionCreated(ctx, t)
}

// List returns userID's records newest first. limit <= 0 returns all.
func (s *TransactionService) List(ctx context.Context, userID string, limit int) ([]core.Transaction, error) {
	txs, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return core.Recent(txs, limit), nil
}

// Stats aggregates userID's records as of the service clock.
func (s *TransactionService) Stats(ctx context.Context, userID string) (core.Stats, error) {
	if s.stats == nil {
		return s.computeStats(ctx, userID)
	}
	return s.stats.Get(ctx, userID, func(ctx context.Context) (core.Stats, error) {
		return s.computeStats(ctx, userID)
	})
}

func (s *TransactionService) computeStats(ctx context.Context, userID string) (core.Stats, error) {
	txs, err := s.load(ctx, userID)
	if err != nil {
		return core.Stats{}, err
	}
	return core.Aggregate(txs, s.now()), nil
}

// Dashboard returns the statistics, the category breakdown largest first and
// the most recent records.
func (s *TransactionService) Dashboard(ctx context.Context, userID string) (core.Dashboard, error) {
	stats, err := s.Stats(ctx, userID)
	if err != nil {
		return core.Dashboard{}, err
	}
	recent, err := s.List(ctx, userID, RecentLimit)
	if err != nil {
		return core.Dashboard{}, err
	}
	return core.Dashboard{
		Stats:      stats,
		Categories: core.BreakdownByAmount(stats.CategoryBreakdown),
		Recent:     recent,
	}, nil
}

func (s *TransactionService) invalidate(userID string) {
	if s.stats != nil {
		s.stats.Invalidate(userID)
	}
}

func (s *TransactionService) load(ctx context.Context, userID string) ([]core.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	if len(txs) > 0 || s.seeder == nil {
		return txs, nil
	}
	return s.seed(ctx, userID)
}

func (s *TransactionService) seed(ctx context.Context, userID string) ([]core.Transaction, error) {
	s.seedMu.Lock()
	defer s.seedMu.Unlock()

	// Another request may have seeded while we waited.
	txs, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	if len(txs) > 0 {
		return txs, nil
	}

	seeded, err := s.seeder.Populate(ctx, s.store, userID, s.seedCount)
	if err != nil {
		return nil, fmt.Errorf("seed demo transactions: %w", err)
	}
	slog.InfoContext(ctx, "Seeded demo transactions", applog.NewFields().
		WithOperation(applog.OpSeed).
		WithUserID(userID).
		WithCount(len(seeded)).
		ToSlice()...)
	return seeded, nil
}
