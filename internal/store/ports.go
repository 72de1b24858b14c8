// Package store defines the record store ports shared by every persistence
// backend.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/adiawaskar/smart-upi-poc/internal/core"
)

// Ports for outbound adapters.
type (
	TransactionLister interface {
		// ListTransactions returns every record owned by userID, newest first.
		ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
	}

	TransactionAppender interface {
		// AppendTransaction assigns a fresh id and timestamp and persists the record.
		AppendTransaction(ctx context.Context, d core.TransactionDraft) (core.Transaction, error)
	}

	TransactionImporter interface {
		// ImportTransactions persists complete records, keeping their ids and
		// timestamps. Used for demo data and backfills.
		ImportTransactions(ctx context.Context, txs []core.Transaction) error
	}

	TransactionStore interface {
		TransactionLister
		TransactionAppender
	}

	UserFinder interface {
		FindUserByEmail(ctx context.Context, email string) (core.User, error)
		FindUserByID(ctx context.Context, id string) (core.User, error)
		FindUserByPaymentAddress(ctx context.Context, address string) (core.User, error)
	}

	UserCreator interface {
		// CreateUser fails with core.ErrUserExists when the email is taken.
		CreateUser(ctx context.Context, d core.UserDraft) (core.User, error)
	}

	UserStore interface {
		UserFinder
		UserCreator
	}

	// Store is the full record store a backend provides.
	Store interface {
		TransactionStore
		TransactionImporter
		UserStore
		Ping(ctx context.Context) error
		Close() error
	}
)

// Stamp hands out identifiers and creation times for new records.
type Stamp struct {
	Now   func() time.Time
	NewID func() string
}

// DefaultStamp uses random UUIDs and the UTC wall clock.
func DefaultStamp() Stamp {
	return Stamp{
		Now:   func() time.Time { return time.Now().UTC() },
		NewID: uuid.NewString,
	}
}

// Next returns a new id and timestamp, filling in defaults for unset fields.
func (s Stamp) Next() (string, time.Time) {
	d := DefaultStamp()
	if s.Now == nil {
		s.Now = d.Now
	}
	if s.NewID == nil {
		s.NewID = d.NewID
	}
	return s.NewID(), s.Now()
}
