// Package memory is an in-process record store, used for development and tests.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/adiawaskar/smart-upi-poc/internal/core"
	"github.com/adiawaskar/smart-upi-poc/internal/store"
)

type Store struct {
	mu      sync.Mutex
	stamp   store.Stamp
	txs     []core.Transaction
	users   map[string]core.User // by id
	byEmail map[string]string    // email -> id
	byAddr  map[string]string    // payment address -> id
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return NewWithStamp(store.DefaultStamp())
}

// NewWithStamp lets tests pin ids and timestamps.
func NewWithStamp(stamp store.Stamp) *Store {
	return &Store{
		stamp:   stamp,
		users:   map[string]core.User{},
		byEmail: map[string]string{},
		byAddr:  map[string]string{},
	}
}

func (s *Store) ListTransactions(_ context.Context, userID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.txs {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	core.SortNewestFirst(out)
	return out, nil
}

func (s *Store) AppendTransaction(_ context.Context, d core.TransactionDraft) (core.Transaction, error) {
	if err := d.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, at := s.stamp.Next()
	t := d.Record(id, at)
	s.txs = append(s.txs, t)
	return t, nil
}

func (s *Store) ImportTransactions(_ context.Context, txs []core.Transaction) error {
	for _, t := range txs {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("import %s: %w", t.ID, err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = append(s.txs, txs...)
	return nil
}

func (s *Store) CreateUser(_ context.Context, d core.UserDraft) (core.User, error) {
	if err := d.Validate(); err != nil {
		return core.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	email := core.NormalizeEmail(d.Email)
	if _, ok := s.byEmail[email]; ok {
		return core.User{}, core.ErrUserExists
	}
	id, at := s.stamp.Next()
	u := d.Record(id, at)
	s.users[u.ID] = u
	s.byEmail[u.Email] = u.ID
	// First registration keeps the address when two emails share a local part.
	if _, taken := s.byAddr[u.PaymentAddress]; !taken {
		s.byAddr[u.PaymentAddress] = u.ID
	}
	return u, nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(s.byEmail, core.NormalizeEmail(email))
}

func (s *Store) FindUserByPaymentAddress(_ context.Context, address string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(s.byAddr, strings.ToLower(strings.TrimSpace(address)))
}

func (s *Store) FindUserByID(_ context.Context, id string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, fmt.Errorf("id %q: %w", id, core.ErrUserNotFound)
	}
	return u, nil
}

func (s *Store) lookup(index map[string]string, key string) (core.User, error) {
	id, ok := index[key]
	if !ok {
		return core.User{}, fmt.Errorf("%q: %w", key, core.ErrUserNotFound)
	}
	return s.users[id], nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
