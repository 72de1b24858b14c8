// Package kv keeps the record store as JSON documents under two fixed keys,
// the same layout the browser demo used in local storage.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adiawaskar/smart-upi-poc/internal/core"
	"github.com/adiawaskar/smart-upi-poc/internal/store"
)

const (
	TransactionsKey = "smart_upi_transactions"
	UsersKey        = "smart_upi_users"
)

// usersDoc is the value stored under UsersKey.
type usersDoc struct {
	Users []userRecord `json:"users"`
}

type userRecord struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	PaymentAddress string    `json:"paymentAddress"`
	CreatedAt      time.Time `json:"createdAt"`
	PasswordHash   string    `json:"passwordHash"`
}

func (r userRecord) user() core.User {
	return core.User{
		ID:             r.ID,
		Email:          r.Email,
		Name:           r.Name,
		Phone:          r.Phone,
		PaymentAddress: r.PaymentAddress,
		CreatedAt:      r.CreatedAt,
		PasswordHash:   r.PasswordHash,
	}
}

func recordOf(u core.User) userRecord {
	return userRecord{
		ID:             u.ID,
		Email:          u.Email,
		Name:           u.Name,
		Phone:          u.Phone,
		PaymentAddress: u.PaymentAddress,
		CreatedAt:      u.CreatedAt,
		PasswordHash:   u.PasswordHash,
	}
}

type Store struct {
	bucket Bucket
	stamp  store.Stamp
}

var _ store.Store = (*Store)(nil)

func New(bucket Bucket) *Store {
	return NewWithStamp(bucket, store.DefaultStamp())
}

func NewWithStamp(bucket Bucket, stamp store.Stamp) *Store {
	return &Store{bucket: bucket, stamp: stamp}
}

func (s *Store) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	all, err := s.loadTransactions(ctx)
	if err != nil {
		return nil, err
	}
	var out []core.Transaction
	for _, t := range all {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	core.SortNewestFirst(out)
	return out, nil
}

func (s *Store) AppendTransaction(ctx context.Context, d core.TransactionDraft) (core.Transaction, error) {
	if err := d.Validate(); err != nil {
		return core.Transaction{}, err
	}
	var stored core.Transaction
	err := s.bucket.Update(ctx, TransactionsKey, func(cur []byte) ([]byte, error) {
		all, err := decodeTransactions(cur)
		if err != nil {
			return nil, err
		}
		id, at := s.stamp.Next()
		stored = d.Record(id, at)
		return json.Marshal(append(all, stored))
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("append transaction: %w", err)
	}
	return stored, nil
}

func (s *Store) ImportTransactions(ctx context.Context, txs []core.Transaction) error {
	for _, t := range txs {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("import %s: %w", t.ID, err)
		}
	}
	err := s.bucket.Update(ctx, TransactionsKey, func(cur []byte) ([]byte, error) {
		all, err := decodeTransactions(cur)
		if err != nil {
			return nil, err
		}
		return json.Marshal(append(all, txs...))
	})
	if err != nil {
		return fmt.Errorf("import transactions: %w", err)
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, d core.UserDraft) (core.User, error) {
	if err := d.Validate(); err != nil {
		return core.User{}, err
	}
	email := core.NormalizeEmail(d.Email)
	var created core.User
	err := s.bucket.Update(ctx, UsersKey, func(cur []byte) ([]byte, error) {
		doc, err := decodeUsers(cur)
		if err != nil {
			return nil, err
		}
		for _, r := range doc.Users {
			if r.Email == email {
				return nil, core.ErrUserExists
			}
		}
		id, at := s.stamp.Next()
		created = d.Record(id, at)
		doc.Users = append(doc.Users, recordOf(created))
		return json.Marshal(doc)
	})
	if errors.Is(err, core.ErrUserExists) {
		return core.User{}, err
	}
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (core.User, error) {
	email = core.NormalizeEmail(email)
	return s.findUser(ctx, "email "+email, func(r userRecord) bool { return r.Email == email })
}

func (s *Store) FindUserByID(ctx context.Context, id string) (core.User, error) {
	return s.findUser(ctx, "id "+id, func(r userRecord) bool { return r.ID == id })
}

func (s *Store) FindUserByPaymentAddress(ctx context.Context, address string) (core.User, error) {
	address = strings.ToLower(strings.TrimSpace(address))
	return s.findUser(ctx, "address "+address, func(r userRecord) bool { return r.PaymentAddress == address })
}

// findUser returns the earliest registered user matching.
func (s *Store) findUser(ctx context.Context, what string, match func(userRecord) bool) (core.User, error) {
	raw, err := s.bucket.Get(ctx, UsersKey)
	if err != nil {
		return core.User{}, err
	}
	doc, err := decodeUsers(raw)
	if err != nil {
		return core.User{}, err
	}
	for _, r := range doc.Users {
		if match(r) {
			return r.user(), nil
		}
	}
	return core.User{}, fmt.Errorf("%s: %w", what, core.ErrUserNotFound)
}

func (s *Store) loadTransactions(ctx context.Context) ([]core.Transaction, error) {
	raw, err := s.bucket.Get(ctx, TransactionsKey)
	if err != nil {
		return nil, err
	}
	return decodeTransactions(raw)
}

func (s *Store) Ping(ctx context.Context) error { return s.bucket.Ping(ctx) }

func (s *Store) Close() error { return s.bucket.Close() }

func decodeTransactions(raw []byte) ([]core.Transaction, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var all []core.Transaction
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, fmt.Errorf("decode %s: %w", TransactionsKey, err)
	}
	for _, t := range all {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("decode %s: transaction %s: %w", TransactionsKey, t.ID, err)
		}
	}
	return all, nil
}

func decodeUsers(raw []byte) (usersDoc, error) {
	var doc usersDoc
	if len(raw) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("decode %s: %w", UsersKey, err)
	}
	return doc, nil
}
