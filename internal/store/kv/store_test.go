package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adiawaskar/smart-upi-poc/internal/core"
	"github.com/adiawaskar/smart-upi-poc/internal/store"
)

// mapBucket is an in-process Bucket.
type mapBucket struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapBucket() *mapBucket { return &mapBucket{data: map[string][]byte{}} }

func (b *mapBucket) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data[key], nil
}

func (b *mapBucket) Update(_ context.Context, key string, fn func([]byte) ([]byte, error)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	next, err := fn(b.data[key])
	if err != nil {
		return err
	}
	b.data[key] = next
	return nil
}

func (b *mapBucket) Ping(context.Context) error { return nil }
func (b *mapBucket) Close() error               { return nil }

func sentDraft(user string, rupees int64) core.TransactionDraft {
	return core.TransactionDraft{
		UserID:             user,
		Type:               core.TypeSent,
		Amount:             core.Rupees(rupees),
		Recipient:          "Alice Brown",
		RecipientAccountID: "user42@upi",
		Status:             core.StatusSuccess,
		Category:           core.CategoryShopping,
	}
}

func TestStoreKeepsDemoLayout(t *testing.T) {
	ctx := context.Background()
	bucket := newMapBucket()
	s := New(bucket)

	_, err := s.AppendTransaction(ctx, sentDraft("u1", 250))
	require.NoError(t, err)
	_, err = s.CreateUser(ctx, core.UserDraft{Email: "kiran@example.com", Name: "Kiran", Phone: "1", PasswordHash: "h"})
	require.NoError(t, err)

	var txs []map[string]any
	require.NoError(t, json.Unmarshal(bucket.data[TransactionsKey], &txs))
	require.Len(t, txs, 1)
	assert.Equal(t, "sent", txs[0]["type"])
	assert.Equal(t, 250.0, txs[0]["amount"])
	assert.Equal(t, "user42@upi", txs[0]["recipientAccountId"])

	var users map[string][]map[string]any
	require.NoError(t, json.Unmarshal(bucket.data[UsersKey], &users))
	require.Len(t, users["users"], 1)
	assert.Equal(t, "kiran@smartupi", users["users"][0]["paymentAddress"])
}

func TestStoreListFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	n := 0
	s := NewWithStamp(newMapBucket(), storeStamp(&n))

	a, _ := s.AppendTransaction(ctx, sentDraft("u1", 1))
	_, _ = s.AppendTransaction(ctx, sentDraft("u2", 2))
	c, _ := s.AppendTransaction(ctx, sentDraft("u1", 3))

	got, err := s.ListTransactions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, c.ID, got[0].ID)
	assert.Equal(t, a.ID, got[1].ID)
}

func TestStoreUsers(t *testing.T) {
	ctx := context.Background()
	s := New(newMapBucket())

	u, err := s.CreateUser(ctx, core.UserDraft{Email: "Meera@Example.com", Name: "Meera", Phone: "2", PasswordHash: "h"})
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, core.UserDraft{Email: "meera@example.com", Name: "M", Phone: "3", PasswordHash: "h"})
	assert.ErrorIs(t, err, core.ErrUserExists)

	got, err := s.FindUserByEmail(ctx, "MEERA@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "h", got.PasswordHash)

	got, err = s.FindUserByPaymentAddress(ctx, "meera@smartupi")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.FindUserByID(ctx, "nope")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStoreRejectsMalformedDocument(t *testing.T) {
	bucket := newMapBucket()
	bucket.data[TransactionsKey] = []byte(`[{"id":"x","userId":"u1","type":"bogus","amount":1,"status":"success"}]`)
	_, err := New(bucket).ListTransactions(context.Background(), "u1")
	assert.Error(t, err)
}

func TestStoreRejectsNonPositiveStoredAmount(t *testing.T) {
	bucket := newMapBucket()
	bucket.data[TransactionsKey] = []byte(`[{"id":"x","userId":"u1","type":"sent","amount":-5,"recipient":"Bob","recipientAccountId":"bob@smartupi","status":"success","timestamp":"2025-10-17T09:00:00Z","category":"Food"}]`)
	_, err := New(bucket).ListTransactions(context.Background(), "u1")
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}

func storeStamp(n *int) store.Stamp {
	base := time.Date(2025, 10, 17, 9, 0, 0, 0, time.UTC)
	return store.Stamp{
		Now: func() time.Time {
			*n++
			return base.Add(time.Duration(*n) * time.Minute)
		},
		NewID: func() string { return fmt.Sprintf("tx-%d", *n) },
	}
}
