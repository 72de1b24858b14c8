package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/adiawaskar/smart-upi-poc/internal/core"
)

func TestTransactionDocRoundTrip(t *testing.T) {
	in := core.Transaction{
		ID:                 "t1",
		UserID:             "u1",
		Type:               core.TypeReceived,
		Amount:             core.Money{Paise: 4599},
		Recipient:          "Charlie Davis",
		RecipientAccountID: "user7@upi",
		Status:             core.StatusPending,
		Timestamp:          time.Date(2025, 10, 17, 10, 0, 0, 0, time.UTC),
		Category:           core.CategoryEntertainment,
	}

	raw, err := bson.Marshal(toTransactionDoc(in))
	require.NoError(t, err)

	var doc transactionDoc
	require.NoError(t, bson.Unmarshal(raw, &doc))
	assert.Equal(t, "t1", doc.ID)
	assert.Equal(t, int64(4599), doc.AmountPaise)

	out, err := doc.transaction()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestTransactionDocRejectsUnknownStatus(t *testing.T) {
	_, err := transactionDoc{ID: "x", Type: "sent", Status: "reversed"}.transaction()
	assert.ErrorIs(t, err, core.ErrInvalidStatus)
}

func TestTransactionDocRejectsNonPositiveAmount(t *testing.T) {
	_, err := transactionDoc{
		ID:                 "x",
		UserID:             "u1",
		Type:               "sent",
		Status:             "success",
		Recipient:          "Bob",
		RecipientAccountID: "bob@smartupi",
		Timestamp:          time.Date(2025, 10, 17, 9, 0, 0, 0, time.UTC),
	}.transaction()
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}

func TestUserDocKeepsPasswordHash(t *testing.T) {
	u := core.User{ID: "u1", Email: "a@b.c", PaymentAddress: "a@smartupi", PasswordHash: "bcrypt", CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	raw, err := bson.Marshal(toUserDoc(u))
	require.NoError(t, err)

	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))
	assert.Equal(t, "bcrypt", m["password_hash"])
	assert.Equal(t, "u1", m["_id"])

	var d userDoc
	require.NoError(t, bson.Unmarshal(raw, &d))
	assert.Equal(t, u, d.user())
}
