// Package mongo stores users and transactions as MongoDB documents.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/adiawaskar/smart-upi-poc/internal/core"
	"github.com/adiawaskar/smart-upi-poc/internal/store"
)

const (
	transactionsCollection = "transactions"
	usersCollection        = "users"
)

type transactionDoc struct {
	ID                 string    `bson:"_id"`
	UserID             string    `bson:"user_id"`
	Type               string    `bson:"type"`
	AmountPaise        int64     `bson:"amount_paise"`
	Recipient          string    `bson:"recipient"`
	RecipientAccountID string    `bson:"recipient_account_id"`
	Status             string    `bson:"status"`
	Category           string    `bson:"category"`
	Timestamp          time.Time `bson:"timestamp"`
}

type userDoc struct {
	ID             string    `bson:"_id"`
	Email          string    `bson:"email"`
	Name           string    `bson:"name"`
	Phone          string    `bson:"phone"`
	PaymentAddress string    `bson:"payment_address"`
	PasswordHash   string    `bson:"password_hash"`
	CreatedAt      time.Time `bson:"created_at"`
}

func toTransactionDoc(t core.Transaction) transactionDoc {
	return transactionDoc{
		ID:                 t.ID,
		UserID:             t.UserID,
		Type:               string(t.Type),
		AmountPaise:        t.Amount.Paise,
		Recipient:          t.Recipient,
		RecipientAccountID: t.RecipientAccountID,
		Status:             string(t.Status),
		Category:           t.Category,
		Timestamp:          t.Timestamp,
	}
}

func (d transactionDoc) transaction() (core.Transaction, error) {
	typ, err := core.ParseTransactionType(d.Type)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", d.ID, err)
	}
	status, err := core.ParseTransactionStatus(d.Status)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", d.ID, err)
	}
	t := core.Transaction{
		ID:                 d.ID,
		UserID:             d.UserID,
		Type:               typ,
		Amount:             core.Money{Paise: d.AmountPaise},
		Recipient:          d.Recipient,
		RecipientAccountID: d.RecipientAccountID,
		Status:             status,
		Timestamp:          d.Timestamp.UTC(),
		Category:           d.Category,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", d.ID, err)
	}
	return t, nil
}

func toUserDoc(u core.User) userDoc {
	return userDoc{
		ID:             u.ID,
		Email:          u.Email,
		Name:           u.Name,
		Phone:          u.Phone,
		PaymentAddress: u.PaymentAddress,
		PasswordHash:   u.PasswordHash,
		CreatedAt:      u.CreatedAt,
	}
}

func (d userDoc) user() core.User {
	return core.User{
		ID:             d.ID,
		Email:          d.Email,
		Name:           d.Name,
		Phone:          d.Phone,
		PaymentAddress: d.PaymentAddress,
		PasswordHash:   d.PasswordHash,
		CreatedAt:      d.CreatedAt.UTC(),
	}
}

type Store struct {
	client *mongo.Client
	txs    *mongo.Collection
	users  *mongo.Collection
	stamp  store.Stamp
}

var _ store.Store = (*Store)(nil)

// Connect dials uri, verifies the connection and ensures indexes exist.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	timeout := 5 * time.Second
	opts := options.Client().ApplyURI(uri).SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	s := New(client, database, store.DefaultStamp())
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func New(client *mongo.Client, database string, stamp store.Stamp) *Store {
	db := client.Database(database)
	return &Store{
		client: client,
		txs:    db.Collection(transactionsCollection),
		users:  db.Collection(usersCollection),
		stamp:  stamp,
	}
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "payment_address", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	_, err = s.txs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create transaction indexes: %w", err)
	}
	return nil
}

func (s *Store) AppendTransaction(ctx context.Context, d core.TransactionDraft) (core.Transaction, error) {
	if err := d.Validate(); err != nil {
		return core.Transaction{}, err
	}
	id, at := s.stamp.Next()
	// BSON dates carry millisecond precision.
	t := d.Record(id, at.UTC().Truncate(time.Millisecond))
	if _, err := s.txs.InsertOne(ctx, toTransactionDoc(t)); err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return t, nil
}

func (s *Store) ImportTransactions(ctx context.Context, txs []core.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	docs := make([]any, 0, len(txs))
	for _, t := range txs {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("import %s: %w", t.ID, err)
		}
		t.Timestamp = t.Timestamp.UTC().Truncate(time.Millisecond)
		docs = append(docs, toTransactionDoc(t))
	}
	if _, err := s.txs.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("import transactions: %w", err)
	}
	return nil
}

func (s *Store) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.txs.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	var docs []transactionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(docs))
	for _, d := range docs {
		t, err := d.transaction()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) CreateUser(ctx context.Context, d core.UserDraft) (core.User, error) {
	if err := d.Validate(); err != nil {
		return core.User{}, err
	}
	id, at := s.stamp.Next()
	u := d.Record(id, at.UTC().Truncate(time.Millisecond))
	if _, err := s.users.InsertOne(ctx, toUserDoc(u)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return core.User{}, core.ErrUserExists
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (core.User, error) {
	return s.findUser(ctx, bson.M{"email": core.NormalizeEmail(email)})
}

func (s *Store) FindUserByID(ctx context.Context, id string) (core.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *Store) FindUserByPaymentAddress(ctx context.Context, address string) (core.User, error) {
	return s.findUser(ctx, bson.M{"payment_address": strings.ToLower(strings.TrimSpace(address))})
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (core.User, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}})
	var d userDoc
	err := s.users.FindOne(ctx, filter, opts).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.User{}, fmt.Errorf("%v: %w", filter, core.ErrUserNotFound)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("find user: %w", err)
	}
	return d.user(), nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
