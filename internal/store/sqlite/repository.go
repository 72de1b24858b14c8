// Package sqlite stores users and transactions in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/adiawaskar/smart-upi-poc/internal/core"
	"github.com/adiawaskar/smart-upi-poc/internal/store"
)

// Fixed width so lexical order matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const (
	transactionColumns = `id, user_id, type, amount_paise, recipient, recipient_account_id, status, category, created_at`
	userColumns        = `id, email, name, phone, payment_address, password_hash, created_at`
)

type Repository struct {
	db    *sql.DB
	stamp store.Stamp
}

var _ store.Store = (*Repository)(nil)

func dsn(path string) string {
	return path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// NewRepository opens (creating if needed) the database at dbPath and applies
// pending migrations.
func NewRepository(dbPath string) (*Repository, error) {
	return NewRepositoryWithStamp(dbPath, store.DefaultStamp())
}

func NewRepositoryWithStamp(dbPath string, stamp store.Stamp) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer; serializing here avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, stamp: stamp}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) AppendTransaction(ctx context.Context, d core.TransactionDraft) (core.Transaction, error) {
	if err := d.Validate(); err != nil {
		return core.Transaction{}, err
	}
	id, at := r.stamp.Next()
	t := d.Record(id, at.UTC())

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, string(t.Type), t.Amount.Paise, t.Recipient, t.RecipientAccountID,
		string(t.Status), t.Category, t.Timestamp.Format(timeLayout))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"user_id", t.UserID,
		"amount_paise", t.Amount.Paise)
	return t, nil
}

// ImportTransactions inserts complete records in one database transaction.
func (r *Repository) ImportTransactions(ctx context.Context, txs []core.Transaction) error {
	for _, t := range txs {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("import %s: %w", t.ID, err)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare import: %w", err)
	}
	defer stmt.Close()

	for _, t := range txs {
		_, err := stmt.ExecContext(ctx,
			t.ID, t.UserID, string(t.Type), t.Amount.Paise, t.Recipient, t.RecipientAccountID,
			string(t.Status), t.Category, t.Timestamp.UTC().Format(timeLayout))
		if err != nil {
			return fmt.Errorf("import transaction %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	slog.DebugContext(ctx, "Imported transactions into SQLite", "count", len(txs))
	return nil
}

func (r *Repository) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *Repository) CreateUser(ctx context.Context, d core.UserDraft) (core.User, error) {
	if err := d.Validate(); err != nil {
		return core.User{}, err
	}
	id, at := r.stamp.Next()
	u := d.Record(id, at.UTC())

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.Phone, u.PaymentAddress, u.PasswordHash, u.CreatedAt.Format(timeLayout))
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, core.ErrUserExists
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (r *Repository) FindUserByEmail(ctx context.Context, email string) (core.User, error) {
	return r.findUser(ctx, "email", core.NormalizeEmail(email))
}

func (r *Repository) FindUserByID(ctx context.Context, id string) (core.User, error) {
	return r.findUser(ctx, "id", id)
}

func (r *Repository) FindUserByPaymentAddress(ctx context.Context, address string) (core.User, error) {
	return r.findUser(ctx, "payment_address", strings.ToLower(strings.TrimSpace(address)))
}

// findUser looks a user up by one of a fixed set of columns.
func (r *Repository) findUser(ctx context.Context, column, value string) (core.User, error) {
	// column is never user supplied
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = ? ORDER BY created_at LIMIT 1`, value)

	var (
		u       core.User
		created string
	)
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Phone, &u.PaymentAddress, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, fmt.Errorf("%s %q: %w", column, value, core.ErrUserNotFound)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("query user: %w", err)
	}
	if u.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return core.User{}, fmt.Errorf("parse user created_at: %w", err)
	}
	return u, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		t           core.Transaction
		typ, status string
		created     string
		amount      int64
	)
	if err := s.Scan(&t.ID, &t.UserID, &typ, &amount, &t.Recipient, &t.RecipientAccountID, &status, &t.Category, &created); err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	var err error
	if t.Type, err = core.ParseTransactionType(typ); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", t.ID, err)
	}
	if t.Status, err = core.ParseTransactionStatus(status); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", t.ID, err)
	}
	if t.Timestamp, err = time.Parse(timeLayout, created); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: parse created_at: %w", t.ID, err)
	}
	t.Amount = core.Money{Paise: amount}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", t.ID, err)
	}
	return t, nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
