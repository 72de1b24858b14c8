package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	TypeSent     TransactionType = "sent"
	TypeReceived TransactionType = "received"
)

const (
	StatusSuccess TransactionStatus = "success"
	StatusPending TransactionStatus = "pending"
	StatusFailed  TransactionStatus = "failed"
)

const (
	CategoryTransfer      = "Transfer"
	CategoryFood          = "Food"
	CategoryShopping      = "Shopping"
	CategoryBills         = "Bills"
	CategoryEntertainment = "Entertainment"

	// DefaultCategory is applied to transfers submitted without a category.
	DefaultCategory = CategoryTransfer
)

// PaymentDomain is the handle suffix of every registered payment address.
const PaymentDomain = "smartupi"

// Categories lists the labels accepted for new transactions, in form order.
var Categories = []string{
	CategoryTransfer,
	CategoryFood,
	CategoryShopping,
	CategoryBills,
	CategoryEntertainment,
}

type (
	TransactionType   string
	TransactionStatus string

	// Transaction is an immutable payment record owned by one user.
	Transaction struct {
		ID                 string            `json:"id"`
		UserID             string            `json:"userId"`
		Type               TransactionType   `json:"type"`
		Amount             Money             `json:"amount"`
		Recipient          string            `json:"recipient"`
		RecipientAccountID string            `json:"recipientAccountId"`
		Status             TransactionStatus `json:"status"`
		Timestamp          time.Time         `json:"timestamp"`
		Category           string            `json:"category"`
	}

	// TransactionDraft is a transaction before the store assigns its id and timestamp.
	TransactionDraft struct {
		UserID             string
		Type               TransactionType
		Amount             Money
		Recipient          string
		RecipientAccountID string
		Status             TransactionStatus
		Category           string
	}

	User struct {
		ID             string    `json:"id"`
		Email          string    `json:"email"`
		Name           string    `json:"name"`
		Phone          string    `json:"phone"`
		PaymentAddress string    `json:"paymentAddress"`
		CreatedAt      time.Time `json:"createdAt"`
		PasswordHash   string    `json:"-"`
	}

	// UserDraft carries registration data. The password is already hashed.
	UserDraft struct {
		Email        string
		Name         string
		Phone        string
		PasswordHash string
	}
)

func (t TransactionType) Valid() bool {
	switch t {
	case TypeSent, TypeReceived:
		return true
	}
	return false
}

func (t TransactionType) String() string { return string(t) }

// UnmarshalText rejects anything outside the closed set so malformed records
// are caught when they are decoded from a store.
func (t *TransactionType) UnmarshalText(b []byte) error {
	v, err := ParseTransactionType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
	return t, nil
}

func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusSuccess, StatusPending, StatusFailed:
		return true
	}
	return false
}

func (s TransactionStatus) String() string { return string(s) }

func (s *TransactionStatus) UnmarshalText(b []byte) error {
	v, err := ParseTransactionStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func ParseTransactionStatus(s string) (TransactionStatus, error) {
	st := TransactionStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// IsCategory reports whether c is one of the fixed category labels.
func IsCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func (d TransactionDraft) Validate() error {
	if strings.TrimSpace(d.UserID) == "" {
		return ErrEmptyUserID
	}
	if !d.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, d.Type)
	}
	if !d.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, d.Status)
	}
	if err := d.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(d.Recipient) == "" {
		return ErrEmptyRecipient
	}
	if strings.TrimSpace(d.RecipientAccountID) == "" {
		return ErrEmptyRecipientAddr
	}
	// Empty means uncategorized; anything else must be a known label.
	if d.Category != "" && !IsCategory(d.Category) {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, d.Category)
	}
	return nil
}

// Record turns a validated draft into a stored transaction.
func (d TransactionDraft) Record(id string, at time.Time) Transaction {
	return Transaction{
		ID:                 id,
		UserID:             d.UserID,
		Type:               d.Type,
		Amount:             d.Amount,
		Recipient:          strings.TrimSpace(d.Recipient),
		RecipientAccountID: strings.TrimSpace(d.RecipientAccountID),
		Status:             d.Status,
		Timestamp:          at,
		Category:           d.Category,
	}
}

// Draft strips the store-assigned fields so a complete record can be
// validated with the same rules as a new one.
func (t Transaction) Draft() TransactionDraft {
	return TransactionDraft{
		UserID:             t.UserID,
		Type:               t.Type,
		Amount:             t.Amount,
		Recipient:          t.Recipient,
		RecipientAccountID: t.RecipientAccountID,
		Status:             t.Status,
		Category:           t.Category,
	}
}

// Validate checks a complete record, including its id and timestamp.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("%w: transaction id is required", ErrValidation)
	}
	if t.Timestamp.IsZero() {
		return fmt.Errorf("%w: transaction timestamp is required", ErrValidation)
	}
	return t.Draft().Validate()
}

// NormalizeEmail trims and lower-cases an address so it can be used as a key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PaymentAddress derives the UPI-style handle for an email, e.g.
// "asha@example.com" becomes "asha@smartupi".
func PaymentAddress(email string) string {
	local, _, _ := strings.Cut(NormalizeEmail(email), "@")
	return local + "@" + PaymentDomain
}

func (u UserDraft) Validate() error {
	email := NormalizeEmail(u.Email)
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" || strings.ContainsAny(email, " \t") {
		return ErrInvalidEmail
	}
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(u.Phone) == "" {
		return ErrEmptyPhone
	}
	if u.PasswordHash == "" {
		return ErrEmptyPasswordHash
	}
	return nil
}

// Record turns a validated draft into a stored user.
func (u UserDraft) Record(id string, at time.Time) User {
	return User{
		ID:             id,
		Email:          NormalizeEmail(u.Email),
		Name:           strings.TrimSpace(u.Name),
		Phone:          strings.TrimSpace(u.Phone),
		PaymentAddress: PaymentAddress(u.Email),
		CreatedAt:      at,
		PasswordHash:   u.PasswordHash,
	}
}
