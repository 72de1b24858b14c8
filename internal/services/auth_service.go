package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/adiawaskar/smart-upi-poc/internal/auth"
	"github.com/adiawaskar/smart-upi-poc/internal/core"
	applog "github.com/adiawaskar/smart-upi-poc/internal/log"
	"github.com/adiawaskar/smart-upi-poc/internal/store"
)

var (
	ErrPasswordRequired = fmt.Errorf("%w: password is required", core.ErrValidation)
	ErrPasswordTooShort = fmt.Errorf("%w: password must be at least %d characters", core.ErrValidation, auth.MinPasswordLength)
	ErrPasswordTooLong  = fmt.Errorf("%w: password must be at most %d bytes", core.ErrValidation, auth.MaxPasswordBytes)
	ErrInvalidPassword  = fmt.Errorf("%w: invalid password", core.ErrInvalidCredentials)
)

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(userID string) (string, time.Time, error)
}

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type RegisterRequest struct {
	Email    string
	Password string
	Name     string
	Phone    string
}

// Session is a signed-in user and their bearer token.
type Session struct {
	User      core.User `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type AuthService struct {
	users  store.UserStore
	hasher PasswordHasher
	tokens TokenIssuer
}

func NewAuthService(users store.UserStore, hasher PasswordHasher, tokens TokenIssuer) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens}
}

// Register creates an account and signs it in.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (Session, error) {
	draft := core.UserDraft{Email: req.Email, Name: req.Name, Phone: req.Phone, PasswordHash: "pending"}
	if err := draft.Validate(); err != nil {
		return Session{}, err
	}
	if req.Password == "" {
		return Session{}, ErrPasswordRequired
	}
	if len(req.Password) < auth.MinPasswordLength {
		return Session{}, ErrPasswordTooShort
	}
	if len(req.Password) > auth.MaxPasswordBytes {
		return Session{}, ErrPasswordTooLong
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return Session{}, err
	}
	draft.PasswordHash = hash

	u, err := s.users.CreateUser(ctx, draft)
	if err != nil {
		if errors.Is(err, core.ErrConflict) {
			return Session{}, err
		}
		return Session{}, fmt.Errorf("create user: %w", err)
	}
	slog.InfoContext(ctx, "User registered", applog.NewFields().
		WithOperation(applog.OpRegister).
		WithUserID(u.ID).
		ToSlice()...)
	return s.session(u)
}

// Login checks the credentials and signs the user in.
func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	if strings.TrimSpace(email) == "" {
		return Session{}, core.ErrInvalidEmail
	}
	if password == "" {
		return Session{}, ErrPasswordRequired
	}

	u, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		return Session{}, err
	}
	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			slog.WarnContext(ctx, "Login rejected", applog.NewFields().
				WithOperation(applog.OpLogin).
				WithUserID(u.ID).
				WithErrorType(applog.ErrorTypeAuth).
				ToSlice()...)
			return Session{}, ErrInvalidPassword
		}
		return Session{}, fmt.Errorf("compare password: %w", err)
	}
	return s.session(u)
}

// Me returns the account behind an authenticated user id.
func (s *AuthService) Me(ctx context.Context, userID string) (core.User, error) {
	return s.users.FindUserByID(ctx, userID)
}

func (s *AuthService) session(u core.User) (Session, error) {
	tok, exp, err := s.tokens.Issue(u.ID)
	if err != nil {
		return Session{}, err
	}
	return Session{User: u, Token: tok, ExpiresAt: exp}, nil
}
