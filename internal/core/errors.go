package core

import (
	"errors"
	"fmt"
)

// Error kinds. Concrete errors wrap one of these so boundaries can classify
// them with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

var (
	ErrInvalidAmount      = fmt.Errorf("%w: amount must be greater than zero", ErrValidation)
	ErrInvalidType        = fmt.Errorf("%w: unknown transaction type", ErrValidation)
	ErrInvalidStatus      = fmt.Errorf("%w: unknown transaction status", ErrValidation)
	ErrInvalidCategory    = fmt.Errorf("%w: unknown category", ErrValidation)
	ErrEmptyRecipient     = fmt.Errorf("%w: recipient is required", ErrValidation)
	ErrEmptyRecipientAddr = fmt.Errorf("%w: recipient account id is required", ErrValidation)
	ErrEmptyUserID        = fmt.Errorf("%w: user id is required", ErrValidation)
	ErrInvalidEmail       = fmt.Errorf("%w: invalid email", ErrValidation)
	ErrEmptyName          = fmt.Errorf("%w: name is required", ErrValidation)
	ErrEmptyPhone         = fmt.Errorf("%w: phone is required", ErrValidation)
	ErrEmptyPasswordHash  = fmt.Errorf("%w: password hash is required", ErrValidation)
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrUserExists         = fmt.Errorf("%w: user already exists", ErrConflict)
)
