package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrValidation      = errors.New("validation failed")
	ErrTooManyRequests = errors.New("too many requests")
)

var (
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
	ErrInvalidToken       = fmt.Errorf("invalid token: %w", ErrUnauthorized)
	ErrTokenRevoked       = fmt.Errorf("token has been revoked: %w", ErrUnauthorized)

	ErrUserNotFound        = fmt.Errorf("user %w", ErrNotFound)
	ErrEventNotFound       = fmt.Errorf("event %w", ErrNotFound)
	ErrParticipantNotFound = fmt.Errorf("participant %w", ErrNotFound)

	ErrEmailTaken              = fmt.Errorf("email already registered: %w", ErrConflict)
	ErrAlreadyParticipating    = fmt.Errorf("user already participates in this event: %w", ErrConflict)
	ErrTokenAlreadyBlacklisted = fmt.Errorf("token already blacklisted: %w", ErrConflict)

	ErrOwnerCannotJoin = fmt.Errorf("event creator cannot join their own event: %w", ErrForbidden)
	ErrNotEventOwner   = fmt.Errorf("only the event creator may modify it: %w", ErrForbidden)
	ErrCreatorMismatch = fmt.Errorf("events can only be created on your own behalf: %w", ErrForbidden)
	ErrNotSelf         = fmt.Errorf("you can only manage your own participation: %w", ErrForbidden)
)

// ValidationError carries one message per violated field.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func newValidationError(messages ...string) error {
	return &ValidationError{Messages: messages}
}

// LimitError reports that a user has exhausted the daily event quota.
type LimitError struct {
	Limit int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("Event creation limit exceeded: limit %d per day.", e.Limit)
}

func (e *LimitError) Unwrap() error {
	return ErrTooManyRequests
}

// isUniqueViolation reports whether err came from a unique index. gorm's
// translated error is checked first, then the raw driver errors.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
