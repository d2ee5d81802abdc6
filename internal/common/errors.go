// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Backend errors.
	ErrNotFound     = errors.New("not found")
	ErrNoToken      = errors.New("no access token available")
	ErrUnauthorized = errors.New("unauthorized")

	// Import errors.
	ErrMalformedPreview = errors.New("malformed import preview")
	ErrEmptyBatch       = errors.New("no transactions to import")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// UserMessage returns the message meant for display. Errors that carry no
// user message fall back to their own text.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.UserMessage
	}
	switch {
	case errors.Is(err, ErrNoToken):
		return "Not authenticated. Run 'autobudget auth login' first."
	case errors.Is(err, ErrUnauthorized):
		return "The backend rejected your credentials. Run 'autobudget auth login' again."
	}
	return err.Error()
}
