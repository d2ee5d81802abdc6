// Package storage persists import sessions between preview and save.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/autobudget/internal/common"
	"github.com/Veraticus/autobudget/internal/model"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrNilParameter    = errors.New("parameter cannot be nil")
	ErrInvalidRow      = errors.New("invalid import row")
	ErrSessionNotFound = fmt.Errorf("import session %w", common.ErrNotFound)

	// ErrMalformedSession means stored rows no longer form a valid preview.
	ErrMalformedSession = errors.New("malformed import session")
)

// RowError points at the 1-based row of a session that failed validation.
type RowError struct {
	Err error
	Row int
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// requireValue rejects blank identifiers and paths.
func requireValue(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, name)
	}
	return nil
}

// validateRow checks the fields the review screen depends on.
func validateRow(txn model.ImportedTransaction) error {
	if !txn.Type.Valid() {
		return fmt.Errorf("%w: type %q", ErrInvalidRow, txn.Type)
	}
	if txn.CategoryID != nil && *txn.CategoryID <= 0 {
		return fmt.Errorf("%w: category id %d", ErrInvalidRow, *txn.CategoryID)
	}
	return nil
}

// validateSession checks a session before it is written.
func validateSession(session *model.ImportSession) error {
	if session == nil {
		return fmt.Errorf("%w: session", ErrNilParameter)
	}
	for i, txn := range session.Preview.Transactions {
		if err := validateRow(txn); err != nil {
			return &RowError{Row: i + 1, Err: err}
		}
	}
	return nil
}
