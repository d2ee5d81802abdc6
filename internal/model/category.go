// Package model holds the wire and domain types shared across autobudget.
package model

import (
	"fmt"
	"time"
)

// TransactionType indicates whether a record is money going out or coming in.
// Categories are partitioned by the same type.
type TransactionType string

const (
	// TypeExpense marks outgoing money.
	TypeExpense TransactionType = "expense"
	// TypeIncome marks incoming money.
	TypeIncome TransactionType = "income"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	return t == TypeExpense || t == TypeIncome
}

// Other returns the opposite type.
func (t TransactionType) Other() TransactionType {
	if t == TypeIncome {
		return TypeExpense
	}
	return TypeIncome
}

// ParseTransactionType converts user input into a TransactionType.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(s)
	if !t.Valid() {
		return "", fmt.Errorf("invalid transaction type %q: must be %q or %q", s, TypeExpense, TypeIncome)
	}
	return t, nil
}

// Category is a user-defined bucket for expenses or income. Owned by the backend.
type Category struct {
	CreatedAt time.Time       `json:"created_at"`
	Name      string          `json:"name"`
	Type      TransactionType `json:"type"`
	ID        int             `json:"id"`
}

// CategoryInput is the request body for creating or replacing a category.
type CategoryInput struct {
	Name string          `json:"name"`
	Type TransactionType `json:"type"`
}

// CategoryPatch carries only the fields to change.
type CategoryPatch struct {
	Name *string          `json:"name,omitempty"`
	Type *TransactionType `json:"type,omitempty"`
}
