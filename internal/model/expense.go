package model

import "time"

// Expense is a persisted expense or income record.
type Expense struct {
	CategoryID  *int            `json:"category_id"`
	Category    *Category       `json:"category"`
	Type        TransactionType `json:"type"`
	ExpenseDate string          `json:"expense_date"`
	Description string          `json:"description,omitempty"`
	Amount      float64         `json:"amount"`
	ID          int             `json:"id"`
}

// CategoryName returns the attached category's name or an empty string.
func (e Expense) CategoryName() string {
	if e.Category == nil {
		return ""
	}
	return e.Category.Name
}

// ExpenseInput is the request body for creating or replacing an expense.
type ExpenseInput struct {
	CategoryID  *int            `json:"category_id"`
	Type        TransactionType `json:"type"`
	ExpenseDate string          `json:"expense_date"`
	Description string          `json:"description,omitempty"`
	Amount      float64         `json:"amount"`
}

// ExpensePatch carries only the fields to change.
type ExpensePatch struct {
	CategoryID  *int             `json:"category_id,omitempty"`
	Type        *TransactionType `json:"type,omitempty"`
	ExpenseDate *string          `json:"expense_date,omitempty"`
	Description *string          `json:"description,omitempty"`
	Amount      *float64         `json:"amount,omitempty"`
}

// ExpenseFilter narrows an expense listing. Zero values are omitted from the query.
type ExpenseFilter struct {
	StartDate   *time.Time
	EndDate     *time.Time
	Type        TransactionType
	CategoryIDs []int
	Page        int
	PageSize    int
}

// PaginationMeta describes where a page sits in the full result.
type PaginationMeta struct {
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
}

// Page is one page of a paginated listing.
type Page[T any] struct {
	Items []T            `json:"items"`
	Meta  PaginationMeta `json:"meta"`
}

// HasNext reports whether more pages follow this one.
func (p Page[T]) HasNext() bool {
	return p.Meta.Page < p.Meta.TotalPages
}
