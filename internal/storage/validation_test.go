package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/Veraticus/autobudget/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireValue(t *testing.T) {
	assert.NoError(t, requireValue("id", "abc"))
	assert.NoError(t, requireValue("id", "  abc  "))

	for _, blank := range []string{"", "   ", "\t\n"} {
		err := requireValue("dbPath", blank)
		assert.ErrorIs(t, err, ErrEmptyString)
		assert.Contains(t, err.Error(), "dbPath")
	}
}

func TestValidateContext(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, validateContext(context.Background()))
	// cancellation is left to the database driver
	assert.NoError(t, validateContext(canceled))
	assert.ErrorIs(t, validateContext(nil), ErrNilContext) //nolint:staticcheck // nil context is the case under test
}

func TestValidateRow(t *testing.T) {
	validCategory := 4
	zeroCategory := 0

	tests := []struct {
		name    string
		txn     model.ImportedTransaction
		wantErr bool
	}{
		{name: "expense with category", txn: model.ImportedTransaction{ExpenseDate: "2024-01-01", Amount: 12.5, Type: model.TypeExpense, CategoryID: &validCategory}},
		{name: "income without category", txn: model.ImportedTransaction{ExpenseDate: "2024-01-01", Amount: 2500, Type: model.TypeIncome}},
		{name: "unknown type", txn: model.ImportedTransaction{ExpenseDate: "2024-01-01", Type: "transfer"}, wantErr: true},
		{name: "empty type", txn: model.ImportedTransaction{ExpenseDate: "2024-01-01"}, wantErr: true},
		{name: "non-positive category", txn: model.ImportedTransaction{Type: model.TypeExpense, CategoryID: &zeroCategory}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateRow(tt.txn)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidRow)
		})
	}
}

func TestValidateSession(t *testing.T) {
	assert.ErrorIs(t, validateSession(nil), ErrNilParameter)
	assert.NoError(t, validateSession(&model.ImportSession{}))

	session := &model.ImportSession{Preview: model.ImportPreview{
		Transactions: []model.ImportedTransaction{
			{ExpenseDate: "2024-01-01", Type: model.TypeExpense},
			{ExpenseDate: "2024-01-02", Type: model.TypeIncome},
			{ExpenseDate: "2024-01-03", Type: "refund"},
		},
	}}

	err := validateSession(session)
	require.Error(t, err)

	var rowErr *RowError
	require.True(t, errors.As(err, &rowErr))
	assert.Equal(t, 3, rowErr.Row)
	assert.ErrorIs(t, err, ErrInvalidRow)
	assert.Contains(t, err.Error(), `row 3: invalid import row: type "refund"`)
}
