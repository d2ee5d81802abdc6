package staging

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/autobudget/internal/model"
	"github.com/shopspring/decimal"
)

// Field names an editable column of a staged row.
type Field string

// Editable fields, named after their wire keys.
const (
	FieldDate        Field = "expense_date"
	FieldAmount      Field = "amount"
	FieldDescription Field = "description"
	FieldType        Field = "type"
	FieldCategory    Field = "category_id"
)

// Fields lists the editable fields in display order.
var Fields = []Field{FieldDate, FieldDescription, FieldType, FieldAmount, FieldCategory}

var (
	// ErrInvalidValue is returned when an edit's text does not parse for its field.
	ErrInvalidValue = errors.New("invalid value")
	// ErrUnknownField is returned for a field name that is not editable.
	ErrUnknownField = errors.New("unknown field")
)

// accepted date layouts, tried in order
var dateLayouts = []string{
	model.DateLayout,
	time.RFC3339,
	"02.01.2006",
}

// ParseField resolves a field from its wire key or a short alias.
func ParseField(s string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "expense_date", "date":
		return FieldDate, nil
	case "amount":
		return FieldAmount, nil
	case "description", "desc":
		return FieldDescription, nil
	case "type":
		return FieldType, nil
	case "category_id", "category":
		return FieldCategory, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
}

// Label returns a human-readable column title.
func (f Field) Label() string {
	switch f {
	case FieldDate:
		return "Date"
	case FieldAmount:
		return "Amount"
	case FieldDescription:
		return "Description"
	case FieldType:
		return "Type"
	case FieldCategory:
		return "Category"
	}
	return string(f)
}

// edit mutates a single transaction in place.
type edit func(*model.ImportedTransaction)

// parseEdit turns raw text into an edit for field. Parsing happens before any
// row is touched so a bad value never leaves a half-applied change.
func parseEdit(field Field, value string) (edit, error) {
	switch field {
	case FieldDate:
		date, err := ParseDate(value)
		if err != nil {
			return nil, err
		}
		formatted := date.Format(model.DateLayout)
		return func(t *model.ImportedTransaction) { t.ExpenseDate = formatted }, nil

	case FieldAmount:
		amount, err := ParseAmount(value)
		if err != nil {
			return nil, err
		}
		f := amount.InexactFloat64()
		return func(t *model.ImportedTransaction) { t.Amount = f }, nil

	case FieldDescription:
		return func(t *model.ImportedTransaction) { t.Description = value }, nil

	case FieldType:
		typ, err := model.ParseTransactionType(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		// Category options are partitioned by type, so the old category goes with it.
		return func(t *model.ImportedTransaction) {
			t.Type = typ
			t.CategoryID = nil
		}, nil

	case FieldCategory:
		id, err := ParseCategoryID(value)
		if err != nil {
			return nil, err
		}
		return func(t *model.ImportedTransaction) { t.CategoryID = id }, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
}

// ParseDate accepts ISO dates, RFC3339 timestamps and dd.mm.yyyy.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, value); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: date %q", ErrInvalidValue, value)
}

// ParseAmount parses a decimal amount written with either '.' or ',' as the
// decimal separator.
func ParseAmount(value string) (decimal.Decimal, error) {
	normalized := strings.Replace(strings.TrimSpace(value), ",", ".", 1)
	amount, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: amount %q", ErrInvalidValue, value)
	}
	return amount, nil
}

// ParseCategoryID parses a category reference. Empty input, "none" and "null"
// clear the category.
func ParseCategoryID(value string) (*int, error) {
	value = strings.TrimSpace(value)
	switch strings.ToLower(value) {
	case "", "none", "null":
		return nil, nil
	}
	id, err := strconv.Atoi(value)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%w: category %q", ErrInvalidValue, value)
	}
	return &id, nil
}

// FormatValue renders a row's field the way an editor would pre-fill it.
func FormatValue(t model.ImportedTransaction, field Field) string {
	switch field {
	case FieldDate:
		if d, err := ParseDate(t.ExpenseDate); err == nil {
			return d.Format(model.DateLayout)
		}
		return t.ExpenseDate
	case FieldAmount:
		return decimal.NewFromFloat(t.Amount).StringFixed(2)
	case FieldDescription:
		return t.Description
	case FieldType:
		return string(t.Type)
	case FieldCategory:
		if t.CategoryID == nil {
			return ""
		}
		return strconv.Itoa(*t.CategoryID)
	}
	return ""
}
