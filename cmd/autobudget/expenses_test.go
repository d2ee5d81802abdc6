package main

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/Veraticus/autobudget/internal/model"
	"github.com/Veraticus/autobudget/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }

func TestExpensesList(t *testing.T) {
	env := newCLIEnv(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/expenses", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "2024-03-01", q.Get("start_date"))
		assert.Equal(t, "2024-03-31", q.Get("end_date"))
		assert.Equal(t, []string{"1", "2"}, q["category_ids"])
		assert.Equal(t, "expense", q.Get("type"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "10", q.Get("page_size"))

		testutil.WriteJSON(t, w, http.StatusOK, model.Page[model.Expense]{
			Items: []model.Expense{
				{
					ID: 7, Amount: 12.5, Type: model.TypeExpense, ExpenseDate: "2024-03-04",
					Description: "Bakery", CategoryID: intPtr(1),
					Category: &model.Category{ID: 1, Name: "Groceries", Type: model.TypeExpense},
				},
			},
			Meta: model.PaginationMeta{TotalCount: 25, TotalPages: 3, Page: 2, PageSize: 10},
		})
	})

	out, err := env.run("expenses", "list",
		"--from", "2024-03-01", "--to", "2024-03-31",
		"--category", "1", "--category", "2",
		"--type", "expense", "--page", "2", "--page-size", "10")
	require.NoError(t, err)

	assert.Contains(t, out, "Bakery")
	assert.Contains(t, out, "Groceries")
	assert.Contains(t, out, "-12.50")
	assert.Contains(t, out, "Page 2 of 3 · 25 records · next: --page 3")
}

func TestExpensesList_InvalidRange(t *testing.T) {
	env := newCLIEnv(t, nil)

	_, err := env.run("expenses", "list", "--from", "2024-03-31", "--to", "2024-03-01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--to must not be before --from")

	_, err = env.run("expenses", "list", "--from", "31.03.2024")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected YYYY-MM-DD")
}

func TestExpensesAdd(t *testing.T) {
	env := newCLIEnv(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/expenses", r.URL.Path)

		var in model.ExpenseInput
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, model.ExpenseInput{
			ExpenseDate: "2024-03-05",
			Amount:      1999.99,
			Type:        model.TypeIncome,
			CategoryID:  intPtr(10),
			Description: "March salary",
		}, in)

		testutil.WriteJSON(t, w, http.StatusCreated, model.Expense{
			ID: 8, Amount: in.Amount, Type: in.Type, ExpenseDate: in.ExpenseDate, CategoryID: in.CategoryID,
		})
	})

	out, err := env.run("expenses", "add",
		"--date", "05.03.2024", "--amount", "1999,99", "--type", "income",
		"--category", "10", "--description", "  March salary ")
	require.NoError(t, err)
	assert.Contains(t, out, "Created income 8: 2024-03-05 1999.99 #10")
}

func TestExpensesAdd_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "amount", args: []string{"--amount", "twelve"}, want: "invalid value"},
		{name: "date", args: []string{"--amount", "1", "--date", "yesterday"}, want: "invalid value"},
		{name: "type", args: []string{"--amount", "1", "--type", "refund"}, want: "invalid transaction type"},
		{name: "category", args: []string{"--amount", "1", "--category", "abc"}, want: "invalid value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newCLIEnv(t, func(_ http.ResponseWriter, _ *http.Request) {
				t.Error("no request expected")
			})

			_, err := env.run(append([]string{"expenses", "add"}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestExpensesPatch(t *testing.T) {
	env := newCLIEnv(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/expenses/4", r.URL.Path)

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"amount": 3.2, "description": "Coffee"}, body)

		testutil.WriteJSON(t, w, http.StatusOK, model.Expense{ID: 4, Amount: 3.2, Type: model.TypeExpense, ExpenseDate: "2024-03-01"})
	})

	out, err := env.run("expenses", "patch", "4", "--amount", "3.20", "--description", "Coffee")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated expense 4")
}

func TestExpensesPatch_Validation(t *testing.T) {
	env := newCLIEnv(t, nil)

	_, err := env.run("expenses", "patch", "4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to change")

	_, err = env.run("expenses", "patch", "4", "--category", "none")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot clear a category")

	_, err = env.run("expenses", "patch", "abc", "--amount", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid expense ID "abc"`)
}

func TestPageFooter(t *testing.T) {
	assert.Equal(t, "Page 1 of 1 · 3 records",
		pageFooter(model.PaginationMeta{Page: 1, TotalPages: 1, TotalCount: 3}))
	assert.Equal(t, "Page 1 of 1 · 0 records",
		pageFooter(model.PaginationMeta{Page: 1, TotalPages: 0}))
	assert.Equal(t, "Page 1 of 2 · 60 records · next: --page 2",
		pageFooter(model.PaginationMeta{Page: 1, TotalPages: 2, TotalCount: 60}))
}
