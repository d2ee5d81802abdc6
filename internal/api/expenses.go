package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Veraticus/autobudget/internal/model"
)

// ListExpenses returns one page of expenses matching filter.
func (c *Client) ListExpenses(ctx context.Context, filter model.ExpenseFilter) (model.Page[model.Expense], error) {
	var page model.Page[model.Expense]
	req := request{method: http.MethodGet, path: "/expenses", query: expenseQuery(filter)}
	if err := c.do(ctx, req, &page); err != nil {
		return model.Page[model.Expense]{}, err
	}
	return page, nil
}

// CreateExpense records a new expense or income.
func (c *Client) CreateExpense(ctx context.Context, in model.ExpenseInput) (model.Expense, error) {
	return c.sendExpense(ctx, http.MethodPost, "/expenses", in)
}

// ReplaceExpense overwrites every field of an expense.
func (c *Client) ReplaceExpense(ctx context.Context, id int, in model.ExpenseInput) (model.Expense, error) {
	return c.sendExpense(ctx, http.MethodPut, expensePath(id), in)
}

// PatchExpense changes only the fields set in patch.
func (c *Client) PatchExpense(ctx context.Context, id int, patch model.ExpensePatch) (model.Expense, error) {
	return c.sendExpense(ctx, http.MethodPatch, expensePath(id), patch)
}

// DeleteExpense removes an expense.
func (c *Client) DeleteExpense(ctx context.Context, id int) error {
	return c.do(ctx, request{method: http.MethodDelete, path: expensePath(id)}, nil)
}

func (c *Client) sendExpense(ctx context.Context, method, path string, payload any) (model.Expense, error) {
	req, err := jsonRequest(method, path, payload)
	if err != nil {
		return model.Expense{}, err
	}
	var expense model.Expense
	if err := c.do(ctx, req, &expense); err != nil {
		return model.Expense{}, err
	}
	return expense, nil
}

func expensePath(id int) string {
	return fmt.Sprintf("/expenses/%d", id)
}

func expenseQuery(f model.ExpenseFilter) url.Values {
	q := url.Values{}
	if f.StartDate != nil {
		q.Set("start_date", f.StartDate.Format(model.DateLayout))
	}
	if f.EndDate != nil {
		q.Set("end_date", f.EndDate.Format(model.DateLayout))
	}
	addCategoryIDs(q, f.CategoryIDs)
	if f.Type != "" {
		q.Set("type", string(f.Type))
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(f.PageSize))
	}
	return q
}

// addCategoryIDs repeats category_ids once per id.
func addCategoryIDs(q url.Values, ids []int) {
	for _, id := range ids {
		q.Add("category_ids", strconv.Itoa(id))
	}
}
