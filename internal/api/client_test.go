package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Veraticus/autobudget/internal/common"
	"github.com/Veraticus/autobudget/internal/model"
	"github.com/Veraticus/autobudget/internal/staging"
	"github.com/Veraticus/autobudget/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ staging.Submitter = (*Client)(nil)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL + "/api/v1", Timeout: 5 * time.Second}, StaticToken("test-token"))
	require.NoError(t, err)
	return client
}

type failingTokens struct{}

func (failingTokens) Token(context.Context) (string, error) {
	return "", ErrNoToken
}

func TestClient_NoTokenSendsNothing(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	for name, tokens := range map[string]TokenSource{
		"empty static": StaticToken(""),
		"source error": failingTokens{},
	} {
		t.Run(name, func(t *testing.T) {
			client, err := NewClient(Config{BaseURL: server.URL}, tokens)
			require.NoError(t, err)

			_, err = client.ListCategories(context.Background())
			require.ErrorIs(t, err, ErrNoToken)

			err = client.SaveImportBatch(context.Background(), []model.ImportedTransaction{{Amount: 1}})
			require.ErrorIs(t, err, ErrNoToken)
		})
	}
	assert.Equal(t, int32(0), hits.Load())
}

func TestClient_BearerHeader(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/v1/categories", r.URL.Path)
		testutil.WriteJSON(t, w, http.StatusOK, []model.Category{
			{ID: 1, Name: "Groceries", Type: model.TypeExpense},
			{ID: 2, Name: "Salary", Type: model.TypeIncome},
		})
	})

	categories, err := client.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Salary", categories[1].Name)
}

func TestClient_HTTPError(t *testing.T) {
	tests := []struct {
		sentinel error
		name     string
		status   int
	}{
		{name: "not found", status: http.StatusNotFound, sentinel: common.ErrNotFound},
		{name: "unauthorized", status: http.StatusUnauthorized, sentinel: common.ErrUnauthorized},
		{name: "server error", status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, `{"detail":"nope"}`, tt.status)
			})

			err := client.DeleteCategory(context.Background(), 7)
			require.Error(t, err)

			var httpErr *HTTPError
			require.True(t, errors.As(err, &httpErr))
			assert.Equal(t, tt.status, httpErr.StatusCode)
			assert.Equal(t, http.MethodDelete, httpErr.Method)
			assert.Equal(t, "/categories/7", httpErr.Path)
			assert.Contains(t, httpErr.Body, "nope")
			assert.True(t, IsStatus(err, tt.status))
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			} else {
				assert.NotErrorIs(t, err, common.ErrNotFound)
			}
		})
	}
}

func TestClient_CategoryWrites(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		switch r.Method {
		case http.MethodPost:
			assert.Equal(t, "/api/v1/categories", r.URL.Path)
			assert.Equal(t, map[string]any{"name": "Travel", "type": "expense"}, body)
			testutil.WriteJSON(t, w, http.StatusCreated, model.Category{ID: 9, Name: "Travel", Type: model.TypeExpense})
		case http.MethodPut:
			assert.Equal(t, "/api/v1/categories/9", r.URL.Path)
			testutil.WriteJSON(t, w, http.StatusOK, model.Category{ID: 9, Name: body["name"].(string), Type: model.TypeExpense})
		case http.MethodPatch:
			assert.Equal(t, map[string]any{"name": "Trips"}, body)
			testutil.WriteJSON(t, w, http.StatusOK, model.Category{ID: 9, Name: "Trips", Type: model.TypeExpense})
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	})

	ctx := context.Background()
	created, err := client.CreateCategory(ctx, model.CategoryInput{Name: "Travel", Type: model.TypeExpense})
	require.NoError(t, err)
	assert.Equal(t, 9, created.ID)

	updated, err := client.UpdateCategory(ctx, 9, model.CategoryInput{Name: "Holidays", Type: model.TypeExpense})
	require.NoError(t, err)
	assert.Equal(t, "Holidays", updated.Name)

	name := "Trips"
	patched, err := client.PatchCategory(ctx, 9, model.CategoryPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Trips", patched.Name)
}

func TestClient_ListExpensesQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2024-01-01", q.Get("start_date"))
		assert.Equal(t, "2024-01-31", q.Get("end_date"))
		assert.Equal(t, []string{"3", "5"}, q["category_ids"])
		assert.Equal(t, "income", q.Get("type"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "25", q.Get("page_size"))

		testutil.WriteJSON(t, w, http.StatusOK, map[string]any{
			"items": []map[string]any{
				{"id": 1, "amount": 2500, "type": "income", "expense_date": "2024-01-15", "category_id": 3, "category": map[string]any{"id": 3, "name": "Salary", "type": "income", "created_at": "2023-12-01T10:00:00Z"}},
			},
			"meta": map[string]any{"total_count": 26, "total_pages": 2, "page": 2, "page_size": 25},
		})
	})

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	page, err := client.ListExpenses(context.Background(), model.ExpenseFilter{
		StartDate:   &start,
		EndDate:     &end,
		CategoryIDs: []int{3, 5},
		Type:        model.TypeIncome,
		Page:        2,
		PageSize:    25,
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Salary", page.Items[0].CategoryName())
	assert.Equal(t, 26, page.Meta.TotalCount)
	assert.False(t, page.HasNext())
}

func TestClient_ListExpensesEmptyFilter(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		testutil.WriteJSON(t, w, http.StatusOK, map[string]any{"items": []any{}, "meta": map[string]any{"total_count": 0, "total_pages": 0, "page": 1, "page_size": 50}})
	})

	page, err := client.ListExpenses(context.Background(), model.ExpenseFilter{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestClient_ExpenseWrites(t *testing.T) {
	var methods []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		testutil.WriteJSON(t, w, http.StatusOK, model.Expense{ID: 4, Amount: 12.5, Type: model.TypeExpense, ExpenseDate: "2024-01-02"})
	})

	ctx := context.Background()
	in := model.ExpenseInput{Amount: 12.5, Type: model.TypeExpense, ExpenseDate: "2024-01-02"}
	_, err := client.CreateExpense(ctx, in)
	require.NoError(t, err)
	_, err = client.ReplaceExpense(ctx, 4, in)
	require.NoError(t, err)
	desc := "Bakery"
	_, err = client.PatchExpense(ctx, 4, model.ExpensePatch{Description: &desc})
	require.NoError(t, err)
	require.NoError(t, client.DeleteExpense(ctx, 4))

	assert.Equal(t, []string{
		"POST /api/v1/expenses",
		"PUT /api/v1/expenses/4",
		"PATCH /api/v1/expenses/4",
		"DELETE /api/v1/expenses/4",
	}, methods)
}

func TestClient_PreviewImport(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/expenses/import/preview", r.URL.Path)
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "bank.csv", header.Filename)
		assert.Equal(t, "Datum;Betrag\n01.01.2024;-12,50\n", string(data))

		testutil.WriteJSON(t, w, http.StatusOK, map[string]any{
			"transactions":  []map[string]any{{"expense_date": "2024-01-01", "amount": 12.5, "description": "", "type": "expense", "category_id": nil}},
			"errors":        []string{"row 3: invalid date"},
			"headers_found": []string{"Datum", "Betrag"},
		})
	})

	preview, err := client.PreviewImport(context.Background(), "/tmp/exports/bank.csv", strings.NewReader("Datum;Betrag\n01.01.2024;-12,50\n"))
	require.NoError(t, err)
	require.Len(t, preview.Transactions, 1)
	assert.Nil(t, preview.Transactions[0].CategoryID)
	assert.Equal(t, []string{"row 3: invalid date"}, preview.Errors)
	assert.Equal(t, []string{"Datum", "Betrag"}, preview.HeadersFound)
}

func TestClient_SaveImportBatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/expenses/import/batch", r.URL.Path)

		var body map[string][]map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body["transactions"], 2)
		assert.NotContains(t, body["transactions"][0], "id")
		testutil.WriteJSON(t, w, http.StatusOK, map[string]any{"imported": 2})
	})

	buf := staging.NewBuffer()
	buf.Load(model.ImportPreview{Transactions: []model.ImportedTransaction{
		{ExpenseDate: "2024-01-01", Amount: 1, Type: model.TypeExpense},
		{ExpenseDate: "2024-01-02", Amount: 2, Type: model.TypeIncome},
	}})

	count, err := buf.Save(context.Background(), client)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 0, buf.Len())
}

func TestClient_CategorySums(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/analytics/category-sums", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "2024-01-01", q.Get("start_date"))
		assert.Equal(t, "2024-01-03", q.Get("end_date"))
		assert.Equal(t, []string{"1"}, q["category_ids"])
		testutil.WriteJSON(t, w, http.StatusOK, []model.CategorySum{{Date: "2024-01-01", CategoryName: "Food", Sum: 10}})
	})

	sums, err := client.CategorySums(context.Background(),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		[]int{1})
	require.NoError(t, err)
	assert.Equal(t, []model.CategorySum{{Date: "2024-01-01", CategoryName: "Food", Sum: 10}}, sums)
}

func TestClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond}, StaticToken("t"))
	require.NoError(t, err)

	_, err = client.ListCategories(context.Background())
	require.Error(t, err)
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "http://localhost:8000"}, nil)
	require.ErrorIs(t, err, common.ErrInvalidConfig)

	_, err = NewClient(Config{BaseURL: "not a url"}, StaticToken("t"))
	require.ErrorIs(t, err, common.ErrInvalidConfig)

	client, err := NewClient(Config{}, StaticToken("t"))
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, client.baseURL)
}
