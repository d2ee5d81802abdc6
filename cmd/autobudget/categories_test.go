package main

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/Veraticus/autobudget/internal/model"
	"github.com/Veraticus/autobudget/internal/testutil"
	"github.com/Veraticus/autobudget/internal/testutil/categories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCategories(t *testing.T) []model.Category {
	t.Helper()
	return categories.NewBuilder(t).WithFixture(categories.FixtureHousehold).Build()
}

func TestCategoriesList(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		contains []string
		excludes []string
	}{
		{
			name:     "all categories",
			args:     []string{"categories", "list"},
			contains: []string{"Groceries", "Transport", "Salary"},
		},
		{
			name:     "filtered by type",
			args:     []string{"categories", "list", "--type", "income"},
			contains: []string{"Salary"},
			excludes: []string{"Groceries", "Transport"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newCLIEnv(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/categories", r.URL.Path)
				assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
				testutil.WriteJSON(t, w, http.StatusOK, testCategories(t))
			})

			out, err := env.run(tt.args...)
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestCategoriesList_InvalidType(t *testing.T) {
	env := newCLIEnv(t, func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected")
	})

	_, err := env.run("categories", "list", "--type", "savings")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid transaction type")
}

func TestCategoriesList_Empty(t *testing.T) {
	env := newCLIEnv(t, func(w http.ResponseWriter, _ *http.Request) {
		testutil.WriteJSON(t, w, http.StatusOK, []model.Category{})
	})

	out, err := env.run("categories", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No categories found")
}

func TestCategoriesAdd(t *testing.T) {
	env := newCLIEnv(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/categories", r.URL.Path)

		var in model.CategoryInput
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, model.CategoryInput{Name: "Interest", Type: model.TypeIncome}, in)

		testutil.WriteJSON(t, w, http.StatusCreated, model.Category{ID: 11, Name: in.Name, Type: in.Type})
	})

	out, err := env.run("categories", "add", "Interest", "--type", "income")
	require.NoError(t, err)
	assert.Contains(t, out, `Created income category "Interest" (ID: 11)`)
}

func TestCategoriesPatch(t *testing.T) {
	t.Run("sends only changed fields", func(t *testing.T) {
		env := newCLIEnv(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPatch, r.Method)
			assert.Equal(t, "/categories/2", r.URL.Path)

			var body map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, map[string]any{"name": "Travel"}, body)

			testutil.WriteJSON(t, w, http.StatusOK, model.Category{ID: 2, Name: "Travel", Type: model.TypeExpense})
		})

		out, err := env.run("categories", "patch", "2", "--name", "Travel")
		require.NoError(t, err)
		assert.Contains(t, out, `Updated category 2: "Travel" (expense)`)
	})

	t.Run("nothing to change", func(t *testing.T) {
		env := newCLIEnv(t, nil)

		_, err := env.run("categories", "patch", "2")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nothing to change")
	})
}

func TestCategoriesDelete(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		args       []string
		wantDelete bool
	}{
		{name: "confirmed", input: "y\n", args: []string{"categories", "delete", "2"}, wantDelete: true},
		{name: "declined", input: "n\n", args: []string{"categories", "delete", "2"}},
		{name: "forced", args: []string{"categories", "delete", "2", "--force"}, wantDelete: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deleted := false
			env := newCLIEnv(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodDelete, r.Method)
				assert.Equal(t, "/categories/2", r.URL.Path)
				deleted = true
				w.WriteHeader(http.StatusNoContent)
			})
			env.input = tt.input

			_, err := env.run(tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDelete, deleted)
		})
	}
}

func TestCategories_BackendError(t *testing.T) {
	env := newCLIEnv(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"detail":"boom"}`, http.StatusInternalServerError)
	})

	_, err := env.run("categories", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list categories")
}
