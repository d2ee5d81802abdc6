package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/autobudget/internal/api"
	"github.com/Veraticus/autobudget/internal/auth"
	"github.com/Veraticus/autobudget/internal/config"
	"github.com/Veraticus/autobudget/internal/model"
	"github.com/Veraticus/autobudget/internal/staging"
	"github.com/Veraticus/autobudget/internal/storage"
	"github.com/Veraticus/autobudget/internal/tui"
	"github.com/Veraticus/autobudget/internal/tui/themes"
	"github.com/spf13/viper"
)

// initStorage opens the import session database and migrates it.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(config.DatabasePath())
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// newAPIClient builds a backend client authenticated with the configured
// credentials.
func newAPIClient() (*api.Client, error) {
	apiCfg, err := config.LoadAPIConfig()
	if err != nil {
		return nil, err
	}
	authCfg, err := config.LoadAuthConfig()
	if err != nil {
		return nil, err
	}
	return api.NewClient(apiCfg, auth.NewSource(authCfg))
}

// tuiOptions returns the screen options taken from configuration.
func tuiOptions() []tui.Option {
	var opts []tui.Option
	if name := viper.GetString("tui.theme"); name != "" {
		opts = append(opts, tui.WithTheme(themes.GetTheme(name)))
	}
	return opts
}

// parseDateFlag parses a YYYY-MM-DD flag value. An empty value yields nil.
func parseDateFlag(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(model.DateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s %q: expected YYYY-MM-DD", name, value)
	}
	return &t, nil
}

// parseID parses a positive numeric record ID.
func parseID(kind, value string) (int, error) {
	id, err := strconv.Atoi(value)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s ID %q", kind, value)
	}
	return id, nil
}

// parseType parses an optional transaction type flag.
func parseType(value string) (model.TransactionType, error) {
	if value == "" {
		return "", nil
	}
	return model.ParseTransactionType(strings.ToLower(value))
}

// parseAmount accepts the same amount notation as the review screen.
func parseAmount(value string) (float64, error) {
	amount, err := staging.ParseAmount(value)
	if err != nil {
		return 0, err
	}
	return amount.InexactFloat64(), nil
}

// parseCategoryFlag parses an optional category ID, where "none" clears it.
func parseCategoryFlag(value string) (*int, error) {
	return staging.ParseCategoryID(value)
}

// truncate shortens s to n runes for table output.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

// categoryLabel renders an optional category reference.
func categoryLabel(id *int, name string) string {
	switch {
	case name != "":
		return name
	case id != nil:
		return "#" + strconv.Itoa(*id)
	default:
		return "-"
	}
}
