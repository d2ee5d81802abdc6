// Package testutil provides shared test helpers for autobudget: an isolated
// import session store, seeded previews and JSON responses for fake backends.
package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/Veraticus/autobudget/internal/model"
	"github.com/Veraticus/autobudget/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStore is a migrated session store that is closed when the test ends.
type TestStore struct {
	*storage.SQLiteStorage
	t *testing.T
}

// SetupTestStore creates a session store in a fresh temporary directory.
func SetupTestStore(t *testing.T) *TestStore {
	t.Helper()
	return OpenTestStore(t, filepath.Join(t.TempDir(), "sessions.db"))
}

// OpenTestStore opens the store at path, for tests that share a database
// file with the command under test.
func OpenTestStore(t *testing.T, path string) *TestStore {
	t.Helper()

	store, err := storage.NewSQLiteStorage(path)
	require.NoError(t, err, "failed to create test database")
	t.Cleanup(func() {
		_ = store.Close()
	})

	require.NoError(t, store.Migrate(context.Background()), "failed to run migrations")

	return &TestStore{SQLiteStorage: store, t: t}
}

// SeedSession stores preview as a new import session and returns its ID.
func (s *TestStore) SeedSession(filename string, preview model.ImportPreview) string {
	s.t.Helper()

	session := &model.ImportSession{Filename: filename, Preview: preview}
	require.NoError(s.t, s.SaveImportSession(context.Background(), session), "failed to seed import session")
	return session.ID
}

// MustGetSession loads a session or fails the test.
func (s *TestStore) MustGetSession(id string) *model.ImportSession {
	s.t.Helper()

	session, err := s.GetImportSession(context.Background(), id)
	require.NoError(s.t, err, "failed to load import session %s", id)
	return session
}

// SessionCount returns how many import sessions are stored.
func (s *TestStore) SessionCount() int {
	s.t.Helper()

	sessions, err := s.ListImportSessions(context.Background())
	require.NoError(s.t, err, "failed to list import sessions")
	return len(sessions)
}

// WriteJSON encodes v as a JSON response with the given status.
func WriteJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	assert.NoError(t, json.NewEncoder(w).Encode(v))
}
