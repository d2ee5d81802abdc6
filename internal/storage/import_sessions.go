package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/autobudget/internal/model"
	"github.com/google/uuid"
)

const (
	messageKindError  = "error"
	messageKindHeader = "header"
)

// SaveImportSession stores session, replacing any rows previously saved
// under the same ID. An empty ID is filled with a new one.
func (s *SQLiteStorage) SaveImportSession(ctx context.Context, session *model.ImportSession) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSession(session); err != nil {
		return err
	}

	now := time.Now().UTC()
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO import_sessions (id, filename, created_at, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				filename = excluded.filename,
				updated_at = excluded.updated_at`,
			session.ID, session.Filename, session.CreatedAt, session.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to save import session: %w", err)
		}

		if err := clearSessionContent(ctx, tx, session.ID); err != nil {
			return err
		}

		rowStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO import_session_rows
				(session_id, position, expense_date, amount, description, type, category_id)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare row statement: %w", err)
		}
		defer func() { _ = rowStmt.Close() }()

		for i, txn := range session.Preview.Transactions {
			var categoryID sql.NullInt64
			if txn.CategoryID != nil {
				categoryID = sql.NullInt64{Int64: int64(*txn.CategoryID), Valid: true}
			}
			if _, err := rowStmt.ExecContext(ctx, session.ID, i, txn.ExpenseDate, txn.Amount, txn.Description, string(txn.Type), categoryID); err != nil {
				return fmt.Errorf("failed to save import row %d: %w", i+1, err)
			}
		}

		if err := insertMessages(ctx, tx, session.ID, messageKindError, session.Preview.Errors); err != nil {
			return err
		}
		return insertMessages(ctx, tx, session.ID, messageKindHeader, session.Preview.HeadersFound)
	})
	if err != nil {
		return err
	}

	slog.Debug("saved import session",
		"session", session.ID,
		"rows", len(session.Preview.Transactions),
		"errors", len(session.Preview.Errors))
	return nil
}

// GetImportSession loads a session with all of its rows in their original
// order. Rows that fail validation make the whole session malformed.
func (s *SQLiteStorage) GetImportSession(ctx context.Context, id string) (*model.ImportSession, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := requireValue("id", id); err != nil {
		return nil, err
	}

	session := &model.ImportSession{ID: id}
	err := s.db.QueryRowContext(ctx,
		`SELECT filename, created_at, updated_at FROM import_sessions WHERE id = ?`, id,
	).Scan(&session.Filename, &session.CreatedAt, &session.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get import session: %w", err)
	}

	txns, err := s.loadRows(ctx, id)
	if err != nil {
		return nil, err
	}
	session.Preview.Transactions = txns

	if session.Preview.Errors, err = s.loadMessages(ctx, id, messageKindError); err != nil {
		return nil, err
	}
	if session.Preview.HeadersFound, err = s.loadMessages(ctx, id, messageKindHeader); err != nil {
		return nil, err
	}
	return session, nil
}

// LatestImportSession returns the most recently updated session.
func (s *SQLiteStorage) LatestImportSession(ctx context.Context) (*model.ImportSession, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM import_sessions ORDER BY updated_at DESC, created_at DESC LIMIT 1`,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find latest import session: %w", err)
	}
	return s.GetImportSession(ctx, id)
}

// ListImportSessions summarizes every stored session, newest first.
func (s *SQLiteStorage) ListImportSessions(ctx context.Context) ([]model.ImportSessionSummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.filename, s.created_at, s.updated_at,
			(SELECT COUNT(*) FROM import_session_rows r WHERE r.session_id = s.id),
			(SELECT COUNT(*) FROM import_session_messages m WHERE m.session_id = s.id AND m.kind = 'error')
		FROM import_sessions s
		ORDER BY s.updated_at DESC, s.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list import sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summaries []model.ImportSessionSummary
	for rows.Next() {
		var sum model.ImportSessionSummary
		if err := rows.Scan(&sum.ID, &sum.Filename, &sum.CreatedAt, &sum.UpdatedAt, &sum.Rows, &sum.Errors); err != nil {
			return nil, fmt.Errorf("failed to scan import session: %w", err)
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// DeleteImportSession removes a session and its rows. Deleting a session
// that does not exist is not an error.
func (s *SQLiteStorage) DeleteImportSession(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := requireValue("id", id); err != nil {
		return err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := clearSessionContent(ctx, tx, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM import_sessions WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete import session: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Debug("deleted import session", "session", id)
	return nil
}

func (s *SQLiteStorage) loadRows(ctx context.Context, id string) ([]model.ImportedTransaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT position, expense_date, amount, description, type, category_id
		FROM import_session_rows
		WHERE session_id = ?
		ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load import rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	txns := []model.ImportedTransaction{}
	for rows.Next() {
		var (
			position   int
			txn        model.ImportedTransaction
			txnType    string
			categoryID sql.NullInt64
		)
		if err := rows.Scan(&position, &txn.ExpenseDate, &txn.Amount, &txn.Description, &txnType, &categoryID); err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrMalformedSession, position+1, err)
		}
		txn.Type = model.TransactionType(txnType)
		if categoryID.Valid {
			cid := int(categoryID.Int64)
			txn.CategoryID = &cid
		}
		if err := validateRow(txn); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedSession, &RowError{Row: position + 1, Err: err})
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read import rows: %w", err)
	}
	return txns, nil
}

func (s *SQLiteStorage) loadMessages(ctx context.Context, id, kind string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT message FROM import_session_messages
		WHERE session_id = ? AND kind = ?
		ORDER BY position`, id, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to load import %s messages: %w", kind, err)
	}
	defer func() { _ = rows.Close() }()

	var messages []string
	for rows.Next() {
		var msg string
		if err := rows.Scan(&msg); err != nil {
			return nil, fmt.Errorf("failed to scan import message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func insertMessages(ctx context.Context, tx *sql.Tx, id, kind string, messages []string) error {
	for i, msg := range messages {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO import_session_messages (session_id, kind, position, message) VALUES (?, ?, ?, ?)`,
			id, kind, i, msg); err != nil {
			return fmt.Errorf("failed to save import %s message: %w", kind, err)
		}
	}
	return nil
}

func clearSessionContent(ctx context.Context, tx *sql.Tx, id string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM import_session_rows WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("failed to clear import rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM import_session_messages WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("failed to clear import messages: %w", err)
	}
	return nil
}
