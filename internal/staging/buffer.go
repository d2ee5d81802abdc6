// Package staging holds the editable working copy of transactions awaiting
// import. Rows are loaded from a parsed preview, edited in memory and finally
// submitted to the backend as one batch.
package staging

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Veraticus/autobudget/internal/common"
	"github.com/Veraticus/autobudget/internal/model"
	"github.com/google/uuid"
)

// Re-exported so callers only need this package for import flows.
var (
	ErrMalformedPreview = common.ErrMalformedPreview
	ErrEmptyBatch       = common.ErrEmptyBatch
)

// StagedRow is an imported transaction plus a local identifier. The ID keys
// edits and selections and is never sent to the backend.
type StagedRow struct {
	ID string
	model.ImportedTransaction
}

// Submitter sends a reviewed batch to the backend.
type Submitter interface {
	SaveImportBatch(ctx context.Context, transactions []model.ImportedTransaction) error
}

// Buffer is the in-memory staging area for one import review session.
// It is safe for concurrent use; every mutation is applied atomically.
type Buffer struct {
	issued  map[string]struct{}
	newID   func() string
	rows    []StagedRow
	errors  []string
	headers []string
	mu      sync.RWMutex
}

// NewBuffer creates an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{
		issued: make(map[string]struct{}),
		newID:  uuid.NewString,
	}
}

// Load replaces the buffer's content with preview, giving every transaction a
// fresh identifier.
func (b *Buffer) Load(preview model.ImportPreview) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rows := make([]StagedRow, 0, len(preview.Transactions))
	for _, txn := range preview.Transactions {
		rows = append(rows, StagedRow{ID: b.nextIDLocked(), ImportedTransaction: txn})
	}

	b.rows = rows
	b.errors = append([]string(nil), preview.Errors...)
	b.headers = append([]string(nil), preview.HeadersFound...)

	slog.Debug("loaded import preview",
		"rows", len(rows),
		"parse_errors", len(b.errors))
}

// LoadJSON decodes a serialized preview and loads it. On a malformed payload
// the buffer is left empty and ErrMalformedPreview is returned.
func (b *Buffer) LoadJSON(data []byte) error {
	preview, err := DecodePreview(data)
	if err != nil {
		b.Reset()
		return err
	}
	b.Load(preview)
	return nil
}

// Reset discards all rows, errors and headers.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rows = nil
	b.errors = nil
	b.headers = nil
}

// nextIDLocked returns an identifier never handed out by this buffer before.
func (b *Buffer) nextIDLocked() string {
	for {
		id := b.newID()
		if _, taken := b.issued[id]; taken {
			continue
		}
		b.issued[id] = struct{}{}
		return id
	}
}

// Len returns the number of staged rows.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.rows)
}

// Rows returns a copy of the staged rows in load order.
func (b *Buffer) Rows() []StagedRow {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]StagedRow, len(b.rows))
	for i, row := range b.rows {
		out[i] = cloneRow(row)
	}
	return out
}

// Row returns the row with the given identifier.
func (b *Buffer) Row(id string) (StagedRow, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, row := range b.rows {
		if row.ID == id {
			return cloneRow(row), true
		}
	}
	return StagedRow{}, false
}

// IDs returns every row identifier in load order.
func (b *Buffer) IDs() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]string, len(b.rows))
	for i, row := range b.rows {
		ids[i] = row.ID
	}
	return ids
}

// Errors returns the human-readable parse errors reported with the preview.
func (b *Buffer) Errors() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.errors...)
}

// Headers returns the column headers the backend recognized in the file.
func (b *Buffer) Headers() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.headers...)
}

// Update sets field on the row identified by id. An unknown id is silently
// ignored since the row may have just been deleted. A value that does not
// parse for field is rejected and the row keeps its prior value.
func (b *Buffer) Update(id string, field Field, value string) error {
	return b.BulkUpdate([]string{id}, field, value)
}

// BulkUpdate applies the same change to every row whose id is in ids.
// Unknown ids are ignored.
func (b *Buffer) BulkUpdate(ids []string, field Field, value string) error {
	apply, err := parseEdit(field, value)
	if err != nil {
		return err
	}

	targets := idSet(ids)

	b.mu.Lock()
	defer b.mu.Unlock()

	updated := 0
	for i := range b.rows {
		if _, ok := targets[b.rows[i].ID]; !ok {
			continue
		}
		apply(&b.rows[i].ImportedTransaction)
		updated++
	}

	slog.Debug("updated staged rows", "field", string(field), "requested", len(ids), "updated", updated)
	return nil
}

// Delete removes the row identified by id. Unknown ids are ignored.
func (b *Buffer) Delete(id string) {
	b.BulkDelete([]string{id})
}

// BulkDelete removes every row whose id is in ids.
func (b *Buffer) BulkDelete(ids []string) {
	targets := idSet(ids)

	b.mu.Lock()
	defer b.mu.Unlock()

	kept := b.rows[:0]
	for _, row := range b.rows {
		if _, drop := targets[row.ID]; drop {
			continue
		}
		kept = append(kept, row)
	}
	// clear the tail so dropped rows are not retained by the backing array
	for i := len(kept); i < len(b.rows); i++ {
		b.rows[i] = StagedRow{}
	}
	b.rows = kept
}

// Payload returns the transactions to submit, stripped of local identifiers.
func (b *Buffer) Payload() []model.ImportedTransaction {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.payloadLocked()
}

func (b *Buffer) payloadLocked() []model.ImportedTransaction {
	out := make([]model.ImportedTransaction, len(b.rows))
	for i, row := range b.rows {
		out[i] = cloneRow(row).ImportedTransaction
	}
	return out
}

// Save submits all rows as a single batch. On success the session is torn
// down and the number of imported rows returned. On failure the rows are
// left exactly as they were so the user can retry.
func (b *Buffer) Save(ctx context.Context, submitter Submitter) (int, error) {
	payload := b.Payload()
	if len(payload) == 0 {
		return 0, ErrEmptyBatch
	}

	if err := submitter.SaveImportBatch(ctx, payload); err != nil {
		return 0, fmt.Errorf("failed to save import batch: %w", err)
	}

	b.Reset()
	slog.Info("import batch saved", "count", len(payload))
	return len(payload), nil
}

// CategoriesFor returns the categories selectable for a transaction of type t.
func CategoriesFor(categories []model.Category, t model.TransactionType) []model.Category {
	out := make([]model.Category, 0, len(categories))
	for _, cat := range categories {
		if cat.Type == t {
			out = append(out, cat)
		}
	}
	return out
}

func cloneRow(row StagedRow) StagedRow {
	if row.CategoryID != nil {
		id := *row.CategoryID
		row.CategoryID = &id
	}
	return row
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
