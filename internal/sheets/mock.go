package sheets

import (
	"context"
	"sync"

	"github.com/Veraticus/autobudget/internal/pivot"
)

// MockURL is the spreadsheet URL a MockWriter reports by default.
const MockURL = "https://docs.google.com/spreadsheets/d/mock"

// MockWriter records exports instead of calling the Sheets API. Each call
// keeps the cell values a real export would have written.
type MockWriter struct {
	// WriteFunc, when set, decides the URL and error of each call.
	WriteFunc func(ctx context.Context, series pivot.Series, label string) (string, error)
	calls     []WriteCall
	mu        sync.Mutex
}

// WriteCall is one recorded WriteSeries call.
type WriteCall struct {
	Error  error
	Label  string
	Series pivot.Series
	Values [][]any
}

// NewMockWriter creates a mock writer that succeeds with MockURL.
func NewMockWriter() *MockWriter {
	return &MockWriter{}
}

// WriteSeries implements SeriesWriter.
func (m *MockWriter) WriteSeries(ctx context.Context, series pivot.Series, label string) (string, error) {
	url := MockURL
	var err error
	if m.WriteFunc != nil {
		url, err = m.WriteFunc(ctx, series, label)
	}

	call := WriteCall{Series: series, Label: label, Error: err}
	if err == nil {
		call.Values = prepareSeriesData(series, label)
	}

	m.mu.Lock()
	m.calls = append(m.calls, call)
	m.mu.Unlock()

	return url, err
}

// CallCount returns how many exports were attempted.
func (m *MockWriter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Reset clears all recorded calls.
func (m *MockWriter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// GetWriteCalls returns a copy of all write calls.
func (m *MockWriter) GetWriteCalls() []WriteCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]WriteCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}
