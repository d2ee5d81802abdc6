package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/autobudget/internal/model"
	"github.com/Veraticus/autobudget/internal/pivot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

func day(s string) *time.Time {
	d, err := time.Parse(model.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return &d
}

func testSeries() pivot.Series {
	return pivot.Build([]model.CategorySum{
		{Date: "2024-01-01", CategoryName: "Food", Sum: 30},
		{Date: "2024-01-02", CategoryName: "Rent", Sum: 70},
	}, day("2024-01-01"), day("2024-01-02"))
}

func TestPrepareSeriesData(t *testing.T) {
	values := prepareSeriesData(testSeries(), "Last 7 days")

	require.Len(t, values, newSeriesLayout(testSeries()).lastRow)
	assert.Equal(t, []any{"Category Analytics", "Last 7 days"}, values[0])
	assert.Equal(t, []any{"Date", "Food", "Rent"}, values[2])
	assert.Equal(t, []any{"2024-01-01", 30.0, 0.0}, values[3])
	assert.Equal(t, []any{"2024-01-02", 0.0, 70.0}, values[4])
	assert.Empty(t, values[5])
	assert.Equal(t, []any{"Totals"}, values[6])
	assert.Equal(t, []any{"Category", "Total", "Share"}, values[7])
	assert.Equal(t, []any{"Food", 30.0, 0.3}, values[8])
	assert.Equal(t, []any{"Rent", 70.0, 0.7}, values[9])
	assert.Equal(t, []any{"Total", 100.0, 1}, values[10])
}

func TestPrepareSeriesData_Empty(t *testing.T) {
	values := prepareSeriesData(pivot.Series{}, "nothing")

	assert.Equal(t, []any{"Date"}, values[2])
	assert.Equal(t, []any{"Total", 0.0, 1}, values[len(values)-1])
}

// fakeSheetsAPI records calls made by the Sheets client.
type fakeSheetsAPI struct {
	calls  []string
	values [][]any
	mu     sync.Mutex
}

func (f *fakeSheetsAPI) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		path := r.URL.Path
		f.calls = append(f.calls, r.Method+" "+path)
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.Method == http.MethodGet && strings.HasSuffix(path, "/spreadsheets/sheet-1"):
			_, _ = io.WriteString(w, `{"spreadsheetId":"sheet-1","spreadsheetUrl":"https://sheets.example/sheet-1","sheets":[{"properties":{"sheetId":42,"title":"Analytics"}}]}`)
		case strings.HasSuffix(path, ":clear"):
			_, _ = io.WriteString(w, `{}`)
		case r.Method == http.MethodPut:
			var vr sheets.ValueRange
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&vr))
			assert.Equal(t, "USER_ENTERED", r.URL.Query().Get("valueInputOption"))
			f.values = append(f.values, vr.Values...)
			_, _ = io.WriteString(w, `{}`)
		case strings.HasSuffix(path, ":batchUpdate"):
			_, _ = io.WriteString(w, `{}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":{"code":404,"message":"not found"}}`)
		}
	}
}

func TestWriter_WriteSeries(t *testing.T) {
	api := &fakeSheetsAPI{}
	server := httptest.NewServer(api.handler(t))
	defer server.Close()

	ctx := context.Background()
	service, err := sheets.NewService(ctx,
		option.WithEndpoint(server.URL+"/"),
		option.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)

	config := DefaultConfig()
	config.SpreadsheetID = "sheet-1"
	config.BatchSize = 4
	config.RetryAttempts = 1
	writer := newWriter(config, service, slog.Default())

	url, err := writer.WriteSeries(ctx, testSeries(), "Last 7 days")
	require.NoError(t, err)
	assert.Equal(t, "https://sheets.example/sheet-1", url)

	api.mu.Lock()
	defer api.mu.Unlock()

	// 11 rows in batches of 4
	puts := 0
	for _, call := range api.calls {
		if strings.HasPrefix(call, http.MethodPut) {
			puts++
		}
	}
	assert.Equal(t, 3, puts)
	require.Len(t, api.values, 11)
	assert.Equal(t, "Date", api.values[2][0])
	assert.Contains(t, api.calls[len(api.calls)-1], ":batchUpdate")
}

func TestWriter_WriteSeriesFailsWhenSpreadsheetMissing(t *testing.T) {
	api := &fakeSheetsAPI{}
	server := httptest.NewServer(api.handler(t))
	defer server.Close()

	ctx := context.Background()
	service, err := sheets.NewService(ctx,
		option.WithEndpoint(server.URL+"/"),
		option.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)

	config := DefaultConfig()
	config.SpreadsheetID = "does-not-exist"
	config.RetryAttempts = 1
	config.RetryDelay = time.Millisecond

	_, err = newWriter(config, service, nil).WriteSeries(ctx, testSeries(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get spreadsheet")
}

func TestMockWriter(t *testing.T) {
	mock := NewMockWriter()
	var _ SeriesWriter = mock

	url, err := mock.WriteSeries(context.Background(), testSeries(), "Last 30 days")
	require.NoError(t, err)
	assert.Equal(t, MockURL, url)

	calls := mock.GetWriteCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Last 30 days", calls[0].Label)
	assert.Equal(t, []any{"Category Analytics", "Last 30 days"}, calls[0].Values[0])

	mock.WriteFunc = func(context.Context, pivot.Series, string) (string, error) {
		return "", errors.New("quota exceeded")
	}
	_, err = mock.WriteSeries(context.Background(), testSeries(), "Last 7 days")
	require.Error(t, err)
	assert.Nil(t, mock.GetWriteCalls()[1].Values)
	assert.Equal(t, 2, mock.CallCount())

	mock.Reset()
	assert.Equal(t, 0, mock.CallCount())
}
