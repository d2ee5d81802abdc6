package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/Veraticus/autobudget/internal/model"
	"github.com/Veraticus/autobudget/internal/pivot"
	"github.com/Veraticus/autobudget/internal/sheets"
	"github.com/Veraticus/autobudget/internal/testutil"
	tuitest "github.com/Veraticus/autobudget/internal/tui/testing"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	d, err := time.Parse(model.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func testSums() []model.CategorySum {
	return []model.CategorySum{
		{Date: "2024-03-01", CategoryName: "Groceries", Sum: 40},
		{Date: "2024-03-02", CategoryName: "Transport", Sum: 90},
		{Date: "2024-03-03", CategoryName: "Groceries", Sum: 20.5},
	}
}

func testSeries() pivot.Series {
	from, to := day("2024-03-01"), day("2024-03-03")
	return pivot.Build(testSums(), &from, &to)
}

func TestAnalyticsOptions_DateRange(t *testing.T) {
	now := time.Date(2024, 3, 31, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		opts     analyticsOptions
		wantFrom string
		wantTo   string
		wantErr  string
	}{
		{name: "last days", opts: analyticsOptions{days: 7}, wantFrom: "2024-03-25", wantTo: "2024-03-31"},
		{name: "from only", opts: analyticsOptions{from: "2024-03-10", days: 7}, wantFrom: "2024-03-10", wantTo: "2024-03-31"},
		{name: "explicit", opts: analyticsOptions{from: "2024-01-01", to: "2024-01-31"}, wantFrom: "2024-01-01", wantTo: "2024-01-31"},
		{name: "to without from", opts: analyticsOptions{to: "2024-01-31", days: 7}, wantErr: "--to needs --from"},
		{name: "reversed", opts: analyticsOptions{from: "2024-02-01", to: "2024-01-31"}, wantErr: "must not be before"},
		{name: "zero days", opts: analyticsOptions{days: 0}, wantErr: "at least 1"},
		{name: "bad date", opts: analyticsOptions{from: "March"}, wantErr: "expected YYYY-MM-DD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, err := tt.opts.dateRange(now)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFrom, from.Format(model.DateLayout))
			assert.Equal(t, tt.wantTo, to.Format(model.DateLayout))
		})
	}
}

func TestWriteSeries(t *testing.T) {
	series := testSeries()

	t.Run("table", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, writeSeries(&out, formatTable, series, "2024-03-01 to 2024-03-03"))
		text := out.String()
		assert.Contains(t, text, "2024-03-01 to 2024-03-03")
		assert.Regexp(t, `Groceries\s+60\.50\s+40\.2%`, text)
		assert.Regexp(t, `Transport\s+90\.00\s+59\.8%`, text)
		assert.Contains(t, tuitest.Line(text, "Total"), "150.50")
		assert.Contains(t, text, "3 days, 2 categories")
	})

	t.Run("csv", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, writeSeries(&out, formatCSV, series, ""))
		assert.Equal(t, "date,Groceries,Transport\n"+
			"2024-03-01,40.00,0.00\n"+
			"2024-03-02,0.00,90.00\n"+
			"2024-03-03,20.50,0.00\n", out.String())
	})

	t.Run("json", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, writeSeries(&out, formatJSON, series, ""))
		assert.Contains(t, out.String(), `"date": "2024-03-02"`)
		assert.Contains(t, out.String(), `"transport": 90`)
	})

	t.Run("empty table", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, writeSeries(&out, formatTable, pivot.Series{}, "Last 7 days"))
		assert.Contains(t, out.String(), "No data for this range.")
	})
}

func TestAnalyticsCmd(t *testing.T) {
	env := newCLIEnv(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/analytics/category-sums", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "2024-03-01", q.Get("start_date"))
		assert.Equal(t, "2024-03-03", q.Get("end_date"))
		assert.Equal(t, []string{"1"}, q["category_ids"])
		testutil.WriteJSON(t, w, http.StatusOK, testSums())
	})

	out, err := env.run("analytics", "--from", "2024-03-01", "--to", "2024-03-03", "--category", "1", "--format", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "date,Groceries,Transport\n")
	assert.Contains(t, out, "2024-03-03,20.50,0.00\n")
}

func TestAnalyticsCmd_InvalidFormat(t *testing.T) {
	env := newCLIEnv(t, nil)

	_, err := env.run("analytics", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid --format "xml"`)
}

func TestExportWith(t *testing.T) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())

	writer := sheets.NewMockWriter()
	require.NoError(t, exportWith(cmd, writer, testSeries(), "Last 7 days"))

	calls := writer.GetWriteCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Last 7 days", calls[0].Label)
	assert.Contains(t, out.String(), "Exported Last 7 days (2 categories) to Google Sheets")
}

type failingWriter struct{}

func (failingWriter) WriteSeries(context.Context, pivot.Series, string) (string, error) {
	return "", errors.New("quota exceeded")
}

func TestExportWith_Error(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	err := exportWith(cmd, failingWriter{}, testSeries(), "Last 7 days")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}
