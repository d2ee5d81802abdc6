package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Veraticus/autobudget/internal/common"
	"github.com/Veraticus/autobudget/internal/pivot"
	"github.com/shopspring/decimal"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SeriesWriter exports an analytics series somewhere a human can look at it.
type SeriesWriter interface {
	WriteSeries(ctx context.Context, series pivot.Series, label string) (string, error)
}

// Writer writes analytics series to a Google Sheet.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

// NewWriter creates a new Google Sheets writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	service, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return newWriter(config, service, logger), nil
}

func newWriter(config Config, service *sheets.Service, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	if config.SheetTitle == "" {
		config.SheetTitle = DefaultConfig().SheetTitle
	}
	return &Writer{
		config:  config,
		service: service,
		logger:  logger,
	}
}

// WriteSeries replaces the analytics tab with series and returns the
// spreadsheet URL.
func (w *Writer) WriteSeries(ctx context.Context, series pivot.Series, label string) (string, error) {
	w.logger.Info("starting analytics export",
		"categories", len(series.Categories),
		"days", len(series.Points),
		"range", label)

	retryOpts := w.retryOptions()

	var target spreadsheetTarget
	err := common.WithRetry(ctx, retryOpts, func(ctx context.Context) error {
		var getErr error
		target, getErr = w.getOrCreateSpreadsheet(ctx)
		return classifyAPIError(getErr)
	})
	if err != nil {
		return "", fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	err = common.WithRetry(ctx, retryOpts, func(ctx context.Context) error {
		return classifyAPIError(w.clearSheet(ctx, target.id))
	})
	if err != nil {
		return "", fmt.Errorf("failed to clear sheet: %w", err)
	}

	values := prepareSeriesData(series, label)

	err = common.WithRetry(ctx, retryOpts, func(ctx context.Context) error {
		return classifyAPIError(w.writeData(ctx, target.id, values))
	})
	if err != nil {
		return "", fmt.Errorf("failed to write data: %w", err)
	}

	if w.config.EnableFormatting {
		layout := newSeriesLayout(series)
		err = common.WithRetry(ctx, retryOpts, func(ctx context.Context) error {
			return classifyAPIError(w.applyFormatting(ctx, target.id, target.sheetID, layout))
		})
		if err != nil {
			// formatting failures do not fail the export
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("analytics export completed",
		"spreadsheet_id", target.id,
		"rows_written", len(values))

	return target.url, nil
}

func (w *Writer) retryOptions() common.RetryOptions {
	return common.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// classifyAPIError maps Sheets API failures onto the retry policy: 429 waits
// out the quota, other 4xx responses are permanent, everything else is retried.
func classifyAPIError(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
	case apiErr.Code >= 400 && apiErr.Code < 500:
		return common.Permanent(err)
	default:
		return err
	}
}

// createSheetsService creates a Google Sheets API service.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		client := &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{sheets.SpreadsheetsScope},
		}

		tokenSource = client.TokenSource(ctx, &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		})
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, tokenSource)))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}

type spreadsheetTarget struct {
	id      string
	url     string
	sheetID int64
}

// getOrCreateSpreadsheet finds the configured spreadsheet, creating it or
// the analytics tab when missing.
func (w *Writer) getOrCreateSpreadsheet(ctx context.Context) (spreadsheetTarget, error) {
	if w.config.SpreadsheetID == "" {
		spreadsheet := &sheets.Spreadsheet{
			Properties: &sheets.SpreadsheetProperties{
				Title:    w.config.SpreadsheetName,
				TimeZone: w.config.TimeZone,
			},
			Sheets: []*sheets.Sheet{
				{Properties: &sheets.SheetProperties{Title: w.config.SheetTitle}},
			},
		}

		created, err := w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
		if err != nil {
			return spreadsheetTarget{}, fmt.Errorf("unable to create spreadsheet: %w", err)
		}

		w.logger.Info("created new spreadsheet",
			"id", created.SpreadsheetId,
			"url", created.SpreadsheetUrl)

		// later exports reuse it
		w.config.SpreadsheetID = created.SpreadsheetId
		return spreadsheetTarget{
			id:      created.SpreadsheetId,
			url:     created.SpreadsheetUrl,
			sheetID: sheetIDByTitle(created, w.config.SheetTitle),
		}, nil
	}

	existing, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
	if err != nil {
		return spreadsheetTarget{}, fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
	}

	target := spreadsheetTarget{
		id:      w.config.SpreadsheetID,
		url:     existing.SpreadsheetUrl,
		sheetID: sheetIDByTitle(existing, w.config.SheetTitle),
	}
	if target.sheetID >= 0 {
		return target, nil
	}

	resp, err := w.service.Spreadsheets.BatchUpdate(w.config.SpreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: w.config.SheetTitle},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return spreadsheetTarget{}, fmt.Errorf("unable to add sheet %q: %w", w.config.SheetTitle, err)
	}
	target.sheetID = 0
	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil && resp.Replies[0].AddSheet.Properties != nil {
		target.sheetID = resp.Replies[0].AddSheet.Properties.SheetId
	}
	w.logger.Debug("added analytics sheet", "title", w.config.SheetTitle, "sheet_id", target.sheetID)
	return target, nil
}

// sheetIDByTitle returns the id of the tab named title, or -1.
func sheetIDByTitle(spreadsheet *sheets.Spreadsheet, title string) int64 {
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == title {
			return sheet.Properties.SheetId
		}
	}
	return -1
}

// clearSheet clears all data from the analytics tab.
func (w *Writer) clearSheet(ctx context.Context, spreadsheetID string) error {
	_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, w.sheetRange("A:ZZ"), &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

func (w *Writer) sheetRange(cells string) string {
	return fmt.Sprintf("'%s'!%s", w.config.SheetTitle, cells)
}

// seriesLayout records where each block lands so formatting can target it.
type seriesLayout struct {
	headerRow   int
	firstDayRow int
	totalsRow   int
	lastRow     int
	columns     int
}

func newSeriesLayout(series pivot.Series) seriesLayout {
	l := seriesLayout{headerRow: 2, firstDayRow: 3, columns: len(series.Categories) + 1}
	l.totalsRow = l.firstDayRow + len(series.Points) + 1
	l.lastRow = l.totalsRow + 2 + len(series.Totals) + 1
	return l
}

// prepareSeriesData lays out the dense series followed by a totals block.
func prepareSeriesData(series pivot.Series, label string) [][]any {
	layout := newSeriesLayout(series)
	values := make([][]any, 0, layout.lastRow)

	values = append(values,
		[]any{"Category Analytics", label},
		[]any{}, // Empty row
	)

	header := make([]any, 0, len(series.Categories)+1)
	header = append(header, "Date")
	for _, c := range series.Categories {
		header = append(header, c.Name)
	}
	values = append(values, header)

	for _, p := range series.Points {
		row := make([]any, 0, len(series.Categories)+1)
		row = append(row, p.DateString())
		for _, c := range series.Categories {
			row = append(row, p.Value(c.Key))
		}
		values = append(values, row)
	}

	values = append(values,
		[]any{}, // Empty row
		[]any{"Totals"},
		[]any{"Category", "Total", "Share"},
	)

	grand := series.GrandTotal()
	for _, t := range series.Totals {
		share := decimal.Zero
		if !grand.IsZero() {
			share = t.Sum.Div(grand)
		}
		values = append(values, []any{t.Name, t.Sum.InexactFloat64(), share.Round(4).InexactFloat64()})
	}
	values = append(values, []any{"Total", grand.InexactFloat64(), 1})

	return values
}

// writeData writes the data to the spreadsheet.
func (w *Writer) writeData(ctx context.Context, spreadsheetID string, values [][]any) error {
	for i := 0; i < len(values); i += w.config.BatchSize {
		end := min(i+w.config.BatchSize, len(values))

		batch := values[i:end]
		valueRange := &sheets.ValueRange{
			Values: batch,
		}

		_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, w.sheetRange(fmt.Sprintf("A%d", i+1)), valueRange).
			ValueInputOption("USER_ENTERED").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		w.logger.Debug("wrote batch", "start_row", i+1, "rows", len(batch))
	}

	return nil
}

// applyFormatting styles the title, headers and number columns.
func (w *Writer) applyFormatting(ctx context.Context, spreadsheetID string, sheetID int64, layout seriesLayout) error {
	bold := func(startRow, endRow, endCol int) *sheets.Request {
		return &sheets.Request{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    int64(startRow),
					EndRowIndex:      int64(endRow),
					StartColumnIndex: 0,
					EndColumnIndex:   int64(endCol),
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		}
	}
	number := func(startRow, endRow, startCol, endCol int, format *sheets.NumberFormat) *sheets.Request {
		return &sheets.Request{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    int64(startRow),
					EndRowIndex:      int64(endRow),
					StartColumnIndex: int64(startCol),
					EndColumnIndex:   int64(endCol),
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{NumberFormat: format},
				},
				Fields: "userEnteredFormat.numberFormat",
			},
		}
	}
	amount := &sheets.NumberFormat{Type: "NUMBER", Pattern: "#,##0.00"}

	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   2,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true, FontSize: 16},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		bold(layout.headerRow, layout.headerRow+1, layout.columns),
		bold(layout.totalsRow, layout.totalsRow+2, 3),
		number(layout.firstDayRow, layout.totalsRow, 1, layout.columns, amount),
		number(layout.totalsRow+2, layout.lastRow, 1, 2, amount),
		number(layout.totalsRow+2, layout.lastRow, 2, 3, &sheets.NumberFormat{Type: "PERCENT", Pattern: "0.0%"}),
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   int64(max(layout.columns, 3)),
				},
			},
		},
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId: sheetID,
					GridProperties: &sheets.GridProperties{
						FrozenRowCount:    int64(layout.headerRow + 1),
						FrozenColumnCount: 1,
					},
				},
				Fields: "gridProperties.frozenRowCount,gridProperties.frozenColumnCount",
			},
		},
	}

	_, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	return err
}
