package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/Veraticus/autobudget/internal/cli"
	"github.com/Veraticus/autobudget/internal/config"
	"github.com/Veraticus/autobudget/internal/pivot"
	"github.com/Veraticus/autobudget/internal/sheets"
	"github.com/Veraticus/autobudget/internal/tui"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// Output formats of the analytics command.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatCSV   = "csv"
)

type analyticsOptions struct {
	from       string
	to         string
	format     string
	categories []int
	days       int
	sheets     bool
	tui        bool
}

func analyticsCmd() *cobra.Command {
	var opts analyticsOptions

	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Show spending per category over time",
		Long: `Show per-category sums for a date range.

Without --from the range covers the last --days days up to today. Output
is a totals table, or the dense daily series as JSON or CSV. --tui opens the
interactive charts and --sheets writes the series to Google Sheets.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, to, err := opts.dateRange(time.Now())
			if err != nil {
				return err
			}
			if !validFormat(opts.format) {
				return fmt.Errorf("invalid --format %q: use table, json or csv", opts.format)
			}

			client, err := newAPIClient()
			if err != nil {
				return err
			}

			if opts.tui {
				return tui.RunAnalytics(cmd.Context(), client,
					tui.AnalyticsQuery{From: from, To: to, CategoryIDs: opts.categories}, tuiOptions()...)
			}

			sums, err := client.CategorySums(cmd.Context(), from, to, opts.categories)
			if err != nil {
				return fmt.Errorf("failed to load analytics: %w", err)
			}
			series := pivot.Build(sums, &from, &to)
			label := pivot.Label(from, to, time.Now())

			if opts.sheets {
				return exportSeries(cmd, series, label)
			}

			return writeSeries(cmd.OutOrStdout(), opts.format, series, label)
		},
	}

	cmd.Flags().StringVar(&opts.from, "from", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.to, "to", "", "End date (YYYY-MM-DD, default: today)")
	cmd.Flags().IntVarP(&opts.days, "days", "d", 30, "Number of days up to today (used when --from is not set)")
	cmd.Flags().IntSliceVar(&opts.categories, "category", nil, "Only these category IDs (repeatable)")
	cmd.Flags().StringVarP(&opts.format, "format", "o", formatTable, "Output format (table, json, csv)")
	cmd.Flags().BoolVar(&opts.sheets, "sheets", false, "Write the series to Google Sheets")
	cmd.Flags().BoolVar(&opts.tui, "tui", false, "Open the interactive charts")
	cmd.MarkFlagsMutuallyExclusive("sheets", "tui")

	return cmd
}

// dateRange resolves the flags into inclusive day bounds.
func (o analyticsOptions) dateRange(now time.Time) (time.Time, time.Time, error) {
	fromFlag, err := parseDateFlag("from", o.from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	toFlag, err := parseDateFlag("to", o.to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	if fromFlag == nil {
		if toFlag != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--to needs --from")
		}
		if o.days < 1 {
			return time.Time{}, time.Time{}, fmt.Errorf("--days must be at least 1")
		}
		from, to := pivot.LastDays(o.days, now)
		return from, to, nil
	}

	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if toFlag != nil {
		to = *toFlag
	}
	if to.Before(*fromFlag) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to must not be before --from")
	}
	return *fromFlag, to, nil
}

func validFormat(format string) bool {
	switch format {
	case formatTable, formatJSON, formatCSV:
		return true
	}
	return false
}

func writeSeries(out io.Writer, format string, series pivot.Series, label string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(series)
	case formatCSV:
		return writeSeriesCSV(out, series)
	default:
		writeSeriesTable(out, series, label)
		return nil
	}
}

func writeSeriesTable(out io.Writer, series pivot.Series, label string) {
	fmt.Fprintln(out, cli.TitleStyle.Render(cli.ChartIcon+" "+label))
	if len(series.Totals) == 0 {
		fmt.Fprintln(out, cli.InfoStyle.Render("No data for this range."))
		return
	}

	grand := series.GrandTotal()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\n",
		cli.TableHeaderStyle.Render("Category"),
		cli.TableHeaderStyle.Render("Sum"),
		cli.TableHeaderStyle.Render("Share"))
	for _, t := range series.Totals {
		fmt.Fprintf(w, "%s\t%s\t%s%%\n", t.Name, t.Sum.StringFixed(2), share(t.Sum, grand).StringFixed(1))
	}
	fmt.Fprintf(w, "%s\t%s\t\n", cli.BoldStyle.Render("Total"), grand.StringFixed(2))
	_ = w.Flush()

	fmt.Fprintln(out, cli.SubtleStyle.Render(fmt.Sprintf("%d days, %d categories", len(series.Points), len(series.Categories))))
}

func share(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100)).Round(1)
}

// writeSeriesCSV writes one row per day with a column per category.
func writeSeriesCSV(out io.Writer, series pivot.Series) error {
	w := csv.NewWriter(out)

	header := make([]string, 0, len(series.Categories)+1)
	header = append(header, "date")
	for _, c := range series.Categories {
		header = append(header, c.Name)
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}

	keys := series.Keys()
	for _, p := range series.Points {
		row := make([]string, 0, len(keys)+1)
		row = append(row, p.DateString())
		for _, k := range keys {
			row = append(row, decimal.NewFromFloat(p.Value(k)).StringFixed(2))
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write csv: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

func exportSeries(cmd *cobra.Command, series pivot.Series, label string) error {
	sheetsCfg, err := config.LoadSheetsConfig()
	if err != nil {
		return fmt.Errorf("google sheets is not configured: %w", err)
	}

	writer, err := sheets.NewWriter(cmd.Context(), *sheetsCfg, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create sheets writer: %w", err)
	}

	return exportWith(cmd, writer, series, label)
}

func exportWith(cmd *cobra.Command, writer sheets.SeriesWriter, series pivot.Series, label string) error {
	url, err := writer.WriteSeries(cmd.Context(), series, label)
	if err != nil {
		return fmt.Errorf("failed to export analytics: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Exported %s (%d categories) to Google Sheets", label, len(series.Categories))))
	if url != "" {
		fmt.Fprintf(out, "  %s\n", url)
	}
	return nil
}
