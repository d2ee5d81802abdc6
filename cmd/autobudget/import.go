package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Veraticus/autobudget/internal/cli"
	"github.com/Veraticus/autobudget/internal/common"
	"github.com/Veraticus/autobudget/internal/model"
	"github.com/Veraticus/autobudget/internal/staging"
	"github.com/Veraticus/autobudget/internal/storage"
	"github.com/Veraticus/autobudget/internal/tui"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// maxListedErrors caps the parse errors printed after a preview.
const maxListedErrors = 10

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import transactions from a CSV file",
		Long: `Import transactions in three steps.

1. 'import preview <file>' uploads the file; the backend parses it and the
   result is kept locally as an import session.
2. 'import review' opens the session in an editor where rows can be fixed,
   re-categorized, or dropped.
3. Saving from the review (or 'import apply') submits the rows as one batch.

Sessions survive restarts until they are saved or discarded.`,
	}

	cmd.AddCommand(importPreviewCmd())
	cmd.AddCommand(importRestoreCmd())
	cmd.AddCommand(importReviewCmd())
	cmd.AddCommand(importSessionsCmd())
	cmd.AddCommand(importDiscardCmd())
	cmd.AddCommand(importApplyCmd())

	return cmd
}

func importPreviewCmd() *cobra.Command {
	var review bool

	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Upload a file for parsing and start an import session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			path := args[0]

			file, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open import file: %w", err)
			}
			defer func() { _ = file.Close() }()

			info, err := file.Stat()
			if err != nil {
				return fmt.Errorf("failed to stat import file: %w", err)
			}

			client, err := newAPIClient()
			if err != nil {
				return err
			}
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			name := filepath.Base(path)
			bar := cli.NewUploadProgress(info.Size(), cmd.ErrOrStderr(), "Uploading "+name)
			preview, err := client.PreviewImport(ctx, name, cli.UploadReader(file, bar))
			_ = bar.Finish()
			if err != nil {
				return fmt.Errorf("failed to preview import: %w", err)
			}

			session := &model.ImportSession{Filename: name, Preview: preview}
			if err := store.SaveImportSession(ctx, session); err != nil {
				return fmt.Errorf("failed to store import session: %w", err)
			}

			common.LogInfo("import preview stored", common.Fields{
				"session": session.ID,
				"rows":    len(preview.Transactions),
				"errors":  len(preview.Errors),
			})

			printPreview(out, session)

			if review {
				return reviewSession(ctx, cmd, store, client, session.ID)
			}
			fmt.Fprintf(out, "\nNext: autobudget import review %s\n", session.ID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&review, "review", false, "Open the review screen right away")

	return cmd
}

func importRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <preview.json>",
		Short: "Start an import session from a saved preview",
		Long: `Start an import session from a preview saved as JSON.

Accepts {"transactions": [...], "errors": [...]}, a bare array of
transactions, or {"data": [...]}.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read preview: %w", err)
			}

			buffer := staging.NewBuffer()
			if err := buffer.LoadJSON(data); err != nil {
				return common.NewUserError(
					fmt.Sprintf("%s is not a usable import preview; nothing was stored.", filepath.Base(args[0])), err)
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			session := &model.ImportSession{Filename: filepath.Base(args[0]), Preview: bufferPreview(buffer)}
			if err := store.SaveImportSession(ctx, session); err != nil {
				return fmt.Errorf("failed to store import session: %w", err)
			}

			printPreview(cmd.OutOrStdout(), session)
			fmt.Fprintf(cmd.OutOrStdout(), "\nNext: autobudget import review %s\n", session.ID)
			return nil
		},
	}
}

func importReviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "review [session]",
		Short: "Review and save an import session",
		Long:  `Open an import session in the review screen. Without an ID the most recent session is used.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			client, err := newAPIClient()
			if err != nil {
				return err
			}
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var id string
			if len(args) == 1 {
				id = args[0]
			}
			return reviewSession(ctx, cmd, store, client, id)
		},
	}
}

// reviewSession loads the session and the category list side by side, runs
// the review screen and stores whatever is left unsaved.
func reviewSession(ctx context.Context, cmd *cobra.Command, store *storage.SQLiteStorage, client categoryClient, id string) error {
	out := cmd.OutOrStdout()

	id, err := resolveSessionID(ctx, store, id)
	if err != nil {
		return handleSessionLoadError(ctx, out, store, "", err)
	}

	session, lister, err := loadReview(ctx, store, client, id)
	if err != nil {
		return handleSessionLoadError(ctx, out, store, id, err)
	}

	buffer := staging.NewBuffer()
	buffer.Load(session.Preview)

	result, err := tui.RunReview(ctx, buffer, client, lister, tuiOptions()...)
	if err != nil {
		// keep the edits made so far
		if storeErr := storeBuffer(context.WithoutCancel(ctx), store, session, buffer); storeErr != nil {
			common.LogError(storeErr, "failed to store review edits", common.Fields{"session": session.ID})
		}
		return err
	}

	if result.Saved {
		if err := store.DeleteImportSession(ctx, session.ID); err != nil {
			return fmt.Errorf("imported %d transactions but failed to remove the session: %w", result.Imported, err)
		}
		fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d transactions", result.Imported)))
		return nil
	}

	if err := storeBuffer(ctx, store, session, buffer); err != nil {
		return err
	}
	fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Nothing imported yet. Resume with: autobudget import review %s", session.ID)))
	return nil
}

// loadReview reads the session while the category list is fetched. A failed
// category fetch is logged and left for the review screen to retry.
func loadReview(ctx context.Context, store *storage.SQLiteStorage, client tui.CategoryLister, id string) (*model.ImportSession, *prefetchedLister, error) {
	var session *model.ImportSession
	lister := &prefetchedLister{next: client, used: true}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		session, err = store.GetImportSession(gctx, id)
		return err
	})
	g.Go(func() error {
		categories, err := client.ListCategories(gctx)
		if err != nil {
			if gctx.Err() == nil {
				common.LogError(err, "failed to prefetch categories", nil)
			}
			return nil
		}
		lister.categories, lister.used = categories, false
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return session, lister, nil
}

// resolveSessionID returns id, or the most recently updated session when id
// is empty.
func resolveSessionID(ctx context.Context, store *storage.SQLiteStorage, id string) (string, error) {
	if id != "" {
		return id, nil
	}
	sessions, err := store.ListImportSessions(ctx)
	if err != nil {
		return "", err
	}
	if len(sessions) == 0 {
		return "", fmt.Errorf("%w: no sessions stored", storage.ErrSessionNotFound)
	}
	return sessions[0].ID, nil
}

// handleSessionLoadError turns session load failures into user messages. A
// malformed session is discarded so the next review starts clean.
func handleSessionLoadError(ctx context.Context, out io.Writer, store *storage.SQLiteStorage, id string, err error) error {
	switch {
	case errors.Is(err, storage.ErrMalformedSession):
		if id != "" {
			if delErr := store.DeleteImportSession(ctx, id); delErr != nil {
				return fmt.Errorf("failed to discard malformed session: %w", delErr)
			}
		}
		fmt.Fprintln(out, cli.FormatWarning("The stored import session was unreadable and has been discarded. Run 'autobudget import preview' again."))
		return nil
	case errors.Is(err, storage.ErrSessionNotFound) && id == "":
		return common.NewUserError("No import session found. Start one with 'autobudget import preview <file>'.", err)
	case errors.Is(err, storage.ErrSessionNotFound):
		return common.NewUserError(fmt.Sprintf("Import session %s not found.", id), err)
	default:
		return err
	}
}

// categoryClient is the slice of the backend client an import review needs.
type categoryClient interface {
	staging.Submitter
	tui.CategoryLister
}

// prefetchedLister answers the first request from a list loaded ahead of
// time and goes to the backend for every reload after that. A lister whose
// prefetch failed starts out used.
type prefetchedLister struct {
	next       tui.CategoryLister
	categories []model.Category
	used       bool
}

func (l *prefetchedLister) ListCategories(ctx context.Context) ([]model.Category, error) {
	if !l.used {
		l.used = true
		return l.categories, nil
	}
	return l.next.ListCategories(ctx)
}

func bufferPreview(buffer *staging.Buffer) model.ImportPreview {
	return model.ImportPreview{
		Transactions: buffer.Payload(),
		Errors:       buffer.Errors(),
		HeadersFound: buffer.Headers(),
	}
}

func storeBuffer(ctx context.Context, store *storage.SQLiteStorage, session *model.ImportSession, buffer *staging.Buffer) error {
	session.Preview = bufferPreview(buffer)
	if err := store.SaveImportSession(ctx, session); err != nil {
		return fmt.Errorf("failed to store import session: %w", err)
	}
	return nil
}

func printPreview(out io.Writer, session *model.ImportSession) {
	p := session.Preview
	fmt.Fprintln(out, cli.FormatTitle("Import preview: "+session.Filename))
	fmt.Fprintf(out, "  Transactions: %d\n", len(p.Transactions))
	if len(p.HeadersFound) > 0 {
		fmt.Fprintf(out, "  Columns:      %s\n", strings.Join(p.HeadersFound, ", "))
	}
	if len(p.Errors) > 0 {
		fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%d lines could not be parsed:", len(p.Errors))))
		for i, e := range p.Errors {
			if i == maxListedErrors {
				fmt.Fprintf(out, "    … and %d more\n", len(p.Errors)-maxListedErrors)
				break
			}
			fmt.Fprintf(out, "    %s\n", e)
		}
	}
	fmt.Fprintf(out, "  Session:      %s\n", session.ID)
}

func importSessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List stored import sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			sessions, err := store.ListImportSessions(ctx)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Fprintln(out, cli.InfoStyle.Render("No import sessions."))
				return nil
			}

			printSessions(out, sessions)
			return nil
		},
	}
}

func printSessions(out io.Writer, sessions []model.ImportSessionSummary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
		cli.TableHeaderStyle.Render("Session"),
		cli.TableHeaderStyle.Render("File"),
		cli.TableHeaderStyle.Render("Rows"),
		cli.TableHeaderStyle.Render("Errors"),
		cli.TableHeaderStyle.Render("Updated"))
	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
			s.ID, truncate(s.Filename, 32), s.Rows, s.Errors, s.UpdatedAt.Local().Format(time.DateTime))
	}
}

func importDiscardCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "discard <session>",
		Short: "Discard an import session without importing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			id := args[0]

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if !force {
				prompter := cli.NewPrompter(cmd.InOrStdin(), out)
				ok, err := prompter.Confirm(ctx, fmt.Sprintf("Discard import session %s?", id), false)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, cli.FormatInfo("Kept"))
					return nil
				}
			}

			if err := store.DeleteImportSession(ctx, id); err != nil {
				return err
			}
			fmt.Fprintln(out, cli.FormatSuccess("Discarded import session "+id))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation")

	return cmd
}

func importApplyCmd() *cobra.Command {
	var (
		sets   []string
		rows   []int
		drop   []int
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "apply <session>",
		Short: "Edit and submit an import session without the review screen",
		Long: `Submit an import session as one batch.

--set field=value applies a bulk edit before submitting; repeat it for
several fields. Fields: expense_date, description, type, amount, category_id.
--rows limits the edits to the given row numbers (1-based); --drop removes
rows first. Row numbers refer to the session as listed before any drop.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			edits, err := parseSetFlags(sets)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			session, err := store.GetImportSession(ctx, args[0])
			if err != nil {
				return handleSessionLoadError(ctx, out, store, args[0], err)
			}

			buffer := staging.NewBuffer()
			buffer.Load(session.Preview)

			if err := applyEdits(buffer, edits, rows, drop); err != nil {
				return err
			}

			if dryRun {
				fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Would import %d transactions", buffer.Len())))
				printStagedRows(out, buffer.Rows())
				return nil
			}

			client, err := newAPIClient()
			if err != nil {
				return err
			}

			count, err := buffer.Save(ctx, client)
			if err != nil {
				if errors.Is(err, common.ErrEmptyBatch) {
					return common.NewUserError("Nothing left to import in this session.", err)
				}
				return fmt.Errorf("failed to save import: %w", err)
			}

			if err := store.DeleteImportSession(ctx, session.ID); err != nil {
				return fmt.Errorf("imported %d transactions but failed to remove the session: %w", count, err)
			}
			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d transactions", count)))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&sets, "set", nil, "Bulk edit as field=value (repeatable)")
	cmd.Flags().IntSliceVar(&rows, "rows", nil, "Row numbers the edits apply to (default: all)")
	cmd.Flags().IntSliceVar(&drop, "drop", nil, "Row numbers to remove before submitting")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the result without submitting")

	return cmd
}

// fieldEdit is one --set flag.
type fieldEdit struct {
	field staging.Field
	value string
}

func parseSetFlags(sets []string) ([]fieldEdit, error) {
	edits := make([]fieldEdit, 0, len(sets))
	for _, s := range sets {
		name, value, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --set %q: expected field=value", s)
		}
		field, err := staging.ParseField(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		edits = append(edits, fieldEdit{field: field, value: value})
	}
	return edits, nil
}

// applyEdits drops rows, then runs every edit over the selected rows. Row
// numbers are resolved against the buffer before anything changes.
func applyEdits(buffer *staging.Buffer, edits []fieldEdit, rows, drop []int) error {
	ids := buffer.IDs()

	resolve := func(numbers []int, flag string) ([]string, error) {
		out := make([]string, 0, len(numbers))
		for _, n := range numbers {
			if n < 1 || n > len(ids) {
				return nil, fmt.Errorf("--%s %d is out of range 1..%d", flag, n, len(ids))
			}
			out = append(out, ids[n-1])
		}
		return out, nil
	}

	dropIDs, err := resolve(drop, "drop")
	if err != nil {
		return err
	}
	targets := ids
	if len(rows) > 0 {
		if targets, err = resolve(rows, "rows"); err != nil {
			return err
		}
	}

	buffer.BulkDelete(dropIDs)

	// type edits go first since they reset categories
	sort.SliceStable(edits, func(i, j int) bool {
		return edits[i].field == staging.FieldType && edits[j].field != staging.FieldType
	})
	for _, e := range edits {
		if err := buffer.BulkUpdate(targets, e.field, e.value); err != nil {
			return fmt.Errorf("failed to apply %s=%s: %w", e.field, e.value, err)
		}
	}
	return nil
}

func printStagedRows(out io.Writer, rows []staging.StagedRow) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
		cli.TableHeaderStyle.Render("Date"),
		cli.TableHeaderStyle.Render("Type"),
		cli.TableHeaderStyle.Render("Amount"),
		cli.TableHeaderStyle.Render("Category"),
		cli.TableHeaderStyle.Render("Description"))
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%s\n",
			r.ExpenseDate, r.Type, r.Amount, categoryLabel(r.CategoryID, ""), truncate(r.Description, descriptionWidth))
	}
}
