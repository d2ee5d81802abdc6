package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Veraticus/autobudget/internal/cli"
	"github.com/Veraticus/autobudget/internal/model"
	"github.com/Veraticus/autobudget/internal/staging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const descriptionWidth = 40

func expensesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "expenses",
		Aliases: []string{"expense", "exp"},
		Short:   "Manage expense and income records",
	}

	cmd.AddCommand(listExpensesCmd())
	cmd.AddCommand(addExpenseCmd())
	cmd.AddCommand(editExpenseCmd())
	cmd.AddCommand(patchExpenseCmd())
	cmd.AddCommand(deleteExpenseCmd())

	return cmd
}

func listExpensesCmd() *cobra.Command {
	var (
		from       string
		to         string
		typeFlag   string
		categories []int
		page       int
		pageSize   int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List records page by page",
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := model.ExpenseFilter{
				CategoryIDs: categories,
				Page:        page,
				PageSize:    pageSize,
			}
			var err error
			if filter.StartDate, err = parseDateFlag("from", from); err != nil {
				return err
			}
			if filter.EndDate, err = parseDateFlag("to", to); err != nil {
				return err
			}
			if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
				return fmt.Errorf("--to must not be before --from")
			}
			if filter.Type, err = parseType(typeFlag); err != nil {
				return err
			}

			client, err := newAPIClient()
			if err != nil {
				return err
			}

			result, err := client.ListExpenses(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("failed to list expenses: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(result.Items) == 0 {
				fmt.Fprintln(out, cli.InfoStyle.Render("No records match."))
				return nil
			}

			printExpenses(out, result.Items)
			fmt.Fprintln(out)
			fmt.Fprintln(out, cli.SubtleStyle.Render(pageFooter(result.Meta)))
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "End date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&typeFlag, "type", "", "Only this type (expense, income)")
	cmd.Flags().IntSliceVar(&categories, "category", nil, "Only these category IDs (repeatable)")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 50, "Records per page")

	return cmd
}

func printExpenses(out io.Writer, expenses []model.Expense) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	defer w.Flush()

	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
		cli.TableHeaderStyle.Render("ID"),
		cli.TableHeaderStyle.Render("Date"),
		cli.TableHeaderStyle.Render("Amount"),
		cli.TableHeaderStyle.Render("Category"),
		cli.TableHeaderStyle.Render("Description"))

	for _, e := range expenses {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t\n",
			e.ID,
			e.ExpenseDate,
			cli.FormatAmount(e.Amount, e.Type == model.TypeIncome),
			categoryLabel(e.CategoryID, e.CategoryName()),
			truncate(e.Description, descriptionWidth))
	}
}

func pageFooter(meta model.PaginationMeta) string {
	footer := fmt.Sprintf("Page %d of %d · %d records", meta.Page, max(meta.TotalPages, 1), meta.TotalCount)
	if meta.Page < meta.TotalPages {
		footer += fmt.Sprintf(" · next: --page %d", meta.Page+1)
	}
	return footer
}

// expenseFlags are the record fields shared by add and edit.
type expenseFlags struct {
	date        string
	amount      string
	typeFlag    string
	category    string
	description string
}

func (f *expenseFlags) register(flags *pflag.FlagSet, defaultDate string) {
	flags.StringVar(&f.date, "date", defaultDate, "Date (YYYY-MM-DD or DD.MM.YYYY)")
	flags.StringVar(&f.amount, "amount", "", "Amount, '.' or ',' as decimal separator")
	flags.StringVar(&f.typeFlag, "type", string(model.TypeExpense), "Type (expense, income)")
	flags.StringVar(&f.category, "category", "", "Category ID, or 'none'")
	flags.StringVar(&f.description, "description", "", "Description")
}

func (f *expenseFlags) input() (model.ExpenseInput, error) {
	var in model.ExpenseInput

	d, err := staging.ParseDate(f.date)
	if err != nil {
		return in, err
	}
	amount, err := parseAmount(f.amount)
	if err != nil {
		return in, err
	}
	t, err := model.ParseTransactionType(f.typeFlag)
	if err != nil {
		return in, err
	}
	category, err := parseCategoryFlag(f.category)
	if err != nil {
		return in, err
	}

	in.ExpenseDate = d.Format(model.DateLayout)
	in.Amount = amount
	in.Type = t
	in.CategoryID = category
	in.Description = strings.TrimSpace(f.description)
	return in, nil
}

func addExpenseCmd() *cobra.Command {
	var flags expenseFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a record",
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := flags.input()
			if err != nil {
				return err
			}

			client, err := newAPIClient()
			if err != nil {
				return err
			}

			expense, err := client.CreateExpense(cmd.Context(), in)
			if err != nil {
				return fmt.Errorf("failed to create expense: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(describeExpense("Created", expense)))
			return nil
		},
	}

	flags.register(cmd.Flags(), time.Now().Format(model.DateLayout))
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func editExpenseCmd() *cobra.Command {
	var flags expenseFlags

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Replace a record",
		Long:  `Replace every field of a record. Fields left out take their defaults; use 'patch' to change single fields.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("expense", args[0])
			if err != nil {
				return err
			}
			in, err := flags.input()
			if err != nil {
				return err
			}

			client, err := newAPIClient()
			if err != nil {
				return err
			}

			expense, err := client.ReplaceExpense(cmd.Context(), id, in)
			if err != nil {
				return fmt.Errorf("failed to update expense: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(describeExpense("Updated", expense)))
			return nil
		},
	}

	flags.register(cmd.Flags(), "")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func patchExpenseCmd() *cobra.Command {
	var flags expenseFlags

	cmd := &cobra.Command{
		Use:   "patch <id>",
		Short: "Change individual fields of a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("expense", args[0])
			if err != nil {
				return err
			}
			patch, err := flags.patch(cmd.Flags())
			if err != nil {
				return err
			}

			client, err := newAPIClient()
			if err != nil {
				return err
			}

			expense, err := client.PatchExpense(cmd.Context(), id, patch)
			if err != nil {
				return fmt.Errorf("failed to update expense: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(describeExpense("Updated", expense)))
			return nil
		},
	}

	flags.register(cmd.Flags(), "")

	return cmd
}

// patch builds a patch from the flags that were set on the command line.
func (f *expenseFlags) patch(flags *pflag.FlagSet) (model.ExpensePatch, error) {
	var patch model.ExpensePatch
	changed := false

	if flags.Changed("date") {
		d, err := staging.ParseDate(f.date)
		if err != nil {
			return patch, err
		}
		s := d.Format(model.DateLayout)
		patch.ExpenseDate = &s
		changed = true
	}
	if flags.Changed("amount") {
		amount, err := parseAmount(f.amount)
		if err != nil {
			return patch, err
		}
		patch.Amount = &amount
		changed = true
	}
	if flags.Changed("type") {
		t, err := model.ParseTransactionType(f.typeFlag)
		if err != nil {
			return patch, err
		}
		patch.Type = &t
		changed = true
	}
	if flags.Changed("category") {
		category, err := parseCategoryFlag(f.category)
		if err != nil {
			return patch, err
		}
		if category == nil {
			return patch, fmt.Errorf("patch cannot clear a category; use 'edit' instead")
		}
		patch.CategoryID = category
		changed = true
	}
	if flags.Changed("description") {
		s := strings.TrimSpace(f.description)
		patch.Description = &s
		changed = true
	}

	if !changed {
		return patch, fmt.Errorf("nothing to change: pass at least one of --date, --amount, --type, --category, --description")
	}
	return patch, nil
}

func deleteExpenseCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			id, err := parseID("expense", args[0])
			if err != nil {
				return err
			}

			if !force {
				prompter := cli.NewPrompter(cmd.InOrStdin(), out)
				ok, err := prompter.Confirm(ctx, fmt.Sprintf("Delete record %d?", id), false)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, cli.FormatInfo("Cancelled"))
					return nil
				}
			}

			client, err := newAPIClient()
			if err != nil {
				return err
			}
			if err := client.DeleteExpense(ctx, id); err != nil {
				return fmt.Errorf("failed to delete expense: %w", err)
			}

			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Deleted record %d", id)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation")

	return cmd
}

func describeExpense(verb string, e model.Expense) string {
	return fmt.Sprintf("%s %s %d: %s %.2f %s",
		verb, e.Type, e.ID, e.ExpenseDate, e.Amount, categoryLabel(e.CategoryID, e.CategoryName()))
}
