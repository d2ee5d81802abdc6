package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/autobudget/internal/cli"
	"github.com/Veraticus/autobudget/internal/model"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category", "cat"},
		Short:   "Manage categories",
		Long:    `List, add, update, and delete the categories expenses and income are filed under.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(updateCategoryCmd())
	cmd.AddCommand(patchCategoryCmd())
	cmd.AddCommand(deleteCategoryCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	var typeFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := parseType(typeFlag)
			if err != nil {
				return err
			}

			client, err := newAPIClient()
			if err != nil {
				return err
			}

			categories, err := client.ListCategories(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list categories: %w", err)
			}

			if filter != "" {
				categories = filterCategories(categories, filter)
			}

			out := cmd.OutOrStdout()
			if len(categories) == 0 {
				fmt.Fprintln(out, cli.InfoStyle.Render("No categories found. Use 'autobudget categories add' to create one."))
				return nil
			}

			printCategories(out, categories)
			return nil
		},
	}

	cmd.Flags().StringVar(&typeFlag, "type", "", "Only show categories of this type (expense, income)")

	return cmd
}

func filterCategories(categories []model.Category, t model.TransactionType) []model.Category {
	out := make([]model.Category, 0, len(categories))
	for _, c := range categories {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

func printCategories(out io.Writer, categories []model.Category) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	fmt.Fprintf(w, "%s\t%s\t%s\n",
		headerStyle.Render("ID"),
		headerStyle.Render("Name"),
		headerStyle.Render("Type"))
	fmt.Fprintf(w, "%s\t%s\t%s\n",
		strings.Repeat("-", 4),
		strings.Repeat("-", 24),
		strings.Repeat("-", 7))

	for _, c := range categories {
		fmt.Fprintf(w, "%d\t%s\t%s\n", c.ID, c.Name, c.Type)
	}
}

func addCategoryCmd() *cobra.Command {
	var typeFlag string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := model.ParseTransactionType(typeFlag)
			if err != nil {
				return err
			}
			name := strings.TrimSpace(args[0])
			if name == "" {
				return fmt.Errorf("category name cannot be empty")
			}

			client, err := newAPIClient()
			if err != nil {
				return err
			}

			category, err := client.CreateCategory(cmd.Context(), model.CategoryInput{Name: name, Type: t})
			if err != nil {
				return fmt.Errorf("failed to create category: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
				fmt.Sprintf("Created %s category %q (ID: %d)", category.Type, category.Name, category.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&typeFlag, "type", string(model.TypeExpense), "Category type (expense, income)")

	return cmd
}

func updateCategoryCmd() *cobra.Command {
	var typeFlag string

	cmd := &cobra.Command{
		Use:   "update <id> <name>",
		Short: "Replace a category",
		Long:  `Replace both the name and the type of a category.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("category", args[0])
			if err != nil {
				return err
			}
			t, err := model.ParseTransactionType(typeFlag)
			if err != nil {
				return err
			}

			client, err := newAPIClient()
			if err != nil {
				return err
			}

			category, err := client.UpdateCategory(cmd.Context(), id, model.CategoryInput{Name: args[1], Type: t})
			if err != nil {
				return fmt.Errorf("failed to update category: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
				fmt.Sprintf("Updated category %d: %q (%s)", category.ID, category.Name, category.Type)))
			return nil
		},
	}

	cmd.Flags().StringVar(&typeFlag, "type", string(model.TypeExpense), "Category type (expense, income)")

	return cmd
}

func patchCategoryCmd() *cobra.Command {
	var (
		name     string
		typeFlag string
	)

	cmd := &cobra.Command{
		Use:   "patch <id>",
		Short: "Change individual fields of a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("category", args[0])
			if err != nil {
				return err
			}

			var patch model.CategoryPatch
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("type") {
				t, err := model.ParseTransactionType(typeFlag)
				if err != nil {
					return err
				}
				patch.Type = &t
			}
			if patch.Name == nil && patch.Type == nil {
				return fmt.Errorf("nothing to change: pass --name or --type")
			}

			client, err := newAPIClient()
			if err != nil {
				return err
			}

			category, err := client.PatchCategory(cmd.Context(), id, patch)
			if err != nil {
				return fmt.Errorf("failed to update category: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
				fmt.Sprintf("Updated category %d: %q (%s)", category.ID, category.Name, category.Type)))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&typeFlag, "type", "", "New type (expense, income)")

	return cmd
}

func deleteCategoryCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			id, err := parseID("category", args[0])
			if err != nil {
				return err
			}

			if !force {
				prompter := cli.NewPrompter(cmd.InOrStdin(), out)
				ok, err := prompter.Confirm(ctx, fmt.Sprintf("Delete category %d?", id), false)
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
			if err := client.DeleteCategory(ctx, id); err != nil {
				return fmt.Errorf("failed to delete category: %w", err)
			}

			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Deleted category %d", id)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation")

	return cmd
}
