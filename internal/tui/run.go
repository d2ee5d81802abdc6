// Package tui implements the interactive terminal screens: the import review
// over a staging buffer and the category analytics charts.
package tui

import (
	"context"
	"fmt"
	"os"

	"github.com/Veraticus/autobudget/internal/staging"
	tea "github.com/charmbracelet/bubbletea"
)

// RunReview runs the import review screen until the user saves or quits.
// The buffer keeps whatever edits were made, so an unsaved session can be
// stored and resumed.
func RunReview(ctx context.Context, buffer *staging.Buffer, submitter staging.Submitter, lister CategoryLister, opts ...Option) (ReviewResult, error) {
	if buffer == nil {
		return ReviewResult{}, fmt.Errorf("staging buffer is required")
	}
	if submitter == nil {
		return ReviewResult{}, fmt.Errorf("submitter is required")
	}

	m := NewReviewModel(ctx, buffer, submitter, lister, opts...)
	final, err := run(ctx, m)
	if err != nil {
		return ReviewResult{}, err
	}

	review, ok := final.(ReviewModel)
	if !ok {
		return ReviewResult{}, fmt.Errorf("unexpected final model %T", final)
	}
	return review.Result(), nil
}

// RunAnalytics runs the analytics screen until the user quits.
func RunAnalytics(ctx context.Context, fetcher SumsFetcher, query AnalyticsQuery, opts ...Option) error {
	if fetcher == nil {
		return fmt.Errorf("sums fetcher is required")
	}
	m := NewAnalyticsModel(ctx, fetcher, query.CategoryIDs, query.From, query.To, opts...)
	_, err := run(ctx, m)
	return err
}

func run(ctx context.Context, m tea.Model) (tea.Model, error) {
	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithOutput(os.Stderr),
	)

	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("TUI error: %w", err)
	}
	return final, nil
}
