package tui

import (
	"context"
	"time"

	"github.com/Veraticus/autobudget/internal/loader"
	"github.com/Veraticus/autobudget/internal/pivot"
	tea "github.com/charmbracelet/bubbletea"
)

// loadCategories fetches categories under a fresh ticket, so a reload
// supersedes a slower earlier request.
func (m ReviewModel) loadCategories() tea.Cmd {
	if m.lister == nil {
		return nil
	}
	ticket := m.guard.Begin(categoriesLoadKey)
	lister := m.lister
	ctx := m.ctx

	return func() tea.Msg {
		categories, err := lister.ListCategories(ctx)
		return categoriesLoadedMsg{
			ticket:     ticket,
			categories: categories,
			err:        err,
		}
	}
}

// saveBatch submits the buffer as one import batch.
func (m ReviewModel) saveBatch() tea.Cmd {
	buffer := m.buffer
	submitter := m.submitter
	ctx := m.ctx

	return func() tea.Msg {
		count, err := buffer.Save(ctx, submitter)
		return saveDoneMsg{count: count, err: err}
	}
}

// fetchSeries loads category sums for a range and pivots them.
func fetchSeries(ctx context.Context, fetcher SumsFetcher, ticket loader.Ticket, from, to time.Time, categoryIDs []int) tea.Cmd {
	return func() tea.Msg {
		sums, err := fetcher.CategorySums(ctx, from, to, categoryIDs)
		if err != nil {
			return seriesLoadedMsg{ticket: ticket, from: from, to: to, err: err}
		}
		return seriesLoadedMsg{
			ticket: ticket,
			from:   from,
			to:     to,
			series: pivot.Build(sums, &from, &to),
		}
	}
}

// clearStatusAfter expires status message id after d.
func clearStatusAfter(id int, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clearStatusMsg{id: id}
	})
}
