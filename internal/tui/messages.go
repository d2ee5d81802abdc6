package tui

import (
	"time"

	"github.com/Veraticus/autobudget/internal/header"
	"github.com/Veraticus/autobudget/internal/loader"
	"github.com/Veraticus/autobudget/internal/model"
	"github.com/Veraticus/autobudget/internal/pivot"
)

// Data loading messages.
type categoriesLoadedMsg struct {
	err        error
	categories []model.Category
	ticket     loader.Ticket
}

type seriesLoadedMsg struct {
	from   time.Time
	to     time.Time
	err    error
	series pivot.Series
	ticket loader.Ticket
}

// Async operation messages.
type saveDoneMsg struct {
	err   error
	count int
}

// headerMsg carries a header provider update into the event loop.
type headerMsg struct {
	state header.State
}

// clearStatusMsg expires the transient status line it was scheduled for.
type clearStatusMsg struct {
	id int
}
