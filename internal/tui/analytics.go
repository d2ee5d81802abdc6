package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/autobudget/internal/common"
	"github.com/Veraticus/autobudget/internal/header"
	"github.com/Veraticus/autobudget/internal/loader"
	"github.com/Veraticus/autobudget/internal/model"
	"github.com/Veraticus/autobudget/internal/pivot"
	"github.com/Veraticus/autobudget/internal/tui/themes"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	analyticsTitle       = "Category analytics"
	seriesLoadKey        = "analytics.series"
	analyticsChromeLines = 8
)

// SumsFetcher fetches per-day category sums for a range.
type SumsFetcher interface {
	CategorySums(ctx context.Context, start, end time.Time, categoryIDs []int) ([]model.CategorySum, error)
}

// AnalyticsQuery is the initial range and category filter of the analytics
// screen. An empty filter means all categories.
type AnalyticsQuery struct {
	From        time.Time
	To          time.Time
	CategoryIDs []int
}

// AnalyticsModel is the category analytics screen.
type AnalyticsModel struct {
	from        time.Time
	to          time.Time
	ctx         context.Context
	fetcher     SumsFetcher
	headers     *header.Provider
	guard       *loader.Guard
	feed        *headerFeed
	now         func() time.Time
	theme       themes.Theme
	keymap      KeyMap
	header      header.State
	status      string
	spinner     spinner.Model
	categoryIDs []int
	series      pivot.Series
	config      Config
	ticket      loader.Ticket
	view        ChartView
	statusID    int
	width       int
	height      int
	loading     bool
	loaded      bool
	showHelp    bool
	quitting    bool
}

// NewAnalyticsModel creates the analytics screen for the range from..to.
func NewAnalyticsModel(ctx context.Context, fetcher SumsFetcher, categoryIDs []int, from, to time.Time, opts ...Option) AnalyticsModel {
	cfg := newConfig(analyticsTitle, opts)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(cfg.Theme.Primary)

	m := AnalyticsModel{
		ctx:         ctx,
		fetcher:     fetcher,
		categoryIDs: append([]int(nil), categoryIDs...),
		from:        from,
		to:          to,
		headers:     cfg.Header,
		guard:       cfg.Guard,
		now:         cfg.Now,
		theme:       cfg.Theme,
		keymap:      DefaultKeyMap(),
		spinner:     s,
		config:      cfg,
		width:       cfg.Width,
		height:      cfg.Height,
	}
	m.headers.SetTitle(analyticsTitle)
	m.headers.SetAction(pivot.Label(from, to, m.now()))
	m.header = m.headers.State()
	m.feed = newHeaderFeed(m.headers)
	m.loading = true
	m.ticket = m.guard.Begin(seriesLoadKey)
	return m
}

// Init fetches the initial range.
func (m AnalyticsModel) Init() tea.Cmd {
	return tea.Batch(
		m.feed.wait(),
		m.spinner.Tick,
		fetchSeries(m.ctx, m.fetcher, m.ticket, m.from, m.to, m.categoryIDs),
	)
}

// Series returns the series currently on screen.
func (m AnalyticsModel) Series() pivot.Series {
	return m.series
}

// Update handles messages.
func (m AnalyticsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case headerMsg:
		m.header = msg.state
		return m, m.feed.wait()

	case seriesLoadedMsg:
		return m.handleSeries(msg)

	case clearStatusMsg:
		if msg.id == m.statusID {
			m.status = ""
		}
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	return m, nil
}

func (m AnalyticsModel) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.ForceQuit), key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		m.guard.Cancel(seriesLoadKey)
		m.feed.close()
		return m, tea.Quit

	case key.Matches(msg, m.keymap.ToggleHelp):
		m.showHelp = !m.showHelp

	case key.Matches(msg, m.keymap.CycleView):
		m.view = m.view.Next()

	case key.Matches(msg, m.keymap.Preset):
		n, err := strconv.Atoi(msg.String())
		if err != nil || n < 1 || n > len(pivot.Presets) {
			return m, nil
		}
		from, to := pivot.Presets[n-1].Range(m.now())
		return m.startLoad(from, to)

	case key.Matches(msg, m.keymap.Refresh):
		return m.startLoad(m.from, m.to)
	}

	return m, nil
}

func (m AnalyticsModel) startLoad(from, to time.Time) (tea.Model, tea.Cmd) {
	wasLoading := m.loading
	m, cmd := m.load(from, to)
	m.headers.SetAction(pivot.Label(from, to, m.now()) + " · loading")
	if wasLoading {
		return m, cmd
	}
	return m, tea.Batch(m.spinner.Tick, cmd)
}

// load issues a new ticket for the range; any earlier fetch still in flight
// becomes stale.
func (m AnalyticsModel) load(from, to time.Time) (AnalyticsModel, tea.Cmd) {
	m.loading = true
	m.ticket = m.guard.Begin(seriesLoadKey)
	return m, fetchSeries(m.ctx, m.fetcher, m.ticket, from, to, m.categoryIDs)
}

func (m AnalyticsModel) handleSeries(msg seriesLoadedMsg) (tea.Model, tea.Cmd) {
	var failed error
	committed := m.guard.Commit(msg.ticket, func() {
		m.loading = false
		if msg.err != nil {
			failed = msg.err
			return
		}
		m.series = msg.series
		m.from = msg.from
		m.to = msg.to
		m.loaded = true
	})
	if !committed {
		return m, nil
	}

	m.headers.SetAction(pivot.Label(m.from, m.to, m.now()))

	switch {
	case failed == nil:
		return m, nil
	case errors.Is(failed, common.ErrNoToken):
		return m, nil
	default:
		m.statusID++
		m.status = "Could not load analytics: " + common.UserMessage(failed)
		return m, clearStatusAfter(m.statusID, m.config.StatusTTL)
	}
}

// View renders the analytics screen.
func (m AnalyticsModel) View() string {
	if m.quitting {
		return ""
	}

	title := m.theme.Title.Render(m.header.Title)
	if m.header.Action != "" {
		title = lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", m.theme.StatusInfo.Render(m.header.Action))
	}

	sections := []string{title, m.renderTabs()}

	switch {
	case !m.loaded && m.loading:
		sections = append(sections, m.spinner.View()+" Loading category sums…")
	case m.series.Empty():
		sections = append(sections, m.theme.StatusPending.Render("No data for this range."))
	default:
		if m.loading {
			sections = append(sections, m.spinner.View()+" Refreshing…")
		}
		sections = append(sections, m.renderChart())
		sections = append(sections, m.theme.Subtitle.Render(
			fmt.Sprintf("Total %s across %d categories over %d days",
				m.series.GrandTotal().StringFixed(2), len(m.series.Categories), len(m.series.Points))))
	}

	if m.status != "" {
		sections = append(sections, m.theme.StatusError.Render(m.status))
	}
	if m.showHelp {
		sections = append(sections, renderHelp(m.theme, m.keymap.AnalyticsHelp()))
	} else {
		sections = append(sections, m.theme.StatusPending.Render("1-5 range · v view · r reload · ? help · q quit"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m AnalyticsModel) renderTabs() string {
	tabs := make([]string, 0, len(pivot.Presets)+1)
	active := pivot.Label(m.from, m.to, m.now())
	for i, p := range pivot.Presets {
		text := fmt.Sprintf("%d %s", i+1, p.Label)
		if active == "Last "+p.Label {
			tabs = append(tabs, m.theme.Selected.Render(" "+text+" "))
		} else {
			tabs = append(tabs, m.theme.Normal.Render(" "+text+" "))
		}
	}
	tabs = append(tabs, m.theme.StatusInfo.Render("  view: "+m.view.String()))
	return strings.Join(tabs, "")
}

func (m AnalyticsModel) renderChart() string {
	width := max(m.width-2, 40)
	switch m.view {
	case ViewBar:
		return renderBars(m.theme, m.series, width)
	case ViewPie:
		return renderPie(m.theme, m.series, width)
	default:
		rows := max(m.height-analyticsChromeLines, 5)
		return lipgloss.JoinVertical(lipgloss.Left,
			renderArea(m.theme, m.series, width, rows),
			"",
			renderLegend(m.theme, m.series))
	}
}
