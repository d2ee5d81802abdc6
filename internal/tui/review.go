package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/Veraticus/autobudget/internal/common"
	"github.com/Veraticus/autobudget/internal/header"
	"github.com/Veraticus/autobudget/internal/loader"
	"github.com/Veraticus/autobudget/internal/model"
	"github.com/Veraticus/autobudget/internal/staging"
	"github.com/Veraticus/autobudget/internal/tui/themes"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	reviewTitle        = "Review import"
	categoriesLoadKey  = "review.categories"
	reviewChromeHeight = 9
)

// CategoryLister fetches the categories rows can be assigned to.
type CategoryLister interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
}

// reviewMode is what the keyboard is currently driving.
type reviewMode int

const (
	modeBrowse reviewMode = iota
	modeEdit
	modeBulkEdit
)

// ReviewResult reports how a review session ended.
type ReviewResult struct {
	Imported int
	Saved    bool
}

// ReviewModel is the import review screen over a staging buffer.
type ReviewModel struct {
	ctx            context.Context
	submitter      staging.Submitter
	lister         CategoryLister
	buffer         *staging.Buffer
	headers        *header.Provider
	guard          *loader.Guard
	feed           *headerFeed
	cancelSchedule func()
	selected       map[string]struct{}
	theme          themes.Theme
	keymap         KeyMap
	header         header.State
	status         string
	input          textinput.Model
	spinner        spinner.Model
	rows           []staging.StagedRow
	categories     []model.Category
	parseErrors    []string
	config         Config
	result         ReviewResult
	mode           reviewMode
	cursor         int
	offset         int
	field          int
	statusID       int
	width          int
	height         int
	statusIsError  bool
	saving         bool
	showHelp       bool
	quitting       bool
}

// NewReviewModel creates the review screen. The buffer must already hold the
// preview to review.
func NewReviewModel(ctx context.Context, buffer *staging.Buffer, submitter staging.Submitter, lister CategoryLister, opts ...Option) ReviewModel {
	cfg := newConfig(reviewTitle, opts)

	input := textinput.New()
	input.CharLimit = 200

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(cfg.Theme.Primary)

	m := ReviewModel{
		ctx:            ctx,
		buffer:         buffer,
		submitter:      submitter,
		lister:         lister,
		headers:        cfg.Header,
		guard:          cfg.Guard,
		selected:       make(map[string]struct{}),
		theme:          cfg.Theme,
		keymap:         DefaultKeyMap(),
		input:          input,
		spinner:        s,
		config:         cfg,
		width:          cfg.Width,
		height:         cfg.Height,
		cancelSchedule: func() {},
	}
	m.headers.SetTitle(reviewTitle)
	m.header = m.headers.State()
	m.feed = newHeaderFeed(m.headers)
	m.refresh()
	m.parseErrors = buffer.Errors()
	return m
}

// Init starts the category load and the header feed.
func (m ReviewModel) Init() tea.Cmd {
	return tea.Batch(m.feed.wait(), m.loadCategories())
}

// Result returns how the session ended.
func (m ReviewModel) Result() ReviewResult {
	return m.result
}

// Update handles messages.
func (m ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-20, 10)
		m.clampCursor()
		return m, nil

	case headerMsg:
		m.header = msg.state
		return m, m.feed.wait()

	case categoriesLoadedMsg:
		return m.handleCategories(msg)

	case saveDoneMsg:
		return m.handleSaveDone(msg)

	case clearStatusMsg:
		if msg.id == m.statusID {
			m.status = ""
			m.statusIsError = false
		}
		return m, nil

	case spinner.TickMsg:
		if !m.saving {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if key.Matches(msg, m.keymap.ForceQuit) {
			return m.quit()
		}
		switch m.mode {
		case modeEdit, modeBulkEdit:
			return m.handleInputKeys(msg)
		default:
			return m.handleBrowseKeys(msg)
		}
	}

	return m, nil
}

func (m ReviewModel) handleBrowseKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.saving {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keymap.Quit):
		return m.quit()

	case key.Matches(msg, m.keymap.ToggleHelp):
		m.showHelp = !m.showHelp

	case key.Matches(msg, m.keymap.Up):
		m.cursor--
	case key.Matches(msg, m.keymap.Down):
		m.cursor++
	case key.Matches(msg, m.keymap.PageUp):
		m.cursor -= m.pageSize()
	case key.Matches(msg, m.keymap.PageDown):
		m.cursor += m.pageSize()
	case key.Matches(msg, m.keymap.Home):
		m.cursor = 0
	case key.Matches(msg, m.keymap.End):
		m.cursor = len(m.rows) - 1

	case key.Matches(msg, m.keymap.PrevField):
		m.field = (m.field + len(staging.Fields) - 1) % len(staging.Fields)
	case key.Matches(msg, m.keymap.NextField):
		m.field = (m.field + 1) % len(staging.Fields)

	case key.Matches(msg, m.keymap.ToggleSelect):
		if row, ok := m.current(); ok {
			if _, on := m.selected[row.ID]; on {
				delete(m.selected, row.ID)
			} else {
				m.selected[row.ID] = struct{}{}
			}
		}
	case key.Matches(msg, m.keymap.SelectAll):
		m.toggleSelectAll()

	case key.Matches(msg, m.keymap.Edit):
		if row, ok := m.current(); ok {
			return m.startInput(modeEdit, staging.FormatValue(row.ImportedTransaction, m.focusedField()))
		}
	case key.Matches(msg, m.keymap.FlipType):
		if row, ok := m.current(); ok {
			m.apply(m.buffer.Update(row.ID, staging.FieldType, string(row.Type.Other())))
		}
	case key.Matches(msg, m.keymap.CycleCategory):
		if row, ok := m.current(); ok {
			next := nextCategory(m.categories, row.Type, row.CategoryID)
			m.apply(m.buffer.Update(row.ID, staging.FieldCategory, next))
		}
	case key.Matches(msg, m.keymap.Delete):
		if row, ok := m.current(); ok {
			m.buffer.Delete(row.ID)
			delete(m.selected, row.ID)
			m.refresh()
		}

	case key.Matches(msg, m.keymap.BulkEdit):
		if len(m.selected) > 0 {
			return m.startInput(modeBulkEdit, "")
		}
	case key.Matches(msg, m.keymap.BulkType):
		return m.bulkFlipType()
	case key.Matches(msg, m.keymap.BulkCategory):
		return m.bulkCycleCategory()
	case key.Matches(msg, m.keymap.BulkDelete):
		if len(m.selected) > 0 {
			m.buffer.BulkDelete(m.selectedIDs())
			m.selected = make(map[string]struct{})
			m.refresh()
		}

	case key.Matches(msg, m.keymap.Refresh):
		return m, m.loadCategories()

	case key.Matches(msg, m.keymap.Save):
		return m.startSave()
	}

	m.clampCursor()
	return m, nil
}

func (m ReviewModel) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Cancel):
		m.stopInput()
		return m, nil

	case key.Matches(msg, m.keymap.Confirm):
		field := m.focusedField()
		value := m.input.Value()
		mode := m.mode
		m.stopInput()

		if mode == modeBulkEdit {
			if err := m.buffer.BulkUpdate(m.selectedIDs(), field, value); err != nil {
				return m.flash(fmt.Sprintf("%s not applied: %v", field.Label(), err), true)
			}
			m.refresh()
			return m, nil
		}

		// a rejected single-cell edit silently keeps the prior value
		if row, ok := m.current(); ok {
			m.apply(m.buffer.Update(row.ID, field, value))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m ReviewModel) startInput(mode reviewMode, value string) (tea.Model, tea.Cmd) {
	m.mode = mode
	field := m.focusedField()
	m.input.Prompt = field.Label() + ": "
	m.input.Placeholder = placeholderFor(field)
	m.input.SetValue(value)
	m.input.CursorEnd()
	cmd := m.input.Focus()
	return m, cmd
}

func (m *ReviewModel) stopInput() {
	m.mode = modeBrowse
	m.input.Blur()
	m.input.Reset()
}

func (m ReviewModel) bulkFlipType() (tea.Model, tea.Cmd) {
	rows := m.selectedRows()
	if len(rows) == 0 {
		return m, nil
	}
	target := rows[0].Type.Other()
	m.apply(m.buffer.BulkUpdate(m.selectedIDs(), staging.FieldType, string(target)))
	return m, nil
}

func (m ReviewModel) bulkCycleCategory() (tea.Model, tea.Cmd) {
	rows := m.selectedRows()
	if len(rows) == 0 {
		return m, nil
	}
	typ := rows[0].Type
	for _, row := range rows[1:] {
		if row.Type != typ {
			return m.flash("Selection mixes expenses and income; align the type first", true)
		}
	}
	next := nextCategory(m.categories, typ, rows[0].CategoryID)
	m.apply(m.buffer.BulkUpdate(m.selectedIDs(), staging.FieldCategory, next))
	return m, nil
}

func (m ReviewModel) toggleSelectAll() {
	if len(m.selected) == len(m.rows) {
		clear(m.selected)
		return
	}
	for _, row := range m.rows {
		m.selected[row.ID] = struct{}{}
	}
}

// apply refreshes the view after a buffer edit. Rejected edits leave the
// buffer untouched, so there is nothing to show for them.
func (m *ReviewModel) apply(err error) {
	if err != nil {
		return
	}
	m.refresh()
}

func (m ReviewModel) startSave() (tea.Model, tea.Cmd) {
	if m.saving {
		return m, nil
	}
	if len(m.rows) == 0 {
		return m.flash("Nothing to import", true)
	}
	m.saving = true
	m.headers.SetAction("saving…")
	return m, tea.Batch(m.spinner.Tick, m.saveBatch())
}

func (m ReviewModel) handleSaveDone(msg saveDoneMsg) (tea.Model, tea.Cmd) {
	m.saving = false
	m.headers.SetAction("")

	if msg.err != nil {
		text := "Save failed: " + common.UserMessage(msg.err)
		if errors.Is(msg.err, common.ErrNoToken) {
			text = "Save failed: not authenticated"
		}
		m.headers.SetTitle(reviewTitle + " · save failed")
		m.cancelSchedule()
		m.cancelSchedule = m.headers.Schedule(reviewTitle, m.config.StatusTTL)
		return m.flash(text, true)
	}

	m.result = ReviewResult{Imported: msg.count, Saved: true}
	m.headers.SetTitle(fmt.Sprintf("Imported %d transactions", msg.count))
	m.refresh()
	return m.quit()
}

func (m ReviewModel) handleCategories(msg categoriesLoadedMsg) (tea.Model, tea.Cmd) {
	var failed error
	m.guard.Commit(msg.ticket, func() {
		if msg.err != nil {
			failed = msg.err
			return
		}
		m.categories = msg.categories
	})

	switch {
	case failed == nil:
		return m, nil
	case errors.Is(failed, common.ErrNoToken):
		// without a session there is nothing to show; saving reports it
		return m, nil
	default:
		return m.flash("Could not load categories: "+common.UserMessage(failed), true)
	}
}

// flash shows a transient status line.
func (m ReviewModel) flash(text string, isError bool) (tea.Model, tea.Cmd) {
	m.statusID++
	m.status = text
	m.statusIsError = isError
	return m, clearStatusAfter(m.statusID, m.config.StatusTTL)
}

func (m ReviewModel) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.cancelSchedule()
	m.guard.Cancel(categoriesLoadKey)
	m.feed.close()
	return m, tea.Quit
}

func (m *ReviewModel) refresh() {
	m.rows = m.buffer.Rows()
	for id := range m.selected {
		if !slices.ContainsFunc(m.rows, func(r staging.StagedRow) bool { return r.ID == id }) {
			delete(m.selected, id)
		}
	}
	m.clampCursor()
}

func (m *ReviewModel) clampCursor() {
	m.cursor = max(min(m.cursor, len(m.rows)-1), 0)

	page := m.pageSize()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+page {
		m.offset = m.cursor - page + 1
	}
	m.offset = max(min(m.offset, len(m.rows)-page), 0)
}

func (m ReviewModel) pageSize() int {
	return max(m.height-reviewChromeHeight-len(m.parseErrors), 3)
}

func (m ReviewModel) current() (staging.StagedRow, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return staging.StagedRow{}, false
	}
	return m.rows[m.cursor], true
}

func (m ReviewModel) focusedField() staging.Field {
	return staging.Fields[m.field]
}

func (m ReviewModel) selectedIDs() []string {
	ids := make([]string, 0, len(m.selected))
	for _, row := range m.rows {
		if _, ok := m.selected[row.ID]; ok {
			ids = append(ids, row.ID)
		}
	}
	return ids
}

func (m ReviewModel) selectedRows() []staging.StagedRow {
	rows := make([]staging.StagedRow, 0, len(m.selected))
	for _, row := range m.rows {
		if _, ok := m.selected[row.ID]; ok {
			rows = append(rows, row)
		}
	}
	return rows
}

// nextCategory returns the category after current among those of type t,
// wrapping back to uncategorized after the last one.
func nextCategory(categories []model.Category, t model.TransactionType, current *int) string {
	options := staging.CategoriesFor(categories, t)
	if len(options) == 0 {
		return ""
	}
	if current == nil {
		return strconv.Itoa(options[0].ID)
	}
	for i, cat := range options {
		if cat.ID == *current {
			if i == len(options)-1 {
				return ""
			}
			return strconv.Itoa(options[i+1].ID)
		}
	}
	return strconv.Itoa(options[0].ID)
}

func placeholderFor(field staging.Field) string {
	switch field {
	case staging.FieldDate:
		return "YYYY-MM-DD"
	case staging.FieldAmount:
		return "0.00"
	case staging.FieldType:
		return "expense or income"
	case staging.FieldCategory:
		return "category id, empty for none"
	}
	return ""
}

func (m ReviewModel) categoryName(id *int) string {
	if id == nil {
		return "—"
	}
	for _, cat := range m.categories {
		if cat.ID == *id {
			return cat.Name
		}
	}
	return "#" + strconv.Itoa(*id)
}

// View renders the review screen.
func (m ReviewModel) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{m.renderHeader()}

	if len(m.parseErrors) > 0 {
		sections = append(sections, m.renderParseErrors())
	}

	if len(m.rows) == 0 {
		sections = append(sections, m.theme.StatusPending.Render("No transactions left to import."))
	} else {
		sections = append(sections, m.renderTable())
	}

	sections = append(sections, m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m ReviewModel) renderHeader() string {
	title := m.theme.Title.Render(m.header.Title)
	if m.header.Action != "" {
		title = lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", m.theme.StatusInfo.Render(m.header.Action))
	}

	summary := fmt.Sprintf("%d rows · %d selected · %d categories", len(m.rows), len(m.selected), len(m.categories))
	if headers := m.buffer.Headers(); len(headers) > 0 {
		summary += " · columns: " + strings.Join(headers, ", ")
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, m.theme.Subtitle.Render(summary))
}

func (m ReviewModel) renderParseErrors() string {
	lines := make([]string, 0, len(m.parseErrors)+1)
	lines = append(lines, m.theme.StatusWarning.Render(fmt.Sprintf("%d lines could not be parsed:", len(m.parseErrors))))
	for _, msg := range m.parseErrors {
		lines = append(lines, "  "+msg)
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.Warning).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

var columnWidths = map[staging.Field]int{
	staging.FieldDate:        10,
	staging.FieldDescription: 36,
	staging.FieldType:        7,
	staging.FieldAmount:      10,
	staging.FieldCategory:    18,
}

func (m ReviewModel) renderTable() string {
	var b strings.Builder

	headerCells := make([]string, 0, len(staging.Fields))
	for i, field := range staging.Fields {
		cell := pad(field.Label(), columnWidths[field])
		if i == m.field {
			cell = m.theme.Cursor.Render(cell)
		} else {
			cell = m.theme.Bold.Render(cell)
		}
		headerCells = append(headerCells, cell)
	}
	b.WriteString("     " + strings.Join(headerCells, " ") + "\n")

	end := min(m.offset+m.pageSize(), len(m.rows))
	for i := m.offset; i < end; i++ {
		row := m.rows[i]

		pointer := "  "
		if i == m.cursor {
			pointer = m.theme.Cursor.Render("> ")
		}
		mark := "[ ]"
		if _, ok := m.selected[row.ID]; ok {
			mark = m.theme.StatusSuccess.Render("[x]")
		}

		cells := make([]string, 0, len(staging.Fields))
		for j, field := range staging.Fields {
			text := staging.FormatValue(row.ImportedTransaction, field)
			if field == staging.FieldCategory {
				text = m.categoryName(row.CategoryID)
			}
			cell := pad(text, columnWidths[field])
			if field == staging.FieldAmount {
				cell = lipgloss.NewStyle().Width(columnWidths[field]).Align(lipgloss.Right).Render(text)
			}
			if i == m.cursor && j == m.field {
				cell = m.theme.Selected.Render(cell)
			} else if field == staging.FieldType && row.Type == model.TypeIncome {
				cell = m.theme.StatusSuccess.Render(cell)
			}
			cells = append(cells, cell)
		}

		b.WriteString(pointer + mark + " " + strings.Join(cells, " ") + "\n")
	}

	if len(m.rows) > end || m.offset > 0 {
		b.WriteString(m.theme.StatusPending.Render(fmt.Sprintf("  rows %d–%d of %d", m.offset+1, end, len(m.rows))))
	}
	return b.String()
}

func (m ReviewModel) renderFooter() string {
	var lines []string

	switch {
	case m.mode != modeBrowse:
		prefix := ""
		if m.mode == modeBulkEdit {
			prefix = fmt.Sprintf("%d rows · ", len(m.selected))
		}
		lines = append(lines, prefix+m.input.View())
	case m.saving:
		lines = append(lines, m.spinner.View()+" Saving "+strconv.Itoa(len(m.rows))+" transactions…")
	}

	if m.status != "" {
		style := m.theme.StatusInfo
		if m.statusIsError {
			style = m.theme.StatusError
		}
		lines = append(lines, style.Render(m.status))
	}

	if m.showHelp {
		lines = append(lines, renderHelp(m.theme, m.keymap.ReviewHelp()))
	} else {
		lines = append(lines, m.theme.StatusPending.Render("space select · e edit · t type · c category · d delete · ctrl+s save · ? help · q quit"))
	}
	return strings.Join(lines, "\n")
}

func pad(text string, width int) string {
	runes := []rune(text)
	if len(runes) > width {
		return string(runes[:width-1]) + "…"
	}
	return text + strings.Repeat(" ", width-len(runes))
}

func renderHelp(theme themes.Theme, groups [][]key.Binding) string {
	var b strings.Builder
	for _, group := range groups {
		cells := make([]string, 0, len(group))
		for _, binding := range group {
			h := binding.Help()
			cells = append(cells, theme.Bold.Render(h.Key)+" "+h.Desc)
		}
		b.WriteString(strings.Join(cells, "   ") + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
