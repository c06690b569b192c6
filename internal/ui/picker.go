// Package ui is the interactive search-as-you-type launcher.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	dark "github.com/thiagokokada/dark-mode-go"

	"github.com/appdock/appdock/internal/catalog"
	"github.com/appdock/appdock/internal/launcher"
	"github.com/appdock/appdock/internal/search"
	"github.com/appdock/appdock/internal/state"
	"github.com/appdock/appdock/internal/statedb"
)

// Source is what the picker lists, searches and launches.
type Source interface {
	Search(query string, category catalog.Category) []search.Result
	Visible(category catalog.Category) []catalog.AppRecord
	Launch(ctx context.Context, id string) error
	Refresh(ctx context.Context) (launcher.Snapshot, error)
}

// Options configures a picker.
type Options struct {
	// Theme is "dark", "light" or "system"
	Theme string

	// DB enables reloading when another process changes preferences
	DB *statedb.StateDB

	// MaxRows caps the visible list. Default: 12
	MaxRows int
}

const defaultMaxRows = 12

type (
	launchedMsg struct {
		record catalog.AppRecord
		err    error
	}
	reloadMsg   struct{}
	snapshotMsg struct{ err error }
	themeMsg    Theme
)

// Picker is a Bubble Tea model. Every keystroke reruns the search.
type Picker struct {
	ctx     context.Context
	src     Source
	input   textinput.Model
	results []search.Result
	cursor  int
	offset  int
	width   int
	maxRows int

	// tabs[0] is "all"; the rest are categories with visible apps
	tabs []catalog.Category
	tab  int

	status   string
	launched *catalog.AppRecord

	storage *StorageWatcher
	theme   *ThemeWatcher
}

// NewPicker builds a picker over src. Watchers it starts are released by
// Close.
func NewPicker(ctx context.Context, src Source, opts Options) *Picker {
	ti := textinput.New()
	ti.Placeholder = "Search apps..."
	ti.Prompt = "› "
	ti.CharLimit = 100
	ti.Width = 40
	ti.Focus()

	maxRows := opts.MaxRows
	if maxRows <= 0 {
		maxRows = defaultMaxRows
	}

	p := &Picker{
		ctx:     ctx,
		src:     src,
		input:   ti,
		maxRows: maxRows,
	}
	if opts.DB != nil {
		p.storage = NewStorageWatcher(opts.DB)
		p.storage.Start()
	}
	if opts.Theme == "system" {
		p.theme = NewThemeWatcher(ctx)
	}
	p.rebuildTabs()
	p.updateResults()
	return p
}

// Close stops the picker's watchers.
func (p *Picker) Close() {
	if p.storage != nil {
		p.storage.Close()
	}
	if p.theme != nil {
		p.theme.Close()
	}
}

// Launched returns the app launched before the picker exited, if any.
func (p *Picker) Launched() *catalog.AppRecord {
	return p.launched
}

// Init implements tea.Model.
func (p *Picker) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, p.waitForReload(), p.waitForTheme())
}

// Update implements tea.Model.
func (p *Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
		if rows := msg.Height - 8; rows > 0 && rows < p.maxRows {
			p.maxRows = rows
		}
		return p, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+c":
			return p, tea.Quit
		case "enter":
			if sel, ok := p.Selected(); ok {
				p.status = "Opening " + sel.Name + "..."
				return p, p.launch(sel)
			}
			return p, nil
		case "up", "ctrl+k", "ctrl+p":
			p.move(-1)
			return p, nil
		case "down", "ctrl+j", "ctrl+n":
			p.move(1)
			return p, nil
		case "tab":
			p.switchTab(1)
			return p, nil
		case "shift+tab":
			p.switchTab(-1)
			return p, nil
		}
		var cmd tea.Cmd
		before := p.input.Value()
		p.input, cmd = p.input.Update(msg)
		if p.input.Value() != before {
			p.updateResults()
		}
		return p, cmd

	case launchedMsg:
		// The app opened; only recording the launch failed
		if errors.Is(msg.err, state.ErrPersist) {
			uiLog.Warn("launch_record_failed", slog.String("id", msg.record.ID), slog.String("error", msg.err.Error()))
			msg.err = nil
		}
		if msg.err != nil {
			uiLog.Warn("launch_failed", slog.String("id", msg.record.ID), slog.String("error", msg.err.Error()))
			p.status = msg.err.Error()
			return p, nil
		}
		rec := msg.record
		p.launched = &rec
		return p, tea.Quit

	case reloadMsg:
		return p, tea.Batch(p.refresh(), p.waitForReload())

	case snapshotMsg:
		if msg.err != nil {
			p.status = msg.err.Error()
		}
		p.rebuildTabs()
		p.updateResults()
		return p, nil

	case themeMsg:
		InitTheme(string(msg))
		return p, p.waitForTheme()
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

// Selected returns the record under the cursor.
func (p *Picker) Selected() (catalog.AppRecord, bool) {
	if p.cursor < 0 || p.cursor >= len(p.results) {
		return catalog.AppRecord{}, false
	}
	return p.results[p.cursor].Record, true
}

// Category returns the active category tab, "" for all apps.
func (p *Picker) Category() catalog.Category {
	if p.tab <= 0 || p.tab >= len(p.tabs) {
		return ""
	}
	return p.tabs[p.tab]
}

func (p *Picker) move(delta int) {
	if len(p.results) == 0 {
		return
	}
	p.cursor += delta
	if p.cursor < 0 {
		p.cursor = 0
	}
	if p.cursor >= len(p.results) {
		p.cursor = len(p.results) - 1
	}
	if p.cursor < p.offset {
		p.offset = p.cursor
	}
	if p.cursor >= p.offset+p.maxRows {
		p.offset = p.cursor - p.maxRows + 1
	}
}

func (p *Picker) switchTab(delta int) {
	if len(p.tabs) == 0 {
		return
	}
	p.tab = (p.tab + delta + len(p.tabs)) % len(p.tabs)
	p.updateResults()
}

func (p *Picker) rebuildTabs() {
	current := p.Category()
	groups := catalog.GroupByCategory(p.src.Visible(""))
	p.tabs = append([]catalog.Category{""}, catalog.NonEmptyCategories(groups)...)
	p.tab = 0
	for i, c := range p.tabs {
		if c == current {
			p.tab = i
		}
	}
}

// updateResults reruns the search. An empty query lists the tab's apps.
func (p *Picker) updateResults() {
	query := strings.TrimSpace(p.input.Value())
	if query == "" {
		apps := p.src.Visible(p.Category())
		p.results = make([]search.Result, len(apps))
		for i, r := range apps {
			p.results[i] = search.Result{Record: r}
		}
	} else {
		p.results = p.src.Search(query, p.Category())
	}
	p.cursor = 0
	p.offset = 0
}

func (p *Picker) launch(r catalog.AppRecord) tea.Cmd {
	if p.storage != nil {
		p.storage.NotifySave()
	}
	return func() tea.Msg {
		return launchedMsg{record: r, err: p.src.Launch(p.ctx, r.ID)}
	}
}

func (p *Picker) refresh() tea.Cmd {
	return func() tea.Msg {
		_, err := p.src.Refresh(p.ctx)
		return snapshotMsg{err: err}
	}
}

func (p *Picker) waitForReload() tea.Cmd {
	if p.storage == nil {
		return nil
	}
	ch := p.storage.ReloadChannel()
	return func() tea.Msg {
		<-ch
		return reloadMsg{}
	}
}

func (p *Picker) waitForTheme() tea.Cmd {
	if p.theme == nil {
		return nil
	}
	ch := p.theme.Themes()
	return func() tea.Msg {
		return themeMsg(<-ch)
	}
}

// View implements tea.Model.
func (p *Picker) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("AppDock"))
	b.WriteString("\n")
	b.WriteString(p.renderTabs())
	b.WriteString("\n")
	b.WriteString(SearchBoxStyle.Render(p.input.View()))
	b.WriteString("\n")

	if len(p.results) == 0 {
		b.WriteString(DimStyle.Render("  No results"))
		b.WriteString("\n")
	}

	end := p.offset + p.maxRows
	if end > len(p.results) {
		end = len(p.results)
	}
	nameWidth := p.nameWidth()
	for i := p.offset; i < end; i++ {
		b.WriteString(renderRow(p.results[i], nameWidth, i == p.cursor))
		b.WriteString("\n")
	}

	b.WriteString(DimStyle.Render(fmt.Sprintf("  %s", formatCount(len(p.results)))))
	b.WriteString("\n")
	if p.status != "" {
		b.WriteString(ErrorStyle.Render("  " + p.status))
		b.WriteString("\n")
	}
	b.WriteString(DimStyle.Render("  [Enter] Open  [↑↓] Navigate  [Tab] Category  [Esc] Quit"))
	return b.String()
}

func (p *Picker) nameWidth() int {
	w := 36
	if p.width > 0 && p.width-30 < w {
		w = p.width - 30
	}
	if w < 12 {
		w = 12
	}
	return w
}

func (p *Picker) renderTabs() string {
	parts := make([]string, len(p.tabs))
	for i, c := range p.tabs {
		label := "All"
		if c != "" {
			label = string(c)
		}
		if i == p.tab {
			parts[i] = ActiveTabStyle.Render(label)
		} else {
			parts[i] = TabStyle.Render(label)
		}
	}
	line := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	if p.width > 0 && lipgloss.Width(line) > p.width {
		// Too many tabs for the terminal: show only the active one
		return ActiveTabStyle.Render(p.tabLabel())
	}
	return line
}

func (p *Picker) tabLabel() string {
	if c := p.Category(); c != "" {
		return string(c)
	}
	return "All"
}

func renderRow(res search.Result, nameWidth int, selected bool) string {
	r := res.Record
	marker := "  "
	if selected {
		marker = TitleStyle.Render("› ")
	}

	name, w := highlightName(r.Name, res.Ranges, nameWidth)
	if selected {
		name = SelectedRowStyle.Render(name)
	}

	var badge string
	switch {
	case r.IsNew:
		badge = " " + NewBadgeStyle.Render("NEW")
	case r.IsUpdated:
		badge = " " + UpdatedBadge.Render("UPDATED")
	}

	return marker + CategoryDot(r.Category) + " " + name + strings.Repeat(" ", nameWidth-w) +
		"  " + CategoryStyle(r.Category).Render(string(r.Category)) + badge
}

// highlightName renders name with the runes inside ranges emphasized,
// clipped to width display cells. It also returns the rendered cell width.
func highlightName(name string, ranges []search.Range, width int) (string, int) {
	runes := []rune(name)
	visible := len(runes)
	cells := runewidth.StringWidth(name)
	clipped := cells > width
	if clipped {
		cells = 0
		visible = 0
		for _, r := range runes {
			rw := runewidth.RuneWidth(r)
			if cells+rw > width-1 {
				break
			}
			cells += rw
			visible++
		}
		cells++ // ellipsis
	}

	matched := make([]bool, visible)
	for _, rg := range ranges {
		for i := max(rg.Start, 0); i < rg.End && i < visible; i++ {
			matched[i] = true
		}
	}

	var b strings.Builder
	start := 0
	for i := 1; i <= visible; i++ {
		if i < visible && matched[i] == matched[start] {
			continue
		}
		seg := string(runes[start:i])
		if matched[start] {
			b.WriteString(HighlightStyle.Render(seg))
		} else {
			b.WriteString(RowStyle.Render(seg))
		}
		start = i
	}
	if clipped {
		b.WriteString(DimStyle.Render("…"))
	}
	return b.String(), cells
}

func formatCount(n int) string {
	switch n {
	case 0:
		return "No apps"
	case 1:
		return "1 app"
	default:
		return fmt.Sprintf("%d apps", n)
	}
}

// Run shows the picker until the user launches an app or quits. It returns
// the launched app, or nil.
func Run(ctx context.Context, src Source, opts Options) (*catalog.AppRecord, error) {
	InitTheme(resolveInitialTheme(opts.Theme))
	p := NewPicker(ctx, src, opts)
	defer p.Close()

	final, err := tea.NewProgram(p, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return nil, fmt.Errorf("ui: %w", err)
	}
	return final.(*Picker).Launched(), nil
}

// resolveInitialTheme maps "system" to the current OS setting. Detection
// failure means dark.
func resolveInitialTheme(theme string) string {
	switch theme {
	case string(ThemeLight):
		return theme
	case "system":
		if isDark, err := dark.IsDarkMode(); err == nil && !isDark {
			return string(ThemeLight)
		}
	}
	return string(ThemeDark)
}
