//go:build !gui

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/metcalfc/storyreader/internal/novel"
	"github.com/metcalfc/storyreader/internal/reader"
	"github.com/metcalfc/storyreader/internal/segment"
	"github.com/metcalfc/storyreader/internal/state"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#5A3E8C")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFAA00"))

	cellStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)

	selectedCellStyle = cellStyle.
				BorderForeground(lipgloss.Color("#FF0000"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Padding(0, 1)

	controlsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555")).
			Bold(true)
)

const gridColumns = 2

type screen int

const (
	libraryScreen screen = iota
	searchScreen
	readerScreen
)

type novelsMsg struct {
	novels []novel.Novel
	err    error
}

type searchMsg struct {
	query  string
	novels []novel.Novel
	err    error
}

type novelMsg struct {
	id    string
	novel *novel.Novel
	err   error
}

type model struct {
	ctx    context.Context
	api    novelAPI
	prefs  *state.StateStore
	logger *zap.Logger

	screen   screen
	back     screen // where Esc leaves the reader
	library  reader.Library
	search   reader.Search
	session  *reader.Session
	cursor   int
	fontSize reader.FontSize
	notice   string

	toc       []reader.TOCEntry // set while the contents list is open
	tocCursor int

	initCmd tea.Cmd

	input    textinput.Model
	view     viewport.Model
	spin     spinner.Model
	width    int
	height   int
	quitting bool
}

func newModel(ctx context.Context, api novelAPI, prefs *state.StateStore, logger *zap.Logger, size reader.FontSize) model {
	in := textinput.New()
	in.Placeholder = "title or code"
	in.Prompt = "Search: "
	in.CharLimit = 100

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return model{
		ctx:      ctx,
		api:      api,
		prefs:    prefs,
		logger:   logger,
		fontSize: size,
		input:    in,
		view:     viewport.New(80, 20),
		spin:     sp,
		width:    80,
		height:   24,
	}
}

func fetchNovels(ctx context.Context, api novelAPI) tea.Cmd {
	return func() tea.Msg {
		novels, err := api.ListNovels(ctx)
		return novelsMsg{novels: novels, err: err}
	}
}

func searchNovels(ctx context.Context, api novelAPI, query string) tea.Cmd {
	return func() tea.Msg {
		novels, err := api.SearchNovels(ctx, query)
		return searchMsg{query: query, novels: novels, err: err}
	}
}

func fetchNovel(ctx context.Context, api novelAPI, id string) tea.Cmd {
	return func() tea.Msg {
		n, err := api.GetNovel(ctx, id)
		return novelMsg{id: id, novel: n, err: err}
	}
}

// loadLibrary starts a library fetch.
func (m *model) loadLibrary() tea.Cmd {
	m.library.Begin()
	return fetchNovels(m.ctx, m.api)
}

// openNovel switches to the reader and starts fetching id.
func (m *model) openNovel(id string) tea.Cmd {
	m.back = m.screen
	m.screen = readerScreen
	m.session = reader.NewSession(id, m.fontSize)
	m.toc = nil
	if m.prefs != nil {
		m.session.CurrentChapter = m.prefs.LastChapter(id)
	}
	m.session.Begin()
	m.view.SetContent("")
	return fetchNovel(m.ctx, m.api, id)
}

func (m model) Init() tea.Cmd {
	if m.initCmd != nil {
		return m.initCmd
	}
	return m.spin.Tick
}

// start begins loading the library and, when novelID is set, opens it.
// The fetches run from Init.
func (m *model) start(novelID string) {
	cmds := []tea.Cmd{m.spin.Tick, m.loadLibrary()}
	if novelID != "" {
		cmds = append(cmds, m.openNovel(novelID))
	}
	m.initCmd = tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layoutViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case novelsMsg:
		if msg.err != nil {
			if m.library.Fail(msg.err) {
				m.logger.Warn("list novels failed", zap.Error(msg.err))
			}
		} else {
			m.library.Resolve(msg.novels)
		}
		if m.screen == libraryScreen {
			m.clampCursor()
		}
		return m, nil

	case searchMsg:
		if msg.query != m.search.Query {
			return m, nil
		}
		if msg.err != nil {
			if m.search.Fail(msg.err) {
				m.logger.Warn("search failed", zap.String("query", msg.query), zap.Error(msg.err))
			}
		} else {
			m.search.Resolve(msg.novels)
		}
		if m.screen == searchScreen {
			m.cursor = 0
		}
		return m, nil

	case novelMsg:
		if m.session == nil || msg.id != m.session.NovelID {
			return m, nil
		}
		if msg.err != nil {
			if m.session.Fail(msg.err) {
				m.logger.Warn("get novel failed", zap.String("id", msg.id), zap.Error(msg.err))
			}
		} else {
			m.session.Resolve(msg.novel)
		}
		m.refreshReader()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.screen {
		case readerScreen:
			return m.updateReader(msg)
		case searchScreen:
			return m.updateSearch(msg)
		default:
			return m.updateLibrary(msg)
		}
	}

	return m, nil
}

func (m model) updateLibrary(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "esc":
		m.quitting = true
		return m, tea.Quit
	case "r":
		return m, m.loadLibrary()
	case "/":
		m.screen = searchScreen
		m.cursor = 0
		return m, m.input.Focus()
	case "enter":
		if n, ok := m.selected(m.library.Novels); ok {
			return m, m.openNovel(n.ID)
		}
		return m, nil
	}
	m.moveCursor(msg.String(), len(m.library.Novels))
	return m, nil
}

func (m model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.input.Focused() {
		switch msg.String() {
		case "esc":
			m.input.Blur()
			m.screen = libraryScreen
			m.cursor = 0
			return m, nil
		case "enter":
			if err := m.search.Begin(m.input.Value()); err != nil {
				m.notice = "Type a title or code to search."
				return m, nil
			}
			m.notice = ""
			m.input.Blur()
			return m, searchNovels(m.ctx, m.api, m.search.Query)
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "esc", "q":
		m.screen = libraryScreen
		m.cursor = 0
		return m, nil
	case "/":
		return m, m.input.Focus()
	case "r":
		if m.search.Status == reader.Failed {
			if err := m.search.Begin(m.search.Query); err == nil {
				return m, searchNovels(m.ctx, m.api, m.search.Query)
			}
		}
		return m, nil
	case "enter":
		if n, ok := m.selected(m.search.Novels); ok {
			return m, m.openNovel(n.ID)
		}
		return m, nil
	}
	m.moveCursor(msg.String(), len(m.search.Novels))
	return m, nil
}

func (m model) updateReader(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.toc != nil {
		return m.updateTOC(msg)
	}
	s := m.session
	switch msg.String() {
	case "t":
		if s.Status == reader.Ready {
			m.openTOC()
		}
		return m, nil
	case "q", "Q", "esc":
		m.saveChapter()
		m.screen = m.back
		m.session = nil
		return m, nil
	case "r":
		if s.Status == reader.Failed {
			s.Begin()
			return m, fetchNovel(m.ctx, m.api, s.NovelID)
		}
	case "n", "right":
		if s.NextChapter() {
			m.saveChapter()
			m.refreshReader()
		}
		return m, nil
	case "p", "left":
		if s.PrevChapter() {
			m.saveChapter()
			m.refreshReader()
		}
		return m, nil
	case "f":
		s.CycleFontSize()
		m.fontSize = s.FontSize
		if m.prefs != nil {
			if err := m.prefs.SetFontSize(m.fontSize.String()); err != nil {
				m.logger.Warn("save font size", zap.Error(err))
			}
		}
		m.refreshReader()
		return m, nil
	}

	var cmd tea.Cmd
	m.view, cmd = m.view.Update(msg)
	return m, cmd
}

// openTOC opens the contents list at the current chapter.
func (m *model) openTOC() {
	toc := reader.TOC(m.session.Novel)
	if len(toc) == 0 {
		return
	}
	m.toc = toc
	m.tocCursor = 0
	for i, e := range toc {
		if e.Level == 0 && e.Chapter == m.session.CurrentChapter {
			m.tocCursor = i
			break
		}
	}
}

func (m model) updateTOC(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "t", "q", "esc":
		m.toc = nil
	case "up", "k":
		if m.tocCursor > 0 {
			m.tocCursor--
		}
	case "down", "j":
		if m.tocCursor < len(m.toc)-1 {
			m.tocCursor++
		}
	case "enter":
		if m.session.JumpToChapter(m.toc[m.tocCursor].Chapter) {
			m.saveChapter()
			m.refreshReader()
		}
		m.toc = nil
	}
	return m, nil
}

func (m *model) saveChapter() {
	if m.prefs == nil || m.session == nil || m.session.Status != reader.Ready {
		return
	}
	if err := m.prefs.SetLastChapter(m.session.NovelID, m.session.CurrentChapter); err != nil {
		m.logger.Warn("save reading position", zap.Error(err))
	}
}

func (m model) selected(novels []novel.Novel) (novel.Novel, bool) {
	if m.cursor < 0 || m.cursor >= len(novels) {
		return novel.Novel{}, false
	}
	return novels[m.cursor], true
}

// moveCursor walks the two-column grid.
func (m *model) moveCursor(key string, count int) {
	if count == 0 {
		return
	}
	next := m.cursor
	switch key {
	case "left", "h":
		next--
	case "right", "l":
		next++
	case "up", "k":
		next -= gridColumns
	case "down", "j":
		next += gridColumns
	default:
		return
	}
	if next >= 0 && next < count {
		m.cursor = next
	}
}

func (m *model) clampCursor() {
	if m.cursor >= len(m.library.Novels) {
		m.cursor = 0
	}
}

func (m *model) layoutViewport() {
	// Title bar, status line and controls.
	h := m.height - 3
	if h < 1 {
		h = 1
	}
	m.view.Width = m.width
	m.view.Height = h
	m.refreshReader()
}

func (m *model) refreshReader() {
	if m.session == nil || m.session.Status != reader.Ready {
		return
	}
	m.view.SetContent(renderSegments(m.session.Segments(), wrapWidth(m.session.FontSize, m.width)))
	m.view.GotoTop()
}

// wrapWidth maps a font size to a text column width, since a terminal
// cannot change its glyph size.
func wrapWidth(size reader.FontSize, termWidth int) int {
	cols := 80
	switch size {
	case reader.Small:
		cols = 100
	case reader.Large:
		cols = 64
	}
	if termWidth > 0 && cols > termWidth-2 {
		cols = termWidth - 2
	}
	if cols < 10 {
		cols = 10
	}
	return cols
}

func renderSegments(segments []segment.Segment, width int) string {
	body := lipgloss.NewStyle().Width(width)
	var sb strings.Builder
	for i, s := range segments {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(headerStyle.Width(width).Render(s.Header))
		if s.Body != "" {
			sb.WriteString("\n\n")
			sb.WriteString(body.Render(s.Body))
		}
	}
	return sb.String()
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	switch m.screen {
	case readerScreen:
		return m.readerView()
	case searchScreen:
		return m.searchView()
	default:
		return m.libraryView()
	}
}

func (m model) libraryView() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Library"))
	sb.WriteString("\n\n")
	sb.WriteString(m.gridView(&m.library, "Loading novels", "No novels yet."))
	sb.WriteString("\n")
	sb.WriteString(controlsStyle.Render("←↑↓→: select  ENTER: read  /: search  R: refresh  Q: quit"))
	return sb.String()
}

func (m model) searchView() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Search"))
	sb.WriteString("\n\n")
	sb.WriteString(m.input.View())
	sb.WriteString("\n")
	if m.notice != "" {
		sb.WriteString(errorStyle.Render(m.notice))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	if m.search.Status != reader.Idle {
		sb.WriteString(m.gridView(&m.search.Library, "Searching", fmt.Sprintf("No novels match %q.", m.search.Query)))
		sb.WriteString("\n")
	}
	sb.WriteString(controlsStyle.Render("ENTER: search/read  /: edit query  ESC: back"))
	return sb.String()
}

// gridView renders a library in two columns, or its loading/failure state.
func (m model) gridView(l *reader.Library, loading, empty string) string {
	switch l.Status {
	case reader.Loading:
		return m.spin.View() + " " + loading + "..."
	case reader.Failed:
		return errorStyle.Render("Error: "+l.Err.Error()) + "\n" + statusStyle.Render("Press R to retry.")
	}
	if len(l.Novels) == 0 {
		return statusStyle.Render(empty)
	}

	cellWidth := m.width/gridColumns - 4
	if cellWidth < 12 {
		cellWidth = 12
	}
	var rows []string
	for r, row := range l.Rows(gridColumns) {
		var cells []string
		for c, n := range row {
			style := cellStyle
			if r*gridColumns+c == m.cursor {
				style = selectedCellStyle
			}
			cells = append(cells, style.Width(cellWidth).Render(cellText(n, cellWidth)))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// cellText is a grid cell's title and cover line.
func cellText(n novel.Novel, width int) string {
	title := truncate(n.Title, width)
	cover := n.CoverURL()
	if cover == "" {
		cover = "no cover"
	}
	return headerStyle.Render(title) + "\n" + statusStyle.Render(truncate(cover, width-2))
}

func truncate(s string, width int) string {
	r := []rune(s)
	if width < 4 || len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}

func (m model) readerView() string {
	s := m.session
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(s.HeaderText()))
	sb.WriteString("\n")

	switch s.Status {
	case reader.Ready:
		current, total := s.Progress()
		title := ""
		if c, ok := s.Chapter(); ok {
			title = c.Title
		}
		sb.WriteString(statusStyle.Render(fmt.Sprintf("Chapter %d/%d %s | Font: %s", current, total, title, s.FontSize)))
		sb.WriteString("\n")
		if m.toc != nil {
			sb.WriteString(m.tocView())
			sb.WriteString("\n")
			sb.WriteString(controlsStyle.Render("↑/↓: select  ENTER: jump  T/ESC: close"))
			break
		}
		sb.WriteString(m.view.View())
		sb.WriteString("\n")
		sb.WriteString(controlsStyle.Render("↑/↓: scroll  N/P: chapter  T: contents  F: font  ESC: back"))
	case reader.Failed:
		sb.WriteString("\n")
		sb.WriteString(errorStyle.Render("Error: " + s.Err.Error()))
		sb.WriteString("\n\n")
		sb.WriteString(controlsStyle.Render("R: retry  ESC: back"))
	default:
		sb.WriteString("\n")
		sb.WriteString(m.spin.View() + " Loading novel...")
	}
	return sb.String()
}

// tocView lists the contents entries that fit around the cursor.
func (m model) tocView() string {
	rows := m.height - 3
	if rows < 1 {
		rows = 1
	}
	start := 0
	if m.tocCursor >= rows {
		start = m.tocCursor - rows + 1
	}
	end := min(start+rows, len(m.toc))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		e := m.toc[i]
		line := strings.Repeat("  ", e.Level) + e.Title
		if e.Preview != "" {
			line += "  " + statusStyle.Render(truncate(e.Preview, 40))
		}
		if i == m.tocCursor {
			line = headerStyle.Render("> ") + line
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func runClient(ctx context.Context, a *app, prefs *state.StateStore, novelID string) error {
	m := newModel(ctx, a.client(), prefs, a.logger, a.fontSize(prefs))
	m.start(novelID)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run client: %w", err)
	}
	return nil
}
