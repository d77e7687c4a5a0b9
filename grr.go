//go:build gui

package main

import (
	"context"
	"fmt"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"github.com/metcalfc/storyreader/internal/novel"
	"github.com/metcalfc/storyreader/internal/reader"
	"github.com/metcalfc/storyreader/internal/state"
)

const coverHeight = 180

// fontTheme sizes body text and segment headers for the chosen font size.
type fontTheme struct {
	fyne.Theme
	size reader.FontSize
}

func (t *fontTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameText:
		return float32(t.size.Points())
	case theme.SizeNameSubHeadingText:
		return float32(t.size.HeaderPoints())
	}
	return t.Theme.Size(name)
}

// gui owns the window. Its screen state is only touched on the fyne
// goroutine; fetches hand results back through fyne.Do.
type gui struct {
	ctx    context.Context
	api    novelAPI
	prefs  *state.StateStore
	logger *zap.Logger

	app     fyne.App
	win     fyne.Window
	library reader.Library
	search  reader.Search
	session *reader.Session
	size    reader.FontSize

	grid   *fyne.Container
	status *widget.Label
	query  *widget.Entry
}

func newGUI(ctx context.Context, api novelAPI, prefs *state.StateStore, logger *zap.Logger, size reader.FontSize) *gui {
	fa := fyneapp.New()
	g := &gui{
		ctx:    ctx,
		api:    api,
		prefs:  prefs,
		logger: logger,
		app:    fa,
		win:    fa.NewWindow("storyreader"),
		size:   size,
	}
	g.applyTheme()
	return g
}

func (g *gui) applyTheme() {
	g.app.Settings().SetTheme(&fontTheme{Theme: theme.DefaultTheme(), size: g.size})
}

func (g *gui) showLibrary() {
	g.session = nil
	g.grid = container.NewGridWithColumns(2)
	g.status = widget.NewLabel("")
	g.query = widget.NewEntry()
	g.query.SetPlaceHolder("Search by title or code")
	g.query.OnSubmitted = func(string) { g.runSearch() }

	searchBtn := widget.NewButtonWithIcon("", theme.SearchIcon(), g.runSearch)
	refresh := widget.NewButtonWithIcon("", theme.ViewRefreshIcon(), g.loadLibrary)
	top := container.NewBorder(nil, g.status, nil, container.NewHBox(searchBtn, refresh), g.query)

	g.win.SetContent(container.NewBorder(top, nil, nil, nil, container.NewVScroll(g.grid)))
	g.renderGrid(&g.library, "Loading novels...", "No novels yet.")
}

func (g *gui) loadLibrary() {
	g.library.Begin()
	g.search = reader.Search{}
	g.renderGrid(&g.library, "Loading novels...", "No novels yet.")
	go func() {
		novels, err := g.api.ListNovels(g.ctx)
		fyne.Do(func() {
			if err != nil {
				if g.library.Fail(err) {
					g.logger.Warn("list novels failed", zap.Error(err))
				}
			} else {
				g.library.Resolve(novels)
			}
			if g.session == nil && g.search.Status == reader.Idle {
				g.renderGrid(&g.library, "", "No novels yet.")
			}
		})
	}()
}

func (g *gui) runSearch() {
	if err := g.search.Begin(g.query.Text); err != nil {
		g.search = reader.Search{}
		g.renderGrid(&g.library, "", "No novels yet.")
		return
	}
	query := g.search.Query
	empty := fmt.Sprintf("No novels match %q.", query)
	g.renderGrid(&g.search.Library, "Searching...", empty)
	go func() {
		novels, err := g.api.SearchNovels(g.ctx, query)
		fyne.Do(func() {
			if query != g.search.Query {
				return
			}
			if err != nil {
				if g.search.Fail(err) {
					g.logger.Warn("search failed", zap.String("query", query), zap.Error(err))
				}
			} else {
				g.search.Resolve(novels)
			}
			if g.session == nil {
				g.renderGrid(&g.search.Library, "", empty)
			}
		})
	}()
}

func (g *gui) renderGrid(l *reader.Library, loading, empty string) {
	if g.grid == nil {
		return
	}
	g.grid.RemoveAll()
	switch l.Status {
	case reader.Loading:
		g.status.SetText(loading)
		return
	case reader.Failed:
		g.status.SetText("Error: " + l.Err.Error())
		return
	}
	if len(l.Novels) == 0 {
		g.status.SetText(empty)
		return
	}
	g.status.SetText(fmt.Sprintf("%d novels", len(l.Novels)))
	for _, n := range l.Novels {
		g.grid.Add(g.novelCard(n))
	}
	g.grid.Refresh()
}

func (g *gui) novelCard(n novel.Novel) fyne.CanvasObject {
	var cover fyne.CanvasObject = widget.NewIcon(theme.DocumentIcon())
	if uri, err := storage.ParseURI(n.CoverURL()); err == nil && n.CoverURL() != "" {
		img := canvas.NewImageFromURI(uri)
		img.FillMode = canvas.ImageFillContain
		img.SetMinSize(fyne.NewSize(0, coverHeight))
		cover = img
	}
	id := n.ID
	open := widget.NewButton(n.Title, func() { g.openNovel(id) })
	return container.NewBorder(nil, open, nil, nil, cover)
}

func (g *gui) openNovel(id string) {
	s := reader.NewSession(id, g.size)
	if g.prefs != nil {
		s.CurrentChapter = g.prefs.LastChapter(id)
	}
	s.Begin()
	g.session = s
	g.renderReader()

	go func() {
		n, err := g.api.GetNovel(g.ctx, id)
		fyne.Do(func() {
			if g.session != s {
				return
			}
			if err != nil {
				if s.Fail(err) {
					g.logger.Warn("get novel failed", zap.String("id", id), zap.Error(err))
				}
			} else {
				s.Resolve(n)
			}
			g.renderReader()
		})
	}()
}

func (g *gui) renderReader() {
	s := g.session
	back := widget.NewButtonWithIcon("", theme.NavigateBackIcon(), g.closeReader)
	header := widget.NewLabelWithStyle(s.HeaderText(), fyne.TextAlignCenter, fyne.TextStyle{Bold: true})

	var labels []string
	for _, f := range reader.FontSizes() {
		labels = append(labels, f.Label())
	}
	fontSelect := widget.NewSelect(labels, func(label string) {
		for _, f := range reader.FontSizes() {
			if f.Label() == label && f != g.size {
				g.setFontSize(f)
			}
		}
	})
	fontSelect.SetSelected(s.FontSize.Label())

	top := container.NewBorder(nil, nil, back, fontSelect, header)

	var body fyne.CanvasObject
	var bottom fyne.CanvasObject
	switch s.Status {
	case reader.Ready:
		body = container.NewVScroll(segmentsView(s))
		if toc := reader.TOC(s.Novel); len(toc) > 1 {
			split := container.NewHSplit(g.tocList(s, toc), body)
			split.Offset = 0.25
			body = split
		}
		bottom = g.chapterBar(s)
	case reader.Failed:
		retry := widget.NewButton("Retry", func() { g.openNovel(s.NovelID) })
		body = container.NewCenter(container.NewVBox(widget.NewLabel("Error: "+s.Err.Error()), retry))
	default:
		body = container.NewCenter(widget.NewProgressBarInfinite())
	}
	g.win.SetContent(container.NewBorder(top, bottom, nil, nil, body))
}

// tocList shows the contents panel; selecting an entry jumps to its chapter.
func (g *gui) tocList(s *reader.Session, toc []reader.TOCEntry) fyne.CanvasObject {
	list := widget.NewList(
		func() int { return len(toc) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, o fyne.CanvasObject) {
			e := toc[id]
			label := o.(*widget.Label)
			if e.Level > 0 {
				label.SetText("    " + e.Title)
				label.TextStyle = fyne.TextStyle{}
			} else {
				label.SetText(e.Title)
				label.TextStyle = fyne.TextStyle{Bold: e.Chapter == s.CurrentChapter}
			}
			label.Refresh()
		},
	)
	list.OnSelected = func(id widget.ListItemID) {
		if s.JumpToChapter(toc[id].Chapter) {
			g.saveChapter()
			g.renderReader()
		}
	}
	return list
}

func segmentsView(s *reader.Session) fyne.CanvasObject {
	box := container.NewVBox()
	for _, seg := range s.Segments() {
		box.Add(widget.NewRichText(&widget.TextSegment{
			Text:  seg.Header,
			Style: widget.RichTextStyleSubHeading,
		}))
		if seg.Body != "" {
			body := widget.NewLabel(seg.Body)
			body.Wrapping = fyne.TextWrapWord
			box.Add(body)
		}
	}
	return box
}

func (g *gui) chapterBar(s *reader.Session) fyne.CanvasObject {
	current, total := s.Progress()
	label := widget.NewLabel(fmt.Sprintf("Chapter %d/%d", current, total))
	if c, ok := s.Chapter(); ok && c.Title != "" {
		label.SetText(label.Text + ": " + c.Title)
	}
	prev := widget.NewButtonWithIcon("", theme.NavigateBackIcon(), func() {
		if s.PrevChapter() {
			g.saveChapter()
			g.renderReader()
		}
	})
	next := widget.NewButtonWithIcon("", theme.NavigateNextIcon(), func() {
		if s.NextChapter() {
			g.saveChapter()
			g.renderReader()
		}
	})
	return container.NewBorder(nil, nil, prev, next, container.NewCenter(label))
}

func (g *gui) setFontSize(f reader.FontSize) {
	g.size = f
	if g.session != nil {
		g.session.FontSize = f
	}
	if g.prefs != nil {
		if err := g.prefs.SetFontSize(f.String()); err != nil {
			g.logger.Warn("save font size", zap.Error(err))
		}
	}
	g.applyTheme()
}

func (g *gui) saveChapter() {
	s := g.session
	if g.prefs == nil || s == nil || s.Status != reader.Ready {
		return
	}
	if err := g.prefs.SetLastChapter(s.NovelID, s.CurrentChapter); err != nil {
		g.logger.Warn("save reading position", zap.Error(err))
	}
}

func (g *gui) closeReader() {
	g.saveChapter()
	g.showLibrary()
	if g.library.Status != reader.Ready {
		g.loadLibrary()
	}
}

func runClient(ctx context.Context, a *app, prefs *state.StateStore, novelID string) error {
	g := newGUI(ctx, a.client(), prefs, a.logger, a.fontSize(prefs))

	g.win.Canvas().SetOnTypedKey(func(key *fyne.KeyEvent) {
		if key.Name == fyne.KeyEscape && g.session != nil {
			g.closeReader()
		}
	})
	g.win.SetOnClosed(g.saveChapter)
	g.win.Resize(fyne.NewSize(800, 600))

	g.showLibrary()
	g.loadLibrary()
	if novelID != "" {
		g.openNovel(novelID)
	}

	g.win.ShowAndRun()
	return nil
}
