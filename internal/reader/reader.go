// Package reader holds the client-side screen state for browsing and reading
// novels, and the file formats novels can be imported from.
package reader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/metcalfc/storyreader/internal/novel"
	"github.com/metcalfc/storyreader/internal/segment"
)

// Status is where a screen is in its fetch lifecycle.
type Status int

const (
	Idle Status = iota
	Loading
	Ready
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// ErrEmptyQuery is returned when a search is started without a query.
var ErrEmptyQuery = errors.New("empty search query")

// FontSize is a reading text size.
type FontSize int

const (
	Small FontSize = iota
	Medium
	Large
)

// DefaultFontSize is used until the reader picks one.
const DefaultFontSize = Large

// FontSizes lists the sizes in menu order.
func FontSizes() []FontSize {
	return []FontSize{Small, Medium, Large}
}

func (f FontSize) String() string {
	switch f {
	case Small:
		return "Small"
	case Medium:
		return "Medium"
	case Large:
		return "Large"
	}
	return fmt.Sprintf("FontSize(%d)", int(f))
}

// Points returns the body text size.
func (f FontSize) Points() int {
	switch f {
	case Small:
		return 14
	case Large:
		return 18
	default:
		return 16
	}
}

// HeaderPoints returns the segment header text size.
func (f FontSize) HeaderPoints() int {
	return f.Points() + 2
}

// Label is the menu text, e.g. "Small (14)".
func (f FontSize) Label() string {
	return fmt.Sprintf("%s (%d)", f, f.Points())
}

// Next cycles Small -> Medium -> Large -> Small.
func (f FontSize) Next() FontSize {
	return (f + 1) % 3
}

// ParseFontSize parses a size name, ignoring case.
func ParseFontSize(s string) (FontSize, error) {
	for _, f := range FontSizes() {
		if strings.EqualFold(s, f.String()) {
			return f, nil
		}
	}
	return DefaultFontSize, fmt.Errorf("unknown font size %q", s)
}

// Library is the state of the novel grid screen.
type Library struct {
	Status Status
	Novels []novel.Novel
	Err    error
}

// Begin starts a fetch. It may be called in any state; the last completed
// fetch wins.
func (l *Library) Begin() {
	l.Status = Loading
	l.Err = nil
}

// Resolve stores fetched novels. It returns false unless a fetch is in
// progress.
func (l *Library) Resolve(novels []novel.Novel) bool {
	if l.Status != Loading {
		return false
	}
	l.Status = Ready
	l.Novels = novels
	return true
}

// Fail records a fetch error. It returns false unless a fetch is in
// progress. Previously loaded novels are kept.
func (l *Library) Fail(err error) bool {
	if l.Status != Loading {
		return false
	}
	l.Status = Failed
	l.Err = err
	return true
}

// Rows lays the novels out in a grid with the given number of columns.
func (l *Library) Rows(columns int) [][]novel.Novel {
	if columns < 1 {
		columns = 2
	}
	var rows [][]novel.Novel
	for i := 0; i < len(l.Novels); i += columns {
		end := i + columns
		if end > len(l.Novels) {
			end = len(l.Novels)
		}
		rows = append(rows, l.Novels[i:end])
	}
	return rows
}

// Search is the state of the search screen.
type Search struct {
	Library
	Query string
}

// Begin starts a search for query.
func (s *Search) Begin(query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return ErrEmptyQuery
	}
	s.Query = query
	s.Library.Begin()
	return nil
}

// Session is the state of the reading screen for one novel.
type Session struct {
	NovelID        string
	Status         Status
	Novel          *novel.Novel
	Err            error
	FontSize       FontSize
	CurrentChapter int
}

// NewSession creates an idle session for novelID.
func NewSession(novelID string, size FontSize) *Session {
	return &Session{
		NovelID:  novelID,
		Status:   Idle,
		FontSize: size,
	}
}

// Begin starts fetching the novel.
func (s *Session) Begin() {
	s.Status = Loading
	s.Err = nil
}

// Resolve stores the fetched novel. The current chapter is kept when it is
// still in range. It returns false unless a fetch is in progress.
func (s *Session) Resolve(n *novel.Novel) bool {
	if s.Status != Loading || n == nil {
		return false
	}
	n.SortChapters()
	s.Novel = n
	s.Status = Ready
	if s.CurrentChapter < 0 || s.CurrentChapter >= len(n.Chapters) {
		s.CurrentChapter = 0
	}
	return true
}

// Fail records a fetch error. It returns false unless a fetch is in progress.
func (s *Session) Fail(err error) bool {
	if s.Status != Loading {
		return false
	}
	s.Status = Failed
	s.Err = err
	return true
}

// HeaderText returns the (possibly truncated) novel title.
func (s *Session) HeaderText() string {
	return s.Novel.HeaderText()
}

// Chapter returns the chapter being read.
func (s *Session) Chapter() (novel.Chapter, bool) {
	if s.Status != Ready || s.Novel == nil {
		return novel.Chapter{}, false
	}
	return s.Novel.Chapter(s.CurrentChapter)
}

// Segments splits the current chapter's content. It is recomputed on every
// call and is nil unless the session is ready.
func (s *Session) Segments() []segment.Segment {
	c, ok := s.Chapter()
	if !ok {
		return nil
	}
	return segment.Split(c.Content)
}

// Progress returns the 1-based current chapter and the chapter count.
func (s *Session) Progress() (current, total int) {
	if s.Novel == nil {
		return 0, 0
	}
	return s.CurrentChapter + 1, len(s.Novel.Chapters)
}

// NextChapter moves to the next chapter. Returns false at the last one.
func (s *Session) NextChapter() bool {
	return s.JumpToChapter(s.CurrentChapter + 1)
}

// PrevChapter moves to the previous chapter. Returns false at the first one.
func (s *Session) PrevChapter() bool {
	return s.JumpToChapter(s.CurrentChapter - 1)
}

// JumpToChapter moves to chapter index i if it exists.
func (s *Session) JumpToChapter(i int) bool {
	if s.Status != Ready || s.Novel == nil || i < 0 || i >= len(s.Novel.Chapters) {
		return false
	}
	s.CurrentChapter = i
	return true
}

// CycleFontSize switches to the next font size.
func (s *Session) CycleFontSize() {
	s.FontSize = s.FontSize.Next()
}
