package reader

import (
	"errors"
	"testing"

	"github.com/metcalfc/storyreader/internal/novel"
	"github.com/metcalfc/storyreader/internal/segment"
)

var errFetch = errors.New("network down")

func sampleNovel() *novel.Novel {
	return &novel.Novel{
		ID:    "n1",
		Title: "A Very Long Title That Goes On And On",
		Chapters: []novel.Chapter{
			{ChapterNumber: 2, Title: "Two", Content: "Chapter 3\nThird.\nChapter 4: End\nFourth."},
			{ChapterNumber: 1, Title: "One", Content: "Chapter 1: Start\nFirst."},
		},
	}
}

func TestFontSize(t *testing.T) {
	tests := []struct {
		size   FontSize
		name   string
		body   int
		header int
		next   FontSize
	}{
		{Small, "Small", 14, 16, Medium},
		{Medium, "Medium", 16, 18, Large},
		{Large, "Large", 18, 20, Small},
	}
	for _, tt := range tests {
		if tt.size.String() != tt.name {
			t.Errorf("String() = %q, want %q", tt.size.String(), tt.name)
		}
		if tt.size.Points() != tt.body {
			t.Errorf("%s Points() = %d, want %d", tt.name, tt.size.Points(), tt.body)
		}
		if tt.size.HeaderPoints() != tt.header {
			t.Errorf("%s HeaderPoints() = %d, want %d", tt.name, tt.size.HeaderPoints(), tt.header)
		}
		if tt.size.Next() != tt.next {
			t.Errorf("%s Next() = %s, want %s", tt.name, tt.size.Next(), tt.next)
		}
	}

	if DefaultFontSize != Large {
		t.Errorf("DefaultFontSize = %s, want Large", DefaultFontSize)
	}
	if got := Medium.Label(); got != "Medium (16)" {
		t.Errorf("Label() = %q", got)
	}
}

func TestParseFontSize(t *testing.T) {
	for _, in := range []string{"small", "SMALL", "Small"} {
		if got, err := ParseFontSize(in); err != nil || got != Small {
			t.Errorf("ParseFontSize(%q) = %s, %v", in, got, err)
		}
	}
	got, err := ParseFontSize("huge")
	if err == nil {
		t.Error("expected error for unknown size")
	}
	if got != DefaultFontSize {
		t.Errorf("unknown size fell back to %s, want %s", got, DefaultFontSize)
	}
}

func TestLibraryLifecycle(t *testing.T) {
	var l Library
	if l.Status != Idle {
		t.Fatalf("initial status = %s, want idle", l.Status)
	}

	// Results arriving without a fetch in flight are ignored.
	if l.Resolve([]novel.Novel{{Title: "stray"}}) {
		t.Error("Resolve while idle should be ignored")
	}
	if l.Fail(errFetch) {
		t.Error("Fail while idle should be ignored")
	}

	l.Begin()
	if l.Status != Loading {
		t.Fatalf("status = %s, want loading", l.Status)
	}
	if !l.Resolve([]novel.Novel{{Title: "a"}, {Title: "b"}, {Title: "c"}}) {
		t.Fatal("Resolve while loading should apply")
	}
	if l.Status != Ready || len(l.Novels) != 3 {
		t.Fatalf("status = %s with %d novels", l.Status, len(l.Novels))
	}
	if l.Fail(errFetch) {
		t.Error("Fail after ready should be ignored")
	}

	l.Begin()
	if !l.Fail(errFetch) {
		t.Fatal("Fail while loading should apply")
	}
	if l.Status != Failed || !errors.Is(l.Err, errFetch) {
		t.Errorf("status = %s, err = %v", l.Status, l.Err)
	}
	if len(l.Novels) != 3 {
		t.Error("failed refresh should keep previous novels")
	}

	l.Begin()
	if l.Err != nil {
		t.Error("Begin should clear the previous error")
	}
}

func TestLibraryRows(t *testing.T) {
	l := Library{Novels: []novel.Novel{{Title: "a"}, {Title: "b"}, {Title: "c"}}}

	rows := l.Rows(2)
	if len(rows) != 2 || len(rows[0]) != 2 || len(rows[1]) != 1 {
		t.Fatalf("Rows(2) shape = %v", rows)
	}
	if rows[1][0].Title != "c" {
		t.Errorf("last cell = %q, want c", rows[1][0].Title)
	}
	if got := l.Rows(0); len(got) != 2 {
		t.Errorf("Rows(0) should default to two columns, got %d rows", len(got))
	}
	if got := (&Library{}).Rows(2); got != nil {
		t.Errorf("empty library rows = %v, want nil", got)
	}
}

func TestSearchBegin(t *testing.T) {
	var s Search
	if err := s.Begin("   "); !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("Begin(blank) = %v, want ErrEmptyQuery", err)
	}
	if s.Status != Idle {
		t.Errorf("blank query should not start loading, status = %s", s.Status)
	}

	if err := s.Begin("  sea "); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if s.Query != "sea" || s.Status != Loading {
		t.Errorf("query = %q, status = %s", s.Query, s.Status)
	}
	if !s.Resolve(nil) || s.Status != Ready {
		t.Errorf("Resolve with no results should reach ready, status = %s", s.Status)
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := NewSession("n1", Medium)
	if s.Status != Idle || s.FontSize != Medium {
		t.Fatalf("new session = %+v", s)
	}
	if s.Segments() != nil {
		t.Error("Segments before ready should be nil")
	}
	if s.Resolve(sampleNovel()) {
		t.Error("Resolve while idle should be ignored")
	}

	s.Begin()
	if s.Segments() != nil {
		t.Error("Segments while loading should be nil")
	}
	if !s.Resolve(sampleNovel()) {
		t.Fatal("Resolve while loading should apply")
	}
	if s.Status != Ready {
		t.Fatalf("status = %s, want ready", s.Status)
	}

	c, ok := s.Chapter()
	if !ok || c.ChapterNumber != 1 {
		t.Fatalf("first chapter = %+v, %v; want chapter number 1", c, ok)
	}
	want := []segment.Segment{{Header: "Chapter 1: Start", Body: "First."}}
	got := s.Segments()
	if len(got) != len(want) || got[0] != want[0] {
		t.Errorf("Segments = %+v, want %+v", got, want)
	}

	if s.HeaderText() != "A Very Long Title That Goes On..." {
		t.Errorf("HeaderText = %q", s.HeaderText())
	}
	if cur, total := s.Progress(); cur != 1 || total != 2 {
		t.Errorf("Progress = %d/%d, want 1/2", cur, total)
	}
}

func TestSessionFailure(t *testing.T) {
	s := NewSession("missing", DefaultFontSize)
	s.Begin()
	if !s.Fail(errFetch) {
		t.Fatal("Fail while loading should apply")
	}
	if s.Status != Failed || s.Segments() != nil {
		t.Errorf("status = %s, segments = %v", s.Status, s.Segments())
	}
	if s.HeaderText() != "Novel" {
		t.Errorf("HeaderText without novel = %q, want Novel", s.HeaderText())
	}
	if s.Resolve(sampleNovel()) {
		t.Error("Resolve after failure should be ignored")
	}
}

func TestSessionNavigation(t *testing.T) {
	s := NewSession("n1", DefaultFontSize)
	if s.NextChapter() {
		t.Error("navigation before ready should fail")
	}

	s.Begin()
	s.Resolve(sampleNovel())

	if s.PrevChapter() {
		t.Error("PrevChapter at first chapter should fail")
	}
	if !s.NextChapter() {
		t.Fatal("NextChapter should move to the second chapter")
	}
	if s.NextChapter() {
		t.Error("NextChapter at last chapter should fail")
	}
	if got := s.Segments(); len(got) != 2 || got[1].Header != "Chapter 4: End" {
		t.Errorf("Segments = %+v", got)
	}
	if s.JumpToChapter(5) || s.CurrentChapter != 1 {
		t.Errorf("out-of-range jump moved to %d", s.CurrentChapter)
	}
	if !s.JumpToChapter(0) || s.CurrentChapter != 0 {
		t.Errorf("JumpToChapter(0) left chapter at %d", s.CurrentChapter)
	}
}

func TestSessionRefreshKeepsPosition(t *testing.T) {
	s := NewSession("n1", DefaultFontSize)
	s.CurrentChapter = 1
	s.Begin()
	s.Resolve(sampleNovel())
	if s.CurrentChapter != 1 {
		t.Errorf("restored chapter = %d, want 1", s.CurrentChapter)
	}

	s.CurrentChapter = 9
	s.Begin()
	s.Resolve(sampleNovel())
	if s.CurrentChapter != 0 {
		t.Errorf("out-of-range chapter should reset to 0, got %d", s.CurrentChapter)
	}
}

func TestSessionCycleFontSize(t *testing.T) {
	s := NewSession("n1", Large)
	s.CycleFontSize()
	if s.FontSize != Small {
		t.Errorf("FontSize = %s, want Small", s.FontSize)
	}
}

func TestStatusString(t *testing.T) {
	if Loading.String() != "loading" || Status(42).String() != "Status(42)" {
		t.Errorf("unexpected status strings %q %q", Loading, Status(42))
	}
}
