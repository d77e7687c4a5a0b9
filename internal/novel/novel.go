// Package novel defines the Novel and Chapter records shared by the store,
// the web API and the reading clients.
package novel

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid novel")

// maxHeaderRunes is how much of a title fits in a reader header.
const maxHeaderRunes = 30

// Chapter is a numbered content unit of a Novel. Content may embed several
// "Chapter N" sub-chapters; see package segment.
type Chapter struct {
	ID            string `json:"id" yaml:"id"`
	ChapterNumber int    `json:"chapterNumber" yaml:"chapterNumber"`
	Title         string `json:"title" yaml:"title"`
	Content       string `json:"content" yaml:"content"`
}

// Novel is a readable work and its chapters, ordered by chapter number.
type Novel struct {
	ID            string    `json:"id" yaml:"id"`
	Title         string    `json:"title" yaml:"title"`
	Category      string    `json:"category" yaml:"category"`
	CoverImageURL string    `json:"coverImageUrl" yaml:"coverImageUrl"`
	ImageURL      *string   `json:"imageUrl" yaml:"imageUrl,omitempty"`
	Code          int       `json:"code" yaml:"code"`
	CreatedAt     time.Time `json:"createdAt" yaml:"createdAt,omitempty"`
	Chapters      []Chapter `json:"chapters" yaml:"chapters"`
}

// NewID returns a fresh record identifier.
func NewID() string {
	return uuid.NewString()
}

// AssignIDs fills in missing novel and chapter identifiers.
func (n *Novel) AssignIDs() {
	if n.ID == "" {
		n.ID = NewID()
	}
	for i := range n.Chapters {
		if n.Chapters[i].ID == "" {
			n.Chapters[i].ID = NewID()
		}
	}
}

// Validate checks the title and that chapter numbers are positive and unique.
func (n *Novel) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	seen := make(map[int]bool, len(n.Chapters))
	for _, c := range n.Chapters {
		if c.ChapterNumber <= 0 {
			return fmt.Errorf("%w: chapter %q has non-positive number %d", ErrInvalid, c.Title, c.ChapterNumber)
		}
		if seen[c.ChapterNumber] {
			return fmt.Errorf("%w: duplicate chapter number %d", ErrInvalid, c.ChapterNumber)
		}
		seen[c.ChapterNumber] = true
	}
	return nil
}

// SortChapters orders chapters by chapter number.
func (n *Novel) SortChapters() {
	sort.SliceStable(n.Chapters, func(i, j int) bool {
		return n.Chapters[i].ChapterNumber < n.Chapters[j].ChapterNumber
	})
}

// CoverURL returns the alternate image when set, otherwise the cover image.
func (n Novel) CoverURL() string {
	if n.ImageURL != nil && *n.ImageURL != "" {
		return *n.ImageURL
	}
	return n.CoverImageURL
}

// HeaderText returns the title for a reader header bar.
func (n *Novel) HeaderText() string {
	if n == nil || n.Title == "" {
		return "Novel"
	}
	if utf8.RuneCountInString(n.Title) > maxHeaderRunes {
		return string([]rune(n.Title)[:maxHeaderRunes]) + "..."
	}
	return n.Title
}

// Chapter returns the chapter at index i.
func (n Novel) Chapter(i int) (Chapter, bool) {
	if i < 0 || i >= len(n.Chapters) {
		return Chapter{}, false
	}
	return n.Chapters[i], true
}

// FirstChapter returns the lowest numbered chapter.
func (n Novel) FirstChapter() (Chapter, bool) {
	return n.Chapter(0)
}
