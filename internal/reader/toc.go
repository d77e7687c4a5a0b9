package reader

import (
	"fmt"
	"strings"

	"github.com/metcalfc/storyreader/internal/novel"
	"github.com/metcalfc/storyreader/internal/segment"
)

// TOCEntry represents a single entry in a table of contents
type TOCEntry struct {
	Title   string
	Preview string
	Chapter int // index into Novel.Chapters
	Level   int
}

const previewWords = 10

// TOC lists a novel's chapters at level 0 and, below each, the headers the
// segmenter finds in its content at level 1.
func TOC(n *novel.Novel) []TOCEntry {
	if n == nil {
		return nil
	}
	var entries []TOCEntry
	for i, c := range n.Chapters {
		title := c.Title
		if title == "" {
			title = fmt.Sprintf("Chapter %d", c.ChapterNumber)
		}
		entries = append(entries, TOCEntry{
			Title:   title,
			Preview: preview(c.Content),
			Chapter: i,
		})
		for _, seg := range segment.Split(c.Content) {
			if seg.Header == "" || !segment.Pattern.MatchString(seg.Header) {
				continue
			}
			entries = append(entries, TOCEntry{
				Title:   seg.Header,
				Preview: preview(seg.Body),
				Chapter: i,
				Level:   1,
			})
		}
	}
	return entries
}

func preview(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	if len(words) > previewWords {
		return strings.Join(words[:previewWords], " ") + "..."
	}
	return strings.Join(words, " ")
}
