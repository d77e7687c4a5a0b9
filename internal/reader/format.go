package reader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/metcalfc/storyreader/internal/novel"
)

// Format reads a file into numbered chapters.
type Format interface {
	Name() string
	Extensions() []string
	ExtractChapters(filename string) ([]novel.Chapter, error)
}

// Titler is implemented by formats that carry their own title.
type Titler interface {
	Title(filename string) (string, error)
}

var registry []Format

// Register adds a format reader to the registry.
func Register(f Format) {
	registry = append(registry, f)
}

// Lookup returns the registered format for filename's extension.
func Lookup(filename string) (Format, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, f := range registry {
		for _, e := range f.Extensions() {
			if ext == e {
				return f, true
			}
		}
	}
	return nil, false
}

// SupportedFormats returns registered format names with their extensions.
func SupportedFormats() []string {
	var out []string
	for _, f := range registry {
		out = append(out, f.Name()+" ("+strings.Join(f.Extensions(), ", ")+")")
	}
	return out
}

// ExtractNovel reads filename into a novel, falling back to plain text for
// unknown extensions. The title comes from the file itself when the format
// has one, and from the file name otherwise.
func ExtractNovel(filename string) (*novel.Novel, error) {
	f, ok := Lookup(filename)
	if !ok {
		f = &TextFormat{}
	}
	chapters, err := f.ExtractChapters(filename)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	if len(chapters) == 0 {
		return nil, fmt.Errorf("%s: no readable text", filename)
	}

	title := ""
	if t, ok := f.(Titler); ok {
		title, _ = t.Title(filename)
	}
	if strings.TrimSpace(title) == "" {
		title = titleFromFilename(filename)
	}
	return &novel.Novel{
		Title:    strings.TrimSpace(title),
		Category: f.Name(),
		Chapters: chapters,
	}, nil
}

// TextFormat reads a plain text file as a single chapter. Chapter markers
// inside it are left for the segmenter.
type TextFormat struct{}

func (f *TextFormat) Name() string         { return "Text" }
func (f *TextFormat) Extensions() []string { return []string{".txt"} }

func (f *TextFormat) ExtractChapters(filename string) ([]novel.Chapter, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, nil
	}
	return []novel.Chapter{{
		ChapterNumber: 1,
		Title:         titleFromFilename(filename),
		Content:       text,
	}}, nil
}

func init() {
	Register(&TextFormat{})
}

// titleFromFilename turns "the_long-road.txt" into "The Long Road".
func titleFromFilename(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	words := strings.FieldsFunc(base, func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	})
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	if len(words) == 0 {
		return "Untitled"
	}
	return strings.Join(words, " ")
}

// numberChapters assigns 1-based chapter numbers in slice order.
func numberChapters(chapters []novel.Chapter) []novel.Chapter {
	for i := range chapters {
		chapters[i].ChapterNumber = i + 1
	}
	return chapters
}
