package reader

import (
	"fmt"
	"io"
	"path"
	"strings"
	"unicode"

	"github.com/metcalfc/storyreader/internal/novel"
	"github.com/taylorskalyo/goreader/epub"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// EPUBFormat implements Format for EPUB files.
type EPUBFormat struct{}

func init() {
	Register(&EPUBFormat{})
}

func (f *EPUBFormat) Name() string         { return "EPUB" }
func (f *EPUBFormat) Extensions() []string { return []string{".epub"} }

// ExtractChapters returns one chapter per non-empty spine document, titled
// from the NCX navigation map where it has an entry.
func (f *EPUBFormat) ExtractChapters(filename string) ([]novel.Chapter, error) {
	rc, err := epub.OpenReader(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open epub: %w", err)
	}
	defer rc.Close()

	if len(rc.Rootfiles) == 0 {
		return nil, fmt.Errorf("no rootfiles found in epub")
	}
	book := rc.Rootfiles[0]

	titles := readNavTitles(filename, book)

	var chapters []novel.Chapter
	for i, ref := range book.Spine.Itemrefs {
		if ref.Item == nil {
			continue
		}
		r, err := ref.Item.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			continue
		}

		text := extractTextFromHTML(string(data))
		if text == "" {
			continue
		}

		title := titles.lookup(ref.Item.HREF)
		if title == "" {
			title = fmt.Sprintf("Section %d", i+1)
		}
		chapters = append(chapters, novel.Chapter{Title: title, Content: text})
	}

	return numberChapters(chapters), nil
}

// Title returns the NCX document title.
func (f *EPUBFormat) Title(filename string) (string, error) {
	rc, err := epub.OpenReader(filename)
	if err != nil {
		return "", fmt.Errorf("failed to open epub: %w", err)
	}
	defer rc.Close()
	if len(rc.Rootfiles) == 0 {
		return "", fmt.Errorf("no rootfiles found in epub")
	}
	return readNavTitles(filename, rc.Rootfiles[0]).doc, nil
}

// blockElements end a line of extracted text.
var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Li: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Blockquote: true, atom.Pre: true, atom.Tr: true,
	atom.Section: true, atom.Article: true,
}

// extractTextFromHTML returns the body text of an HTML document, one line per
// block element with runs of whitespace collapsed.
func extractTextFromHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return ""
	}

	var out strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			out.WriteString(strings.Map(flattenSpace, n.Data))
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Head, atom.Script, atom.Style:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.DataAtom] {
			out.WriteString("\n")
		}
	}
	walk(doc)

	var lines []string
	for _, line := range strings.Split(out.String(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// flattenSpace keeps source line breaks from splitting a block.
func flattenSpace(r rune) rune {
	if unicode.IsSpace(r) {
		return ' '
	}
	return r
}

// hrefKeys returns the ways a manifest or NCX href may be referenced:
// as written, without its fragment, and by base name.
func hrefKeys(href string) []string {
	bare := href
	if idx := strings.Index(bare, "#"); idx != -1 {
		bare = bare[:idx]
	}
	return []string{href, bare, path.Base(bare)}
}
