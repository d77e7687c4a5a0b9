package reader

import (
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/metcalfc/storyreader/internal/novel"
)

// HTMLFormat implements Format for saved web pages. Each h1 or h2 starts a
// chapter; a page without them is one chapter.
type HTMLFormat struct{}

func init() {
	Register(&HTMLFormat{})
}

func (f *HTMLFormat) Name() string         { return "HTML" }
func (f *HTMLFormat) Extensions() []string { return []string{".html", ".htm", ".xhtml"} }

func (f *HTMLFormat) open(filename string) (*goquery.Document, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	doc, err := goquery.NewDocumentFromReader(file)
	if err != nil {
		return nil, err
	}
	doc.Find("script, style, nav, noscript").Remove()
	return doc, nil
}

func (f *HTMLFormat) ExtractChapters(filename string) ([]novel.Chapter, error) {
	doc, err := f.open(filename)
	if err != nil {
		return nil, err
	}

	body := doc.Find("body")
	headings := body.Find("h1, h2")
	if headings.Length() == 0 {
		text := selectionText(body)
		if text == "" {
			return nil, nil
		}
		return []novel.Chapter{{ChapterNumber: 1, Title: "Document", Content: text}}, nil
	}

	var chapters []novel.Chapter
	headings.Each(func(_ int, h *goquery.Selection) {
		var parts []string
		for s := h.Next(); s.Length() > 0 && !s.Is("h1, h2"); s = s.Next() {
			if t := selectionText(s); t != "" {
				parts = append(parts, t)
			}
		}
		content := strings.Join(parts, "\n")
		if content == "" {
			return
		}
		chapters = append(chapters, novel.Chapter{
			Title:   collapseSpace(h.Text()),
			Content: content,
		})
	})
	return numberChapters(chapters), nil
}

// Title returns the page's <title>, or its first h1.
func (f *HTMLFormat) Title(filename string) (string, error) {
	doc, err := f.open(filename)
	if err != nil {
		return "", err
	}
	if t := collapseSpace(doc.Find("title").First().Text()); t != "" {
		return t, nil
	}
	return collapseSpace(doc.Find("h1").First().Text()), nil
}

func selectionText(s *goquery.Selection) string {
	markup, err := goquery.OuterHtml(s)
	if err != nil {
		return collapseSpace(s.Text())
	}
	return extractTextFromHTML(markup)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
