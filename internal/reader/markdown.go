package reader

import (
	"bufio"
	"os"
	"regexp"
	"strings"

	"github.com/metcalfc/storyreader/internal/novel"
)

// MarkdownFormat implements Format for Markdown files.
type MarkdownFormat struct{}

func init() {
	Register(&MarkdownFormat{})
}

func (f *MarkdownFormat) Name() string         { return "Markdown" }
func (f *MarkdownFormat) Extensions() []string { return []string{".md", ".markdown"} }

// headerRegex matches markdown headers (# to ######)
var headerRegex = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

// ExtractChapters starts a chapter at every header. Text before the first
// header, or the whole file when there are none, becomes a "Document" chapter.
func (f *MarkdownFormat) ExtractChapters(filename string) ([]novel.Chapter, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var chapters []novel.Chapter
	title := "Document"
	var body []string

	flush := func() {
		content := strings.TrimSpace(strings.Join(body, "\n"))
		if content != "" {
			chapters = append(chapters, novel.Chapter{Title: title, Content: content})
		}
		body = nil
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if match := headerRegex.FindStringSubmatch(line); match != nil {
			flush()
			title = strings.TrimSpace(match[2])
			continue
		}
		body = append(body, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	return numberChapters(chapters), nil
}

// Title returns the first level-one header, if any.
func (f *MarkdownFormat) Title(filename string) (string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return "", err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if match := headerRegex.FindStringSubmatch(scanner.Text()); match != nil && len(match[1]) == 1 {
			return strings.TrimSpace(match[2]), nil
		}
	}
	return "", scanner.Err()
}
