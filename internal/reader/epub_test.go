package reader

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExtractTextFromHTML(t *testing.T) {
	htmlContent := `
	<html>
		<head><title>Test</title><style>p { color: red; }</style></head>
		<body>
			<h1>Chapter 1</h1>
			<p>This is the <b>first</b> paragraph.</p>
			<p>
				This is the second paragraph
				with a newline.
			</p>
			<div>Some <span>nested</span> text.</div>
			<script>var x = 1;</script>
		</body>
	</html>
	`

	want := []string{
		"Chapter 1",
		"This is the first paragraph.",
		"This is the second paragraph with a newline.",
		"Some nested text.",
	}

	got := strings.Split(extractTextFromHTML(htmlContent), "\n")
	if len(got) != len(want) {
		t.Fatalf("got %d lines %q, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

type epubSection struct {
	href  string
	label string // NCX label, empty for none
	body  string
}

// writeTestEPUB builds a minimal EPUB 2 book in dir.
func writeTestEPUB(t *testing.T, dir, title string, sections []epubSection) string {
	t.Helper()
	name := filepath.Join(dir, "book.epub")
	f, err := os.Create(name)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	add := func(name, content string) {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}

	add("mimetype", "application/epub+zip")
	add("META-INF/container.xml", `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`)

	var manifest, spine, nav strings.Builder
	for i, s := range sections {
		id := fmt.Sprintf("s%d", i+1)
		fmt.Fprintf(&manifest, `<item id="%s" href="%s" media-type="application/xhtml+xml"/>`+"\n", id, s.href)
		fmt.Fprintf(&spine, `<itemref idref="%s"/>`+"\n", id)
		if s.label != "" {
			fmt.Fprintf(&nav, `<navPoint id="n%d" playOrder="%d"><navLabel><text>%s</text></navLabel><content src="%s#top"/></navPoint>`+"\n",
				i+1, i+1, s.label, s.href)
		}
		add("OEBPS/"+s.href, `<?xml version="1.0" encoding="utf-8"?>
<html xmlns="http://www.w3.org/1999/xhtml"><head><title>x</title></head><body>`+s.body+`</body></html>`)
	}

	add("OEBPS/content.opf", `<?xml version="1.0" encoding="utf-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0" unique-identifier="id">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>`+title+`</dc:title>
    <dc:identifier id="id">test-book</dc:identifier>
    <dc:language>en</dc:language>
  </metadata>
  <manifest>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
`+manifest.String()+`  </manifest>
  <spine toc="ncx">
`+spine.String()+`  </spine>
</package>`)

	add("OEBPS/toc.ncx", `<?xml version="1.0" encoding="utf-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <docTitle><text>`+title+`</text></docTitle>
  <navMap>
`+nav.String()+`  </navMap>
</ncx>`)

	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return name
}

func TestEPUBExtractChapters(t *testing.T) {
	path := writeTestEPUB(t, t.TempDir(), "The Long Road", []epubSection{
		{href: "one.xhtml", label: "Departure", body: "<p>Chapter 1: Out</p><p>They left at dawn.</p>"},
		{href: "blank.xhtml", body: "<p>   </p>"},
		{href: "three.xhtml", body: "<p>Unlabelled section.</p>"},
	})

	f := &EPUBFormat{}
	chapters, err := f.ExtractChapters(path)
	if err != nil {
		t.Fatalf("ExtractChapters: %v", err)
	}
	if len(chapters) != 2 {
		t.Fatalf("got %d chapters, want 2: %+v", len(chapters), chapters)
	}

	if chapters[0].Title != "Departure" || chapters[0].ChapterNumber != 1 {
		t.Errorf("chapter 0 = %q #%d, want Departure #1", chapters[0].Title, chapters[0].ChapterNumber)
	}
	if chapters[0].Content != "Chapter 1: Out\nThey left at dawn." {
		t.Errorf("chapter 0 content = %q", chapters[0].Content)
	}
	// Spine position, not chapter number, names unlabelled sections.
	if chapters[1].Title != "Section 3" || chapters[1].ChapterNumber != 2 {
		t.Errorf("chapter 1 = %q #%d, want Section 3 #2", chapters[1].Title, chapters[1].ChapterNumber)
	}

	title, err := f.Title(path)
	if err != nil {
		t.Fatalf("Title: %v", err)
	}
	if title != "The Long Road" {
		t.Errorf("Title = %q", title)
	}
}

func TestEPUBNotAnArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.epub")
	if err := os.WriteFile(path, []byte("not a zip"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := (&EPUBFormat{}).ExtractChapters(path); err == nil {
		t.Error("expected error for invalid epub")
	}
}
