package reader

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/taylorskalyo/goreader/epub"
)

// NCX XML structures for parsing toc.ncx
type ncx struct {
	DocTitle navLabel `xml:"docTitle"`
	NavMap   navMap   `xml:"navMap"`
}

type navMap struct {
	NavPoints []navPoint `xml:"navPoint"`
}

type navPoint struct {
	ID        string     `xml:"id,attr"`
	PlayOrder int        `xml:"playOrder,attr"`
	Label     navLabel   `xml:"navLabel"`
	Content   navContent `xml:"content"`
	Children  []navPoint `xml:"navPoint"`
}

type navLabel struct {
	Text string `xml:"text"`
}

type navContent struct {
	Src string `xml:"src,attr"`
}

// navTitles maps spine hrefs to the first NCX label pointing at them.
type navTitles struct {
	doc    string
	byHref map[string]string
}

func (t navTitles) lookup(href string) string {
	if href == "" {
		return ""
	}
	for _, k := range hrefKeys(href) {
		if title, ok := t.byHref[k]; ok {
			return title
		}
	}
	return ""
}

// readNavTitles parses the book's NCX. A missing or malformed NCX yields an
// empty index rather than an error.
func readNavTitles(filename string, book *epub.Rootfile) navTitles {
	titles := navTitles{byHref: make(map[string]string)}

	data, err := findAndReadNCX(filename, book)
	if err != nil {
		return titles
	}
	var toc ncx
	if err := xml.Unmarshal(data, &toc); err != nil {
		return titles
	}
	titles.doc = strings.TrimSpace(toc.DocTitle.Text)

	var walk func(points []navPoint)
	walk = func(points []navPoint) {
		for _, np := range points {
			label := strings.TrimSpace(np.Label.Text)
			for _, k := range hrefKeys(np.Content.Src) {
				if _, exists := titles.byHref[k]; !exists && label != "" {
					titles.byHref[k] = label
				}
			}
			walk(np.Children)
		}
	}
	walk(toc.NavMap.NavPoints)

	return titles
}

func findAndReadNCX(filename string, book *epub.Rootfile) ([]byte, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var ncxPath string
	for _, item := range book.Manifest.Items {
		if item.MediaType == "application/x-dtbncx+xml" {
			ncxPath = item.HREF
			break
		}
	}
	if ncxPath == "" {
		for _, f := range zr.File {
			if strings.HasSuffix(strings.ToLower(f.Name), ".ncx") {
				ncxPath = f.Name
				break
			}
		}
	}
	if ncxPath == "" {
		return nil, fmt.Errorf("no NCX file found in EPUB")
	}

	for _, f := range zr.File {
		if f.Name == ncxPath || strings.HasSuffix(f.Name, "/"+ncxPath) || path.Base(f.Name) == path.Base(ncxPath) {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}

	return nil, fmt.Errorf("NCX file %s not found in archive", ncxPath)
}
