// Package segment splits the raw content of a chapter into header/body
// segments at embedded "Chapter N" markers.
package segment

import (
	"regexp"
	"strings"
)

// Segment is one labeled piece of a chapter's content.
type Segment struct {
	Header string `json:"header"`
	Body   string `json:"body"`
}

// Pattern matches a chapter marker at the start of any line: the word
// "Chapter" (any case), whitespace, digits, an optional colon and optional
// trailing whitespace. Unicode spaces such as U+00A0 count as whitespace.
// Group 1 is the marker without the trailing space.
var Pattern = regexp.MustCompile(`(?im)^(chapter[\s\p{Z}]+\d+:?)[\s\p{Z}]*`)

// lineBreaks turns the other line terminators into '\n' so that markers
// after them start a line. CRLF is left alone.
var lineBreaks = strings.NewReplacer("\r\n", "\r\n", "\r", "\n", "\u2028", "\n", "\u2029", "\n")

// Split returns the segments of text in source order.
//
// Each marker starts a segment whose header is the marker's whole line and
// whose body runs up to the next marker. Text that is not preceded by a
// marker (all of it, when there is none) becomes a header-only segment.
// The empty string yields no segments.
func Split(text string) []Segment {
	if text == "" {
		return nil
	}
	text = lineBreaks.Replace(text)

	matches := Pattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return []Segment{{Header: strings.TrimSpace(text)}}
	}

	segments := make([]Segment, 0, len(matches)+1)

	// Preamble before the first marker
	if pre := text[:matches[0][0]]; strings.TrimSpace(pre) != "" {
		segments = append(segments, Segment{Header: strings.TrimSpace(pre)})
	}

	for i, m := range matches {
		next := len(text)
		if i+1 < len(matches) {
			next = matches[i+1][0]
		}

		lineEnd := len(text)
		if nl := strings.IndexByte(text[m[3]:], '\n'); nl >= 0 {
			lineEnd = m[3] + nl
		}
		if lineEnd > next {
			lineEnd = next
		}

		segments = append(segments, Segment{
			Header: strings.TrimSpace(text[m[0]:lineEnd]),
			Body:   strings.TrimSpace(text[lineEnd:next]),
		})
	}

	return segments
}

// Headers returns only the segment headers of text, in order.
func Headers(text string) []string {
	segments := Split(text)
	headers := make([]string, len(segments))
	for i, s := range segments {
		headers[i] = s.Header
	}
	return headers
}
