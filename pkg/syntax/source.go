package syntax

import (
	"sort"
	"strings"
	"unicode"
)

// Source is the text a syntax tree was parsed from.
type Source []byte

// Text returns the source text covered by r on a single line: line breaks and the
// indentation that follows them are collapsed into one space.
func (s Source) Text(r Range) string {
	return s.Render(r, nil)
}

// Marks are insertions keyed by byte offset. The text of a mark is inserted right
// before the byte at that offset (so a mark at an identifier's End.Offset follows it).
type Marks map[int]string

// Add appends text to the mark at offset.
func (m Marks) Add(offset int, text string) {
	m[offset] += text
}

// Render returns the text covered by r with marks inserted, collapsed like Text.
// Marks outside (r.Start.Offset, r.End.Offset] are ignored.
func (s Source) Render(r Range, marks Marks) string {
	start, end := r.Start.Offset, r.End.Offset
	if start < 0 {
		start = 0
	}
	if end > len(s) {
		end = len(s)
	}
	if start >= end {
		return ""
	}

	offsets := make([]int, 0, len(marks))
	for off := range marks {
		if off > start && off <= end {
			offsets = append(offsets, off)
		}
	}
	sort.Ints(offsets)

	var sb strings.Builder
	prev := start
	for _, off := range offsets {
		sb.Write(s[prev:off])
		sb.WriteString(marks[off])
		prev = off
	}
	sb.Write(s[prev:end])
	return collapse(sb.String())
}

// collapse joins lines with single spaces, trimming the surrounding whitespace of each.
func collapse(text string) string {
	if !strings.ContainsAny(text, "\r\n") {
		return text
	}
	lines := strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\r' })
	parts := lines[:0]
	for _, line := range lines {
		line = strings.TrimFunc(line, unicode.IsSpace)
		if line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}
