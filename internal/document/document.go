// Package document holds the immutable source document model: identity, text snapshot,
// offset arithmetic and the text edits that produce new snapshots.
package document

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
)

const fileScheme = "file://"

// URI identifies a document. Files use the file:// scheme, in-memory sources "untitled:".
type URI string

// FileURI converts a filesystem path into a file:// URI.
func FileURI(path string) URI {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return URI(fileScheme + filepath.ToSlash(path))
}

// Path returns the filesystem path of a file:// URI, or the raw value otherwise.
func (u URI) Path() string {
	s := string(u)
	if strings.HasPrefix(s, fileScheme) {
		return filepath.FromSlash(strings.TrimPrefix(s, fileScheme))
	}
	return s
}

// IsFile reports whether the URI points at the filesystem.
func (u URI) IsFile() bool {
	return strings.HasPrefix(string(u), fileScheme)
}

func (u URI) String() string {
	return string(u)
}

// Document is an immutable text snapshot with an identity.
type Document struct {
	uri  URI
	text string
}

// New creates a document for the given URI.
func New(uri URI, text string) Document {
	return Document{uri: uri, text: text}
}

// FromString creates an in-memory document whose URI is derived from its content.
func FromString(text string) Document {
	sum := sha256.Sum256([]byte(text))
	return Document{uri: URI("untitled:" + hex.EncodeToString(sum[:6])), text: text}
}

func (d Document) URI() URI {
	return d.uri
}

func (d Document) Text() string {
	return d.text
}

func (d Document) Bytes() []byte {
	return []byte(d.text)
}

func (d Document) Len() int {
	return len(d.text)
}

func (d Document) String() string {
	return d.text
}

// WithText returns a new snapshot of the same document.
func (d Document) WithText(text string) Document {
	return Document{uri: d.uri, text: text}
}

// Slice returns the text covered by span, clamped to the document bounds.
func (d Document) Slice(span Span) string {
	start, end := clamp(span.Start, len(d.text)), clamp(span.End, len(d.text))
	if end < start {
		return ""
	}
	return d.text[start:end]
}

// Position converts a byte offset into a 1-based line and column.
func (d Document) Position(offset int) Position {
	offset = clamp(offset, len(d.text))
	line := strings.Count(d.text[:offset], "\n") + 1
	col := offset - d.LineStart(offset) + 1
	return Position{Line: line, Column: col}
}

// LineStart returns the offset of the first byte of the line containing offset.
func (d Document) LineStart(offset int) int {
	offset = clamp(offset, len(d.text))
	return strings.LastIndexByte(d.text[:offset], '\n') + 1
}

// LineIndent returns the leading whitespace of the line containing offset.
func (d Document) LineIndent(offset int) string {
	start := d.LineStart(offset)
	end := start
	for end < len(d.text) && (d.text[end] == ' ' || d.text[end] == '\t') {
		end++
	}
	return d.text[start:end]
}

// StartsLine reports whether only whitespace precedes offset on its line.
func (d Document) StartsLine(offset int) bool {
	offset = clamp(offset, len(d.text))
	return strings.TrimLeft(d.text[d.LineStart(offset):offset], " \t") == ""
}

// PreviousLineBlank reports whether the line above the one containing offset is empty.
// The first line of a document counts as having a blank line above it.
func (d Document) PreviousLineBlank(offset int) bool {
	start := d.LineStart(offset)
	if start == 0 {
		return true
	}
	prevStart := d.LineStart(start - 1)
	return strings.TrimSpace(d.text[prevStart:start-1]) == ""
}

// Position is a 1-based line/column pair. Columns count bytes.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Location ties a span to a document.
type Location struct {
	URI  URI  `json:"uri"`
	Span Span `json:"span"`
}

func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
