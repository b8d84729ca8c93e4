package document

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrOverlappingEdits is returned when two edits of one set touch the same bytes.
var ErrOverlappingEdits = errors.New("overlapping text edits")

// TextEdit replaces the bytes [Start, End) of the original document with Replacement.
type TextEdit struct {
	Start       int    `json:"start"`
	End         int    `json:"end"`
	Replacement string `json:"replacement"`
}

// Insert creates an edit inserting text at offset.
func Insert(offset int, text string) TextEdit {
	return TextEdit{Start: offset, End: offset, Replacement: text}
}

// Replace creates an edit replacing span with text.
func Replace(span Span, text string) TextEdit {
	return TextEdit{Start: span.Start, End: span.End, Replacement: text}
}

func (e TextEdit) Span() Span {
	return Span{Start: e.Start, End: e.End}
}

func (e TextEdit) String() string {
	return fmt.Sprintf("%d-%d %q", e.Start, e.End, e.Replacement)
}

// TextEdits is a set of edits whose offsets all reference the same original text.
type TextEdits []TextEdit

// None returns an empty edit set.
func None() TextEdits {
	return TextEdits{}
}

// Apply applies every edit to text. Edits are applied against the original offsets, so the
// order of the set does not matter; inserts at the same offset keep their set order.
func (e TextEdits) Apply(text string) (string, error) {
	if len(e) == 0 {
		return text, nil
	}

	edits := append(TextEdits(nil), e...)
	sort.SliceStable(edits, func(i, j int) bool {
		return edits[i].Start < edits[j].Start
	})

	var b strings.Builder
	b.Grow(len(text))
	cursor := 0
	for _, edit := range edits {
		if edit.Start < 0 || edit.End < edit.Start || edit.End > len(text) {
			return "", fmt.Errorf("invalid edit %s for text of length %d", edit, len(text))
		}
		if edit.Start < cursor {
			return "", fmt.Errorf("%w: %s", ErrOverlappingEdits, edit)
		}
		b.WriteString(text[cursor:edit.Start])
		b.WriteString(edit.Replacement)
		cursor = edit.End
	}
	b.WriteString(text[cursor:])
	return b.String(), nil
}

// ApplyTo applies the edits to doc and returns the new snapshot.
func (e TextEdits) ApplyTo(doc Document) (Document, error) {
	text, err := e.Apply(doc.Text())
	if err != nil {
		return doc, fmt.Errorf("apply edits to %s: %w", doc.URI(), err)
	}
	return doc.WithText(text), nil
}

// LocatedTextEdit binds an edit to the document it applies to.
type LocatedTextEdit struct {
	URI  URI      `json:"uri"`
	Edit TextEdit `json:"edit"`
}

// LocatedTextEdits groups edits spanning several documents.
type LocatedTextEdits []LocatedTextEdit

// Locate binds every edit of the set to uri.
func (e TextEdits) Locate(uri URI) LocatedTextEdits {
	out := make(LocatedTextEdits, 0, len(e))
	for _, edit := range e {
		out = append(out, LocatedTextEdit{URI: uri, Edit: edit})
	}
	return out
}

// ByURI splits the edits per document, keeping their relative order.
func (l LocatedTextEdits) ByURI() map[URI]TextEdits {
	out := make(map[URI]TextEdits)
	for _, edit := range l {
		out[edit.URI] = append(out[edit.URI], edit.Edit)
	}
	return out
}
