// Package docblock parses and renders documentation comments ("/** ... */") as an ordered
// list of content lines, some of which are tags.
package docblock

import (
	"strings"

	"docsync/internal/document"
	"docsync/internal/types"
)

// typedTags are the tags whose body starts with a type expression.
var typedTags = map[string]bool{
	"return":         true,
	"var":            true,
	"param":          true,
	"property":       true,
	"property-read":  true,
	"property-write": true,
	"throws":         true,
	"phpstan-return": true,
	"psalm-return":   true,
	"phpstan-var":    true,
	"psalm-var":      true,
	"phpstan-param":  true,
	"psalm-param":    true,
}

// variableTags may omit the type and start directly with the documented "$name".
var variableTags = map[string]bool{
	"var":            true,
	"param":          true,
	"property":       true,
	"property-read":  true,
	"property-write": true,
	"phpstan-var":    true,
	"psalm-var":      true,
	"phpstan-param":  true,
	"psalm-param":    true,
}

// Tag is one "@name ..." entry.
type Tag struct {
	Name string
	// Type is the raw type expression, empty for untyped tags.
	Type        string
	Description string
	// Span covers the tag's text in the document.
	Span document.Span
	line int
}

// ParsedType parses the tag's type expression.
func (t Tag) ParsedType() (types.Type, error) {
	return types.Parse(t.Type)
}

// Variable returns the "$name" a @var or @param tag documents, if any.
func (t Tag) Variable() (string, bool) {
	fields := strings.Fields(t.Description)
	if len(fields) > 0 && strings.HasPrefix(fields[0], "$") {
		return strings.TrimSuffix(fields[0], ","), true
	}
	return "", false
}

// Docblock is a parsed documentation comment.
type Docblock struct {
	lines []string
	tags  []Tag
	span  document.Span
}

// Parse parses text, a comment that starts at offset in its document. Comments that are not
// doc comments yield an empty block.
func Parse(text string, offset int) Docblock {
	d := Docblock{span: document.Span{Start: offset, End: offset + len(text)}}
	if !strings.HasPrefix(text, "/**") {
		return d
	}

	inner := text[3:]
	innerStart := 3
	if strings.HasSuffix(inner, "*/") {
		inner = inner[:len(inner)-2]
	}

	lineStart := innerStart
	for _, raw := range strings.Split(inner, "\n") {
		content, skipped := stripLine(raw)
		d.lines = append(d.lines, content)
		if strings.HasPrefix(content, "@") {
			start := offset + lineStart + skipped
			d.tags = append(d.tags, parseTag(content, len(d.lines)-1, document.Span{Start: start, End: start + len(content)}))
		}
		lineStart += len(raw) + 1
	}
	d.lines = trimEmpty(d.lines, &d.tags)
	return d
}

// Empty returns a docblock without content.
func Empty() Docblock {
	return Docblock{}
}

// Span covers the whole comment in its document.
func (d Docblock) Span() document.Span {
	return d.span
}

// Lines returns the content lines without comment decoration.
func (d Docblock) Lines() []string {
	return append([]string(nil), d.lines...)
}

// Tags returns every tag in source order.
func (d Docblock) Tags() []Tag {
	return append([]Tag(nil), d.tags...)
}

// Tag returns the first tag with the given name.
func (d Docblock) Tag(name string) (Tag, bool) {
	for _, tag := range d.tags {
		if tag.Name == name {
			return tag, true
		}
	}
	return Tag{}, false
}

// Return returns the @return tag.
func (d Docblock) Return() (Tag, bool) {
	return d.Tag("return")
}

// Vars returns every @var tag.
func (d Docblock) Vars() []Tag {
	return d.named("var")
}

// Params returns every @param tag.
func (d Docblock) Params() []Tag {
	return d.named("param")
}

func (d Docblock) named(name string) []Tag {
	var out []Tag
	for _, tag := range d.tags {
		if tag.Name == name {
			out = append(out, tag)
		}
	}
	return out
}

// WithReturn returns a copy whose @return tag documents t. An existing @return line keeps its
// position and description; otherwise the tag is appended after every other line.
func (d Docblock) WithReturn(t types.Type) Docblock {
	line := "@return " + t.String()
	out := Docblock{lines: d.Lines(), span: d.span}

	if tag, ok := d.Return(); ok {
		if tag.Description != "" {
			line += " " + tag.Description
		}
		out.lines[tag.line] = line
	} else {
		out.lines = append(out.lines, line)
	}
	for i, content := range out.lines {
		if strings.HasPrefix(content, "@") {
			out.tags = append(out.tags, parseTag(content, i, document.Span{}))
		}
	}
	return out
}

// Render serializes the block. The first line carries no indentation, so the result can be
// spliced where the comment starts; continuation lines are prefixed with indent.
func (d Docblock) Render(indent, newline string) string {
	var b strings.Builder
	b.WriteString("/**")
	b.WriteString(newline)
	for _, line := range d.lines {
		b.WriteString(indent)
		if line == "" {
			b.WriteString(" *")
		} else {
			b.WriteString(" * ")
			b.WriteString(line)
		}
		b.WriteString(newline)
	}
	b.WriteString(indent)
	b.WriteString(" */")
	return b.String()
}

func parseTag(content string, line int, span document.Span) Tag {
	name, body := content[1:], ""
	if i := strings.IndexAny(name, " \t"); i >= 0 {
		name, body = name[:i], strings.TrimSpace(name[i+1:])
	}
	tag := Tag{Name: name, Span: span, line: line}
	if !typedTags[name] || body == "" || (variableTags[name] && strings.HasPrefix(body, "$")) {
		tag.Description = body
		return tag
	}

	if _, rest, err := types.ParsePrefix(body); err == nil {
		tag.Type = strings.TrimSpace(body[:len(body)-len(rest)])
		tag.Description = strings.TrimSpace(rest)
		return tag
	}
	// Keep malformed expressions verbatim so the caller can tell them apart from a missing type.
	fields := strings.SplitN(body, " ", 2)
	tag.Type = fields[0]
	if len(fields) > 1 {
		tag.Description = strings.TrimSpace(fields[1])
	}
	return tag
}

// stripLine removes the leading "*" decoration and returns the content plus the number of
// bytes removed from the front.
func stripLine(raw string) (string, int) {
	trimmed := strings.TrimLeft(raw, " \t")
	skipped := len(raw) - len(trimmed)
	if strings.HasPrefix(trimmed, "*") {
		trimmed = trimmed[1:]
		skipped++
		if strings.HasPrefix(trimmed, " ") {
			trimmed = trimmed[1:]
			skipped++
		}
	}
	return strings.TrimRight(trimmed, " \t\r"), skipped
}

func trimEmpty(lines []string, tags *[]Tag) []string {
	start := 0
	for start < len(lines) && lines[start] == "" {
		start++
	}
	end := len(lines)
	for end > start && lines[end-1] == "" {
		end--
	}
	for i := range *tags {
		(*tags)[i].line -= start
	}
	return lines[start:end]
}
