// Package transform keeps the @return docblocks of a PHP document in sync with the types
// inferred from method bodies.
package transform

import (
	"context"
	"fmt"
	"iter"

	"github.com/tliron/commonlog"

	"docsync/internal/docblock"
	"docsync/internal/document"
	"docsync/internal/reconcile"
	"docsync/internal/reflection"
)

var log = commonlog.GetLogger("docsync.transform")

// TextFormat holds the formatting conventions used for generated docblocks.
type TextFormat struct {
	// Indentation is one indentation level, used for docblocks that do not start a line.
	Indentation string
	// Newline separates the lines of a generated docblock.
	Newline string
	// BlankLineBeforeDocblock inserts an empty line above an inserted docblock when the
	// line above the method is not already empty.
	BlankLineBeforeDocblock bool
}

// DefaultTextFormat is four spaces, "\n" and a blank line before inserted docblocks.
func DefaultTextFormat() TextFormat {
	return TextFormat{
		Indentation:             "    ",
		Newline:                 "\n",
		BlankLineBeforeDocblock: true,
	}
}

// Diagnostic reports a method whose @return annotation is missing or out of date.
type Diagnostic struct {
	Message  string            `json:"message"`
	URI      document.URI      `json:"uri"`
	Span     document.Span     `json:"span"`
	Position document.Position `json:"position"`
	Class    string            `json:"class"`
	Method   string            `json:"method"`
	Action   string            `json:"action"`
	// Type is the rendered type the fix writes.
	Type string `json:"type"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%s: %s", d.URI.Path(), d.Position, d.Message)
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithTextFormat sets the formatting conventions.
func WithTextFormat(format TextFormat) Option {
	return func(t *Transformer) {
		t.format = format
	}
}

// WithMagicMethods includes __construct, __destruct and __clone, which are skipped by default.
func WithMagicMethods(include bool) Option {
	return func(t *Transformer) {
		t.skipMagic = !include
	}
}

// Transformer computes the @return edits of a document. It holds configuration only and is
// safe for concurrent use.
type Transformer struct {
	reflector *reflection.Reflector
	format    TextFormat
	skipMagic bool
}

func NewTransformer(reflector *reflection.Reflector, opts ...Option) *Transformer {
	t := &Transformer{
		reflector: reflector,
		format:    DefaultTextFormat(),
		skipMagic: true,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.format.Newline == "" {
		t.format.Newline = "\n"
	}
	return t
}

// change is one method that needs its docblock updated.
type change struct {
	method   *reflection.Method
	decision reconcile.Decision
}

// Transform returns the edits inserting or rewriting the @return docblocks of doc. Offsets
// reference doc; edits never overlap.
func (t *Transformer) Transform(ctx context.Context, doc document.Document) (document.TextEdits, error) {
	edits := document.None()
	for c, err := range t.changes(ctx, doc) {
		if err != nil {
			return nil, err
		}
		edits = append(edits, t.edit(doc, c))
	}
	return edits, nil
}

// Diagnostics lists the methods Transform would change, in declaration order. The sequence is
// lazy and restartable: every iteration reflects doc again.
func (t *Transformer) Diagnostics(ctx context.Context, doc document.Document) iter.Seq2[Diagnostic, error] {
	return func(yield func(Diagnostic, error) bool) {
		for c, err := range t.changes(ctx, doc) {
			if err != nil {
				yield(Diagnostic{}, err)
				return
			}
			if !yield(t.diagnostic(doc, c), nil) {
				return
			}
		}
	}
}

func (t *Transformer) changes(ctx context.Context, doc document.Document) iter.Seq2[change, error] {
	return func(yield func(change, error) bool) {
		classes, err := t.reflector.ReflectClassesIn(ctx, doc)
		if err != nil {
			yield(change{}, fmt.Errorf("failed to transform %s: %w", doc.URI(), err))
			return
		}
		for _, class := range classes {
			for _, m := range class.Methods() {
				if err := ctx.Err(); err != nil {
					yield(change{}, err)
					return
				}
				if t.skipMagic && m.IsMagic() {
					continue
				}
				d, ok := t.decide(ctx, m)
				if !ok || d.Action == reconcile.NoOp {
					continue
				}
				if !yield(change{method: m, decision: d}, nil) {
					return
				}
			}
		}
	}
}

func (t *Transformer) decide(ctx context.Context, m *reflection.Method) (reconcile.Decision, bool) {
	inferred, ok := m.InferredReturnType(ctx)
	if !ok {
		return reconcile.Decision{}, false
	}

	in := reconcile.Input{Inferred: inferred}
	if hint, ok := m.ReturnHint(); ok {
		in.Hint = hint
	}
	if tag, ok := m.ReturnTag(); ok {
		annotation := &reconcile.Annotation{}
		if doc, ok := m.DocReturnType(); ok {
			annotation.Type = doc
		} else {
			log.Debugf("malformed @return %q on %s", tag.Type, m)
			annotation.Malformed = true
		}
		in.Annotation = annotation
	}

	d := reconcile.Decide(in)
	log.Debugf("%s: hint=%v inferred=%s action=%s", m, in.Hint, inferred, d.Action)
	return d, true
}

// edit builds the TextEdit of one change. An existing doc comment is rewritten in place,
// otherwise a new one is inserted above the method.
func (t *Transformer) edit(doc document.Document, c change) document.TextEdit {
	nl := t.format.Newline
	node := c.method.Node()

	if node.Doc != nil {
		span := node.Doc.Span()
		indent := doc.LineIndent(span.Start)
		if !doc.StartsLine(span.Start) {
			indent += t.format.Indentation
		}
		block := docblock.Parse(node.Doc.Text, span.Start).WithReturn(c.decision.Type)
		return document.Replace(span, block.Render(indent, nl))
	}

	start := c.method.Span().Start
	if !doc.StartsLine(start) {
		return document.Insert(start, "/** @return "+c.decision.Type.String()+" */ ")
	}

	indent := doc.LineIndent(start)
	text := indent + docblock.Empty().WithReturn(c.decision.Type).Render(indent, nl) + nl
	if t.format.BlankLineBeforeDocblock && !doc.PreviousLineBlank(start) {
		text = nl + text
	}
	return document.Insert(doc.LineStart(start), text)
}

func (t *Transformer) diagnostic(doc document.Document, c change) Diagnostic {
	node := c.method.Node()
	span := node.NameRange
	if span.Empty() {
		span = node.Span()
	}
	return Diagnostic{
		Message:  "Missing @return " + c.decision.Type.String(),
		URI:      doc.URI(),
		Span:     span,
		Position: doc.Position(span.Start),
		Class:    c.method.Class().FQN(),
		Method:   c.method.Name(),
		Action:   c.decision.Action.String(),
		Type:     c.decision.Type.String(),
	}
}
