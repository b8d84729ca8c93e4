// Package reflection builds lazy semantic views over PHP documents: the classes they declare,
// their methods, the symbol at an offset and the callee of a method call. It also hosts the
// flow-sensitive inference engine that types method bodies.
//
// Every public call works against a fresh view of its document. Views hold a per-call memo
// of parsed documents and resolved classes plus the recursion guard of the inference engine;
// nothing is shared between calls.
package reflection

import (
	"context"
	"errors"
	"fmt"

	"github.com/tliron/commonlog"

	"docsync/internal/document"
	"docsync/internal/syntax"
)

var log = commonlog.GetLogger("docsync.reflection")

// ErrNoMethodCall is returned by ReflectMethodCall when no method call covers the offset.
var ErrNoMethodCall = errors.New("no method call at offset")

// Parser converts a document into the syntax model.
type Parser interface {
	Parse(ctx context.Context, doc document.Document) (*syntax.File, error)
}

// ClassLocator maps a class name to the document declaring it.
type ClassLocator interface {
	LocateClass(ctx context.Context, name string) (document.URI, bool)
}

// Option configures a Reflector.
type Option func(*Reflector)

// WithLocator sets the source locator used to load documents declaring other classes.
func WithLocator(locator document.Locator) Option {
	return func(r *Reflector) {
		r.locator = locator
	}
}

// WithClassLocator sets the index consulted for classes not declared in the reflected document.
func WithClassLocator(classes ClassLocator) Option {
	return func(r *Reflector) {
		r.classes = classes
	}
}

// Reflector is the entry point for reflecting over documents. It is safe for concurrent use:
// it holds configuration only.
type Reflector struct {
	parser  Parser
	locator document.Locator
	classes ClassLocator
}

func NewReflector(parser Parser, opts ...Option) *Reflector {
	r := &Reflector{parser: parser}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReflectClassesIn lists the class-likes declared in doc, anonymous classes included, in
// source order.
func (r *Reflector) ReflectClassesIn(ctx context.Context, doc document.Document) ([]*Class, error) {
	s, err := r.open(ctx, doc)
	if err != nil {
		return nil, err
	}
	return s.classesIn(doc.URI(), s.file), nil
}

// ReflectOffset reflects the innermost node at offset together with its inferred type.
func (r *Reflector) ReflectOffset(ctx context.Context, doc document.Document, offset int) (*Offset, error) {
	s, err := r.open(ctx, doc)
	if err != nil {
		return nil, err
	}
	return s.offset(ctx, offset), nil
}

// ReflectMethodCall reflects the method call covering offset. The callee may be unresolved,
// which MethodCall reports through its (value, ok) accessors.
func (r *Reflector) ReflectMethodCall(ctx context.Context, doc document.Document, offset int) (*MethodCall, error) {
	s, err := r.open(ctx, doc)
	if err != nil {
		return nil, err
	}
	call, ok := s.methodCall(ctx, offset)
	if !ok {
		return nil, fmt.Errorf("%w: %d in %s", ErrNoMethodCall, offset, doc.URI())
	}
	return call, nil
}

func (r *Reflector) open(ctx context.Context, doc document.Document) (*session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := r.parser.Parse(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to reflect %s: %w", doc.URI(), err)
	}
	return newSession(r, doc, file), nil
}
