// Package syntax is the closed set of syntax node variants the engine reasons about.
//
// The tolerant parse adapter (package extractor) converts a concrete parse tree into these
// nodes. Every variant exposes exactly the fields its grammar guarantees; callers dispatch
// with type switches instead of probing properties. Fragments the adapter could not parse
// become *Invalid placeholders, fragments it does not model become *Unknown.
package syntax

import "docsync/internal/document"

// Node is implemented by every syntax variant.
type Node interface {
	Span() document.Span
	node()
}

// Base carries the source range shared by all nodes.
type Base struct {
	Range document.Span
}

func (b Base) Span() document.Span {
	return b.Range
}

func (Base) node() {}

// File is the root of a parsed document.
type File struct {
	Base
	// Classes lists every class-like declaration, anonymous classes included, in source order.
	Classes   []*Class
	Functions []*Function
	Body      *Block
	// Errors holds the ranges the parser had to recover from.
	Errors []document.Span
}

type ClassKind int

const (
	KindClass ClassKind = iota
	KindInterface
	KindTrait
	KindEnum
	KindAnonymous
)

func (k ClassKind) String() string {
	switch k {
	case KindInterface:
		return "interface"
	case KindTrait:
		return "trait"
	case KindEnum:
		return "enum"
	case KindAnonymous:
		return "anonymous class"
	default:
		return "class"
	}
}

// Class is a class, interface, trait, enum or anonymous class declaration.
type Class struct {
	Base
	Kind       ClassKind
	Name       string
	NameRange  document.Span
	Namespace  string
	Abstract   bool
	Extends    string
	Implements []string
	Doc        *Comment
	Methods    []*Method
	Properties []*Property
}

// TypeHint is a declared type exactly as written in the source.
type TypeHint struct {
	Base
	Text string
}

// Param is one formal parameter. Name keeps the leading "$".
type Param struct {
	Base
	Name     string
	Type     *TypeHint
	Variadic bool
	Default  Expr
}

// Function is a named function, or the callable part of a method.
type Function struct {
	Base
	Name       string
	NameRange  document.Span
	Params     []*Param
	ReturnType *TypeHint
	Doc        *Comment
	// Body is nil for abstract and interface methods.
	Body *Block
}

// Method is a function declared inside a class-like.
type Method struct {
	Function
	Visibility string
	Static     bool
	Abstract   bool
	Final      bool
}

// Property is a declared class property. Promoted constructor parameters are included.
type Property struct {
	Base
	Name   string
	Type   *TypeHint
	Doc    *Comment
	Static bool
}

// Comment is a source comment. Doc comments start with "/**".
type Comment struct {
	Base
	Text string
}

func (c *Comment) IsDoc() bool {
	return c != nil && len(c.Text) >= 5 && c.Text[:3] == "/**"
}
