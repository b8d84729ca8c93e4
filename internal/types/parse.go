package types

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrMalformedType is returned for type expressions that do not follow the grammar.
var ErrMalformedType = errors.New("malformed type expression")

// Parse parses a complete type expression such as "array<string,Foo>|null".
func Parse(expr string) (Type, error) {
	t, rest, err := ParsePrefix(expr)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(rest) != "" {
		return nil, fmt.Errorf("%w: unexpected %q after %q", ErrMalformedType, strings.TrimSpace(rest), expr)
	}
	return t, nil
}

// ParsePrefix parses the type expression at the start of s and returns the unparsed rest,
// e.g. the description following a "@return" type.
func ParsePrefix(s string) (Type, string, error) {
	p := &parser{src: strings.TrimLeft(s, " \t\r\n")}
	if p.done() {
		return nil, s, fmt.Errorf("%w: empty", ErrMalformedType)
	}
	t, err := p.parseUnion()
	if err != nil {
		return nil, s, err
	}
	return t, p.src[p.pos:], nil
}

type parser struct {
	src   string
	pos   int
	depth int
}

func (p *parser) done() bool {
	return p.pos >= len(p.src)
}

func (p *parser) peek() byte {
	if p.done() {
		return 0
	}
	return p.src[p.pos]
}

// skipInnerSpace only skips whitespace inside brackets; at the top level a space ends the type.
func (p *parser) skipInnerSpace() {
	if p.depth == 0 {
		return
	}
	for !p.done() && isSpace(p.src[p.pos]) {
		p.pos++
	}
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s at offset %d in %q", ErrMalformedType, fmt.Sprintf(format, args...), p.pos, p.src)
}

func (p *parser) parseUnion() (Type, error) {
	first, err := p.parseIntersection()
	if err != nil {
		return nil, err
	}
	members := []Type{first}
	for {
		p.skipInnerSpace()
		if p.peek() != '|' {
			break
		}
		p.pos++
		p.skipInnerSpace()
		next, err := p.parseIntersection()
		if err != nil {
			return nil, err
		}
		members = append(members, next)
	}
	return Union(members...), nil
}

// parseIntersection keeps the first member: intersections are not modelled.
func (p *parser) parseIntersection() (Type, error) {
	first, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	for {
		p.skipInnerSpace()
		if p.peek() != '&' {
			return first, nil
		}
		p.pos++
		p.skipInnerSpace()
		if _, err := p.parsePostfix(); err != nil {
			return nil, err
		}
	}
}

func (p *parser) parsePostfix() (Type, error) {
	t, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for strings.HasPrefix(p.src[p.pos:], "[]") {
		p.pos += 2
		t = NewList(t)
	}
	return t, nil
}

func (p *parser) parsePrimary() (Type, error) {
	switch c := p.peek(); {
	case c == '?':
		p.pos++
		inner, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return Union(inner, Null), nil
	case c == '(':
		p.pos++
		p.depth++
		p.skipInnerSpace()
		inner, err := p.parseUnion()
		if err != nil {
			return nil, err
		}
		p.skipInnerSpace()
		if p.peek() != ')' {
			return nil, p.errorf("expected )")
		}
		p.pos++
		p.depth--
		return inner, nil
	case isIdentStart(c):
		name := p.readIdent()
		var generics []Type
		if p.peek() == '<' {
			var err error
			if generics, err = p.parseGenerics(); err != nil {
				return nil, err
			}
		} else if p.peek() == '{' {
			return nil, p.errorf("array shapes are not supported")
		}
		return named(name, generics), nil
	case c == 0:
		return nil, p.errorf("unexpected end")
	default:
		return nil, p.errorf("unexpected %q", c)
	}
}

func (p *parser) parseGenerics() ([]Type, error) {
	p.pos++ // <
	p.depth++
	var out []Type
	for {
		p.skipInnerSpace()
		t, err := p.parseUnion()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
		p.skipInnerSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case '>':
			p.pos++
			p.depth--
			return out, nil
		default:
			return nil, p.errorf("expected , or >")
		}
	}
}

func (p *parser) readIdent() string {
	start := p.pos
	for !p.done() && isIdentPart(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

// named maps a type name and its generic arguments onto a Type.
func named(name string, generics []Type) Type {
	switch strings.ToLower(name) {
	case "string", "non-empty-string", "class-string", "numeric-string", "literal-string", "callable-string":
		return String
	case "int", "integer", "positive-int", "negative-int", "non-negative-int", "non-positive-int":
		return Int
	case "float", "double":
		return Float
	case "bool", "boolean", "true", "false":
		return Bool
	case "callable", "closure-like":
		return Callable
	case "object":
		return Object
	case "resource":
		return ScalarType{Kind: ScalarResource}
	case "null":
		return Null
	case "void", "never":
		return Void
	case "mixed":
		return Mixed
	case "array-key":
		return Union(Int, String)
	case "number":
		return Union(Int, Float)
	case "array", "non-empty-array":
		switch len(generics) {
		case 0:
			return NewArray(Mixed, Mixed)
		case 1:
			return NewArray(Mixed, generics[0])
		default:
			return NewArray(generics[0], generics[1])
		}
	case "list", "non-empty-list":
		if len(generics) == 0 {
			return NewList(Mixed)
		}
		return NewList(generics[len(generics)-1])
	case "iterable":
		if len(generics) == 0 {
			return Iterable
		}
		return NewClass("iterable", generics...)
	}
	return NewClass(name, generics...)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isIdentStart(c byte) bool {
	return c == '\\' || c == '$' || c == '_' || c >= 0x80 || unicode.IsLetter(rune(c))
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c == '-' || unicode.IsDigit(rune(c))
}
