// Package types is the engine's structural representation of value shapes.
//
// Type is a closed variant. Values are compared structurally: two types are equal when their
// canonical renderings are equal, and rendering is a pure function of the value.
package types

import "strings"

// Type is implemented by ScalarType, NullType, VoidType, MixedType, ClassType, ArrayType,
// ListType and UnionType.
type Type interface {
	// String returns the canonical rendering used in docblocks.
	String() string
	typ()
}

type ScalarKind string

const (
	ScalarString   ScalarKind = "string"
	ScalarInt      ScalarKind = "int"
	ScalarFloat    ScalarKind = "float"
	ScalarBool     ScalarKind = "bool"
	ScalarCallable ScalarKind = "callable"
	ScalarIterable ScalarKind = "iterable"
	ScalarObject   ScalarKind = "object"
	ScalarResource ScalarKind = "resource"
)

type ScalarType struct {
	Kind ScalarKind
}

type NullType struct{}

type VoidType struct{}

// MixedType is the unresolved or unknown type.
type MixedType struct{}

// ClassType is a named class or interface with optional generic arguments.
type ClassType struct {
	Name     string
	Generics []Type
}

// ArrayType is a keyed array. The bare "array" hint is ArrayType{Mixed, Mixed}.
type ArrayType struct {
	Key   Type
	Value Type
}

// ListType is an integer-indexed array.
type ListType struct {
	Elem Type
}

// UnionType always has at least two distinct, non-union members. Build it with Union.
type UnionType struct {
	members []Type
}

var (
	String   Type = ScalarType{Kind: ScalarString}
	Int      Type = ScalarType{Kind: ScalarInt}
	Float    Type = ScalarType{Kind: ScalarFloat}
	Bool     Type = ScalarType{Kind: ScalarBool}
	Callable Type = ScalarType{Kind: ScalarCallable}
	Iterable Type = ScalarType{Kind: ScalarIterable}
	Object   Type = ScalarType{Kind: ScalarObject}
	Null     Type = NullType{}
	Void     Type = VoidType{}
	Mixed    Type = MixedType{}
)

func (ScalarType) typ() {}
func (NullType) typ()   {}
func (VoidType) typ()   {}
func (MixedType) typ()  {}
func (ClassType) typ()  {}
func (ArrayType) typ()  {}
func (ListType) typ()   {}
func (UnionType) typ()  {}

func (t ScalarType) String() string { return string(t.Kind) }
func (NullType) String() string     { return "null" }
func (VoidType) String() string     { return "void" }
func (MixedType) String() string    { return "mixed" }

func (t ClassType) String() string {
	if len(t.Generics) == 0 {
		return t.Name
	}
	return t.Name + "<" + join(t.Generics, ",") + ">"
}

func (t ArrayType) String() string {
	keyMixed, valueMixed := IsMixed(t.Key), IsMixed(t.Value)
	switch {
	case keyMixed && valueMixed:
		return "array"
	case keyMixed:
		return "array<" + t.Value.String() + ">"
	default:
		return "array<" + t.Key.String() + "," + t.Value.String() + ">"
	}
}

func (t ListType) String() string {
	if _, ok := t.Elem.(UnionType); ok {
		return "(" + t.Elem.String() + ")[]"
	}
	return t.Elem.String() + "[]"
}

func (t UnionType) String() string {
	return join(t.members, "|")
}

// Members returns a copy of the union members in first-seen order.
func (t UnionType) Members() []Type {
	return append([]Type(nil), t.members...)
}

// NewClass builds a class type. Leading namespace separators are dropped.
func NewClass(name string, generics ...Type) ClassType {
	return ClassType{Name: strings.TrimPrefix(name, `\`), Generics: generics}
}

// NewArray builds a keyed array, treating nil key or value as mixed.
func NewArray(key, value Type) ArrayType {
	return ArrayType{Key: orMixed(key), Value: orMixed(value)}
}

// NewList builds a list, treating a nil element as mixed.
func NewList(elem Type) ListType {
	return ListType{Elem: orMixed(elem)}
}

// Equal reports structural equality.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.String() == b.String()
}

func IsMixed(t Type) bool {
	_, ok := t.(MixedType)
	return t == nil || ok
}

// HasMixed reports whether t is mixed or a union with a mixed member.
func HasMixed(t Type) bool {
	for _, m := range Members(t) {
		if IsMixed(m) {
			return true
		}
	}
	return IsMixed(t)
}

// WithoutMixed drops the mixed members of a union. Mixed alone stays mixed.
func WithoutMixed(t Type) Type {
	u, ok := t.(UnionType)
	if !ok {
		return t
	}
	var known []Type
	for _, m := range u.members {
		if !IsMixed(m) {
			known = append(known, m)
		}
	}
	return Union(known...)
}

func IsVoid(t Type) bool {
	_, ok := t.(VoidType)
	return ok
}

// Members flattens t into its union members, or returns t alone.
func Members(t Type) []Type {
	if u, ok := t.(UnionType); ok {
		return u.Members()
	}
	if t == nil {
		return nil
	}
	return []Type{t}
}

// IsSelfReference reports whether name refers to the enclosing class.
func IsSelfReference(name string) bool {
	switch strings.ToLower(name) {
	case "self", "static", "$this":
		return true
	}
	return false
}

// ResolveSelf replaces self, static and $this references with the given class name.
func ResolveSelf(t Type, class string) Type {
	if class == "" || t == nil {
		return t
	}
	switch v := t.(type) {
	case ClassType:
		var generics []Type
		for _, g := range v.Generics {
			generics = append(generics, ResolveSelf(g, class))
		}
		if IsSelfReference(v.Name) {
			return NewClass(class, generics...)
		}
		return ClassType{Name: v.Name, Generics: generics}
	case ArrayType:
		return NewArray(ResolveSelf(v.Key, class), ResolveSelf(v.Value, class))
	case ListType:
		return NewList(ResolveSelf(v.Elem, class))
	case UnionType:
		members := make([]Type, len(v.members))
		for i, m := range v.members {
			members[i] = ResolveSelf(m, class)
		}
		return Union(members...)
	}
	return t
}

func orMixed(t Type) Type {
	if t == nil {
		return Mixed
	}
	return t
}

func join(ts []Type, sep string) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = orMixed(t).String()
	}
	return strings.Join(parts, sep)
}
