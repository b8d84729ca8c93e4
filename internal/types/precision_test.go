package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func mustParse(t *testing.T, s string) Type {
	t.Helper()
	typ, err := Parse(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return typ
}

func TestCovers(t *testing.T) {
	tests := []struct {
		declared string
		inferred Type
		want     bool
	}{
		{"array<string,Baz>", NewArray(String, NewClass("Baz")), true},
		{"array", NewArray(String, String), false},
		{"array<Foo>", NewList(NewClass("Foo")), true},
		{"Foo[]", NewArray(String, NewClass("Foo")), false},
		{"Foo", NewClass("ConcreteFoo"), true},
		{"Foo", NewClass("ConcreteFoo", NewClass("Baz")), false},
		{"ConcreteFoo<Baz>", NewClass("ConcreteFoo", NewClass("Baz")), true},
		{"ConcreteFoo<Bar>", NewClass("ConcreteFoo", NewClass("Baz")), true},
		{"Set<Bar>", NewClass("Collection", NewClass("Foo")), false},
		{"string", String, true},
		{"string", Int, false},
		{"string|null", String, true},
		{"string", Union(String, Null), false},
		{"Foo[]", NewList(Mixed), true},
		{"iterable<Foo>", NewList(NewClass("Foo")), true},
		{"mixed", String, false},
	}

	for _, tt := range tests {
		t.Run(tt.declared+" covers "+tt.inferred.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, Covers(mustParse(t, tt.declared), tt.inferred))
		})
	}

	assert.True(t, Covers(nil, Mixed), "mixed never adds information")
	assert.False(t, Covers(nil, String))
}

func TestRefines(t *testing.T) {
	tests := []struct {
		hint     string
		inferred Type
		want     bool
	}{
		{"array", NewArray(String, String), true},
		{"array", NewList(Null), true},
		{"array", NewArray(Mixed, Mixed), false},
		{"Foo", NewClass("ConcreteFoo"), false},
		{"Foo", NewClass("ConcreteFoo", NewClass("Baz")), true},
		{"string", String, false},
		{"string", Int, false},
		{"?array", Union(NewArray(String, Int), Null), true},
		{"array|string", NewArray(String, String), true},
		{"iterable", NewList(String), true},
		{"mixed", String, true},
		{"string|int|null", Union(String, Null), true},
		{"?Foo", NewClass("Foo"), true},
		{"string|null", Union(Null, String), false},
	}

	for _, tt := range tests {
		t.Run(tt.hint+" refined by "+tt.inferred.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, Refines(mustParse(t, tt.hint), tt.inferred))
		})
	}

	assert.True(t, Refines(nil, Void), "a missing hint is refined by anything known")
	assert.False(t, Refines(nil, Mixed))
}
