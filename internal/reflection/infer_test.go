package reflection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsync/internal/document"
)

// inferReturn reflects source and infers the return type of class::method.
func inferReturn(t *testing.T, source, class, method string) (string, bool) {
	t.Helper()
	ctx := context.Background()
	classes, err := newTestReflector(t).ReflectClassesIn(ctx, document.FromString(source))
	require.NoError(t, err)

	for _, c := range classes {
		if c.Name() != class {
			continue
		}
		m, ok := c.Method(ctx, method)
		require.True(t, ok, "method %s not found", method)
		inferred, ok := m.InferredReturnType(ctx)
		if !ok {
			return "", false
		}
		return inferred.String(), true
	}
	t.Fatalf("class %s not found", class)
	return "", false
}

func TestInference_ReturnTypes(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected string
	}{
		{
			name:     "keyed array literal",
			source:   `<?php class Foobar { public function baz() { return ['one' => 'two']; } }`,
			expected: "array<string,string>",
		},
		{
			name: "branches with the same array shape collapse",
			source: `<?php class Foobar {
				public function baz($a) {
					if ($a) { return ['one' => 'two']; }
					return ['three' => 'four'];
				}
			}`,
			expected: "array<string,string>",
		},
		{
			name:     "list of instances",
			source:   `<?php class Foobar { public function baz() { $a = [new Foo()]; return $a; } }`,
			expected: "Foo[]",
		},
		{
			name:     "empty array",
			source:   `<?php class Foobar { public function baz() { return []; } }`,
			expected: "array",
		},
		{
			name:     "array_map with a null-returning closure",
			source:   `<?php class Foobar { public function baz(): array { return array_map(fn () => null, []); } }`,
			expected: "null[]",
		},
		{
			name:     "array_map keeps string keys",
			source:   `<?php class Foobar { public function baz() { return array_map(fn ($v) => 1, ['a' => 'b']); } }`,
			expected: "array<string,int>",
		},
		{
			name: "delegation to a documented method",
			source: `<?php class Foobar {
				public function baz(): array { return $this->items(); }
				/** @return array<string,Baz> */
				public function items(): array { return ['baz' => new Baz()]; }
			}`,
			expected: "array<string,Baz>",
		},
		{
			name:     "generic @var annotation",
			source:   `<?php class Foobar { public function baz() { /** @var ConcreteFoo<Baz> */ $foo = $this->make(); return $foo; } }`,
			expected: "ConcreteFoo<Baz>",
		},
		{
			name:     "named @var annotation",
			source:   `<?php class Foobar { public function baz() { /** @var Baz[] $items */ return $items; } }`,
			expected: "Baz[]",
		},
		{
			name:     "named @var annotation survives the assignment",
			source:   `<?php class Foobar { public function baz() { /** @var Collection<Foo> $c */ $c = new Collection(); return $c; } }`,
			expected: "Collection<Foo>",
		},
		{
			name:     "named @var annotation of another variable",
			source:   `<?php class Foobar { public function baz() { /** @var Collection<Foo> $c */ $d = new Collection(); return $d; } }`,
			expected: "Collection",
		},
		{
			name:     "no return statements",
			source:   `<?php class Foobar { public function baz() { $a = 1; } }`,
			expected: "void",
		},
		{
			name:     "bare return next to a value",
			source:   `<?php class Foobar { public function baz($a) { if ($a) { return; } return 'x'; } }`,
			expected: "null|string",
		},
		{
			name:     "ternary",
			source:   `<?php class Foobar { public function baz($a) { return $a ? 1 : 'a'; } }`,
			expected: "int|string",
		},
		{
			name:     "fluent this",
			source:   `<?php class Foobar { public function baz() { return $this; } }`,
			expected: "Foobar",
		},
		{
			name:     "new static",
			source:   `<?php class Foobar { public static function baz() { return new static(); } }`,
			expected: "Foobar",
		},
		{
			name:     "parameter hint",
			source:   `<?php class Foobar { public function baz(string $s) { return $s; } }`,
			expected: "string",
		},
		{
			name:     "documented parameter",
			source:   `<?php class Foobar { /** @param Foo[] $items */ public function baz(array $items) { return $items; } }`,
			expected: "Foo[]",
		},
		{
			name: "documented property",
			source: `<?php class Foobar {
				/** @var Bar[] */
				private array $bars = [];
				public function baz() { return $this->bars; }
			}`,
			expected: "Bar[]",
		},
		{
			name: "inherited method",
			source: `<?php
				class Base { /** @return Foo */ public function make() {} }
				class Foobar extends Base { public function baz() { return $this->make(); } }`,
			expected: "Foo",
		},
		{
			name: "function of the document",
			source: `<?php
				function helper(): int { return 1; }
				class Foobar { public function baz() { return helper(); } }`,
			expected: "int",
		},
		{
			name:     "invoked closure variable",
			source:   `<?php class Foobar { public function baz() { $fn = fn () => 'x'; return $fn(); } }`,
			expected: "string",
		},
		{
			name:     "closure capturing by use",
			source:   `<?php class Foobar { public function baz() { $a = 1; $fn = function () use ($a) { return $a; }; return $fn(); } }`,
			expected: "int",
		},
		{
			name:     "concatenation",
			source:   `<?php class Foobar { public function baz($a) { return 'a' . $a; } }`,
			expected: "string",
		},
		{
			name:     "null coalescing",
			source:   `<?php class Foobar { public function baz(?Foo $a) { return $a ?? new Bar(); } }`,
			expected: "Foo|Bar",
		},
		{
			name:     "unknown call",
			source:   `<?php class Foobar { public function baz() { return unknown_function(); } }`,
			expected: "mixed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inferred, ok := inferReturn(t, tt.source, "Foobar", "baz")
			require.True(t, ok)
			assert.Equal(t, tt.expected, inferred)
		})
	}
}

func TestInference_Recursion(t *testing.T) {
	t.Run("self recursion", func(t *testing.T) {
		inferred, ok := inferReturn(t, `<?php class Foobar { public function baz() { return $this->baz(); } }`, "Foobar", "baz")
		require.True(t, ok)
		assert.Equal(t, "mixed", inferred)
	})

	t.Run("mutual recursion", func(t *testing.T) {
		source := `<?php class Foobar {
			public function baz() { return $this->qux(); }
			public function qux($a = null) { if ($a) { return $this->baz(); } return 'x'; }
		}`
		inferred, ok := inferReturn(t, source, "Foobar", "baz")
		require.True(t, ok)
		assert.Equal(t, "mixed|string", inferred, "the recursive branch is unknown, its sibling is kept")
	})

	t.Run("recursion with a hint", func(t *testing.T) {
		source := `<?php class Foobar {
			public function baz(): string { return $this->qux(); }
			public function qux() { return $this->baz(); }
		}`
		inferred, ok := inferReturn(t, source, "Foobar", "qux")
		require.True(t, ok)
		assert.Equal(t, "string", inferred)
	})
}

func TestInference_NoInference(t *testing.T) {
	t.Run("generator", func(t *testing.T) {
		_, ok := inferReturn(t, `<?php class Foobar { public function baz() { yield 1; } }`, "Foobar", "baz")
		assert.False(t, ok)
	})

	t.Run("abstract method", func(t *testing.T) {
		_, ok := inferReturn(t, `<?php abstract class Foobar { abstract public function baz(); }`, "Foobar", "baz")
		assert.False(t, ok)
	})

	t.Run("interface method", func(t *testing.T) {
		_, ok := inferReturn(t, `<?php interface Foobar { public function baz(): string; }`, "Foobar", "baz")
		assert.False(t, ok)
	})
}
