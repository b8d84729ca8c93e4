package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsync/internal/document"
	"docsync/internal/extractor"
	"docsync/internal/reflection"
)

func newTestTransformer(t *testing.T, opts ...Option) *Transformer {
	t.Helper()
	ext, err := extractor.NewExtractor("php")
	require.NoError(t, err)
	return NewTransformer(reflection.NewReflector(ext), opts...)
}

func transform(t *testing.T, tr *Transformer, source string) string {
	t.Helper()
	doc := document.FromString(source)
	edits, err := tr.Transform(context.Background(), doc)
	require.NoError(t, err)
	out, err := edits.Apply(source)
	require.NoError(t, err)
	return out
}

func TestTransformer_Transform(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected string
	}{
		{
			name: "add missing docblock",
			source: `<?php

class Foobar {
    public function baz(): array
    {
        return $this->items();
    }

    /** @return array<string,Baz> */
    private function items(): array
    {
        return ['string' => new Baz'];
    }
}
`,
			expected: `<?php

class Foobar {

    /**
     * @return array<string,Baz>
     */
    public function baz(): array
    {
        return $this->items();
    }

    /** @return array<string,Baz> */
    private function items(): array
    {
        return ['string' => new Baz'];
    }
}
`,
		},
		{
			name: "add array literal",
			source: `<?php

class Foobar {
    public function baz(): array
    {
        return [
            'foo' => 'bar',
            'baz' => 'boo',
        ];
    }
}
`,
			expected: `<?php

class Foobar {

    /**
     * @return array<string,string>
     */
    public function baz(): array
    {
        return [
            'foo' => 'bar',
            'baz' => 'boo',
        ];
    }
}
`,
		},
		{
			name: "add union of array literals",
			source: `<?php

class Foobar {
    public function baz(): array
    {
        if ($foo) {
            return [
                'baz' => 'bar',
            ];
        }

        return [
            'foo' => 'bar',
            'baz' => 'boo',
        ];
    }
}
`,
			expected: `<?php

class Foobar {

    /**
     * @return array<string,string>
     */
    public function baz(): array
    {
        if ($foo) {
            return [
                'baz' => 'bar',
            ];
        }

        return [
            'foo' => 'bar',
            'baz' => 'boo',
        ];
    }
}
`,
		},
		{
			name: "permit wider return types",
			source: `<?php

abstract class Foo {}
class ConcreteFoo extends Foo {}

class Foobar {
    public function baz(): Foo
    {
        return new ConcreteFoo();
    }
}
`,
			expected: `<?php

abstract class Foo {}
class ConcreteFoo extends Foo {}

class Foobar {
    public function baz(): Foo
    {
        return new ConcreteFoo();
    }
}
`,
		},
		{
			name: "but adds generic types",
			source: `<?php

abstract class Foo {}
class ConcreteFoo extends Foo {}

class Foobar {
    public function baz(): Foo
    {
        /** @var ConcreteFoo<Baz> */
        $foo;
        return $foo;
    }
}
`,
			expected: `<?php

abstract class Foo {}
class ConcreteFoo extends Foo {}

class Foobar {

    /**
     * @return ConcreteFoo<Baz>
     */
    public function baz(): Foo
    {
        /** @var ConcreteFoo<Baz> */
        $foo;
        return $foo;
    }
}
`,
		},
		{
			name: "and interfaces",
			source: `<?php

interface Foo {}
class ConcreteFoo implements Foo {}

class Foobar {
    public function baz(): Foo
    {
        return new ConcreteFoo();
    }
}
`,
			expected: `<?php

interface Foo {}
class ConcreteFoo implements Foo {}

class Foobar {
    public function baz(): Foo
    {
        return new ConcreteFoo();
    }
}
`,
		},
		{
			name: "adds docblock for array",
			source: `<?php

class Foobar {
    public function baz(): array
    {
        return array_map(fn () => null, []);
    }
}
`,
			expected: `<?php

class Foobar {

    /**
     * @return null[]
     */
    public function baz(): array
    {
        return array_map(fn () => null, []);
    }
}
`,
		},
		{
			name: "no blank line added after a blank line",
			source: `<?php

class Foobar {
    public $a;

    public function baz(): array
    {
        return ['a' => 1];
    }
}
`,
			expected: `<?php

class Foobar {
    public $a;

    /**
     * @return array<string,int>
     */
    public function baz(): array
    {
        return ['a' => 1];
    }
}
`,
		},
		{
			name: "existing docblock gains a return tag",
			source: `<?php

class Foobar {
    /**
     * Lists the names.
     *
     * @param int $limit
     */
    public function baz(int $limit): array
    {
        return ['a' => 'b'];
    }
}
`,
			expected: `<?php

class Foobar {
    /**
     * Lists the names.
     *
     * @param int $limit
     * @return array<string,string>
     */
    public function baz(int $limit): array
    {
        return ['a' => 'b'];
    }
}
`,
		},
		{
			name: "less precise return tag is replaced",
			source: `<?php

class Foobar {
    /**
     * @return array the values
     */
    public function baz(): array
    {
        return ['a' => 'b'];
    }
}
`,
			expected: `<?php

class Foobar {
    /**
     * @return array<string,string> the values
     */
    public function baz(): array
    {
        return ['a' => 'b'];
    }
}
`,
		},
		{
			name: "malformed return tag is replaced",
			source: `<?php

class Foobar {
    /** @return array<string */
    public function baz(): array
    {
        return ['a' => 'b'];
    }
}
`,
			expected: `<?php

class Foobar {
    /**
     * @return array<string,string>
     */
    public function baz(): array
    {
        return ['a' => 'b'];
    }
}
`,
		},
		{
			name: "magic, abstract and generator methods are skipped",
			source: `<?php

abstract class Foobar {
    public function __construct()
    {
        return ['a' => 'b'];
    }

    abstract public function items(): array;

    public function each(): iterable
    {
        yield ['a' => 'b'];
    }
}
`,
			expected: `<?php

abstract class Foobar {
    public function __construct()
    {
        return ['a' => 'b'];
    }

    abstract public function items(): array;

    public function each(): iterable
    {
        yield ['a' => 'b'];
    }
}
`,
		},
		{
			name: "fluent return tag is kept",
			source: `<?php

class Foobar {
    /** @return $this */
    public function baz()
    {
        return $this;
    }
}
`,
			expected: `<?php

class Foobar {
    /** @return $this */
    public function baz()
    {
        return $this;
    }
}
`,
		},
		{
			name: "generic arguments from a named var annotation",
			source: `<?php

class Foobar {
    public function baz(): Collection
    {
        /** @var Collection<Foo> $c */
        $c = new Collection();
        return $c;
    }
}
`,
			expected: `<?php

class Foobar {

    /**
     * @return Collection<Foo>
     */
    public function baz(): Collection
    {
        /** @var Collection<Foo> $c */
        $c = new Collection();
        return $c;
    }
}
`,
		},
		{
			name: "unresolved branch does not hide its sibling",
			source: `<?php

class Foobar {
    public function baz($x): array
    {
        if ($x) {
            return $undefined->foo();
        }

        return ['foo' => 'bar'];
    }
}
`,
			expected: `<?php

class Foobar {

    /**
     * @return array<string,string>
     */
    public function baz($x): array
    {
        if ($x) {
            return $undefined->foo();
        }

        return ['foo' => 'bar'];
    }
}
`,
		},
	}

	tr := newTestTransformer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, transform(t, tr, tt.source))
		})
	}

	t.Run("idempotent", func(t *testing.T) {
		for _, tt := range tests {
			once := transform(t, tr, tt.source)
			assert.Equal(t, once, transform(t, tr, once), tt.name)
		}
	})
}

func TestTransformer_Options(t *testing.T) {
	source := `<?php

class Foobar {
    public function __construct()
    {
        return ['a' => 'b'];
    }
}
`

	t.Run("magic methods included", func(t *testing.T) {
		tr := newTestTransformer(t, WithMagicMethods(true))
		assert.Equal(t, `<?php

class Foobar {

    /**
     * @return array<string,string>
     */
    public function __construct()
    {
        return ['a' => 'b'];
    }
}
`, transform(t, tr, source))
	})

	t.Run("crlf without blank line", func(t *testing.T) {
		tr := newTestTransformer(t, WithMagicMethods(true), WithTextFormat(TextFormat{
			Indentation: "\t",
			Newline:     "\r\n",
		}))
		assert.Equal(t, `<?php

class Foobar {
    /**`+"\r\n"+`     * @return array<string,string>`+"\r\n"+`     */`+"\r\n"+`    public function __construct()
    {
        return ['a' => 'b'];
    }
}
`, transform(t, tr, source))
	})

	t.Run("method sharing a line with its class", func(t *testing.T) {
		tr := newTestTransformer(t)
		out := transform(t, tr, `<?php class Foobar { public function baz() { return 'a'; } }`)
		assert.Equal(t, `<?php class Foobar { /** @return string */ public function baz() { return 'a'; } }`, out)
	})
}

func TestTransformer_Diagnostics(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected []string
	}{
		{
			name: "no methods",
			source: `<?php

class Foobar {
}
`,
			expected: []string{},
		},
		{
			name: "missing return type corresponds to method return type",
			source: `<?php

class Foobar {
    public function baz(): string
    {
        return 'string';
    }
}
`,
			expected: []string{},
		},
		{
			name: "diagnostics for missing docblock",
			source: `<?php

class Foobar {
    public function baz(): array
    {
        return $this->items();
    }

    /** @return array<string,Baz> */
    private function items(): array
    {
        return ['string' => new Baz'];
    }
}
`,
			expected: []string{"Missing @return array<string,Baz>"},
		},
		{
			name: "fluent return tag",
			source: `<?php

class Foobar {
    /** @return $this */
    public function baz()
    {
        return $this;
    }
}
`,
			expected: []string{},
		},
		{
			name: "unresolved branch",
			source: `<?php

class Foobar {
    public function baz($x): array
    {
        if ($x) {
            return $undefined->foo();
        }

        return ['foo' => 'bar'];
    }
}
`,
			expected: []string{"Missing @return array<string,string>"},
		},
		{
			name: "declaration order",
			source: `<?php

class One {
    public function a() { return 1; }
}

class Two {
    public function b() { return 'b'; }
    public function c() { return [1]; }
}
`,
			expected: []string{"Missing @return int", "Missing @return string", "Missing @return int[]"},
		},
	}

	tr := newTestTransformer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			messages := []string{}
			for d, err := range tr.Diagnostics(context.Background(), document.FromString(tt.source)) {
				require.NoError(t, err)
				messages = append(messages, d.Message)
			}
			assert.Equal(t, tt.expected, messages)
		})
	}

	t.Run("positions and restart", func(t *testing.T) {
		source := "<?php\n\nclass Foobar {\n    public function baz(): array\n    {\n        return ['a' => 'b'];\n    }\n}\n"
		seq := tr.Diagnostics(context.Background(), document.FromString(source))

		var first []Diagnostic
		for d, err := range seq {
			require.NoError(t, err)
			first = append(first, d)
		}
		require.Len(t, first, 1)
		assert.Equal(t, document.Position{Line: 4, Column: 21}, first[0].Position)
		assert.Equal(t, "Foobar", first[0].Class)
		assert.Equal(t, "baz", first[0].Method)
		assert.Equal(t, "insert", first[0].Action)
		assert.Equal(t, "array<string,string>", first[0].Type)

		var second []Diagnostic
		for d, err := range seq {
			require.NoError(t, err)
			second = append(second, d)
		}
		assert.Equal(t, first, second)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		for _, err := range tr.Diagnostics(ctx, document.FromString(`<?php class A { function a() { return 1; } }`)) {
			assert.ErrorIs(t, err, context.Canceled)
		}
	})
}
