package document

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_Positions(t *testing.T) {
	doc := FromString("<?php\n\nclass Foo\n{\n    function bar() {}\n}\n")

	t.Run("Position", func(t *testing.T) {
		assert.Equal(t, Position{Line: 1, Column: 1}, doc.Position(0))
		assert.Equal(t, Position{Line: 3, Column: 1}, doc.Position(7))
		assert.Equal(t, Position{Line: 5, Column: 5}, doc.Position(23))
	})

	t.Run("LineIndent and StartsLine", func(t *testing.T) {
		assert.Equal(t, "    ", doc.LineIndent(23))
		assert.True(t, doc.StartsLine(23))
		assert.False(t, doc.StartsLine(32))
	})

	t.Run("PreviousLineBlank", func(t *testing.T) {
		assert.True(t, doc.PreviousLineBlank(7))
		assert.False(t, doc.PreviousLineBlank(23))
		assert.True(t, doc.PreviousLineBlank(0))
	})

	t.Run("Slice clamps", func(t *testing.T) {
		assert.Equal(t, "class", doc.Slice(Span{Start: 7, End: 12}))
		assert.Equal(t, "", doc.Slice(Span{Start: 500, End: 600}))
	})

	t.Run("FromString is content addressed", func(t *testing.T) {
		assert.Equal(t, doc.URI(), FromString(doc.Text()).URI())
		assert.NotEqual(t, doc.URI(), FromString("other").URI())
		assert.False(t, doc.URI().IsFile())
	})
}

func TestTextEdits_Apply(t *testing.T) {
	t.Run("edits apply against original offsets", func(t *testing.T) {
		out, err := TextEdits{
			Replace(Span{Start: 6, End: 11}, "there"),
			Insert(0, ">> "),
		}.Apply("hello world")
		require.NoError(t, err)
		assert.Equal(t, ">> hello there", out)
	})

	t.Run("inserts at the same offset keep their order", func(t *testing.T) {
		out, err := TextEdits{Insert(1, "a"), Insert(1, "b")}.Apply("xy")
		require.NoError(t, err)
		assert.Equal(t, "xaby", out)
	})

	t.Run("overlapping edits are rejected", func(t *testing.T) {
		_, err := TextEdits{
			Replace(Span{Start: 0, End: 5}, "a"),
			Replace(Span{Start: 3, End: 7}, "b"),
		}.Apply("hello world")
		assert.ErrorIs(t, err, ErrOverlappingEdits)
	})

	t.Run("out of bounds edits are rejected", func(t *testing.T) {
		_, err := TextEdits{Insert(20, "x")}.Apply("short")
		assert.Error(t, err)
	})

	t.Run("empty set is identity", func(t *testing.T) {
		out, err := None().Apply("same")
		require.NoError(t, err)
		assert.Equal(t, "same", out)
	})

	t.Run("ApplyTo keeps the identity", func(t *testing.T) {
		doc := New("file:///a.php", "abc")
		next, err := TextEdits{Insert(3, "d")}.ApplyTo(doc)
		require.NoError(t, err)
		assert.Equal(t, doc.URI(), next.URI())
		assert.Equal(t, "abcd", next.Text())
		assert.Equal(t, "abc", doc.Text())
	})

	t.Run("ByURI groups located edits", func(t *testing.T) {
		located := append(TextEdits{Insert(0, "a")}.Locate("file:///a"), TextEdits{Insert(0, "b")}.Locate("file:///b")...)
		grouped := located.ByURI()
		assert.Len(t, grouped, 2)
		assert.Equal(t, "a", grouped["file:///a"][0].Replacement)
	})
}

func TestLocators(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "Foo.php")
	require.NoError(t, os.WriteFile(path, []byte("<?php class Foo {}"), 0o644))

	t.Run("FileLocator", func(t *testing.T) {
		doc, err := NewFileLocator().Get(ctx, FileURI(path))
		require.NoError(t, err)
		assert.Equal(t, "<?php class Foo {}", doc.Text())
		assert.Equal(t, path, doc.URI().Path())

		_, err = NewFileLocator().Get(ctx, FileURI(filepath.Join(dir, "missing.php")))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("ChainLocator prefers memory", func(t *testing.T) {
		uri := FileURI(path)
		mem := NewMemoryLocator(New(uri, "<?php class Unsaved {}"))
		doc, err := ChainLocator{mem, NewFileLocator()}.Get(ctx, uri)
		require.NoError(t, err)
		assert.Equal(t, "<?php class Unsaved {}", doc.Text())

		other := FileURI(filepath.Join(dir, "missing.php"))
		_, err = ChainLocator{mem, NewFileLocator()}.Get(ctx, other)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
