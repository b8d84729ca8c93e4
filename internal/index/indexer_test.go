package index

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsync/internal/crawler"
	"docsync/internal/document"
	"docsync/internal/extractor"
)

func TestIndexer_Build(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"Model/User.php":    `<?php namespace App\Model; class User {}`,
		"Model/Named.php":   `<?php namespace App\Model; interface Named {}`,
		"Legacy/User.php":   `<?php namespace Legacy; class User {}`,
		"Service/Repo.php":  `<?php namespace App\Service; class Repo {} trait Finds {}`,
		"vendor/Ignore.php": `<?php class Ignored {}`,
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	ext, err := extractor.NewExtractor("php")
	require.NoError(t, err)
	indexer := NewIndexer(crawler.NewCrawler(ext, nil, nil), ext)

	idx, err := indexer.Build(root)
	require.NoError(t, err)
	assert.Equal(t, 5, idx.Len())

	ctx := context.Background()
	t.Run("fully qualified names", func(t *testing.T) {
		uri, ok := idx.LocateClass(ctx, `\App\Model\User`)
		require.True(t, ok)
		assert.Equal(t, document.FileURI(filepath.Join(root, "Model", "User.php")), uri)

		uri, ok = idx.LocateClass(ctx, `app\service\finds`)
		require.True(t, ok)
		assert.Equal(t, document.FileURI(filepath.Join(root, "Service", "Repo.php")), uri)
	})

	t.Run("unique short names", func(t *testing.T) {
		uri, ok := idx.LocateClass(ctx, "Named")
		require.True(t, ok)
		assert.Equal(t, document.FileURI(filepath.Join(root, "Model", "Named.php")), uri)
	})

	t.Run("ambiguous and unknown names", func(t *testing.T) {
		_, ok := idx.LocateClass(ctx, "User")
		assert.False(t, ok)
		_, ok = idx.LocateClass(ctx, "Ignored")
		assert.False(t, ok)
		_, ok = idx.LocateClass(ctx, `App\Missing`)
		assert.False(t, ok)
	})

	t.Run("entries are sorted", func(t *testing.T) {
		entries := idx.Entries()
		require.Len(t, entries, 5)
		assert.Equal(t, `App\Model\Named`, entries[0].FQN)
		assert.Equal(t, "interface", entries[0].Kind)
		assert.True(t, strings.HasPrefix(entries[0].ID, "php/"), entries[0].ID)
	})

	t.Run("refresh drops removed declarations", func(t *testing.T) {
		path := filepath.Join(root, "Legacy", "User.php")
		require.NoError(t, os.WriteFile(path, []byte(`<?php namespace Legacy; class Account {}`), 0o644))
		require.NoError(t, indexer.Refresh(idx, path))

		_, ok := idx.LocateClass(ctx, `Legacy\User`)
		assert.False(t, ok)
		uri, ok := idx.LocateClass(ctx, "User")
		require.True(t, ok, "short name is no longer ambiguous")
		assert.Equal(t, document.FileURI(filepath.Join(root, "Model", "User.php")), uri)
		_, ok = idx.LocateClass(ctx, "Account")
		assert.True(t, ok)
	})

	t.Run("refresh of a deleted file", func(t *testing.T) {
		path := filepath.Join(root, "Service", "Repo.php")
		require.NoError(t, os.Remove(path))
		assert.Error(t, indexer.Refresh(idx, path))
		_, ok := idx.LocateClass(ctx, `App\Service\Repo`)
		assert.False(t, ok)
	})
}
