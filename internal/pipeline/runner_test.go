package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsync/internal/config"
	"docsync/internal/document"
)

const repoSource = `<?php

class Repo
{
    /** @return array<int,User> */
    public function all(): array
    {
        return $this->load();
    }
}
`

const serviceSource = `<?php

class Service
{
    public function users(Repo $repo): array
    {
        return $repo->all();
    }
}
`

const serviceFixed = `<?php

class Service
{

    /**
     * @return array<int,User>
     */
    public function users(Repo $repo): array
    {
        return $repo->all();
    }
}
`

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func newTestRunner(t *testing.T, root string) *Runner {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "docsync.yaml")
	cfgYAML := fmt.Sprintf("project:\n  root: %q\nanalysis:\n  jobs: 2\n", root)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgYAML), 0o644))

	cfg, err := config.LoadConfig(cfgPath)
	require.NoError(t, err)
	r, err := NewRunner(cfg)
	require.NoError(t, err)
	return r
}

func testProject(t *testing.T) string {
	return writeProject(t, map[string]string{
		"src/Repo.php":       repoSource,
		"src/Service.php":    serviceSource,
		"vendor/lib/Lib.php": serviceSource,
		"README.md":          "# app\n",
	})
}

func TestRunner_Files(t *testing.T) {
	root := testProject(t)
	r := newTestRunner(t, root)

	files, err := r.Files(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "src", "Repo.php"),
		filepath.Join(root, "src", "Service.php"),
	}, files)

	t.Run("explicit paths are deduplicated", func(t *testing.T) {
		service := filepath.Join(root, "src", "Service.php")
		files, err := r.Files([]string{service, filepath.Join(root, "src")})
		require.NoError(t, err)
		assert.Equal(t, []string{service, filepath.Join(root, "src", "Repo.php")}, files)
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := r.Files([]string{filepath.Join(root, "nope.php")})
		assert.Error(t, err)
	})
}

func TestRunner_Check(t *testing.T) {
	root := testProject(t)
	r := newTestRunner(t, root)
	ctx := context.Background()

	assert.Equal(t, 2, r.Index().Len())

	files, err := r.Files(nil)
	require.NoError(t, err)
	results, err := r.Check(ctx, files)
	require.NoError(t, err)
	require.Len(t, results, 2)

	repo, service := results[0], results[1]
	require.NoError(t, repo.Err)
	assert.Empty(t, repo.Diagnostics)
	assert.Len(t, repo.ContentHash, 64)

	require.NoError(t, service.Err)
	require.Len(t, service.Diagnostics, 1)
	d := service.Diagnostics[0]
	assert.Equal(t, "Missing @return array<int,User>", d.Message)
	assert.Equal(t, "Service", d.Class)
	assert.Equal(t, "users", d.Method)
	assert.Equal(t, "insert", d.Action)
	assert.Equal(t, document.Position{Line: 5, Column: 21}, d.Position)

	t.Run("reports", func(t *testing.T) {
		reports := Reports(results)
		require.Len(t, reports, 2)
		assert.Equal(t, string(service.URI), reports[1].URI)
		require.Len(t, reports[1].Findings, 1)
		assert.Equal(t, "array<int,User>", reports[1].Findings[0].Type)
		assert.Equal(t, 5, reports[1].Findings[0].Line)
	})

	t.Run("unreadable file is reported per file", func(t *testing.T) {
		missing := filepath.Join(root, "src", "Gone.php")
		results, err := r.Check(ctx, []string{missing, files[1]})
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Error(t, results[0].Err)
		assert.NoError(t, results[1].Err)
		assert.Len(t, Reports(results), 1)
	})

	t.Run("cancelled", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := r.Check(cancelled, files)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRunner_Fix(t *testing.T) {
	ctx := context.Background()

	t.Run("dry run leaves files alone", func(t *testing.T) {
		root := testProject(t)
		r := newTestRunner(t, root)
		service := filepath.Join(root, "src", "Service.php")

		results, err := r.Fix(ctx, []string{service}, true)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Len(t, results[0].Edits, 1)
		assert.False(t, results[0].Written)

		data, err := os.ReadFile(service)
		require.NoError(t, err)
		assert.Equal(t, serviceSource, string(data))
	})

	t.Run("writes and is idempotent", func(t *testing.T) {
		root := testProject(t)
		r := newTestRunner(t, root)
		service := filepath.Join(root, "src", "Service.php")

		results, err := r.Fix(ctx, []string{service}, false)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.True(t, results[0].Written)
		assert.Len(t, results[0].Diagnostics, 1)

		data, err := os.ReadFile(service)
		require.NoError(t, err)
		assert.Equal(t, serviceFixed, string(data))

		info, err := os.Stat(service)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

		results, err = r.Fix(ctx, []string{service}, false)
		require.NoError(t, err)
		assert.Empty(t, results[0].Edits)
		assert.Empty(t, results[0].Diagnostics)
		assert.False(t, results[0].Written)
	})
}

func TestRunner_Open(t *testing.T) {
	root := testProject(t)
	r := newTestRunner(t, root)
	ctx := context.Background()
	service := filepath.Join(root, "src", "Service.php")

	t.Run("buffer shadows the file", func(t *testing.T) {
		r.Open(service, `<?php

class Service
{
    public function name(): ?string
    {
        return 'x';
    }
}
`)
		doc, err := r.Load(ctx, service)
		require.NoError(t, err)
		assert.Contains(t, doc.Text(), "function name")

		results, err := r.Check(ctx, []string{service})
		require.NoError(t, err)
		require.Len(t, results[0].Diagnostics, 1)
		assert.Equal(t, "Missing @return string", results[0].Diagnostics[0].Message)
	})

	t.Run("buffer is seen by cross-file lookups", func(t *testing.T) {
		r.Open(service, serviceSource)
		r.Open(filepath.Join(root, "src", "Repo.php"), `<?php

class Repo
{
    /** @return array<int,Order> */
    public function all(): array
    {
        return $this->load();
    }
}
`)
		results, err := r.Check(ctx, []string{service})
		require.NoError(t, err)
		require.Len(t, results[0].Diagnostics, 1)
		assert.Equal(t, "Missing @return array<int,Order>", results[0].Diagnostics[0].Message)
	})

	t.Run("fix updates the buffer", func(t *testing.T) {
		results, err := r.Fix(ctx, []string{service}, false)
		require.NoError(t, err)
		require.True(t, results[0].Written)

		doc, err := r.Load(ctx, service)
		require.NoError(t, err)
		assert.Contains(t, doc.Text(), "@return array<int,Order>")
	})
}

func TestRunner_InProject(t *testing.T) {
	root := testProject(t)
	r := newTestRunner(t, root)

	tests := []struct {
		path     string
		expected bool
	}{
		{filepath.Join(root, "src", "Service.php"), true},
		{filepath.Join(root, "Top.php"), true},
		{filepath.Join(root, "vendor", "lib", "Lib.php"), false},
		{filepath.Join(root, "README.md"), false},
		{filepath.Join(filepath.Dir(root), "Outside.php"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, r.inProject(tt.path), tt.path)
	}
}
