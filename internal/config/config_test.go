package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.Project.Root)
	assert.Equal(t, []string{".php"}, cfg.Project.Extensions)
	assert.Equal(t, []string{".git", "vendor", "node_modules"}, cfg.Project.Ignore)
	assert.Equal(t, "    ", cfg.Format.Indentation)
	assert.Equal(t, "\n", cfg.Format.Newline)
	assert.True(t, cfg.BlankLine())
	assert.True(t, cfg.SkipMagic())
	assert.Equal(t, runtime.NumCPU(), cfg.Analysis.Jobs)
	assert.Equal(t, "docsync.db", cfg.Storage.DB)
}

func TestLoadConfig_YAML(t *testing.T) {
	path := writeFile(t, "docsync.yaml", `
project:
  root: src
  ignore: [vendor, cache]
format:
  indentation: "  "
  newline: '\r\n'
  blank_line_before_docblock: false
analysis:
  jobs: 2
  skip_magic_methods: false
storage:
  db: history.db
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "src", cfg.Project.Root)
	assert.Equal(t, []string{"vendor", "cache"}, cfg.Project.Ignore)
	assert.Equal(t, "  ", cfg.Format.Indentation)
	assert.Equal(t, "\r\n", cfg.Format.Newline)
	assert.False(t, cfg.BlankLine())
	assert.False(t, cfg.SkipMagic())
	assert.Equal(t, 2, cfg.Analysis.Jobs)
	assert.Equal(t, "history.db", cfg.Storage.DB)
}

func TestLoadConfig_TOML(t *testing.T) {
	path := writeFile(t, "docsync.toml", `
[project]
root = "app"
extensions = [".php", ".inc"]

[analysis]
jobs = 3
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "app", cfg.Project.Root)
	assert.Equal(t, []string{".php", ".inc"}, cfg.Project.Extensions)
	assert.Equal(t, 3, cfg.Analysis.Jobs)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("DOCSYNC_ROOT", "/srv/app")
	t.Setenv("DOCSYNC_DB", "/tmp/runs.db")
	t.Setenv("DOCSYNC_JOBS", "5")

	path := writeFile(t, "docsync.yaml", "project:\n  root: src\n")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/app", cfg.Project.Root)
	assert.Equal(t, "/tmp/runs.db", cfg.Storage.DB)
	assert.Equal(t, 5, cfg.Analysis.Jobs)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Run("schema violation", func(t *testing.T) {
		path := writeFile(t, "docsync.yaml", "project:\n  extensions: [php]\n")
		_, err := LoadConfig(path)
		assert.ErrorContains(t, err, "invalid config")
	})

	t.Run("negative jobs", func(t *testing.T) {
		path := writeFile(t, "docsync.yaml", "analysis:\n  jobs: -1\n")
		_, err := LoadConfig(path)
		assert.Error(t, err)
	})

	t.Run("unparseable", func(t *testing.T) {
		path := writeFile(t, "docsync.yaml", "project: [\n")
		_, err := LoadConfig(path)
		assert.ErrorContains(t, err, "failed to parse")
	})
}
