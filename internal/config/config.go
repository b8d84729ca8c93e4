package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when no path is given.
const DefaultPath = "docsync.yaml"

type Config struct {
	Project struct {
		Root       string   `yaml:"root" toml:"root" json:"root"`
		Extensions []string `yaml:"extensions" toml:"extensions" json:"extensions"`
		Ignore     []string `yaml:"ignore" toml:"ignore" json:"ignore"`
	} `yaml:"project" toml:"project" json:"project"`
	Format struct {
		Indentation             string `yaml:"indentation" toml:"indentation" json:"indentation"`
		Newline                 string `yaml:"newline" toml:"newline" json:"newline"`
		BlankLineBeforeDocblock *bool  `yaml:"blank_line_before_docblock" toml:"blank_line_before_docblock" json:"blank_line_before_docblock"`
	} `yaml:"format" toml:"format" json:"format"`
	Analysis struct {
		Jobs             int   `yaml:"jobs" toml:"jobs" json:"jobs"`
		SkipMagicMethods *bool `yaml:"skip_magic_methods" toml:"skip_magic_methods" json:"skip_magic_methods"`
	} `yaml:"analysis" toml:"analysis" json:"analysis"`
	Storage struct {
		DB string `yaml:"db" toml:"db" json:"db"`
	} `yaml:"storage" toml:"storage" json:"storage"`
	Log struct {
		Verbosity int    `yaml:"verbosity" toml:"verbosity" json:"verbosity"`
		File      string `yaml:"file" toml:"file" json:"file"`
	} `yaml:"log" toml:"log" json:"log"`
}

// BlankLine reports whether inserted docblocks are preceded by an empty line.
func (c *Config) BlankLine() bool {
	return c.Format.BlankLineBeforeDocblock == nil || *c.Format.BlankLineBeforeDocblock
}

// SkipMagic reports whether __construct, __destruct and __clone are left alone.
func (c *Config) SkipMagic() bool {
	return c.Analysis.SkipMagicMethods == nil || *c.Analysis.SkipMagicMethods
}

// LoadConfig reads the YAML or TOML file at path, picked by extension. A missing file yields
// the defaults. DOCSYNC_* environment variables override the file.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	// 2. Load the config file
	var cfg Config
	if path == "" {
		path = DefaultPath
	}
	file, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := decode(path, file, &cfg); err != nil {
			return nil, err
		}
	}

	// 3. Override with Environment Variables if present
	applyEnv(&cfg)

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(cfg); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	return nil
}

func applyEnv(cfg *Config) {
	if root := os.Getenv("DOCSYNC_ROOT"); root != "" {
		cfg.Project.Root = root
	}
	if db := os.Getenv("DOCSYNC_DB"); db != "" {
		cfg.Storage.DB = db
	}
	if jobs, err := strconv.Atoi(os.Getenv("DOCSYNC_JOBS")); err == nil {
		cfg.Analysis.Jobs = jobs
	}
	if v, err := strconv.Atoi(os.Getenv("DOCSYNC_VERBOSITY")); err == nil {
		cfg.Log.Verbosity = v
	}
	if file := os.Getenv("DOCSYNC_LOG_FILE"); file != "" {
		cfg.Log.File = file
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Project.Root == "" {
		cfg.Project.Root = "."
	}
	if len(cfg.Project.Extensions) == 0 {
		cfg.Project.Extensions = []string{".php"}
	}
	if cfg.Project.Ignore == nil {
		cfg.Project.Ignore = []string{".git", "vendor", "node_modules"}
	}
	if cfg.Format.Indentation == "" {
		cfg.Format.Indentation = "    "
	}
	switch cfg.Format.Newline {
	case "":
		cfg.Format.Newline = "\n"
	case `\n`:
		cfg.Format.Newline = "\n"
	case `\r\n`:
		cfg.Format.Newline = "\r\n"
	}
	if cfg.Analysis.Jobs == 0 {
		cfg.Analysis.Jobs = runtime.NumCPU()
	}
	if cfg.Storage.DB == "" {
		cfg.Storage.DB = "docsync.db"
	}
}

const schemaURL = "docsync://config.schema.json"

const schema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "project": {
      "type": "object",
      "properties": {
        "root": {"type": "string", "minLength": 1},
        "extensions": {"type": "array", "items": {"type": "string", "pattern": "^\\."}},
        "ignore": {"type": ["array", "null"], "items": {"type": "string"}}
      }
    },
    "format": {
      "type": "object",
      "properties": {
        "indentation": {"type": "string", "pattern": "^[ \\t]+$"},
        "newline": {"enum": ["\n", "\r\n"]}
      }
    },
    "analysis": {
      "type": "object",
      "properties": {
        "jobs": {"type": "integer", "minimum": 1}
      }
    },
    "log": {
      "type": "object",
      "properties": {
        "verbosity": {"type": "integer", "minimum": -4, "maximum": 2}
      }
    }
  }
}`

// Validate checks cfg against the config JSON schema.
func Validate(cfg *Config) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, strings.NewReader(schema)); err != nil {
		return fmt.Errorf("failed to load config schema: %w", err)
	}
	compiled, err := compiler.Compile(schemaURL)
	if err != nil {
		return fmt.Errorf("failed to compile config schema: %w", err)
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	if err := compiled.Validate(doc); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
