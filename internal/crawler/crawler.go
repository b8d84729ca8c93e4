package crawler

import (
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tliron/commonlog"

	"docsync/internal/extractor"
)

var log = commonlog.GetLogger("docsync.crawler")

// Crawler scans a directory for source files.
type Crawler struct {
	extractor  *extractor.Extractor
	extensions []string
	ignored    []string
}

// NewCrawler creates a new crawler instance. Empty extensions or ignored lists keep the defaults.
func NewCrawler(ext *extractor.Extractor, extensions, ignored []string) *Crawler {
	c := &Crawler{
		extractor:  ext,
		extensions: []string{".php"},
		ignored:    []string{".git", "vendor", "node_modules"},
	}
	if len(extensions) > 0 {
		c.extensions = extensions
	}
	if ignored != nil {
		c.ignored = ignored
	}
	return c
}

// Matches reports whether path has one of the crawled extensions.
func (c *Crawler) Matches(path string) bool {
	return slices.Contains(c.extensions, strings.ToLower(filepath.Ext(path)))
}

// Ignored reports whether a directory name is skipped.
func (c *Crawler) Ignored(name string) bool {
	return slices.Contains(c.ignored, name)
}

// Files walks root and returns every source file, in lexical order. A file root is returned
// as is when it matches.
func (c *Crawler) Files(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip ignored directories
		if d.IsDir() {
			if path != root && c.Ignored(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if c.Matches(path) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// ScanProject walks the root directory and processes all relevant files.
// It uses a callback to stream CodeUnits, preventing large memory buildup.
func (c *Crawler) ScanProject(root string, onUnit func(*extractor.CodeUnit)) error {
	files, err := c.Files(root)
	if err != nil {
		return err
	}

	for _, path := range files {
		// Extract units from file
		units, err := c.extractor.ExtractFromFile(path)
		if err != nil {
			// Log and continue instead of failing the whole scan
			log.Warningf("skipping %s: %s", path, err)
			continue
		}

		// Stream results back
		for _, unit := range units {
			onUnit(unit)
		}
	}
	return nil
}
