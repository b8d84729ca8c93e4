package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"docsync/internal/config"
	"docsync/internal/crawler"
	"docsync/internal/document"
	"docsync/internal/extractor"
	"docsync/internal/git"
	"docsync/internal/index"
	"docsync/internal/reflection"
	"docsync/internal/storage"
	"docsync/internal/transform"
)

var log = commonlog.GetLogger("docsync.pipeline")

// FileResult is the outcome of checking or fixing one document.
type FileResult struct {
	Path        string
	URI         document.URI
	ContentHash string
	Diagnostics []transform.Diagnostic
	// Edits is set by Fix.
	Edits document.TextEdits
	// Written reports whether Fix rewrote the file.
	Written bool
	Err     error
}

// Runner drives the transformer over a project. Every document is processed by its own
// worker with its own reflection view; results come back in input order.
type Runner struct {
	cfg         *config.Config
	root        string
	jobs        int
	crawler     *crawler.Crawler
	indexer     *index.Indexer
	index       *index.Index
	overlay     *document.MemoryLocator
	locator     document.Locator
	reflector   *reflection.Reflector
	transformer *transform.Transformer
}

// NewRunner indexes the project root and wires the reflection stack on top of the index.
func NewRunner(cfg *config.Config) (*Runner, error) {
	ext, err := extractor.NewExtractor("php")
	if err != nil {
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}

	root, err := filepath.Abs(cfg.Project.Root)
	if err != nil {
		return nil, err
	}

	r := &Runner{
		cfg:     cfg,
		root:    root,
		jobs:    max(cfg.Analysis.Jobs, 1),
		crawler: crawler.NewCrawler(ext, cfg.Project.Extensions, cfg.Project.Ignore),
		overlay: document.NewMemoryLocator(),
	}
	r.indexer = index.NewIndexer(r.crawler, ext)
	r.locator = document.ChainLocator{r.overlay, document.NewFileLocator()}

	if err := r.indexStage(); err != nil {
		return nil, err
	}

	r.reflector = reflection.NewReflector(ext,
		reflection.WithLocator(r.locator),
		reflection.WithClassLocator(r.index),
	)
	r.transformer = transform.NewTransformer(r.reflector,
		transform.WithTextFormat(transform.TextFormat{
			Indentation:             cfg.Format.Indentation,
			Newline:                 cfg.Format.Newline,
			BlankLineBeforeDocblock: cfg.BlankLine(),
		}),
		transform.WithMagicMethods(!cfg.SkipMagic()),
	)
	return r, nil
}

func (r *Runner) indexStage() error {
	start := time.Now()
	idx, err := r.indexer.Build(r.root)
	if err != nil {
		return fmt.Errorf("failed to index %s: %w", r.root, err)
	}
	r.index = idx
	log.Infof("indexed %d classes in %v", idx.Len(), time.Since(start))
	return nil
}

func (r *Runner) Root() string {
	return r.root
}

func (r *Runner) Reflector() *reflection.Reflector {
	return r.reflector
}

func (r *Runner) Index() *index.Index {
	return r.index
}

// Open registers an unsaved buffer for path. It shadows the file on disk for every later
// check, fix or cross-file lookup.
func (r *Runner) Open(path, text string) document.Document {
	doc := document.New(document.FileURI(path), text)
	r.overlay.Add(doc)
	return doc
}

// Load returns the current text of path, preferring an opened buffer.
func (r *Runner) Load(ctx context.Context, path string) (document.Document, error) {
	return r.locator.Get(ctx, document.FileURI(path))
}

// Files expands paths into source files. Directories are crawled, files are kept as given.
// No path means the project root.
func (r *Runner) Files(paths []string) ([]string, error) {
	if len(paths) == 0 {
		paths = []string{r.root}
	}

	var files []string
	seen := make(map[string]bool)
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		found := []string{p}
		if info.IsDir() {
			if found, err = r.crawler.Files(p); err != nil {
				return nil, err
			}
		}
		for _, f := range found {
			abs, err := filepath.Abs(f)
			if err != nil {
				return nil, err
			}
			if !seen[abs] {
				seen[abs] = true
				files = append(files, abs)
			}
		}
	}
	return files, nil
}

// Changed returns the source files under the root that differ from baseRef in git.
func (r *Runner) Changed(ctx context.Context, baseRef string) ([]string, error) {
	return git.ChangedPaths(ctx, r.root, baseRef, r.inProject)
}

// inProject reports whether path is a source file under the root outside ignored directories.
func (r *Runner) inProject(path string) bool {
	rel, err := filepath.Rel(r.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	for _, dir := range strings.Split(filepath.Dir(rel), string(filepath.Separator)) {
		if r.crawler.Ignored(dir) {
			return false
		}
	}
	return r.crawler.Matches(path)
}

// Check computes the diagnostics of every file.
func (r *Runner) Check(ctx context.Context, files []string) ([]FileResult, error) {
	return r.each(ctx, files, func(ctx context.Context, res *FileResult, doc document.Document) error {
		for d, err := range r.transformer.Diagnostics(ctx, doc) {
			if err != nil {
				return err
			}
			res.Diagnostics = append(res.Diagnostics, d)
		}
		return nil
	})
}

// Fix applies the edits of every file. With dryRun the edits are computed but nothing is
// written.
func (r *Runner) Fix(ctx context.Context, files []string, dryRun bool) ([]FileResult, error) {
	return r.each(ctx, files, func(ctx context.Context, res *FileResult, doc document.Document) error {
		for d, err := range r.transformer.Diagnostics(ctx, doc) {
			if err != nil {
				return err
			}
			res.Diagnostics = append(res.Diagnostics, d)
		}
		edits, err := r.transformer.Transform(ctx, doc)
		if err != nil {
			return err
		}
		res.Edits = edits
		if dryRun || len(edits) == 0 {
			return nil
		}

		updated, err := edits.ApplyTo(doc)
		if err != nil {
			return err
		}
		if err := writeAtomic(res.Path, updated.Text()); err != nil {
			return err
		}
		res.Written = true
		if _, err := r.overlay.Get(ctx, doc.URI()); err == nil {
			r.overlay.Add(updated)
		}
		return nil
	})
}

// each runs fn for every file on a bounded pool of workers. A failing document is reported in
// its FileResult and does not stop the others; only a cancelled context aborts the run.
func (r *Runner) each(ctx context.Context, files []string, fn func(context.Context, *FileResult, document.Document) error) ([]FileResult, error) {
	results := make([]FileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.jobs)
	for i, path := range files {
		g.Go(func() error {
			res := &results[i]
			res.Path = path
			res.URI = document.FileURI(path)

			doc, err := r.locator.Get(gctx, res.URI)
			if err != nil {
				res.Err = err
				return gctx.Err()
			}
			res.ContentHash = contentHash(doc.Text())
			if err := fn(gctx, res, doc); err != nil {
				log.Warningf("%s: %s", path, err)
				res.Err = err
			}
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// Reports converts results into storable per-file reports.
func Reports(results []FileResult) []storage.FileReport {
	reports := make([]storage.FileReport, 0, len(results))
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		report := storage.FileReport{URI: string(res.URI), ContentHash: res.ContentHash}
		for _, d := range res.Diagnostics {
			report.Findings = append(report.Findings, storage.Finding{
				Line:    d.Position.Line,
				Column:  d.Position.Column,
				Class:   d.Class,
				Method:  d.Method,
				Action:  d.Action,
				Type:    d.Type,
				Message: d.Message,
			})
		}
		reports = append(reports, report)
	}
	return reports
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// writeAtomic replaces path through a temporary file in the same directory.
func writeAtomic(path, text string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), info.Mode().Perm()); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
