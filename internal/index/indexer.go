package index

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"docsync/internal/crawler"
	"docsync/internal/document"
	"docsync/internal/extractor"
)

// Entry is one indexed class-like declaration.
type Entry struct {
	// ID changes whenever the declared surface of the class changes.
	ID   string       `json:"id"`
	FQN  string       `json:"fqn"`
	Kind string       `json:"kind"`
	URI  document.URI `json:"uri"`
	Line int          `json:"line"`
}

// Index maps class names to the documents declaring them. It is safe for concurrent use.
type Index struct {
	mu sync.RWMutex
	// byFQN is keyed by the lower-cased fully qualified name.
	byFQN map[string]Entry
	// byShort is keyed by the lower-cased short name; ambiguous names hold several entries.
	byShort map[string][]Entry
}

func New() *Index {
	return &Index{
		byFQN:   make(map[string]Entry),
		byShort: make(map[string][]Entry),
	}
}

// Indexer orchestrates codebase indexing.
type Indexer struct {
	crawler   *crawler.Crawler
	extractor *extractor.Extractor
}

// NewIndexer creates a new indexer.
func NewIndexer(c *crawler.Crawler, ext *extractor.Extractor) *Indexer {
	return &Indexer{
		crawler:   c,
		extractor: ext,
	}
}

// Build scans the project root and indexes every class-like declaration.
func (i *Indexer) Build(root string) (*Index, error) {
	idx := New()
	err := i.crawler.ScanProject(root, func(unit *extractor.CodeUnit) {
		idx.add(unit)
	})
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	return idx, nil
}

// Refresh re-indexes one file, dropping the entries it no longer declares. A file that cannot
// be read is removed from the index.
func (i *Indexer) Refresh(idx *Index, path string) error {
	uri := document.FileURI(path)
	idx.remove(uri)

	units, err := i.extractor.ExtractFromFile(path)
	if err != nil {
		return err
	}
	for _, unit := range units {
		idx.add(unit)
	}
	return nil
}

func (idx *Index) add(unit *extractor.CodeUnit) {
	entry := Entry{
		ID:   unit.ID,
		FQN:  unit.FQN(),
		Kind: unit.UnitType,
		URI:  document.FileURI(unit.Filepath),
		Line: unit.StartLine,
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.byFQN[strings.ToLower(entry.FQN)] = entry
	short := strings.ToLower(unit.Name)
	idx.byShort[short] = append(idx.byShort[short], entry)
}

func (idx *Index) remove(uri document.URI) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for key, entry := range idx.byFQN {
		if entry.URI == uri {
			delete(idx.byFQN, key)
		}
	}
	for key, entries := range idx.byShort {
		kept := entries[:0]
		for _, entry := range entries {
			if entry.URI != uri {
				kept = append(kept, entry)
			}
		}
		if len(kept) == 0 {
			delete(idx.byShort, key)
			continue
		}
		idx.byShort[key] = kept
	}
}

// LocateClass resolves a fully qualified name, or a short name declared exactly once.
func (idx *Index) LocateClass(ctx context.Context, name string) (document.URI, bool) {
	name = strings.ToLower(strings.TrimPrefix(name, `\`))

	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if entry, ok := idx.byFQN[name]; ok {
		return entry.URI, true
	}
	if strings.Contains(name, `\`) {
		return "", false
	}
	if entries := idx.byShort[name]; len(entries) == 1 {
		return entries[0].URI, true
	}
	return "", false
}

// Entries returns every indexed declaration sorted by name.
func (idx *Index) Entries() []Entry {
	idx.mu.RLock()
	out := make([]Entry, 0, len(idx.byFQN))
	for _, entry := range idx.byFQN {
		out = append(out, entry)
	}
	idx.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].FQN < out[j].FQN
	})
	return out
}

// Len returns the number of indexed declarations.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.byFQN)
}
