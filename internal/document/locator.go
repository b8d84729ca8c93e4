package document

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
)

// ErrNotFound is returned by a Locator when a URI cannot be resolved.
var ErrNotFound = errors.New("document not found")

// Locator resolves a document identity to its current text.
type Locator interface {
	Get(ctx context.Context, uri URI) (Document, error)
}

// MemoryLocator serves documents held in memory, typically unsaved editor buffers.
type MemoryLocator struct {
	mu   sync.RWMutex
	docs map[URI]Document
}

func NewMemoryLocator(docs ...Document) *MemoryLocator {
	l := &MemoryLocator{docs: make(map[URI]Document, len(docs))}
	for _, doc := range docs {
		l.docs[doc.URI()] = doc
	}
	return l
}

// Add registers or replaces a document.
func (l *MemoryLocator) Add(doc Document) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.docs[doc.URI()] = doc
}

func (l *MemoryLocator) Get(ctx context.Context, uri URI) (Document, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	doc, ok := l.docs[uri]
	if !ok {
		return Document{}, fmt.Errorf("%w: %s", ErrNotFound, uri)
	}
	return doc, nil
}

// FileLocator reads file:// URIs from disk.
type FileLocator struct{}

func NewFileLocator() *FileLocator {
	return &FileLocator{}
}

func (l *FileLocator) Get(ctx context.Context, uri URI) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	if !uri.IsFile() {
		return Document{}, fmt.Errorf("%w: %s is not a file uri", ErrNotFound, uri)
	}
	content, err := os.ReadFile(uri.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Document{}, fmt.Errorf("%w: %s", ErrNotFound, uri)
		}
		return Document{}, fmt.Errorf("failed to read %s: %w", uri.Path(), err)
	}
	return New(uri, string(content)), nil
}

// ChainLocator asks each locator in turn, moving on only when a locator reports ErrNotFound.
type ChainLocator []Locator

func (c ChainLocator) Get(ctx context.Context, uri URI) (Document, error) {
	for _, l := range c {
		doc, err := l.Get(ctx, uri)
		if err == nil {
			return doc, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Document{}, err
		}
	}
	return Document{}, fmt.Errorf("%w: %s", ErrNotFound, uri)
}
