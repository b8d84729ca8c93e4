package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last event before changed files are checked.
const DefaultDebounce = 250 * time.Millisecond

// Watch checks the source files changed under root until ctx is cancelled. Changed files are
// re-indexed first so cross-file lookups see their new declarations; onChange receives the
// results of every debounced batch.
func (r *Runner) Watch(ctx context.Context, root string, debounce time.Duration, onChange func([]FileResult)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	root, err = filepath.Abs(root)
	if err != nil {
		return err
	}
	if err := r.addWatchRecursive(watcher, root); err != nil {
		return err
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	pending := map[string]bool{}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			path := filepath.Clean(event.Name)
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(path); err == nil && info.IsDir() {
					_ = r.addWatchRecursive(watcher, path)
					continue
				}
			}
			if !r.crawler.Matches(path) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			pending[path] = true
			timer.Reset(debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for path := range pending {
				changed = append(changed, path)
			}
			sort.Strings(changed)
			pending = map[string]bool{}

			results, err := r.recheck(ctx, changed)
			if err != nil {
				return err
			}
			onChange(results)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return watchErr
		}
	}
}

// recheck refreshes the index entries of changed files and checks those still present.
func (r *Runner) recheck(ctx context.Context, changed []string) ([]FileResult, error) {
	var present []string
	for _, path := range changed {
		err := r.indexer.Refresh(r.index, path)
		switch {
		case err == nil:
			present = append(present, path)
		case errors.Is(err, fs.ErrNotExist):
			log.Debugf("%s removed", path)
		default:
			log.Warningf("failed to re-index %s: %s", path, err)
			present = append(present, path)
		}
	}
	return r.Check(ctx, present)
}

func (r *Runner) addWatchRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !entry.IsDir() {
			return nil
		}
		if path != root && r.crawler.Ignored(entry.Name()) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
