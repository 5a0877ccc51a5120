// Package filesystem implements a Connector over a local directory tree.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/rag4u/ingest/internal/core/domain"
	"github.com/rag4u/ingest/internal/core/ports/driven"
	"github.com/rag4u/ingest/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Type is the connector type identifier.
const Type = "filesystem"

// eventBuffer bounds undelivered watch events.
const eventBuffer = 64

// Connector scans a directory recursively and watches its top level.
// Hidden files and directories are skipped.
type Connector struct {
	rootPath string

	mu       sync.Mutex
	watchers []*fsnotify.Watcher
	closed   bool
}

// New creates a filesystem connector rooted at rootPath.
func New(rootPath string) *Connector {
	return &Connector{rootPath: rootPath}
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return Type
}

// Root returns the directory being read.
func (c *Connector) Root() string {
	return c.rootPath
}

// Validate checks that the root exists and is a directory.
func (c *Connector) Validate(_ context.Context) error {
	info, err := os.Stat(c.rootPath)
	if err != nil {
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: root path %s is not a directory", domain.ErrInvalidInput, c.rootPath)
	}
	return nil
}

// Scan walks the tree in lexical order and streams regular file paths.
// Unreadable subdirectories are logged and skipped.
func (c *Connector) Scan(ctx context.Context) (<-chan string, <-chan error) {
	paths := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(paths)
		defer close(errs)

		if err := c.Validate(ctx); err != nil {
			errs <- err
			return
		}

		err := filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == c.rootPath {
					return err
				}
				logger.Warn("Skipping %s: %v", path, err)
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if path != c.rootPath && isHidden(d.Name()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}

			select {
			case paths <- path:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			errs <- fmt.Errorf("scanning %s: %w", c.rootPath, err)
		}
	}()

	return paths, errs
}

// Watch reports changes to files directly inside the root.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.FileChange, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, driven.ErrConnectorClosed
	}
	c.mu.Unlock()

	if err := c.Validate(ctx); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(c.rootPath); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", c.rootPath, err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		watcher.Close()
		return nil, driven.ErrConnectorClosed
	}
	c.watchers = append(c.watchers, watcher)
	c.mu.Unlock()

	changes := make(chan domain.FileChange, eventBuffer)
	go func() {
		defer close(changes)
		defer c.release(watcher)

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				change := c.handleFsEvent(event)
				if change == nil {
					continue
				}
				select {
				case changes <- *change:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Watcher error on %s: %v", c.rootPath, err)
			}
		}
	}()

	return changes, nil
}

// release closes and forgets one watcher.
func (c *Connector) release(w *fsnotify.Watcher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, x := range c.watchers {
		if x == w {
			c.watchers = append(c.watchers[:i], c.watchers[i+1:]...)
			break
		}
	}
	w.Close()
}

// handleFsEvent maps an fsnotify event onto a change, or nil when the
// event is irrelevant (chmod, directories, hidden files).
func (c *Connector) handleFsEvent(event fsnotify.Event) *domain.FileChange {
	if isHidden(filepath.Base(event.Name)) {
		return nil
	}

	switch {
	case event.Has(fsnotify.Create):
		info, err := os.Stat(event.Name)
		if err != nil || info.IsDir() {
			return nil
		}
		return &domain.FileChange{Path: event.Name, Type: domain.ChangeCreated}
	case event.Has(fsnotify.Write):
		return &domain.FileChange{Path: event.Name, Type: domain.ChangeUpdated}
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return &domain.FileChange{Path: event.Name, Type: domain.ChangeDeleted}
	}
	return nil
}

// Close stops all active watches. Idempotent.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	for _, w := range c.watchers {
		w.Close()
	}
	c.watchers = nil
	return nil
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if len(part) > 1 && part[0] == '.' && part != ".." {
			return true
		}
	}
	return false
}
