// Package watcher triggers analyses when files under a workspace are saved.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/scanio-ide/internal/editor"
)

// Handler receives the path of a saved document once its writes settle.
type Handler func(ctx context.Context, path string)

var ignoredDirs = map[string]struct{}{
	".git":         {},
	"node_modules": {},
}

// Watcher debounces save events below a root folder.
type Watcher struct {
	root     string
	debounce time.Duration
	handler  Handler
	logger   hclog.Logger
	fsw      *fsnotify.Watcher
}

// New creates a watcher on every non-hidden folder below root.
func New(root string, debounce time.Duration, handler Handler, logger hclog.Logger) (*Watcher, error) {
	if handler == nil {
		return nil, errors.New("watcher handler is not set")
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", root, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		root:     absRoot,
		debounce: debounce,
		handler:  handler,
		logger:   logger,
		fsw:      fsw,
	}
	if err := w.addRecursive(absRoot); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Root returns the watched folder.
func (w *Watcher) Root() string {
	return w.root
}

// Run delivers settled saves to the handler until ctx is cancelled. Handlers
// run concurrently; Run waits for them before returning.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	var (
		wg      sync.WaitGroup
		pending = map[string]struct{}{}
		timer   *time.Timer
		timerC  <-chan time.Time
	)
	defer wg.Wait()

	flush := func() {
		for path := range pending {
			wg.Add(1)
			go func(path string) {
				defer wg.Done()
				w.handler(ctx, path)
			}(path)
		}
		pending = map[string]struct{}{}
		timer, timerC = nil, nil
	}

	w.logger.Info("watching for saved documents", "root", w.root)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			path, ok := w.accept(ev)
			if !ok {
				continue
			}
			pending[path] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-timerC:
			flush()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

// accept filters events down to writes of analyzable documents. New folders
// are added to the watch list as they appear.
func (w *Watcher) accept(ev fsnotify.Event) (string, bool) {
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if !skipDir(ev.Name) {
				if err := w.addRecursive(ev.Name); err != nil {
					w.logger.Debug("failed to watch new folder", "path", ev.Name, "error", err)
				}
			}
			return "", false
		}
	}
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return "", false
	}
	if !editor.IsValidDocument(ev.Name) {
		return "", false
	}
	return filepath.Clean(ev.Name), true
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skipDir(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %q: %w", path, err)
		}
		return nil
	})
}

func skipDir(path string) bool {
	base := filepath.Base(path)
	if _, ok := ignoredDirs[base]; ok {
		return true
	}
	return strings.HasPrefix(base, ".")
}
