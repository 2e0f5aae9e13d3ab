package preset

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const reloadDebounce = 200 * time.Millisecond

// Watcher reloads a Catalog whenever its presets file changes on disk.
type Watcher struct {
	path    string
	catalog *Catalog
	logger  *zap.Logger
	watcher *fsnotify.Watcher
}

func NewWatcher(path string, catalog *Catalog, logger *zap.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve presets path: %w", err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	// Editors often replace the file instead of writing it, so watch the
	// directory and filter by name.
	if err := fsWatcher.Add(filepath.Dir(abs)); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		path:    abs,
		catalog: catalog,
		logger:  logger,
		watcher: fsWatcher,
	}, nil
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	var debounce *time.Timer
	reload := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})

		case <-reload:
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Presets watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	presets, err := LoadFile(w.path)
	if err != nil {
		w.logger.Warn("Keeping previous presets", zap.String("path", w.path), zap.Error(err))
		return
	}

	if err := w.catalog.Replace(presets); err != nil {
		w.logger.Warn("Keeping previous presets", zap.String("path", w.path), zap.Error(err))
		return
	}

	w.logger.Info("Presets reloaded", zap.String("path", w.path), zap.Int("count", len(presets)))
}
