package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports debounced changes to one config file.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
}

// NewWatcher watches the directory holding path; editors often replace files
// by rename, which a direct file watch would lose.
func NewWatcher(path string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(absPath)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch config directory %s: %w", filepath.Dir(absPath), err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{path: absPath, debounce: debounce, logger: logger, watcher: w}, nil
}

// Run invokes onChange once per burst of writes until ctx is done.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	defer func() { _ = w.watcher.Close() }()

	name := filepath.Base(w.path)
	envName := filepath.Base(EnvFilePath(w.path))

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			base := filepath.Base(event.Name)
			if base != name && base != envName {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug("config change detected", "file", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", "error", err.Error())
		case <-timerC:
			timerC = nil
			onChange()
		}
	}
}
