package bundles

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 250 * time.Millisecond

// Watch calls onChange whenever the backing file is created, written,
// renamed over or removed, coalescing bursts of events. The parent directory
// is watched rather than the file itself because writes replace the file.
// Watch blocks until ctx is done.
func (s *Store) Watch(ctx context.Context, log *slog.Logger, onChange func()) error {
	if log == nil {
		log = slog.Default()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("bundles: watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	if err := w.Add(filepath.Dir(s.filePath)); err != nil {
		return fmt.Errorf("bundles: watch %s: %w", filepath.Dir(s.filePath), err)
	}

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != s.filePath {
				continue
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
				continue
			}

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, onChange)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("bundle store watcher error", slog.String("path", s.filePath), slog.Any("error", err))
		}
	}
}
