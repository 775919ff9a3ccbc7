package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Handler processes one settled dump
type Handler func(ctx context.Context, path string) error

// Watcher runs a handler on every dump dropped into an inbox directory once
// the file has stopped changing for the debounce window
type Watcher struct {
	dir      string
	debounce time.Duration
	handle   Handler
	pending  map[string]time.Time
	tick     time.Duration
}

// New creates a watcher on dir
func New(dir string, debounce time.Duration, handle Handler) *Watcher {
	tick := debounce / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		handle:   handle,
		pending:  make(map[string]time.Time),
		tick:     tick,
	}
}

// Run blocks until ctx is cancelled. Handler errors are logged and do not
// stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create inbox: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()
	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	log.Info().Str("inbox", w.dir).Dur("debounce", w.debounce).Msg("Watching for dumps")

	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !isDump(event) {
				continue
			}
			w.pending[event.Name] = time.Now()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("Watcher error")

		case now := <-ticker.C:
			w.flush(ctx, now)
		}
	}
}

// flush hands settled dumps to the handler
func (w *Watcher) flush(ctx context.Context, now time.Time) {
	for path, last := range w.pending {
		if now.Sub(last) < w.debounce {
			continue
		}
		delete(w.pending, path)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		log.Info().Str("dump", path).Msg("Processing dropped dump")
		if err := w.handle(ctx, path); err != nil {
			log.Error().Err(err).Str("dump", path).Msg("Failed to process dump")
		}
	}
}

func isDump(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	name := filepath.Base(event.Name)
	return strings.HasSuffix(name, ".log") && !strings.HasPrefix(name, ".")
}
