// Package watch reports voicemail greetings as they land in a directory.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultSettle is how long a file must go without writes before it is
// considered complete.
const DefaultSettle = 500 * time.Millisecond

// Watcher monitors one directory for new or rewritten WAV and FLAC files.
type Watcher struct {
	dir    string
	settle time.Duration
	log    zerolog.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithSettle sets how long a file must be quiet before it is handed over.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(log zerolog.Logger) Option {
	return func(w *Watcher) {
		w.log = log
	}
}

// New creates a watcher for dir. Nothing is watched until Run is called.
func New(dir string, opts ...Option) *Watcher {
	w := &Watcher{
		dir:    dir,
		settle: DefaultSettle,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// IsAudioFile reports whether path has a WAV or FLAC extension.
func IsAudioFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".flac":
		return true
	}
	return false
}

// Run watches the directory until ctx is done, calling handle once per
// settled audio file. handle runs on the watcher goroutine; a slow handler
// delays later files but never loses them. Run returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context, handle func(path string)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch: add %q: %w", w.dir, err)
	}
	w.log.Info().Str("dir", w.dir).Dur("settle", w.settle).Msg("watching for greetings")

	ticker := time.NewTicker(max(w.settle/2, time.Millisecond))
	defer ticker.Stop()

	pending := make(map[string]time.Time)
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !IsAudioFile(ev.Name) {
				continue
			}
			switch {
			case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
				pending[ev.Name] = time.Now()
			case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
				delete(pending, ev.Name)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Str("dir", w.dir).Msg("watch error")

		case now := <-ticker.C:
			for _, path := range settled(pending, now, w.settle) {
				delete(pending, path)
				w.log.Debug().Str("file", path).Msg("file settled")
				handle(path)
			}
		}
	}
}

// settled returns the pending files whose last write is at least settle ago,
// in name order.
func settled(pending map[string]time.Time, now time.Time, settle time.Duration) []string {
	var ready []string
	for path, last := range pending {
		if now.Sub(last) >= settle {
			ready = append(ready, path)
		}
	}
	sort.Strings(ready)
	return ready
}
