package rates

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileWatcher polls file modification times and triggers a callback on change.
// Patterns are re-expanded with filepath.Glob on every scan, so files that
// appear or disappear count as changes too.
type FileWatcher struct {
	Patterns  []string
	Interval  time.Duration
	onChange  func(string) // called with path that changed
	stopCh    chan struct{}
	stopOnce  sync.Once
	lastMTime map[string]time.Time
}

// NewFileWatcher creates a watcher for given path patterns and interval.
func NewFileWatcher(patterns []string, interval time.Duration, onChange func(string)) *FileWatcher {
	return &FileWatcher{
		Patterns:  patterns,
		Interval:  interval,
		onChange:  onChange,
		stopCh:    make(chan struct{}),
		lastMTime: make(map[string]time.Time),
	}
}

// WatchLoader returns a started watcher that invalidates l whenever a rates
// file changes. onReload, when set, runs after each invalidation.
func WatchLoader(l *Loader, interval time.Duration, logger *slog.Logger, onReload func()) *FileWatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	p := l.Paths()
	w := NewFileWatcher([]string{p.DefaultPath(), p.BoxGlob()}, interval, func(path string) {
		logger.Info("rates file changed, reloading", "path", path)
		l.Invalidate()
		if onReload != nil {
			onReload()
		}
	})
	w.Start()
	return w
}

// Start begins polling in a goroutine.
func (w *FileWatcher) Start() {
	// prime cache before returning so early edits are not missed
	w.scanAll(true)
	ticker := time.NewTicker(w.Interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.scanAll(false)
			case <-w.stopCh:
				return
			}
		}
	}()
}

// Stop terminates the watcher. Safe to call more than once.
func (w *FileWatcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

// scanAll checks mtimes and invokes onChange for files that changed since last scan.
func (w *FileWatcher) scanAll(prime bool) {
	present := make(map[string]bool)
	for _, pattern := range w.Patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			continue
		}
		for _, p := range matches {
			fi, err := os.Stat(p)
			if err != nil {
				continue
			}
			present[p] = true
			mt := fi.ModTime()
			last, ok := w.lastMTime[p]
			w.lastMTime[p] = mt
			if prime {
				continue
			}
			if !ok || !mt.Equal(last) {
				w.fire(p)
			}
		}
	}
	for p := range w.lastMTime {
		if !present[p] {
			delete(w.lastMTime, p)
			if !prime {
				w.fire(p)
			}
		}
	}
}

func (w *FileWatcher) fire(p string) {
	if w.onChange != nil {
		w.onChange(p)
	}
}
