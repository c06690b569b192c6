package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/appdock/appdock/internal/catalog"
	"github.com/appdock/appdock/internal/logging"
	"github.com/appdock/appdock/internal/platform"
)

var watchLog = logging.ForComponent(logging.CompWatch)

// DefaultDebounce is the quiet period after the last change event before a
// rescan is triggered.
const DefaultDebounce = time.Second

// relevantOps are the events that can add, remove or replace a bundle.
const relevantOps = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename

// Watcher collapses bursts of filesystem events on the install roots into a
// single onChange call. Delivery is at-least-once: one install may produce
// more than one call, and calls are not ordered against scans in flight.
type Watcher struct {
	roots    []string
	debounce time.Duration
	onChange func()
	fsw      *fsnotify.Watcher
	cancel   context.CancelFunc

	mu       sync.Mutex
	timer    *time.Timer
	stopped  bool
	warnings []string

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewWatcher creates a watcher over roots. Call Start to begin delivery.
func NewWatcher(roots []string, debounce time.Duration, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		roots:    roots,
		debounce: debounce,
		onChange: onChange,
		fsw:      fsw,
		done:     make(chan struct{}),
	}, nil
}

// Start adds every existing root and begins the event loop. It returns the
// number of roots being watched; missing roots are skipped.
func (w *Watcher) Start() int {
	watched := 0
	for _, root := range w.roots {
		if _, err := os.Stat(root); err != nil {
			continue
		}
		if err := w.fsw.Add(root); err != nil {
			watchLog.Warn("watch_add_failed", slog.String("root", root), slog.String("error", err.Error()))
			continue
		}
		if warn := platform.CheckFsnotifySupport(root); warn != "" {
			w.mu.Lock()
			w.warnings = append(w.warnings, warn)
			w.mu.Unlock()
		}
		watched++
	}

	w.wg.Add(1)
	go w.loop()

	watchLog.Info("watch_started", slog.Int("roots", watched), slog.Duration("debounce", w.debounce))
	return watched
}

// Warnings lists roots on filesystems where events may be missed.
func (w *Watcher) Warnings() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.warnings...)
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&relevantOps == 0 {
				continue
			}
			watchLog.Debug("watch_event", slog.String("path", event.Name), slog.String("op", event.Op.String()))
			w.trigger()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			watchLog.Warn("watch_error", slog.String("error", err.Error()))
		}
	}
}

// trigger (re)arms the debounce timer.
func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.timer = nil
	w.mu.Unlock()

	logging.Aggregate(logging.CompWatch, "rescan_triggered")
	w.onChange()
}

// Stop cancels any pending trigger and releases the watches. Safe to call
// more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		w.mu.Lock()
		w.stopped = true
		if w.timer != nil {
			w.timer.Stop()
			w.timer = nil
		}
		w.mu.Unlock()

		if w.cancel != nil {
			w.cancel()
		}
		close(w.done)
		err = w.fsw.Close()
		w.wg.Wait()
		watchLog.Info("watch_stopped")
	})
	return err
}

// Watch rescans after every debounced change to the scanner's roots and
// hands the fresh set to onApps. Scans still running when Stop is called
// are cancelled and their results dropped.
func (s *Scanner) Watch(debounce time.Duration, onApps func([]catalog.AppRecord)) (*Watcher, error) {
	ctx, cancel := context.WithCancel(context.Background())
	w, err := NewWatcher(s.Roots, debounce, func() {
		apps, err := s.Scan(ctx)
		if err != nil {
			watchLog.Debug("rescan_cancelled", slog.String("error", err.Error()))
			return
		}
		onApps(apps)
	})
	if err != nil {
		cancel()
		return nil, err
	}
	w.cancel = cancel
	w.Start()
	return w, nil
}
