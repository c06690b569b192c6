package ui

import (
	"context"
	"log/slog"
	"sync"

	dark "github.com/thiagokokada/dark-mode-go"

	"github.com/appdock/appdock/internal/logging"
)

var uiLog = logging.ForComponent(logging.CompUI)

// ThemeWatcher turns OS appearance changes into picker palette switches
// while the configured theme is "system". Only changes away from the palette
// already in use are delivered, and a pending switch is replaced by a newer
// one so the picker never repaints with a stale palette.
type ThemeWatcher struct {
	themes chan Theme
	stop   chan struct{}
	once   sync.Once

	last Theme // owned by follow
}

// NewThemeWatcher starts following the OS appearance from the palette
// currently active. Returns nil if the setting cannot be watched; the picker
// then keeps its starting palette.
func NewThemeWatcher(ctx context.Context) *ThemeWatcher {
	ctx, cancel := context.WithCancel(ctx)
	events, errs, err := dark.WatchDarkMode(ctx)
	if err != nil {
		cancel()
		uiLog.Warn("theme_watch_unavailable", slog.String("error", err.Error()))
		return nil
	}
	tw := newThemeWatcher(GetCurrentTheme())
	go func() {
		defer cancel()
		tw.follow(ctx, events, errs)
	}()
	return tw
}

func newThemeWatcher(start Theme) *ThemeWatcher {
	return &ThemeWatcher{
		themes: make(chan Theme, 1),
		stop:   make(chan struct{}),
		last:   start,
	}
}

// follow runs until ctx ends, Close is called or the event stream closes
func (tw *ThemeWatcher) follow(ctx context.Context, events <-chan bool, errs <-chan error) {
	for {
		select {
		case <-tw.stop:
			return
		case <-ctx.Done():
			return
		case isDark, ok := <-events:
			if !ok {
				return
			}
			tw.offer(themeFor(isDark))
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				uiLog.Warn("theme_watch_error", slog.String("error", err.Error()))
			}
		}
	}
}

// offer queues next unless it matches the last palette handed out. A queued
// palette the picker has not picked up yet is swapped for next.
func (tw *ThemeWatcher) offer(next Theme) {
	if next == tw.last {
		return
	}
	tw.last = next
	select {
	case <-tw.themes:
	default:
	}
	tw.themes <- next
}

func themeFor(isDark bool) Theme {
	if isDark {
		return ThemeDark
	}
	return ThemeLight
}

// Themes delivers palette switches.
func (tw *ThemeWatcher) Themes() <-chan Theme {
	return tw.themes
}

// Close stops the watcher. Safe to call more than once.
func (tw *ThemeWatcher) Close() {
	tw.once.Do(func() { close(tw.stop) })
}
