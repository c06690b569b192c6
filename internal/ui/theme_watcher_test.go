package ui

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThemeWatcher_SkipsUnchangedPalette(t *testing.T) {
	tw := newThemeWatcher(ThemeDark)
	tw.offer(ThemeDark)

	select {
	case th := <-tw.Themes():
		t.Fatalf("unexpected switch to %s", th)
	default:
	}

	tw.offer(ThemeLight)
	assert.Equal(t, ThemeLight, <-tw.Themes())
}

func TestThemeWatcher_KeepsNewestPendingSwitch(t *testing.T) {
	tw := newThemeWatcher(ThemeDark)
	tw.offer(ThemeLight)
	tw.offer(ThemeDark)

	// The light switch was never read, so only the dark one is left
	select {
	case th := <-tw.Themes():
		assert.Equal(t, ThemeDark, th)
	default:
		t.Fatal("expected a pending switch")
	}
	select {
	case th := <-tw.Themes():
		t.Fatalf("unexpected second switch to %s", th)
	default:
	}
}

func TestThemeWatcher_FollowsEvents(t *testing.T) {
	tw := newThemeWatcher(ThemeDark)
	events := make(chan bool)
	errs := make(chan error, 1)
	done := make(chan struct{})
	go func() {
		tw.follow(context.Background(), events, errs)
		close(done)
	}()

	errs <- errors.New("appearance query failed")
	events <- true
	events <- false

	select {
	case th := <-tw.Themes():
		assert.Equal(t, ThemeLight, th)
	case <-time.After(time.Second):
		t.Fatal("no palette switch delivered")
	}

	tw.Close()
	tw.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop after Close")
	}
}

func TestThemeWatcher_StopsWhenEventsClose(t *testing.T) {
	tw := newThemeWatcher(ThemeLight)
	events := make(chan bool)
	close(events)

	done := make(chan struct{})
	go func() {
		tw.follow(context.Background(), events, nil)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail(t, "watcher kept running after the event stream closed")
	}
}

func TestPicker_AppliesThemeSwitch(t *testing.T) {
	InitTheme(string(ThemeDark))
	t.Cleanup(func() { InitTheme(string(ThemeDark)) })

	p := newTestPicker(t, newFakeSource())
	_, _ = p.Update(themeMsg(ThemeLight))
	assert.Equal(t, ThemeLight, GetCurrentTheme())
}
