package launcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appdock/appdock/internal/catalog"
	"github.com/appdock/appdock/internal/state"
	"github.com/appdock/appdock/internal/statedb"
)

type scanFunc func(ctx context.Context) ([]catalog.AppRecord, error)

func (f scanFunc) Scan(ctx context.Context) ([]catalog.AppRecord, error) { return f(ctx) }

type fakeWorkspace struct {
	mu      sync.Mutex
	opened  []string
	trashed []string
	running map[string]bool
	fail    error
}

func (w *fakeWorkspace) Open(_ context.Context, path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail != nil {
		return w.fail
	}
	w.opened = append(w.opened, path)
	return nil
}

func (w *fakeWorkspace) Trash(_ context.Context, path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail != nil {
		return w.fail
	}
	w.trashed = append(w.trashed, path)
	return nil
}

func (w *fakeWorkspace) IsRunning(_ context.Context, id string) bool {
	return w.running[id]
}

var fixedNow = time.Date(2026, 5, 6, 9, 15, 0, 0, time.Local)

func app(id, name, storeType string) catalog.AppRecord {
	return catalog.AppRecord{
		ID:            id,
		Name:          name,
		Path:          "/Applications/" + name + ".app",
		StoreCategory: storeType,
		Category:      catalog.Other,
	}
}

func testPool() []catalog.AppRecord {
	return []catalog.AppRecord{
		app("com.example.chess", "Chess Master", "public.app-category.games"),
		app("com.example.ide", "Code Studio", "public.app-category.developer-tools"),
		app("com.example.notes", "Notes Plus", "public.app-category.productivity"),
	}
}

type harness struct {
	svc *Service
	db  *statedb.StateDB
	ws  *fakeWorkspace
}

func newHarness(t *testing.T, sc Scanner) *harness {
	t.Helper()
	db, err := statedb.Open(filepath.Join(t.TempDir(), statedb.FileName))
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })

	ws := &fakeWorkspace{running: map[string]bool{}}
	svc := New(Config{
		Scanner: sc,
		Tracker: state.NewTracker(db, 0),
		DB:      db,
		Opener:  ws,
		Trasher: ws,
		SelfID:  "com.example.self",
	})
	svc.now = func() time.Time { return fixedNow }
	return &harness{svc: svc, db: db, ws: ws}
}

func staticScanner(pool []catalog.AppRecord) Scanner {
	return scanFunc(func(context.Context) ([]catalog.AppRecord, error) {
		return append([]catalog.AppRecord(nil), pool...), nil
	})
}

func TestRefreshClassifiesAndAnnotates(t *testing.T) {
	h := newHarness(t, staticScanner(testPool()))

	snap, err := h.svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.Generation)
	assert.Equal(t, fixedNow, snap.ScannedAt)
	assert.Empty(t, snap.Warnings)
	require.Len(t, snap.Apps, 3)
	assert.Equal(t, catalog.Games, snap.Apps[0].Category)
	assert.Equal(t, catalog.DeveloperTools, snap.Apps[1].Category)
	assert.Equal(t, catalog.Productivity, snap.Apps[2].Category)
	for _, r := range snap.Apps {
		assert.False(t, r.IsNew, "first scan is the baseline")
	}
	assert.Equal(t, snap, h.svc.Snapshot())
}

func TestRefreshMarksNewAppsAfterBaseline(t *testing.T) {
	pool := testPool()
	var mu sync.Mutex
	h := newHarness(t, scanFunc(func(context.Context) ([]catalog.AppRecord, error) {
		mu.Lock()
		defer mu.Unlock()
		return append([]catalog.AppRecord(nil), pool...), nil
	}))
	_, err := h.svc.Refresh(context.Background())
	require.NoError(t, err)

	mu.Lock()
	pool = append(pool, app("com.example.fresh", "Fresh", ""))
	mu.Unlock()

	snap, err := h.svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), snap.Generation)
	r, err := h.svc.Lookup("com.example.fresh")
	require.NoError(t, err)
	assert.True(t, r.IsNew)
}

func TestRefreshScanError(t *testing.T) {
	h := newHarness(t, scanFunc(func(ctx context.Context) ([]catalog.AppRecord, error) {
		return nil, ctx.Err()
	}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.svc.Refresh(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, h.svc.Snapshot().Generation)
}

func TestRefreshDiscardsStaleScan(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	calls := 0

	h := newHarness(t, scanFunc(func(context.Context) ([]catalog.AppRecord, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(started)
			<-release
			return []catalog.AppRecord{app("com.example.old", "Old", "")}, nil
		}
		return []catalog.AppRecord{app("com.example.new", "New", "")}, nil
	}))

	type result struct {
		snap Snapshot
		err  error
	}
	slow := make(chan result, 1)
	go func() {
		snap, err := h.svc.Refresh(context.Background())
		slow <- result{snap, err}
	}()
	<-started

	h.svc.forceRefresh(context.Background())
	assert.Equal(t, uint64(2), h.svc.Snapshot().Generation)

	close(release)
	res := <-slow
	require.NoError(t, res.err)
	assert.Equal(t, uint64(2), res.snap.Generation, "older scan returns the newer snapshot")

	snap := h.svc.Snapshot()
	require.Len(t, snap.Apps, 1)
	assert.Equal(t, "com.example.new", snap.Apps[0].ID)
}

func TestRefreshCoalescesConcurrentCallers(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	calls := 0
	h := newHarness(t, scanFunc(func(context.Context) ([]catalog.AppRecord, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		<-release
		return testPool(), nil
	}))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.svc.Refresh(context.Background())
			assert.NoError(t, err)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Less(t, calls, 5)
	assert.Equal(t, uint64(calls), h.svc.Snapshot().Generation)
}

func TestRefreshSurfacesPersistWarning(t *testing.T) {
	h := newHarness(t, staticScanner(testPool()))
	_, err := h.db.DB().Exec("DROP TABLE preferences")
	require.NoError(t, err)

	snap, err := h.svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Apps, 3)
	assert.NotEmpty(t, snap.Warnings)
}

func TestOnChangeCalledPerAppliedSnapshot(t *testing.T) {
	h := newHarness(t, staticScanner(testPool()))
	var got []uint64
	h.svc.cfg.OnChange = func(s Snapshot) { got = append(got, s.Generation) }

	for i := 0; i < 2; i++ {
		_, err := h.svc.Refresh(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, []uint64{1, 2}, got)
}

func TestSearchAndHidden(t *testing.T) {
	h := newHarness(t, staticScanner(testPool()))
	_, err := h.svc.Refresh(context.Background())
	require.NoError(t, err)

	results := h.svc.Search("code", "")
	require.NotEmpty(t, results)
	assert.Equal(t, "com.example.ide", results[0].Record.ID)

	assert.Empty(t, h.svc.Search("code", catalog.Games), "category restricts the pool")
	assert.Nil(t, h.svc.Search("", ""))

	require.NoError(t, h.svc.SetHidden("com.example.ide", true))
	assert.Empty(t, h.svc.Search("code", ""))
	assert.Len(t, h.svc.Visible(""), 2)

	// Hidden state is reloaded on refresh
	_, err = h.svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, h.svc.Visible(""), 2)

	require.NoError(t, h.svc.SetHidden("com.example.ide", false))
	assert.Len(t, h.svc.Visible(""), 3)
}

func TestGroups(t *testing.T) {
	pool := append(testPool(), app("com.example.arcade", "Arcade", "public.app-category.arcade-games"))
	h := newHarness(t, staticScanner(pool))
	_, err := h.svc.Refresh(context.Background())
	require.NoError(t, err)

	groups := h.svc.Groups()
	require.Len(t, groups, 3)
	assert.Equal(t, catalog.DeveloperTools, groups[0].Category)
	assert.Equal(t, catalog.Productivity, groups[1].Category)
	assert.Equal(t, catalog.Games, groups[2].Category)
	require.Len(t, groups[2].Apps, 2)
	assert.Equal(t, "Arcade", groups[2].Apps[0].Name)
}

func TestSetCategory(t *testing.T) {
	h := newHarness(t, staticScanner(testPool()))
	_, err := h.svc.Refresh(context.Background())
	require.NoError(t, err)
	before := h.svc.Snapshot()

	require.NoError(t, h.svc.SetCategory("com.example.chess", catalog.Education))
	r, err := h.svc.Lookup("com.example.chess")
	require.NoError(t, err)
	assert.Equal(t, catalog.Education, r.Category)
	assert.Equal(t, catalog.Games, before.Apps[0].Category, "earlier snapshots are unchanged")

	_, err = h.svc.Refresh(context.Background())
	require.NoError(t, err)
	r, _ = h.svc.Lookup("com.example.chess")
	assert.Equal(t, catalog.Education, r.Category, "override survives rescans")

	require.NoError(t, h.svc.SetCategory("com.example.chess", ""))
	_, err = h.svc.Refresh(context.Background())
	require.NoError(t, err)
	r, _ = h.svc.Lookup("com.example.chess")
	assert.Equal(t, catalog.Games, r.Category)

	assert.ErrorIs(t, h.svc.SetCategory("com.example.chess", "Bogus"), catalog.ErrUnknownCategory)
}

func TestLaunch(t *testing.T) {
	pool := testPool()
	var mu sync.Mutex
	h := newHarness(t, scanFunc(func(context.Context) ([]catalog.AppRecord, error) {
		mu.Lock()
		defer mu.Unlock()
		return append([]catalog.AppRecord(nil), pool...), nil
	}))
	_, err := h.svc.Refresh(context.Background())
	require.NoError(t, err)

	mu.Lock()
	pool = append(pool, app("com.example.fresh", "Fresh", ""))
	mu.Unlock()
	_, err = h.svc.Refresh(context.Background())
	require.NoError(t, err)

	require.NoError(t, h.svc.Launch(context.Background(), "com.example.fresh"))
	assert.Equal(t, []string{"/Applications/Fresh.app"}, h.ws.opened)

	r, err := h.svc.Lookup("com.example.fresh")
	require.NoError(t, err)
	assert.False(t, r.IsNew)

	usage, err := h.db.UsageFor("com.example.fresh")
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, 9, usage[0].HourOfDay)

	assert.ErrorIs(t, h.svc.Launch(context.Background(), "com.example.none"), ErrUnknownApp)
}

func TestLaunchOpenFailure(t *testing.T) {
	h := newHarness(t, staticScanner(testPool()))
	_, err := h.svc.Refresh(context.Background())
	require.NoError(t, err)
	h.ws.fail = errors.New("boom")

	err = h.svc.Launch(context.Background(), "com.example.ide")
	require.Error(t, err)
	usage, err := h.db.UsageFor("com.example.ide")
	require.NoError(t, err)
	assert.Empty(t, usage)
}

func TestUninstall(t *testing.T) {
	pool := testPool()
	sys := app("com.apple.Calculator", "Calculator", "")
	sys.IsSystemApp = true
	self := app("com.example.self", "AppDock", "")
	busy := app("com.example.busy", "Busy", "")
	pool = append(pool, sys, self, busy)

	h := newHarness(t, staticScanner(pool))
	h.ws.running["com.example.busy"] = true
	_, err := h.svc.Refresh(context.Background())
	require.NoError(t, err)
	require.NoError(t, h.svc.Launch(context.Background(), "com.example.notes"))

	ctx := context.Background()
	assert.ErrorIs(t, h.svc.Uninstall(ctx, "com.apple.Calculator"), ErrProtected)
	assert.ErrorIs(t, h.svc.Uninstall(ctx, "com.example.self"), ErrProtected)
	assert.ErrorIs(t, h.svc.Uninstall(ctx, "com.example.busy"), ErrProtected)
	assert.ErrorIs(t, h.svc.Uninstall(ctx, "com.example.none"), ErrUnknownApp)
	assert.Empty(t, h.ws.trashed)

	require.NoError(t, h.svc.Uninstall(ctx, "com.example.notes"))
	assert.Equal(t, []string{"/Applications/Notes Plus.app"}, h.ws.trashed)

	_, err = h.svc.Lookup("com.example.notes")
	assert.ErrorIs(t, err, ErrUnknownApp)
	_, err = h.db.GetPreference("com.example.notes")
	assert.ErrorIs(t, err, statedb.ErrNotFound)
	usage, err := h.db.UsageFor("com.example.notes")
	require.NoError(t, err)
	assert.Empty(t, usage)
}

func TestPinned(t *testing.T) {
	h := newHarness(t, staticScanner(testPool()))
	_, err := h.svc.Refresh(context.Background())
	require.NoError(t, err)

	require.NoError(t, h.svc.cfg.Tracker.Pin("com.example.notes"))
	require.NoError(t, h.svc.cfg.Tracker.Pin("com.example.chess"))

	pinned, err := h.svc.Pinned()
	require.NoError(t, err)
	require.Len(t, pinned, 2)
	assert.Equal(t, "com.example.notes", pinned[0].ID)
	assert.Equal(t, "com.example.chess", pinned[1].ID)
}

func TestSuggestions(t *testing.T) {
	h := newHarness(t, staticScanner(testPool()))
	_, err := h.svc.Refresh(context.Background())
	require.NoError(t, err)

	day := time.Date(2026, 5, 1, 0, 0, 0, 0, time.Local)
	at := func(hour int) time.Time { return day.Add(time.Duration(hour) * time.Hour) }
	require.NoError(t, h.db.RecordUsage("com.example.notes", at(8)))
	require.NoError(t, h.db.RecordUsage("com.example.notes", at(9)))
	require.NoError(t, h.db.RecordUsage("com.example.ide", at(10)))
	require.NoError(t, h.db.RecordUsage("com.example.chess", at(21)))
	require.NoError(t, h.db.RecordUsage("com.example.gone", at(9)))

	got, err := h.svc.Suggestions(fixedNow, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "com.example.notes", got[0].Record.ID)
	assert.Equal(t, 2, got[0].Launches)
	assert.Equal(t, "com.example.ide", got[1].Record.ID)

	got, err = h.svc.Suggestions(fixedNow, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	require.NoError(t, h.svc.SetHidden("com.example.notes", true))
	got, err = h.svc.Suggestions(fixedNow, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "com.example.ide", got[0].Record.ID)
}

func TestWatchRefreshesOnChange(t *testing.T) {
	root := t.TempDir()
	h := newHarness(t, staticScanner(testPool()))
	h.svc.cfg.Roots = []string{root}
	h.svc.cfg.Debounce = 50 * time.Millisecond

	changed := make(chan uint64, 4)
	h.svc.cfg.OnChange = func(s Snapshot) { changed <- s.Generation }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.svc.Watch(ctx) }()

	require.Eventually(t, func() bool {
		touch(filepath.Join(root, "x"))
		select {
		case <-changed:
			return true
		default:
			return false
		}
	}, 5*time.Second, 200*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func touch(path string) {
	_ = os.WriteFile(path, []byte(time.Now().String()), 0o644)
}

func TestAppleScriptString(t *testing.T) {
	assert.Equal(t, `"/Applications/My \"Odd\" App.app"`, appleScriptString(`/Applications/My "Odd" App.app`))
	assert.Equal(t, `"a\\b"`, appleScriptString(`a\b`))
}
