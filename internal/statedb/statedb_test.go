package statedb

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *StateDB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenClose(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", FileName)

	db1, err := Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, db1.Migrate())
	require.NoError(t, db1.SavePreference(&PreferenceRow{BundleID: "com.example.a", IsPinned: true, PinOrder: 3}))
	require.NoError(t, db1.Close())

	db2, err := Open(dbPath)
	require.NoError(t, err)
	defer db2.Close()
	require.NoError(t, db2.Migrate())

	p, err := db2.GetPreference("com.example.a")
	require.NoError(t, err)
	assert.True(t, p.IsPinned)
	assert.Equal(t, 3, p.PinOrder)
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Migrate())
	require.NoError(t, db.Migrate())

	v, err := db.Version()
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, v)
}

func TestMigrateRejectsNewerSchema(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.SetMeta("schema_version", "99"))
	assert.Error(t, db.Migrate())
}

func TestMigrateFromV1(t *testing.T) {
	db := newTestDB(t)
	_, err := db.DB().Exec("DROP INDEX idx_usage_hour")
	require.NoError(t, err)
	require.NoError(t, db.SetMeta("schema_version", "1"))

	require.NoError(t, db.Migrate())

	var n int
	require.NoError(t, db.DB().QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = 'idx_usage_hour'",
	).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestPreferenceRoundTrip(t *testing.T) {
	db := newTestDB(t)
	want := &PreferenceRow{
		BundleID:         "com.example.editor",
		IsPinned:         true,
		PinOrder:         2,
		CategoryOverride: "Productivity",
		IsHidden:         true,
		LastKnownVersion: "4.1",
		IsNew:            true,
		IsUpdated:        false,
	}
	require.NoError(t, db.SavePreference(want))

	got, err := db.GetPreference(want.BundleID)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	want.IsNew = false
	want.LastKnownVersion = "4.2"
	require.NoError(t, db.SavePreference(want))
	got, err = db.GetPreference(want.BundleID)
	require.NoError(t, err)
	assert.False(t, got.IsNew)
	assert.Equal(t, "4.2", got.LastKnownVersion)
}

func TestGetPreferenceNotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.GetPreference("com.example.none")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSavePreferencesBatchWithMeta(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.SavePreference(&PreferenceRow{BundleID: "keep"}))

	err := db.SavePreferences([]*PreferenceRow{
		{BundleID: "a", LastKnownVersion: "1"},
		{BundleID: "b", IsNew: true},
	}, map[string]string{"flag": "true"})
	require.NoError(t, err)

	prefs, err := db.LoadPreferences()
	require.NoError(t, err)
	assert.Len(t, prefs, 3, "rows not in the batch are kept")
	assert.Equal(t, "1", prefs["a"].LastKnownVersion)
	assert.True(t, prefs["b"].IsNew)

	v, err := db.GetMeta("flag")
	require.NoError(t, err)
	assert.Equal(t, "true", v)
}

func TestSavePreferencesEmptyBatch(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.SavePreferences(nil, nil))
	prefs, err := db.LoadPreferences()
	require.NoError(t, err)
	assert.Empty(t, prefs)
}

func TestPinnedPreferencesOrder(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.SavePreferences([]*PreferenceRow{
		{BundleID: "c", IsPinned: true, PinOrder: 2},
		{BundleID: "a", IsPinned: true, PinOrder: 0},
		{BundleID: "x", IsPinned: false, PinOrder: 1},
		{BundleID: "b", IsPinned: true, PinOrder: 1},
	}, nil))

	pins, err := db.PinnedPreferences()
	require.NoError(t, err)
	require.Len(t, pins, 3)
	assert.Equal(t, "a", pins[0].BundleID)
	assert.Equal(t, "b", pins[1].BundleID)
	assert.Equal(t, "c", pins[2].BundleID)
}

func TestDeletePreference(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.SavePreference(&PreferenceRow{BundleID: "gone"}))
	require.NoError(t, db.DeletePreference("gone"))
	require.NoError(t, db.DeletePreference("never-existed"))

	_, err := db.GetPreference("gone")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteAppData(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()
	require.NoError(t, db.SavePreference(&PreferenceRow{BundleID: "app"}))
	require.NoError(t, db.RecordUsage("app", now))
	require.NoError(t, db.RecordUsage("other", now))

	require.NoError(t, db.DeleteAppData("app"))

	_, err := db.GetPreference("app")
	assert.ErrorIs(t, err, ErrNotFound)
	usage, err := db.UsageFor("app")
	require.NoError(t, err)
	assert.Empty(t, usage)
	usage, err = db.UsageFor("other")
	require.NoError(t, err)
	assert.Len(t, usage, 1)
}

func TestRecordUsage(t *testing.T) {
	db := newTestDB(t)
	at := time.Date(2026, 3, 4, 14, 30, 0, 0, time.Local) // a Wednesday
	require.NoError(t, db.RecordUsage("app", at))
	require.NoError(t, db.RecordUsage("app", at.Add(time.Hour)))

	usage, err := db.UsageFor("app")
	require.NoError(t, err)
	require.Len(t, usage, 2)
	assert.Equal(t, 15, usage[0].HourOfDay, "newest first")
	assert.Equal(t, 14, usage[1].HourOfDay)
	assert.Equal(t, int(time.Wednesday), usage[1].DayOfWeek)
	assert.Equal(t, at.Unix(), usage[1].LaunchedAt.Unix())
}

func TestUsageCountsWindow(t *testing.T) {
	db := newTestDB(t)
	day := time.Date(2026, 3, 4, 0, 0, 0, 0, time.Local)
	at := func(h int) time.Time { return day.Add(time.Duration(h) * time.Hour) }

	require.NoError(t, db.RecordUsage("morning", at(9)))
	require.NoError(t, db.RecordUsage("morning", at(10)))
	require.NoError(t, db.RecordUsage("morning", at(11)))
	require.NoError(t, db.RecordUsage("evening", at(20)))
	require.NoError(t, db.RecordUsage("late", at(23)))

	counts, err := db.UsageCounts(10, 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"morning": 3}, counts)

	counts, err = db.UsageCounts(0, 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"late": 1}, counts, "window wraps past midnight")
}

func TestPruneUsage(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()
	require.NoError(t, db.RecordUsage("app", now.Add(-48*time.Hour)))
	require.NoError(t, db.RecordUsage("app", now))

	n, err := db.PruneUsage(now.Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMetadata(t *testing.T) {
	db := newTestDB(t)

	v, err := db.GetMeta("missing")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, db.SetMeta("k", "v1"))
	require.NoError(t, db.SetMeta("k", "v2"))
	v, err = db.GetMeta("k")
	require.NoError(t, err)
	assert.Equal(t, "v2", v)
}

func TestTouchAdvancesLastModified(t *testing.T) {
	db := newTestDB(t)
	ts, err := db.LastModified()
	require.NoError(t, err)
	assert.Zero(t, ts)

	require.NoError(t, db.Touch())
	first, err := db.LastModified()
	require.NoError(t, err)
	assert.Positive(t, first)

	time.Sleep(time.Millisecond)
	require.NoError(t, db.Touch())
	second, err := db.LastModified()
	require.NoError(t, err)
	assert.Greater(t, second, first)
}

func TestConcurrentWrites(t *testing.T) {
	db := newTestDB(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i))
			assert.NoError(t, db.SavePreference(&PreferenceRow{BundleID: id}))
			assert.NoError(t, db.RecordUsage(id, time.Now()))
		}(i)
	}
	wg.Wait()

	prefs, err := db.LoadPreferences()
	require.NoError(t, err)
	assert.Len(t, prefs, 20)
}

func TestHourDistance(t *testing.T) {
	assert.Equal(t, 0, hourDistance(5, 5))
	assert.Equal(t, 1, hourDistance(23, 0))
	assert.Equal(t, 1, hourDistance(0, 23))
	assert.Equal(t, 12, hourDistance(0, 12))
	assert.Equal(t, 3, hourDistance(10, 13))
}
