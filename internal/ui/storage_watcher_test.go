package ui

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/appdock/appdock/internal/statedb"
)

func newTestDB(t *testing.T) *statedb.StateDB {
	t.Helper()
	db, err := statedb.Open(filepath.Join(t.TempDir(), statedb.FileName))
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })
	return db
}

// newFastWatcher polls every 20ms and ignores self-saves for 200ms.
func newFastWatcher(t *testing.T, db *statedb.StateDB) *StorageWatcher {
	t.Helper()
	w := NewStorageWatcher(db)
	require.NotNil(t, w)
	w.interval = 20 * time.Millisecond
	w.ignoreWindow = 200 * time.Millisecond
	t.Cleanup(w.Close)
	return w
}

func TestStorageWatcher_DetectsChanges(t *testing.T) {
	db := newTestDB(t)
	w := newFastWatcher(t, db)
	w.Start()

	time.Sleep(30 * time.Millisecond)
	require.NoError(t, db.Touch())

	select {
	case <-w.ReloadChannel():
	case <-time.After(2 * time.Second):
		t.Fatal("expected reload signal")
	}
}

func TestStorageWatcher_IgnoresOwnSaves(t *testing.T) {
	db := newTestDB(t)
	w := newFastWatcher(t, db)
	w.Start()

	w.NotifySave()
	require.NoError(t, db.Touch())

	select {
	case <-w.ReloadChannel():
		t.Fatal("own save should not signal a reload")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestStorageWatcher_ChangesAfterIgnoreWindow(t *testing.T) {
	db := newTestDB(t)
	w := newFastWatcher(t, db)
	w.Start()

	w.NotifySave()
	time.Sleep(300 * time.Millisecond)
	require.NoError(t, db.Touch())

	select {
	case <-w.ReloadChannel():
	case <-time.After(2 * time.Second):
		t.Fatal("expected reload signal after the ignore window")
	}
}

func TestStorageWatcher_SeparateDatabases(t *testing.T) {
	db1 := newTestDB(t)
	db2 := newTestDB(t)
	w := newFastWatcher(t, db1)
	w.Start()

	require.NoError(t, db2.Touch())
	select {
	case <-w.ReloadChannel():
		t.Fatal("watcher fired for another database")
	case <-time.After(150 * time.Millisecond):
	}

	require.NoError(t, db1.Touch())
	select {
	case <-w.ReloadChannel():
	case <-time.After(2 * time.Second):
		t.Fatal("expected reload signal for own database")
	}
}

func TestStorageWatcher_NilDB(t *testing.T) {
	require.Nil(t, NewStorageWatcher(nil))
}

func TestStorageWatcher_CloseIdempotent(t *testing.T) {
	w := newFastWatcher(t, newTestDB(t))
	w.Start()
	w.Close()
	w.Close()
}
