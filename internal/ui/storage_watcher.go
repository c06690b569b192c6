package ui

import (
	"log/slog"
	"sync"
	"time"

	"github.com/appdock/appdock/internal/logging"
	"github.com/appdock/appdock/internal/statedb"
)

var watcherLog = logging.ForComponent(logging.CompStorage)

// StorageWatcher notices preference changes made by other appdock processes
// (a pin or hide from the CLI while the picker is open) by polling the
// metadata last_modified timestamp.
type StorageWatcher struct {
	db        *statedb.StateDB
	reloadCh  chan struct{}
	closeCh   chan struct{}
	closeOnce sync.Once

	lastModified int64
	modMu        sync.Mutex

	// lastSaveTime marks this process's own writes so they are not echoed
	lastSaveTime time.Time
	saveMu       sync.RWMutex

	interval     time.Duration
	ignoreWindow time.Duration
}

const (
	pollInterval = 2 * time.Second

	// ignoreWindow must exceed pollInterval so the first poll after a
	// self-save always falls inside it
	ignoreWindow = 3 * time.Second
)

// NewStorageWatcher returns a watcher over db, or nil when db is nil.
func NewStorageWatcher(db *statedb.StateDB) *StorageWatcher {
	if db == nil {
		return nil
	}
	lastMod, _ := db.LastModified()
	return &StorageWatcher{
		db:           db,
		lastModified: lastMod,
		reloadCh:     make(chan struct{}, 1),
		closeCh:      make(chan struct{}),
		interval:     pollInterval,
		ignoreWindow: ignoreWindow,
	}
}

// Start begins polling in the background.
func (sw *StorageWatcher) Start() {
	go sw.pollLoop()
}

func (sw *StorageWatcher) pollLoop() {
	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()
	for {
		select {
		case <-sw.closeCh:
			return
		case <-ticker.C:
			sw.checkAndNotify()
		}
	}
}

func (sw *StorageWatcher) checkAndNotify() {
	ts, err := sw.db.LastModified()
	if err != nil {
		watcherLog.Debug("watcher_poll_failed", slog.String("error", err.Error()))
		return
	}

	sw.modMu.Lock()
	changed := ts > sw.lastModified
	if changed {
		sw.lastModified = ts
	}
	sw.modMu.Unlock()
	if !changed {
		return
	}

	sw.saveMu.RLock()
	lastSave := sw.lastSaveTime
	sw.saveMu.RUnlock()
	if time.Since(lastSave) < sw.ignoreWindow {
		watcherLog.Debug("watcher_ignoring_own_save")
		return
	}

	watcherLog.Debug("watcher_db_changed", slog.Int64("timestamp", ts))
	select {
	case sw.reloadCh <- struct{}{}:
	default:
	}
}

// ReloadChannel signals that another process changed preferences.
func (sw *StorageWatcher) ReloadChannel() <-chan struct{} {
	return sw.reloadCh
}

// NotifySave is called right before this process writes preferences.
func (sw *StorageWatcher) NotifySave() {
	sw.saveMu.Lock()
	sw.lastSaveTime = time.Now()
	sw.saveMu.Unlock()
}

// Close stops polling. Safe to call multiple times.
func (sw *StorageWatcher) Close() {
	sw.closeOnce.Do(func() {
		close(sw.closeCh)
	})
}
