// Package state layers persisted per-app preferences over freshly scanned
// records: category overrides, new/updated markers, pins and hidden apps.
package state

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/appdock/appdock/internal/catalog"
	"github.com/appdock/appdock/internal/logging"
	"github.com/appdock/appdock/internal/statedb"
)

var stateLog = logging.ForComponent(logging.CompState)

// InitialScanKey is the metadata flag set by the first Annotate ever run.
// It is never cleared, even when every preference is deleted.
const InitialScanKey = "has_performed_initial_scan"

var (
	// ErrPersist wraps store failures. Operations that return it still
	// return their in-memory result.
	ErrPersist = errors.New("state: preference save failed")

	// ErrPinLimit is returned by Pin when MaxPinned apps are already pinned.
	ErrPinLimit = errors.New("state: pin limit reached")

	// ErrNotPinned is returned by MovePin for an app that is not pinned.
	ErrNotPinned = errors.New("state: app is not pinned")
)

// Tracker owns all read-modify-write access to preferences. Its methods are
// safe for concurrent use; each runs as one logical store operation.
type Tracker struct {
	db        *statedb.StateDB
	maxPinned int
	mu        sync.Mutex
}

// NewTracker returns a tracker over db. maxPinned <= 0 means DefaultMaxPinned.
func NewTracker(db *statedb.StateDB, maxPinned int) *Tracker {
	if maxPinned <= 0 {
		maxPinned = DefaultMaxPinned
	}
	return &Tracker{db: db, maxPinned: maxPinned}
}

func persistErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersist, op, err)
}

// Annotate applies stored overrides and sets IsNew/IsUpdated on a copy of
// pool. Identifiers seen for the first time get a preference row. Apps are
// only marked new after the very first Annotate has established a baseline.
//
// A non-nil error wraps ErrPersist; the returned records are still valid.
func (t *Tracker) Annotate(pool []catalog.AppRecord) ([]catalog.AppRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	result := make([]catalog.AppRecord, len(pool))
	copy(result, pool)

	prefs, err := t.db.LoadPreferences()
	if err != nil {
		stateLog.Warn("preference_load_failed", slog.String("error", err.Error()))
		return result, persistErr("load", err)
	}
	flag, err := t.db.GetMeta(InitialScanKey)
	if err != nil {
		stateLog.Warn("preference_load_failed", slog.String("error", err.Error()))
		return result, persistErr("load", err)
	}
	initial := flag != "true"

	var dirty []*statedb.PreferenceRow
	var created, marked int
	for i := range result {
		r := &result[i]
		pref, ok := prefs[r.ID]
		if !ok {
			pref = &statedb.PreferenceRow{BundleID: r.ID, LastKnownVersion: r.Version}
			if !initial {
				pref.IsNew = true
				r.IsNew = true
				marked++
			}
			prefs[r.ID] = pref
			dirty = append(dirty, pref)
			created++
			continue
		}

		if pref.CategoryOverride != "" {
			if c, ok := catalog.ParseCategory(pref.CategoryOverride); ok {
				r.Category = c
			}
		}

		switch {
		case pref.IsNew:
			r.IsNew = true
		case pref.IsUpdated:
			r.IsUpdated = true
		case r.Version != "" && pref.LastKnownVersion != "" && r.Version != pref.LastKnownVersion:
			pref.IsUpdated = true
			pref.LastKnownVersion = r.Version
			r.IsUpdated = true
			dirty = append(dirty, pref)
			marked++
		}
	}

	var meta map[string]string
	if initial {
		meta = map[string]string{InitialScanKey: "true"}
	}

	stateLog.Debug("annotated",
		slog.Int("apps", len(result)),
		slog.Int("created", created),
		slog.Int("marked", marked),
		slog.Bool("initial", initial),
	)

	if len(dirty) == 0 && meta == nil {
		return result, nil
	}
	if err := t.db.SavePreferences(dirty, meta); err != nil {
		stateLog.Warn("preference_save_failed", slog.Int("rows", len(dirty)), slog.String("error", err.Error()))
		return result, persistErr("annotate", err)
	}
	t.touch()
	return result, nil
}

// RecordLaunch acknowledges a launch of r: its new/updated markers are
// cleared and its current version becomes the known one.
func (t *Tracker) RecordLaunch(r catalog.AppRecord) error {
	return t.update(r.ID, "record launch", func(p *statedb.PreferenceRow) {
		p.IsNew = false
		p.IsUpdated = false
		p.LastKnownVersion = r.Version
	})
}

// SetCategoryOverride pins id to category c on every future annotation.
func (t *Tracker) SetCategoryOverride(id string, c catalog.Category) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %q", catalog.ErrUnknownCategory, c)
	}
	return t.update(id, "set category", func(p *statedb.PreferenceRow) {
		p.CategoryOverride = string(c)
	})
}

// ClearCategoryOverride returns id to classifier output.
func (t *Tracker) ClearCategoryOverride(id string) error {
	return t.update(id, "clear category", func(p *statedb.PreferenceRow) {
		p.CategoryOverride = ""
	})
}

// SetHidden hides or shows id in listings and search.
func (t *Tracker) SetHidden(id string, hidden bool) error {
	return t.update(id, "set hidden", func(p *statedb.PreferenceRow) {
		p.IsHidden = hidden
	})
}

// Hidden returns the set of hidden identifiers.
func (t *Tracker) Hidden() (map[string]bool, error) {
	prefs, err := t.db.LoadPreferences()
	if err != nil {
		return nil, persistErr("load", err)
	}
	out := make(map[string]bool)
	for id, p := range prefs {
		if p.IsHidden {
			out[id] = true
		}
	}
	return out, nil
}

// Preference returns the stored row for id, or statedb.ErrNotFound.
func (t *Tracker) Preference(id string) (*statedb.PreferenceRow, error) {
	return t.db.GetPreference(id)
}

// Forget deletes every stored trace of id.
func (t *Tracker) Forget(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.db.DeleteAppData(id); err != nil {
		return persistErr("forget", err)
	}
	t.touch()
	stateLog.Info("app_forgotten", slog.String("id", id))
	return nil
}

// update applies fn to id's preference, creating it if needed, and saves.
func (t *Tracker) update(id, op string, fn func(p *statedb.PreferenceRow)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, err := t.getOrCreate(id)
	if err != nil {
		return persistErr(op, err)
	}
	fn(p)
	if err := t.db.SavePreference(p); err != nil {
		stateLog.Warn("preference_save_failed", slog.String("id", id), slog.String("op", op), slog.String("error", err.Error()))
		return persistErr(op, err)
	}
	t.touch()
	return nil
}

// touch marks the store modified for other processes. Failure only delays
// their reload.
func (t *Tracker) touch() {
	if err := t.db.Touch(); err != nil {
		stateLog.Debug("touch_failed", slog.String("error", err.Error()))
	}
}

func (t *Tracker) getOrCreate(id string) (*statedb.PreferenceRow, error) {
	p, err := t.db.GetPreference(id)
	if errors.Is(err, statedb.ErrNotFound) {
		return &statedb.PreferenceRow{BundleID: id}, nil
	}
	return p, err
}
