package state

import (
	"log/slog"

	"github.com/appdock/appdock/internal/catalog"
	"github.com/appdock/appdock/internal/statedb"
)

// DefaultMaxPinned caps the pinned row.
const DefaultMaxPinned = 12

// Pin appends id to the end of the pinned list. Pinning an already pinned
// app is a no-op.
func (t *Tracker) Pin(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	pins, err := t.db.PinnedPreferences()
	if err != nil {
		return persistErr("pin", err)
	}
	for _, p := range pins {
		if p.BundleID == id {
			return nil
		}
	}
	if len(pins) >= t.maxPinned {
		return ErrPinLimit
	}

	p, err := t.getOrCreate(id)
	if err != nil {
		return persistErr("pin", err)
	}
	p.IsPinned = true
	p.PinOrder = len(pins)
	if err := t.db.SavePreference(p); err != nil {
		return persistErr("pin", err)
	}
	t.touch()
	stateLog.Info("app_pinned", slog.String("id", id), slog.Int("order", p.PinOrder))
	return nil
}

// Unpin removes id from the pinned list and closes the gap it leaves.
func (t *Tracker) Unpin(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	pins, err := t.db.PinnedPreferences()
	if err != nil {
		return persistErr("unpin", err)
	}

	var rest []*statedb.PreferenceRow
	for _, p := range pins {
		if p.BundleID != id {
			rest = append(rest, p)
		}
	}

	target, err := t.getOrCreate(id)
	if err != nil {
		return persistErr("unpin", err)
	}
	target.IsPinned = false
	target.PinOrder = 0

	if err := t.db.SavePreferences(append(reindex(rest), target), nil); err != nil {
		return persistErr("unpin", err)
	}
	t.touch()
	stateLog.Info("app_unpinned", slog.String("id", id))
	return nil
}

// MovePin moves a pinned app to position index, clamped to the list bounds.
func (t *Tracker) MovePin(id string, index int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	pins, err := t.db.PinnedPreferences()
	if err != nil {
		return persistErr("move pin", err)
	}

	from := -1
	for i, p := range pins {
		if p.BundleID == id {
			from = i
			break
		}
	}
	if from < 0 {
		return ErrNotPinned
	}

	moved := pins[from]
	pins = append(pins[:from], pins[from+1:]...)
	if index < 0 {
		index = 0
	}
	if index > len(pins) {
		index = len(pins)
	}
	pins = append(pins[:index], append([]*statedb.PreferenceRow{moved}, pins[index:]...)...)

	if err := t.db.SavePreferences(reindex(pins), nil); err != nil {
		return persistErr("move pin", err)
	}
	t.touch()
	return nil
}

// Pinned returns the pinned apps present in pool, in pin order. Pins whose
// app is no longer installed are skipped but kept in the store.
func (t *Tracker) Pinned(pool []catalog.AppRecord) ([]catalog.AppRecord, error) {
	pins, err := t.db.PinnedPreferences()
	if err != nil {
		return nil, persistErr("load pins", err)
	}

	byID := make(map[string]catalog.AppRecord, len(pool))
	for _, r := range pool {
		byID[r.ID] = r
	}

	var out []catalog.AppRecord
	for _, p := range pins {
		if r, ok := byID[p.BundleID]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// reindex assigns pin_order 0..n-1 in slice order.
func reindex(pins []*statedb.PreferenceRow) []*statedb.PreferenceRow {
	for i, p := range pins {
		p.PinOrder = i
	}
	return pins
}
