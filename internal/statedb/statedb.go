package statedb

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// FileName is the database file inside the state directory.
const FileName = "state.db"

// ErrNotFound is returned when a keyed row does not exist.
var ErrNotFound = errors.New("statedb: not found")

// StateDB wraps a SQLite database holding per-app preferences, launch
// history and small settings values.
// Writes are serialized in-process by writeMu; multiple processes coordinate
// through WAL mode + busy timeout.
type StateDB struct {
	db      *sql.DB
	writeMu sync.Mutex
}

// PreferenceRow is the persisted state for one bundle identifier.
type PreferenceRow struct {
	BundleID         string
	IsPinned         bool
	PinOrder         int
	CategoryOverride string
	IsHidden         bool
	LastKnownVersion string
	IsNew            bool
	IsUpdated        bool
}

// UsageRow is one recorded launch.
type UsageRow struct {
	ID         int64
	BundleID   string
	LaunchedAt time.Time
	HourOfDay  int
	DayOfWeek  int
}

// Open creates or opens a SQLite database at dbPath with WAL mode and busy timeout.
func Open(dbPath string) (*StateDB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("statedb: mkdir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("statedb: open: %w", err)
	}

	// WAL mode: allows concurrent readers while writing
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("statedb: wal mode: %w", err)
	}

	// Busy timeout: wait up to 5s if another process holds a lock
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("statedb: busy timeout: %w", err)
	}

	return &StateDB{db: db}, nil
}

// Close checkpoints WAL and closes the database.
func (s *StateDB) Close() error {
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return s.db.Close()
}

// DB returns the underlying sql.DB for advanced use cases (e.g., testing).
func (s *StateDB) DB() *sql.DB {
	return s.db
}

// --- Preferences ---

const preferenceColumns = `bundle_id, is_pinned, pin_order, category_override,
	is_hidden, last_known_version, is_new, is_updated`

const upsertPreference = `
	INSERT OR REPLACE INTO preferences (` + preferenceColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPreference(rs rowScanner) (*PreferenceRow, error) {
	p := &PreferenceRow{}
	var pinned, hidden, isNew, updated int
	if err := rs.Scan(
		&p.BundleID, &pinned, &p.PinOrder, &p.CategoryOverride,
		&hidden, &p.LastKnownVersion, &isNew, &updated,
	); err != nil {
		return nil, err
	}
	p.IsPinned = pinned != 0
	p.IsHidden = hidden != 0
	p.IsNew = isNew != 0
	p.IsUpdated = updated != 0
	return p, nil
}

func preferenceArgs(p *PreferenceRow) []any {
	return []any{
		p.BundleID, boolInt(p.IsPinned), p.PinOrder, p.CategoryOverride,
		boolInt(p.IsHidden), p.LastKnownVersion, boolInt(p.IsNew), boolInt(p.IsUpdated),
	}
}

// LoadPreferences returns every stored preference keyed by bundle identifier.
func (s *StateDB) LoadPreferences() (map[string]*PreferenceRow, error) {
	rows, err := s.db.Query("SELECT " + preferenceColumns + " FROM preferences")
	if err != nil {
		return nil, fmt.Errorf("statedb: load preferences: %w", err)
	}
	defer rows.Close()

	result := make(map[string]*PreferenceRow)
	for rows.Next() {
		p, err := scanPreference(rows)
		if err != nil {
			return nil, fmt.Errorf("statedb: scan preference: %w", err)
		}
		result[p.BundleID] = p
	}
	return result, rows.Err()
}

// PinnedPreferences returns pinned rows ordered by pin_order.
func (s *StateDB) PinnedPreferences() ([]*PreferenceRow, error) {
	rows, err := s.db.Query(
		"SELECT " + preferenceColumns + " FROM preferences WHERE is_pinned = 1 ORDER BY pin_order, bundle_id",
	)
	if err != nil {
		return nil, fmt.Errorf("statedb: load pins: %w", err)
	}
	defer rows.Close()

	var result []*PreferenceRow
	for rows.Next() {
		p, err := scanPreference(rows)
		if err != nil {
			return nil, fmt.Errorf("statedb: scan preference: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// GetPreference returns the row for id, or ErrNotFound.
func (s *StateDB) GetPreference(id string) (*PreferenceRow, error) {
	row := s.db.QueryRow("SELECT "+preferenceColumns+" FROM preferences WHERE bundle_id = ?", id)
	p, err := scanPreference(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("statedb: get preference: %w", err)
	}
	return p, nil
}

// SavePreference inserts or replaces a single preference.
func (s *StateDB) SavePreference(p *PreferenceRow) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.db.Exec(upsertPreference, preferenceArgs(p)...); err != nil {
		return fmt.Errorf("statedb: save preference %s: %w", p.BundleID, err)
	}
	return nil
}

// SavePreferences inserts or replaces multiple preferences and optional
// metadata in a single transaction. Rows not listed are left untouched.
func (s *StateDB) SavePreferences(prefs []*PreferenceRow, meta map[string]string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("statedb: begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if len(prefs) > 0 {
		stmt, err := tx.Prepare(upsertPreference)
		if err != nil {
			return fmt.Errorf("statedb: prepare save: %w", err)
		}
		defer stmt.Close()

		for _, p := range prefs {
			if _, err := stmt.Exec(preferenceArgs(p)...); err != nil {
				return fmt.Errorf("statedb: save preference %s: %w", p.BundleID, err)
			}
		}
	}

	for k, v := range meta {
		if _, err := tx.Exec("INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("statedb: set %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("statedb: commit save: %w", err)
	}
	return nil
}

// DeletePreference removes the preference for id. Missing rows are not an error.
func (s *StateDB) DeletePreference(id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.db.Exec("DELETE FROM preferences WHERE bundle_id = ?", id); err != nil {
		return fmt.Errorf("statedb: delete preference: %w", err)
	}
	return nil
}

// DeleteAppData removes the preference and launch history for id together.
func (s *StateDB) DeleteAppData(id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("statedb: begin delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM preferences WHERE bundle_id = ?", id); err != nil {
		return fmt.Errorf("statedb: delete preference: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM usage_records WHERE bundle_id = ?", id); err != nil {
		return fmt.Errorf("statedb: delete usage: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("statedb: commit delete: %w", err)
	}
	return nil
}

// --- Usage ---

// RecordUsage appends a launch of id at the given local time.
func (s *StateDB) RecordUsage(id string, at time.Time) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO usage_records (bundle_id, launched_at, hour_of_day, day_of_week)
		VALUES (?, ?, ?, ?)
	`, id, at.Unix(), at.Hour(), int(at.Weekday()))
	if err != nil {
		return fmt.Errorf("statedb: record usage: %w", err)
	}
	return nil
}

// UsageCounts returns launches per bundle whose hour of day lies within
// window hours of hour, wrapping around midnight.
func (s *StateDB) UsageCounts(hour, window int) (map[string]int, error) {
	rows, err := s.db.Query(`
		SELECT bundle_id, hour_of_day, COUNT(*)
		FROM usage_records
		GROUP BY bundle_id, hour_of_day
	`)
	if err != nil {
		return nil, fmt.Errorf("statedb: usage counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var h, n int
		if err := rows.Scan(&id, &h, &n); err != nil {
			return nil, fmt.Errorf("statedb: scan usage: %w", err)
		}
		if hourDistance(h, hour) <= window {
			counts[id] += n
		}
	}
	return counts, rows.Err()
}

// UsageFor returns the launch history of id, newest first.
func (s *StateDB) UsageFor(id string) ([]UsageRow, error) {
	rows, err := s.db.Query(`
		SELECT id, bundle_id, launched_at, hour_of_day, day_of_week
		FROM usage_records WHERE bundle_id = ?
		ORDER BY launched_at DESC, id DESC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("statedb: usage for %s: %w", id, err)
	}
	defer rows.Close()

	var result []UsageRow
	for rows.Next() {
		var u UsageRow
		var launched int64
		if err := rows.Scan(&u.ID, &u.BundleID, &launched, &u.HourOfDay, &u.DayOfWeek); err != nil {
			return nil, fmt.Errorf("statedb: scan usage: %w", err)
		}
		u.LaunchedAt = time.Unix(launched, 0)
		result = append(result, u)
	}
	return result, rows.Err()
}

// PruneUsage deletes launches older than cutoff and returns how many were removed.
func (s *StateDB) PruneUsage(cutoff time.Time) (int64, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.db.Exec("DELETE FROM usage_records WHERE launched_at < ?", cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("statedb: prune usage: %w", err)
	}
	return res.RowsAffected()
}

// --- Metadata ---

// SetMeta sets a key-value pair in the metadata table.
func (s *StateDB) SetMeta(key, value string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.db.Exec(
		"INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)",
		key, value,
	); err != nil {
		return fmt.Errorf("statedb: set %s: %w", key, err)
	}
	return nil
}

// GetMeta gets a value from the metadata table. Returns "" if not found.
func (s *StateDB) GetMeta(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("statedb: get %s: %w", key, err)
	}
	return value, nil
}

// Touch records that preferences changed, so other processes polling
// LastModified can reload.
func (s *StateDB) Touch() error {
	return s.SetMeta("last_modified", fmt.Sprintf("%d", time.Now().UnixNano()))
}

// LastModified returns the last Touch timestamp, or 0 if never touched.
func (s *StateDB) LastModified() (int64, error) {
	val, err := s.GetMeta("last_modified")
	if err != nil || val == "" {
		return 0, err
	}
	var ts int64
	_, err = fmt.Sscanf(val, "%d", &ts)
	return ts, err
}

func hourDistance(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if 24-d < d {
		return 24 - d
	}
	return d
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
