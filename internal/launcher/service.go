// Package launcher owns the live app snapshot. It runs scan, classify and
// annotate in sequence and serves search, grouping, launch and uninstall from
// the result.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/appdock/appdock/internal/catalog"
	"github.com/appdock/appdock/internal/classify"
	"github.com/appdock/appdock/internal/logging"
	"github.com/appdock/appdock/internal/scanner"
	"github.com/appdock/appdock/internal/search"
	"github.com/appdock/appdock/internal/state"
	"github.com/appdock/appdock/internal/statedb"
)

var launchLog = logging.ForComponent(logging.CompLaunch)

var (
	// ErrUnknownApp is returned for identifiers absent from the snapshot.
	ErrUnknownApp = errors.New("launcher: unknown app")

	// ErrProtected is returned when uninstalling a system app, this app, or
	// one that is currently running.
	ErrProtected = errors.New("launcher: app cannot be uninstalled")
)

const refreshKey = "refresh"

// Scanner produces the raw installed set.
type Scanner interface {
	Scan(ctx context.Context) ([]catalog.AppRecord, error)
}

// Opener launches a bundle.
type Opener interface {
	Open(ctx context.Context, path string) error
}

// Trasher moves a bundle to the user's trash.
type Trasher interface {
	Trash(ctx context.Context, path string) error
}

// runningChecker is optionally implemented by a Trasher so uninstall can
// refuse apps that are open.
type runningChecker interface {
	IsRunning(ctx context.Context, id string) bool
}

// Snapshot is one applied scan. Apps includes hidden apps; Search and Groups
// leave them out.
type Snapshot struct {
	Apps       []catalog.AppRecord
	Generation uint64
	Warnings   []string
	ScannedAt  time.Time

	hidden map[string]bool
}

// Group is one non-empty category folder.
type Group struct {
	Category catalog.Category
	Apps     []catalog.AppRecord
}

// Config wires a Service. Scanner and Tracker are required.
type Config struct {
	Scanner Scanner
	Tracker *state.Tracker
	DB      *statedb.StateDB
	Opener  Opener
	Trasher Trasher

	// Roots and Debounce drive Watch.
	Roots    []string
	Debounce time.Duration

	MaxResults int

	// OnChange is called after each applied snapshot.
	OnChange func(Snapshot)

	// SelfID is this program's own identifier, never uninstalled.
	SelfID string
}

// Service is safe for concurrent use.
type Service struct {
	cfg     Config
	matcher search.Matcher
	now     func() time.Time

	sf      singleflight.Group
	nextGen atomic.Uint64

	mu       sync.RWMutex
	snap     Snapshot
	watchErr []string
}

// New returns a service with an empty snapshot. Call Refresh to populate it.
func New(cfg Config) *Service {
	if cfg.Opener == nil || cfg.Trasher == nil {
		sys := System{}
		if cfg.Opener == nil {
			cfg.Opener = sys
		}
		if cfg.Trasher == nil {
			cfg.Trasher = sys
		}
	}
	return &Service{
		cfg:     cfg,
		matcher: search.Matcher{MaxResults: cfg.MaxResults},
		now:     time.Now,
	}
}

// Snapshot returns the most recently applied scan.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Refresh rescans and applies the result. Concurrent callers share one scan.
// A scan that finishes after a newer one has been applied is discarded, and
// the newer snapshot is returned instead.
func (s *Service) Refresh(ctx context.Context) (Snapshot, error) {
	v, err, shared := s.sf.Do(refreshKey, func() (interface{}, error) {
		return s.refresh(ctx)
	})
	if err != nil {
		return Snapshot{}, err
	}
	if shared {
		launchLog.Debug("refresh_shared")
	}
	return v.(Snapshot), nil
}

// forceRefresh starts a new scan even when one is in flight, so changes made
// after the in-flight scan began are not lost.
func (s *Service) forceRefresh(ctx context.Context) {
	s.sf.Forget(refreshKey)
	if _, err := s.Refresh(ctx); err != nil {
		launchLog.Debug("watch_refresh_failed", slog.String("error", err.Error()))
	}
}

func (s *Service) refresh(ctx context.Context) (Snapshot, error) {
	gen := s.nextGen.Add(1)
	start := time.Now()

	raw, err := s.cfg.Scanner.Scan(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("launcher: scan: %w", err)
	}
	apps := classify.All(raw)

	var warnings []string
	apps, err = s.cfg.Tracker.Annotate(apps)
	if err != nil {
		launchLog.Warn("annotate_persist_failed", slog.String("error", err.Error()))
		warnings = append(warnings, err.Error())
	}
	hidden, err := s.cfg.Tracker.Hidden()
	if err != nil {
		launchLog.Warn("hidden_load_failed", slog.String("error", err.Error()))
		warnings = append(warnings, err.Error())
	}

	s.mu.Lock()
	if gen < s.snap.Generation {
		launchLog.Debug("stale_scan_discarded",
			slog.Uint64("generation", gen),
			slog.Uint64("applied", s.snap.Generation),
		)
		current := s.snap
		s.mu.Unlock()
		return current, nil
	}
	s.snap = Snapshot{
		Apps:       apps,
		Generation: gen,
		Warnings:   append(warnings, s.watchErr...),
		ScannedAt:  s.now(),
		hidden:     hidden,
	}
	launchLog.Info("snapshot_applied",
		slog.Uint64("generation", gen),
		slog.Int("apps", len(apps)),
		slog.Duration("elapsed", time.Since(start)),
	)
	applied := s.snap
	s.mu.Unlock()

	if s.cfg.OnChange != nil {
		s.cfg.OnChange(applied)
	}
	return applied, nil
}

// Visible returns the non-hidden apps, restricted to category when it is
// non-empty, in name order.
func (s *Service) Visible(category catalog.Category) []catalog.AppRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.visibleLocked(category)
}

func (s *Service) visibleLocked(category catalog.Category) []catalog.AppRecord {
	out := make([]catalog.AppRecord, 0, len(s.snap.Apps))
	for _, r := range s.snap.Apps {
		if s.snap.hidden[r.ID] {
			continue
		}
		if category != "" && r.Category != category {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Search matches query against the visible pool.
func (s *Service) Search(query string, category catalog.Category) []search.Result {
	return s.matcher.Match(query, s.Visible(category))
}

// Groups returns the non-empty category folders in declaration order.
func (s *Service) Groups() []Group {
	groups := catalog.GroupByCategory(s.Visible(""))
	var out []Group
	for _, c := range catalog.NonEmptyCategories(groups) {
		out = append(out, Group{Category: c, Apps: groups[c]})
	}
	return out
}

// Lookup returns the snapshot record for id.
func (s *Service) Lookup(id string) (catalog.AppRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.snap.Apps {
		if r.ID == id {
			return r, nil
		}
	}
	return catalog.AppRecord{}, fmt.Errorf("%w: %s", ErrUnknownApp, id)
}

// Launch opens id and records the launch. The markers on the snapshot record
// are cleared even if persisting fails.
func (s *Service) Launch(ctx context.Context, id string) error {
	r, err := s.Lookup(id)
	if err != nil {
		return err
	}
	if err := s.cfg.Opener.Open(ctx, r.Path); err != nil {
		launchLog.Warn("launch_failed", slog.String("id", id), slog.String("error", err.Error()))
		return fmt.Errorf("launcher: open %s: %w", r.Name, err)
	}
	launchLog.Info("app_launched", slog.String("id", id), slog.String("path", r.Path))

	s.patch(id, func(r *catalog.AppRecord) {
		r.IsNew = false
		r.IsUpdated = false
	})

	var errs []error
	if err := s.cfg.Tracker.RecordLaunch(r); err != nil {
		errs = append(errs, err)
	}
	if s.cfg.DB != nil {
		if err := s.cfg.DB.RecordUsage(id, s.now()); err != nil {
			errs = append(errs, fmt.Errorf("%w: record usage: %w", state.ErrPersist, err))
		}
	}
	return errors.Join(errs...)
}

// Uninstall moves id to the trash and forgets everything stored about it.
func (s *Service) Uninstall(ctx context.Context, id string) error {
	r, err := s.Lookup(id)
	if err != nil {
		return err
	}
	if !s.CanUninstall(ctx, r) {
		return fmt.Errorf("%w: %s", ErrProtected, r.Name)
	}
	if err := s.cfg.Trasher.Trash(ctx, r.Path); err != nil {
		launchLog.Warn("uninstall_failed", slog.String("id", id), slog.String("error", err.Error()))
		return fmt.Errorf("launcher: trash %s: %w", r.Name, err)
	}
	launchLog.Info("app_uninstalled", slog.String("id", id), slog.String("path", r.Path))

	s.mu.Lock()
	apps := make([]catalog.AppRecord, 0, len(s.snap.Apps))
	for _, a := range s.snap.Apps {
		if a.ID != id {
			apps = append(apps, a)
		}
	}
	s.snap.Apps = apps
	s.mu.Unlock()

	return s.cfg.Tracker.Forget(id)
}

// CanUninstall reports whether r may be moved to the trash.
func (s *Service) CanUninstall(ctx context.Context, r catalog.AppRecord) bool {
	if r.IsSystemApp {
		return false
	}
	if s.cfg.SelfID != "" && r.ID == s.cfg.SelfID {
		return false
	}
	if rc, ok := s.cfg.Trasher.(runningChecker); ok && rc.IsRunning(ctx, r.ID) {
		return false
	}
	return true
}

// SetHidden hides or shows id and updates the snapshot in place.
func (s *Service) SetHidden(id string, hidden bool) error {
	if err := s.cfg.Tracker.SetHidden(id, hidden); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.hidden == nil {
		s.snap.hidden = make(map[string]bool)
	}
	if hidden {
		s.snap.hidden[id] = true
	} else {
		delete(s.snap.hidden, id)
	}
	return nil
}

// SetCategory overrides id's category and updates the snapshot in place.
// An empty category clears the override; the classifier result returns on
// the next Refresh.
func (s *Service) SetCategory(id string, c catalog.Category) error {
	if c == "" {
		return s.cfg.Tracker.ClearCategoryOverride(id)
	}
	if err := s.cfg.Tracker.SetCategoryOverride(id, c); err != nil {
		return err
	}
	s.patch(id, func(r *catalog.AppRecord) { r.Category = c })
	return nil
}

// Pinned returns the pinned apps that are still installed, in pin order.
func (s *Service) Pinned() ([]catalog.AppRecord, error) {
	return s.cfg.Tracker.Pinned(s.Snapshot().Apps)
}

// Suggestion is an app launched often around a given time of day.
type Suggestion struct {
	Record   catalog.AppRecord
	Launches int
}

// Suggestions returns up to limit visible apps most launched within an hour
// of now, most launched first. limit <= 0 means no limit.
func (s *Service) Suggestions(now time.Time, limit int) ([]Suggestion, error) {
	if s.cfg.DB == nil {
		return nil, nil
	}
	counts, err := s.cfg.DB.UsageCounts(now.Hour(), 1)
	if err != nil {
		return nil, fmt.Errorf("launcher: usage counts: %w", err)
	}

	var out []Suggestion
	for _, r := range s.Visible("") {
		if n := counts[r.ID]; n > 0 {
			out = append(out, Suggestion{Record: r, Launches: n})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Launches > out[j].Launches
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Watch refreshes after every debounced change under the configured roots
// and blocks until ctx is done.
func (s *Service) Watch(ctx context.Context) error {
	w, err := scanner.NewWatcher(s.cfg.Roots, s.cfg.Debounce, func() {
		s.forceRefresh(ctx)
	})
	if err != nil {
		return fmt.Errorf("launcher: watch: %w", err)
	}
	w.Start()

	s.mu.Lock()
	s.watchErr = w.Warnings()
	s.snap.Warnings = append(s.snap.Warnings, s.watchErr...)
	s.mu.Unlock()

	<-ctx.Done()
	return w.Stop()
}

func (s *Service) patch(id string, fn func(r *catalog.AppRecord)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.snap.Apps {
		if s.snap.Apps[i].ID == id {
			// Copy-on-write so earlier Snapshot values are unaffected
			apps := append([]catalog.AppRecord(nil), s.snap.Apps...)
			fn(&apps[i])
			s.snap.Apps = apps
			return
		}
	}
}
