// Package scanner discovers application bundles under the install roots and
// watches those roots for changes.
package scanner

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/appdock/appdock/internal/catalog"
	"github.com/appdock/appdock/internal/logging"
	"github.com/appdock/appdock/internal/metadata"
	"github.com/appdock/appdock/internal/platform"
)

var scanLog = logging.ForComponent(logging.CompScan)

// BundleExt marks a directory as an application bundle.
const BundleExt = ".app"

// DefaultDenylist holds identifier prefixes of OS helper processes that ship
// as visible bundles but are never useful to launch.
var DefaultDenylist = []string{
	"com.apple.SetupAssistant",
	"com.apple.FeedbackAssistant",
	"com.apple.loginwindow",
	"com.apple.finder",
}

// Scanner enumerates bundles under Roots. Earlier roots take precedence when
// two bundles share an identifier.
type Scanner struct {
	Roots      []string
	SystemRoot string
	Parser     *metadata.Parser

	// Denylist entries are identifier prefixes; ExcludeIDs are exact.
	Denylist   []string
	ExcludeIDs []string

	// Workers bounds how many roots are walked at once.
	Workers int
}

// New returns a scanner over roots with the default denylist.
func New(parser *metadata.Parser, roots []string) *Scanner {
	return &Scanner{
		Roots:      roots,
		SystemRoot: platform.SystemAppsRoot,
		Parser:     parser,
		Denylist:   DefaultDenylist,
		Workers:    4,
	}
}

// candidate is a parsed bundle before cross-root deduplication
type candidate struct {
	path string
	md   *metadata.Metadata
}

// Scan walks every root and returns one record per identifier, sorted by
// name. Unreadable roots and bundles are skipped. The only error is ctx's.
func (s *Scanner) Scan(ctx context.Context) ([]catalog.AppRecord, error) {
	start := time.Now()

	perRoot := make([][]candidate, len(s.Roots))
	g, gctx := errgroup.WithContext(ctx)
	workers := s.Workers
	if workers <= 0 {
		workers = 1
	}
	g.SetLimit(workers)
	for i, root := range s.Roots {
		g.Go(func() error {
			found, err := s.walkRoot(gctx, root)
			perRoot[i] = found
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var records []catalog.AppRecord
	for _, found := range perRoot {
		for _, c := range found {
			if _, dup := seen[c.md.BundleID]; dup {
				logging.Aggregate(logging.CompScan, "skip_duplicate", slog.String("id", c.md.BundleID))
				continue
			}
			seen[c.md.BundleID] = struct{}{}
			records = append(records, catalog.AppRecord{
				ID:            c.md.BundleID,
				Name:          c.md.DisplayName,
				Path:          c.path,
				StoreCategory: c.md.StoreCategory,
				Version:       c.md.Version,
				Category:      catalog.Other,
				IsSystemApp:   s.isSystemPath(c.path),
			})
		}
	}

	catalog.SortByName(records)
	scanLog.Info("scan_complete",
		slog.Int("roots", len(s.Roots)),
		slog.Int("apps", len(records)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return records, nil
}

// walkRoot collects launchable bundles under one root in lexical order.
// A symlinked root is walked at its target.
func (s *Scanner) walkRoot(ctx context.Context, root string) ([]candidate, error) {
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	} else {
		scanLog.Debug("root_unresolvable", slog.String("root", root), slog.String("error", err.Error()))
		return nil, nil
	}
	var found []candidate
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == root {
				scanLog.Debug("root_unreadable", slog.String("root", root), slog.String("error", err.Error()))
			}
			return nil
		}

		name := d.Name()
		if path != root && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(name), BundleExt) {
			return nil
		}

		if c, ok := s.inspect(ctx, path); ok {
			found = append(found, c)
		}
		if d.IsDir() {
			return filepath.SkipDir
		}
		return nil
	})
	return found, err
}

// inspect resolves and parses one bundle and applies the visibility filters.
func (s *Scanner) inspect(ctx context.Context, path string) (candidate, bool) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		logging.Aggregate(logging.CompScan, "skip_broken_link", slog.String("path", path))
		return candidate{}, false
	}
	if info, err := os.Stat(resolved); err != nil || !info.IsDir() {
		return candidate{}, false
	}

	md, ok := s.Parser.Parse(ctx, resolved)
	if !ok {
		logging.Aggregate(logging.CompScan, "skip_unreadable", slog.String("path", resolved))
		return candidate{}, false
	}
	if md.IsUIElement || md.IsBackgroundOnly {
		logging.Aggregate(logging.CompScan, "skip_agent", slog.String("id", md.BundleID))
		return candidate{}, false
	}
	if s.excluded(md.BundleID) {
		logging.Aggregate(logging.CompScan, "skip_denied", slog.String("id", md.BundleID))
		return candidate{}, false
	}
	return candidate{path: resolved, md: md}, true
}

func (s *Scanner) excluded(id string) bool {
	for _, prefix := range s.Denylist {
		if strings.HasPrefix(id, prefix) {
			return true
		}
	}
	for _, exact := range s.ExcludeIDs {
		if id == exact {
			return true
		}
	}
	return false
}

func (s *Scanner) isSystemPath(path string) bool {
	if s.SystemRoot == "" {
		return false
	}
	root := filepath.Clean(s.SystemRoot)
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
}
