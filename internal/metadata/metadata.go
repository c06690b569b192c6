package metadata

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"howett.net/plist"

	"github.com/appdock/appdock/internal/catalog"
	"github.com/appdock/appdock/internal/logging"
)

var metaLog = logging.ForComponent(logging.CompMetadata)

// DescriptorPath is the descriptor file location relative to a bundle root.
const DescriptorPath = "Contents/Info.plist"

// Metadata is the normalized view of one bundle's descriptor.
type Metadata struct {
	DisplayName      string
	BundleID         string
	StoreCategory    string
	IsUIElement      bool
	IsBackgroundOnly bool
	Version          string
}

// Parser extracts Metadata from application bundles. Spotlight is optional;
// a nil source disables the search-index fallback for the store category.
type Parser struct {
	Spotlight SpotlightSource
}

// NewParser returns a parser using the given spotlight source (may be nil).
func NewParser(spotlight SpotlightSource) *Parser {
	return &Parser{Spotlight: spotlight}
}

// Parse reads the bundle descriptor. It returns false when the descriptor is
// missing, unreadable, or lacks an identifier; callers skip such bundles.
func (p *Parser) Parse(ctx context.Context, bundlePath string) (*Metadata, bool) {
	info, err := readDescriptor(filepath.Join(bundlePath, DescriptorPath))
	if err != nil {
		metaLog.Debug("descriptor_unreadable",
			slog.String("bundle", bundlePath),
			slog.String("error", err.Error()))
		return nil, false
	}

	bundleID := stringValue(info, "CFBundleIdentifier")
	if bundleID == "" {
		metaLog.Debug("descriptor_missing_identifier", slog.String("bundle", bundlePath))
		return nil, false
	}

	md := &Metadata{
		BundleID: bundleID,
		DisplayName: firstNonEmpty(
			func() string { return stringValue(info, "CFBundleDisplayName") },
			func() string { return stringValue(info, "CFBundleName") },
			func() string { return bundleBaseName(bundlePath) },
		),
		StoreCategory: firstNonEmpty(
			func() string { return stringValue(info, "LSApplicationCategoryType") },
			func() string { return p.spotlightCategory(ctx, bundlePath) },
		),
		IsUIElement:      boolValue(info, "LSUIElement"),
		IsBackgroundOnly: boolValue(info, "LSBackgroundOnly"),
		Version:          stringValue(info, "CFBundleShortVersionString"),
	}
	return md, true
}

func (p *Parser) spotlightCategory(ctx context.Context, bundlePath string) string {
	if p.Spotlight == nil {
		return ""
	}
	typeUTI, name, err := p.Spotlight.Lookup(ctx, bundlePath)
	if err != nil {
		metaLog.Debug("spotlight_lookup_failed",
			slog.String("bundle", bundlePath),
			slog.String("error", err.Error()))
		return ""
	}
	if typeUTI != "" {
		return typeUTI
	}
	if name != "" {
		return Slugify(name)
	}
	return ""
}

// Slugify converts a human-readable store category ("Graphics & Design") to
// the machine form ("public.app-category.graphics-design").
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, " & ", "-")
	slug = strings.ReplaceAll(slug, " ", "-")
	return catalog.StoreTypePrefix + slug
}

func readDescriptor(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var info map[string]any
	if _, err := plist.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return info, nil
}

// firstNonEmpty evaluates providers in order and returns the first non-blank value.
func firstNonEmpty(providers ...func() string) string {
	for _, provide := range providers {
		if v := strings.TrimSpace(provide()); v != "" {
			return v
		}
	}
	return ""
}

func stringValue(info map[string]any, key string) string {
	s, _ := info[key].(string)
	return strings.TrimSpace(s)
}

// boolValue accepts a real boolean, an integer 1, or the strings "1"/"YES"/"true"
// that hand-edited descriptors sometimes carry.
func boolValue(info map[string]any, key string) bool {
	switch v := info[key].(type) {
	case bool:
		return v
	case uint64:
		return v == 1
	case int64:
		return v == 1
	case int:
		return v == 1
	case float64:
		return v == 1
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "yes", "true":
			return true
		}
	}
	return false
}

func bundleBaseName(bundlePath string) string {
	base := filepath.Base(bundlePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
