package metadata

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/appdock/appdock/internal/platform"
)

// SpotlightSource answers store-category questions from the OS search index.
// typeUTI is the machine form ("public.app-category.games"); name is the
// human-readable form ("Games"). Either may be empty.
type SpotlightSource interface {
	Lookup(ctx context.Context, bundlePath string) (typeUTI, name string, err error)
}

const (
	spotlightCacheTTL     = 30 * time.Minute
	spotlightCacheCleanup = 5 * time.Minute
)

// spotlightHint is the cached answer for one bundle path, stamped with the
// descriptor's mtime so a bundle replaced on disk is asked again
type spotlightHint struct {
	typeUTI string
	name    string
	modTime time.Time
}

// SpotlightReader queries the search index through mdls. Results are cached
// per bundle path and lookups are throttled so a cold scan over a few hundred
// bundles does not fork a burst of processes.
type SpotlightReader struct {
	limiter *rate.Limiter
	cache   *cache.Cache
	run     func(ctx context.Context, bundlePath string) (string, error)
}

// NewSpotlightReader creates an mdls-backed reader allowing perSecond lookups (burst 10).
func NewSpotlightReader(perSecond int) *SpotlightReader {
	return newSpotlightReader(perSecond, runMdls)
}

// DefaultSource returns the spotlight source for this machine, or nil when
// lookups are disabled or the platform has no search index.
func DefaultSource(enabled bool, perSecond int) SpotlightSource {
	if !enabled || !platform.IsMacOS() {
		return nil
	}
	return NewSpotlightReader(perSecond)
}

func newSpotlightReader(perSecond int, run func(context.Context, string) (string, error)) *SpotlightReader {
	if perSecond <= 0 {
		perSecond = 50
	}
	return &SpotlightReader{
		limiter: rate.NewLimiter(rate.Limit(perSecond), 10),
		cache:   cache.New(spotlightCacheTTL, spotlightCacheCleanup),
		run:     run,
	}
}

// Lookup implements SpotlightSource.
func (s *SpotlightReader) Lookup(ctx context.Context, bundlePath string) (string, string, error) {
	modTime := descriptorModTime(bundlePath)
	if v, ok := s.cache.Get(bundlePath); ok {
		if hint := v.(spotlightHint); hint.modTime.Equal(modTime) {
			return hint.typeUTI, hint.name, nil
		}
		metaLog.Debug("spotlight_cache_stale", slog.String("path", bundlePath))
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", "", err
	}

	out, err := s.run(ctx, bundlePath)
	if err != nil {
		return "", "", err
	}

	hint := parseMdlsOutput(out)
	hint.modTime = modTime
	s.cache.Set(bundlePath, hint, cache.DefaultExpiration)
	return hint.typeUTI, hint.name, nil
}

// descriptorModTime is the zero time when the descriptor cannot be read.
func descriptorModTime(bundlePath string) time.Time {
	fi, err := os.Stat(filepath.Join(bundlePath, DescriptorPath))
	if err != nil {
		return time.Time{}
	}
	return fi.ModTime()
}

func runMdls(ctx context.Context, bundlePath string) (string, error) {
	cmd := exec.CommandContext(ctx, "mdls",
		"-raw",
		"-nullMarker", "",
		"-name", "kMDItemAppStoreCategoryType",
		"-name", "kMDItemAppStoreCategory",
		bundlePath,
	)
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// parseMdlsOutput splits `mdls -raw` output. With -raw, values for multiple
// -name flags are separated by NUL bytes in the order requested.
func parseMdlsOutput(out string) spotlightHint {
	parts := strings.Split(out, "\x00")
	var hint spotlightHint
	if len(parts) > 0 {
		hint.typeUTI = cleanMdlsValue(parts[0])
	}
	if len(parts) > 1 {
		hint.name = cleanMdlsValue(parts[1])
	}
	return hint
}

func cleanMdlsValue(v string) string {
	v = strings.TrimSpace(v)
	if v == "(null)" {
		return ""
	}
	return strings.Trim(v, `"`)
}
