// Package config loads and saves the user's config.toml.
package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	dark "github.com/thiagokokada/dark-mode-go"

	"github.com/appdock/appdock/internal/logging"
	"github.com/appdock/appdock/internal/platform"
)

var configLog = logging.ForComponent(logging.CompCLI)

// FileName is the TOML config file inside the state dir
const FileName = "config.toml"

// UserConfig is the user-facing configuration
type UserConfig struct {
	// Theme sets the color scheme: "dark" (default), "light", or "system"
	Theme string `toml:"theme"`

	Scan        ScanSettings       `toml:"scan"`
	Pins        PinSettings        `toml:"pins"`
	Search      SearchSettings     `toml:"search"`
	Suggestions SuggestionSettings `toml:"suggestions"`
	Logs        LogSettings        `toml:"logs"`
}

// ScanSettings controls discovery and the change watcher
type ScanSettings struct {
	// ExtraRoots are searched after the built-in install roots
	ExtraRoots []string `toml:"extra_roots"`

	// ExcludeIDs are identifier prefixes never listed, on top of the
	// built-in helper denylist
	ExcludeIDs []string `toml:"exclude_ids"`

	// DebounceMS is the quiet period after a filesystem event before a
	// rescan. Default: 1000
	DebounceMS int `toml:"debounce_ms"`

	// Spotlight enables the Spotlight category lookup. Default: true
	Spotlight *bool `toml:"spotlight"`

	// SpotlightRate caps Spotlight lookups per second. Default: 50
	SpotlightRate int `toml:"spotlight_rate"`

	// Workers bounds how many roots are walked in parallel. Default: 4
	Workers int `toml:"workers"`
}

// GetSpotlight returns whether Spotlight lookups are enabled, defaulting to true
func (s *ScanSettings) GetSpotlight() bool {
	if s.Spotlight == nil {
		return true
	}
	return *s.Spotlight
}

// Debounce returns DebounceMS as a duration
func (s *ScanSettings) Debounce() time.Duration {
	return time.Duration(s.DebounceMS) * time.Millisecond
}

// PinSettings controls the pinned row
type PinSettings struct {
	// MaxPinned caps how many apps can be pinned. Default: 12
	MaxPinned int `toml:"max_pinned"`
}

// SearchSettings controls result lists
type SearchSettings struct {
	// MaxResults truncates search results. 0 means unlimited
	MaxResults int `toml:"max_results"`
}

// SuggestionSettings controls time-of-day suggestions
type SuggestionSettings struct {
	// Enabled turns suggestions on. Default: true
	Enabled *bool `toml:"enabled"`

	// Max is the number of suggestions shown. Default: 8
	Max int `toml:"max"`
}

// GetEnabled returns whether suggestions are enabled, defaulting to true
func (s *SuggestionSettings) GetEnabled() bool {
	if s.Enabled == nil {
		return true
	}
	return *s.Enabled
}

// LogSettings controls debug.log
type LogSettings struct {
	// Level is the minimum level: "debug", "info", "warn", "error". Default: "info"
	Level string `toml:"level"`

	// Format is "json" (default) or "text"
	Format string `toml:"format"`

	// MaxSizeMB is the size before rotation. Default: 10
	MaxSizeMB int `toml:"max_size_mb"`

	// MaxBackups is the number of rotated files kept. Default: 5
	MaxBackups int `toml:"max_backups"`

	// MaxAgeDays is how long rotated files are kept. Default: 10
	MaxAgeDays int `toml:"max_age_days"`

	// Compress gzips rotated files. Default: true
	Compress *bool `toml:"compress"`

	// Debug mirrors log records to stderr
	Debug bool `toml:"debug"`
}

var defaultUserConfig = UserConfig{}

var (
	userConfigCache   *UserConfig
	userConfigCacheMu sync.RWMutex
)

// Path returns the path to config.toml
func Path() (string, error) {
	dir, err := platform.StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Load reads config.toml. The result is cached after the first call. A parse
// error returns the defaults together with the error.
func Load() (*UserConfig, error) {
	userConfigCacheMu.RLock()
	if userConfigCache != nil {
		defer userConfigCacheMu.RUnlock()
		return userConfigCache, nil
	}
	userConfigCacheMu.RUnlock()

	userConfigCacheMu.Lock()
	defer userConfigCacheMu.Unlock()

	if userConfigCache != nil {
		return userConfigCache, nil
	}

	path, err := Path()
	if err != nil {
		userConfigCache = &defaultUserConfig
		return userConfigCache, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		userConfigCache = &defaultUserConfig
		return userConfigCache, nil
	}

	var cfg UserConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		// Cache defaults so a broken file is reported once
		userConfigCache = &defaultUserConfig
		return userConfigCache, fmt.Errorf("config.toml parse error: %w", err)
	}
	userConfigCache = &cfg
	return userConfigCache, nil
}

// Reload drops the cache and reads config.toml again
func Reload() (*UserConfig, error) {
	ClearCache()
	return Load()
}

// ClearCache forgets the cached config without reloading
func ClearCache() {
	userConfigCacheMu.Lock()
	userConfigCache = nil
	userConfigCacheMu.Unlock()
}

// Save writes cfg atomically: temp file, fsync, rename.
func Save(cfg *UserConfig) error {
	path, err := Path()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("# AppDock configuration\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := syncFile(tmpPath); err != nil {
		configLog.Warn("config_fsync_failed", slog.String("error", err.Error()))
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to finalize config save: %w", err)
	}

	ClearCache()
	return nil
}

func syncFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}

// load returns the cached config, falling back to defaults on error
func load() *UserConfig {
	cfg, err := Load()
	if err != nil || cfg == nil {
		return &defaultUserConfig
	}
	return cfg
}

// GetTheme returns the configured theme, "dark" when unset or invalid
func GetTheme() string {
	switch t := load().Theme; t {
	case "dark", "light", "system":
		return t
	default:
		return "dark"
	}
}

// ResolveTheme resolves "system" to "dark" or "light" from the OS setting.
// Detection failure means dark.
func ResolveTheme() string {
	theme := GetTheme()
	if theme != "system" {
		return theme
	}
	isDark, err := dark.IsDarkMode()
	if err != nil || isDark {
		return "dark"
	}
	return "light"
}

// GetScanSettings returns scan settings with defaults applied
func GetScanSettings() ScanSettings {
	s := load().Scan
	if s.DebounceMS <= 0 {
		s.DebounceMS = 1000
	}
	if s.SpotlightRate <= 0 {
		s.SpotlightRate = 50
	}
	if s.Workers <= 0 {
		s.Workers = 4
	}
	return s
}

// GetPinSettings returns pin settings with defaults applied
func GetPinSettings() PinSettings {
	s := load().Pins
	if s.MaxPinned <= 0 {
		s.MaxPinned = 12
	}
	return s
}

// GetSearchSettings returns search settings
func GetSearchSettings() SearchSettings {
	s := load().Search
	if s.MaxResults < 0 {
		s.MaxResults = 0
	}
	return s
}

// GetSuggestionSettings returns suggestion settings with defaults applied
func GetSuggestionSettings() SuggestionSettings {
	s := load().Suggestions
	if s.Max <= 0 {
		s.Max = 8
	}
	return s
}

// GetLogSettings returns log settings with defaults applied
func GetLogSettings() LogSettings {
	s := load().Logs
	if s.Level == "" {
		s.Level = "info"
	}
	if s.Format == "" {
		s.Format = "json"
	}
	if s.MaxSizeMB <= 0 {
		s.MaxSizeMB = 10
	}
	if s.MaxBackups <= 0 {
		s.MaxBackups = 5
	}
	if s.MaxAgeDays <= 0 {
		s.MaxAgeDays = 10
	}
	if s.Compress == nil {
		compress := true
		s.Compress = &compress
	}
	return s
}

// LoggingConfig maps log settings onto a logging.Config writing into logDir.
func (s LogSettings) LoggingConfig(logDir string, debug bool) logging.Config {
	compress := true
	if s.Compress != nil {
		compress = *s.Compress
	}
	return logging.Config{
		LogDir:     logDir,
		Level:      s.Level,
		Format:     s.Format,
		MaxSizeMB:  s.MaxSizeMB,
		MaxBackups: s.MaxBackups,
		MaxAgeDays: s.MaxAgeDays,
		Compress:   compress,
		Debug:      debug || s.Debug,
	}
}

// CreateExample writes a commented config.toml unless one already exists
func CreateExample() (string, error) {
	path, err := Path()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(exampleConfig), 0o600); err != nil {
		return "", fmt.Errorf("failed to write example config: %w", err)
	}
	ClearCache()
	return path, nil
}

const exampleConfig = `# AppDock configuration

# "dark", "light" or "system"
# theme = "dark"

[scan]
# Searched after /Applications, /System/Applications, ~/Applications and the Caskroom
# extra_roots = ["/Volumes/Work/Applications"]

# Identifier prefixes to leave out of listings
# exclude_ids = ["com.example.updater"]

# Quiet period after a change before rescanning
# debounce_ms = 1000

# Read App Store categories from Spotlight
# spotlight = true
# spotlight_rate = 50

# workers = 4

[pins]
# max_pinned = 12

[search]
# 0 means no limit
# max_results = 0

[suggestions]
# enabled = true
# max = 8

[logs]
# level = "info"
# format = "json"
# max_size_mb = 10
# max_backups = 5
# max_age_days = 10
# compress = true
# debug = false
`
