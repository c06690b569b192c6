// Package testutil builds on-disk application bundle fixtures for tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"howett.net/plist"
)

// Info is the descriptor content written into a fixture bundle.
type Info map[string]any

// App returns a minimal descriptor for a visible application.
func App(id, name, version string) Info {
	info := Info{
		"CFBundleIdentifier": id,
		"CFBundleName":       name,
	}
	if version != "" {
		info["CFBundleShortVersionString"] = version
	}
	return info
}

// WriteBundle creates dir/name.app with an XML descriptor and returns the
// bundle path. A nil info writes a bundle with no descriptor at all.
func WriteBundle(t *testing.T, dir, name string, info Info) string {
	t.Helper()
	bundle := filepath.Join(dir, name+".app")
	contents := filepath.Join(bundle, "Contents")
	if err := os.MkdirAll(filepath.Join(contents, "MacOS"), 0o755); err != nil {
		t.Fatalf("mkdir bundle: %v", err)
	}
	if info == nil {
		return bundle
	}

	data, err := plist.MarshalIndent(map[string]any(info), plist.XMLFormat, "\t")
	if err != nil {
		t.Fatalf("marshal descriptor: %v", err)
	}
	if err := os.WriteFile(filepath.Join(contents, "Info.plist"), data, 0o644); err != nil {
		t.Fatalf("write descriptor: %v", err)
	}
	return bundle
}

// WriteBinaryBundle is WriteBundle with a binary-format descriptor.
func WriteBinaryBundle(t *testing.T, dir, name string, info Info) string {
	t.Helper()
	bundle := WriteBundle(t, dir, name, nil)
	data, err := plist.Marshal(map[string]any(info), plist.BinaryFormat)
	if err != nil {
		t.Fatalf("marshal descriptor: %v", err)
	}
	if err := os.WriteFile(filepath.Join(bundle, "Contents", "Info.plist"), data, 0o644); err != nil {
		t.Fatalf("write descriptor: %v", err)
	}
	return bundle
}
