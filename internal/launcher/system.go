package launcher

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/appdock/appdock/internal/platform"
)

// ErrUnsupported is returned by System on platforms other than macOS.
var ErrUnsupported = errors.New("launcher: not supported on this platform")

const osascriptTimeout = 30 * time.Second

// System launches and trashes bundles through the macOS command line tools.
type System struct{}

// Open launches the bundle at path, bringing it to the front.
func (System) Open(ctx context.Context, path string) error {
	if !platform.IsMacOS() {
		return ErrUnsupported
	}
	out, err := exec.CommandContext(ctx, "open", path).CombinedOutput()
	if err != nil {
		return fmt.Errorf("open: %s: %w", strings.TrimSpace(string(out)), err)
	}
	return nil
}

// Trash asks Finder to move path to the trash, which handles bundles that
// need an administrator prompt.
func (System) Trash(ctx context.Context, path string) error {
	if !platform.IsMacOS() {
		return ErrUnsupported
	}
	ctx, cancel := context.WithTimeout(ctx, osascriptTimeout)
	defer cancel()

	script := fmt.Sprintf(`tell application "Finder" to delete POSIX file %s`, appleScriptString(path))
	out, err := exec.CommandContext(ctx, "osascript", "-e", script).CombinedOutput()
	if err != nil {
		return fmt.Errorf("osascript: %s: %w", strings.TrimSpace(string(out)), err)
	}
	return nil
}

// IsRunning reports whether an app with identifier id is open. Errors count
// as not running.
func (System) IsRunning(ctx context.Context, id string) bool {
	if !platform.IsMacOS() {
		return false
	}
	script := fmt.Sprintf(`application id %s is running`, appleScriptString(id))
	out, err := exec.CommandContext(ctx, "osascript", "-e", script).Output()
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(out)) == "true"
}

func appleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
