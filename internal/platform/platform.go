package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Platform represents the detected platform
type Platform string

const (
	PlatformMacOS   Platform = "macos"
	PlatformLinux   Platform = "linux"
	PlatformWindows Platform = "windows"
	PlatformUnknown Platform = "unknown"
)

// SystemAppsRoot is the read-only location of OS-provided applications.
// Bundles under it are flagged as system apps and cannot be uninstalled.
const SystemAppsRoot = "/System/Applications"

// StateDirEnv overrides the state directory.
const StateDirEnv = "APPDOCK_HOME"

// cached detection result
var detectedPlatform Platform
var detectionDone bool

// Detect returns the current platform, caching the result
func Detect() Platform {
	if detectionDone {
		return detectedPlatform
	}
	detectedPlatform = detectPlatform(runtime.GOOS)
	detectionDone = true
	return detectedPlatform
}

func detectPlatform(goos string) Platform {
	switch goos {
	case "darwin":
		return PlatformMacOS
	case "linux":
		return PlatformLinux
	case "windows":
		return PlatformWindows
	default:
		return PlatformUnknown
	}
}

// IsMacOS reports whether Launch Services, Spotlight and the Trash are available.
func IsMacOS() bool {
	return Detect() == PlatformMacOS
}

// String returns a human-readable platform name
func (p Platform) String() string {
	switch p {
	case PlatformMacOS:
		return "macOS"
	case PlatformLinux:
		return "Linux"
	case PlatformWindows:
		return "Windows"
	default:
		return "Unknown"
	}
}

// InstallRoots returns the default scan roots in priority order. The first
// root that yields a given bundle identifier wins during deduplication.
func InstallRoots(home string) []string {
	roots := []string{
		"/Applications",
		"/Applications/Utilities",
		SystemAppsRoot,
		filepath.Join(SystemAppsRoot, "Utilities"),
	}
	if home != "" {
		roots = append(roots, filepath.Join(home, "Applications"))
	}
	return append(roots, "/opt/homebrew/Caskroom")
}

// StateDir returns the directory holding config, the preference database and
// logs: $APPDOCK_HOME when set, otherwise ~/.appdock.
func StateDir() (string, error) {
	if dir := os.Getenv(StateDirEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".appdock"), nil
}

// CheckFsnotifySupport returns a warning when path lives on a filesystem
// where change notifications are unreliable (9p, nfs, cifs, sshfs), or ""
// when watching should work normally.
func CheckFsnotifySupport(path string) string {
	if runtime.GOOS != "linux" {
		return ""
	}
	mounts, err := os.ReadFile("/proc/mounts")
	if err != nil {
		return ""
	}
	return fsWarning(path, string(mounts))
}

func fsWarning(path, mounts string) string {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return ""
	}

	// Longest mountpoint containing the path decides the filesystem type
	var matchedMount, matchedFsType string
	for _, line := range strings.Split(mounts, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		mountPoint, fsType := fields[1], fields[2]
		if strings.HasPrefix(absPath, mountPoint) && len(mountPoint) > len(matchedMount) {
			matchedMount = mountPoint
			matchedFsType = fsType
		}
	}

	switch {
	case matchedFsType == "9p":
		return path + " is on a 9p mount: change notifications are unavailable, rescan manually."
	case matchedFsType == "nfs" || matchedFsType == "nfs4":
		return path + " is on an NFS mount: change notifications may be missed."
	case matchedFsType == "cifs" || matchedFsType == "smbfs":
		return path + " is on a CIFS/SMB mount: change notifications may be missed."
	case strings.HasPrefix(matchedFsType, "fuse.sshfs"):
		return path + " is on an SSHFS mount: change notifications are unavailable, rescan manually."
	}
	return ""
}
