package services

import (
	"fmt"
	"runtime"
)

// PlatformFamily selects the CTK entry script
type PlatformFamily string

// Recognised platform families
const (
	PlatformWindows PlatformFamily = "windows"
	PlatformMac     PlatformFamily = "mac"
	PlatformLinux   PlatformFamily = "linux"
)

// Entry scripts shipped in every CTK
const (
	WindowsEntryScript = "Windows-Bat-RUNCTK.bat"
	UnixEntryScript    = "Mac-Linux-RUNCTK.sh"
)

var platformFamilies = map[string]PlatformFamily{
	"windows": PlatformWindows,
	"darwin":  PlatformMac,
	"linux":   PlatformLinux,
}

// ResolvePlatform maps a GOOS value to a platform family
func ResolvePlatform(goos string) (PlatformFamily, error) {
	family, ok := platformFamilies[goos]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedPlatform, goos)
	}
	return family, nil
}

// HostPlatform resolves the platform family of the running process
func HostPlatform() (PlatformFamily, error) {
	return ResolvePlatform(runtime.GOOS)
}

// EntryScript returns the script name to execute for this family
func (p PlatformFamily) EntryScript() string {
	if p == PlatformWindows {
		return WindowsEntryScript
	}
	return UnixEntryScript
}
