// ABOUTME: Host platform description using the launcher's OS and bitness vocabulary
// ABOUTME: Maps runtime.GOOS/GOARCH onto "windows"/"osx"/"linux" and "32"/"64"

package platform

import (
	"runtime"
	"strings"
)

// OS is an operating system name as it appears in manifest rules.
type OS string

const (
	Windows OS = "windows"
	OSX     OS = "osx"
	Linux   OS = "linux"
)

// Host describes the machine an install or launch targets.
type Host struct {
	OS      OS
	Arch    string // "32" or "64"
	Version string // OS version, matched against rule version patterns
}

// Current returns the Host for the running process.
func Current() Host {
	return Host{OS: HostOS(), Arch: HostArch()}
}

// HostOS returns the manifest OS name for runtime.GOOS.
func HostOS() OS {
	return osFromGOOS(runtime.GOOS)
}

// HostArch returns "64" on 64-bit architectures and "32" otherwise.
func HostArch() string {
	return archFromGOARCH(runtime.GOARCH)
}

func osFromGOOS(goos string) OS {
	switch goos {
	case "darwin":
		return OSX
	default:
		return OS(goos)
	}
}

func archFromGOARCH(goarch string) string {
	if strings.HasSuffix(goarch, "64") || goarch == "s390x" {
		return "64"
	}
	return "32"
}

// PathListSeparator returns the classpath separator used by the host.
func (h Host) PathListSeparator() string {
	if h.OS == Windows {
		return ";"
	}
	return ":"
}
