package platform

import (
	"errors"
	"fmt"
	"strings"
)

// Canonical operating system tokens used in manifest filenames.
const (
	OSDarwin  = "darwin"
	OSLinux   = "linux"
	OSWindows = "windows"
)

// Canonical CPU architecture tokens. Manifests use "x86_64" rather than
// Go's "amd64" so filenames line up with Python wheel platform tags.
const (
	ArchARM64 = "arm64"
	ArchX8664 = "x86_64"
)

// Accelerator tokens identifying the compute backend a manifest is pinned for.
const (
	AccelMPS  = "mps"
	AccelCUDA = "cuda"
	AccelNone = "none"
)

var (
	// errUnknownOS is returned when an operating system token cannot be normalized.
	errUnknownOS = errors.New("unrecognized operating system")
	// errUnknownArch is returned when an architecture token cannot be normalized.
	errUnknownArch = errors.New("unrecognized CPU architecture")
	// errUnknownAccelerator is returned when an accelerator token cannot be normalized.
	errUnknownAccelerator = errors.New("unrecognized accelerator")
)

// Key identifies the (OS, architecture, accelerator) tuple an installer
// build targets. It is constructed once per invocation and read-only
// afterwards.
type Key struct {
	// OS is one of darwin, linux, windows.
	OS string
	// Arch is one of arm64, x86_64.
	Arch string
	// Accelerator is one of mps, cuda, none.
	Accelerator string
}

// NewKey normalizes the provided tokens into a Key.
// It accepts common aliases (macOS, amd64, aarch64 and friends) and fails
// on tokens outside the recognized vocabulary. Whether the resulting tuple
// has a manifest convention is decided by the manifest resolver, not here.
func NewKey(osName, arch, accelerator string) (Key, error) {
	normalizedOS, ok := NormalizeOS(osName)
	if !ok {
		return Key{}, fmt.Errorf("%w: %q", errUnknownOS, osName)
	}

	normalizedArch, ok := NormalizeArch(arch)
	if !ok {
		return Key{}, fmt.Errorf("%w: %q", errUnknownArch, arch)
	}

	normalizedAccelerator, ok := NormalizeAccelerator(accelerator)
	if !ok {
		return Key{}, fmt.Errorf("%w: %q", errUnknownAccelerator, accelerator)
	}

	return Key{
		OS:          normalizedOS,
		Arch:        normalizedArch,
		Accelerator: normalizedAccelerator,
	}, nil
}

// String renders the key as os/arch/accelerator, e.g. "darwin/arm64/mps".
func (k Key) String() string {
	return k.OS + "/" + k.Arch + "/" + k.Accelerator
}

// NormalizeOS maps an operating system token to its canonical form.
func NormalizeOS(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "darwin", "macos", "mac", "osx":
		return OSDarwin, true
	case "linux":
		return OSLinux, true
	case "windows", "win":
		return OSWindows, true
	default:
		return "", false
	}
}

// NormalizeArch maps a CPU architecture token to its canonical form.
func NormalizeArch(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "arm64", "aarch64":
		return ArchARM64, true
	case "x86_64", "amd64", "x64":
		return ArchX8664, true
	default:
		return "", false
	}
}

// NormalizeAccelerator maps an accelerator token to its canonical form.
// An empty token means no accelerator.
func NormalizeAccelerator(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "cpu":
		return AccelNone, true
	case "mps", "metal":
		return AccelMPS, true
	case "cuda":
		return AccelCUDA, true
	default:
		return "", false
	}
}
