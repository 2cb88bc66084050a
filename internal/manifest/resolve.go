package manifest

import (
	"fmt"

	"github.com/invoke-ai/release-packager/internal/platform"
)

// DefaultPythonVersion pins the interpreter series the manifests are built for.
const DefaultPythonVersion = "3.10"

// Ref is the filename of a pinned requirements manifest, derived from a
// platform key via the fixed naming convention
// py<version>-<os>-<arch>[-<accelerator>]-reqs.txt.
type Ref string

// UnsupportedPlatformError reports a platform key with no manifest convention.
// There is no safe fallback: an installer built against the wrong manifest
// would silently install incompatible dependencies, so callers must stop.
type UnsupportedPlatformError struct {
	// Key is the offending platform tuple.
	Key platform.Key
}

// Error renders the offending tuple.
func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("no requirements manifest is defined for platform %s", e.Key)
}

// Resolve maps a platform key to its manifest filename using DefaultPythonVersion.
func Resolve(key platform.Key) (Ref, error) {
	return ResolveFor(DefaultPythonVersion, key)
}

// ResolveFor maps a platform key to its manifest filename for the given
// Python series. The mapping is pure: identical inputs always yield the
// identical filename, and unsupported keys fail instead of guessing.
func ResolveFor(pythonVersion string, key platform.Key) (Ref, error) {
	suffix, err := platformSuffix(key)
	if err != nil {
		return "", err
	}

	return Ref(fmt.Sprintf("py%s-%s-reqs.txt", pythonVersion, suffix)), nil
}

// SupportedKeys returns the canonical platform tuples that have a manifest
// convention, in stable order.
func SupportedKeys() []platform.Key {
	return []platform.Key{
		{OS: platform.OSDarwin, Arch: platform.ArchARM64, Accelerator: platform.AccelMPS},
		{OS: platform.OSDarwin, Arch: platform.ArchX8664, Accelerator: platform.AccelNone},
		{OS: platform.OSLinux, Arch: platform.ArchX8664, Accelerator: platform.AccelCUDA},
		{OS: platform.OSWindows, Arch: platform.ArchX8664, Accelerator: platform.AccelCUDA},
	}
}

// platformSuffix maps a key to the os-arch[-accelerator] portion of the filename.
func platformSuffix(key platform.Key) (string, error) {
	switch {
	case key.OS == platform.OSDarwin && key.Arch == platform.ArchARM64 &&
		(key.Accelerator == platform.AccelMPS || key.Accelerator == platform.AccelNone):
		// A single manifest serves both the Metal and CPU paths on Apple Silicon.
		return "darwin-arm64-mps", nil
	case key.OS == platform.OSDarwin && key.Arch == platform.ArchX8664 &&
		key.Accelerator == platform.AccelNone:
		return "darwin-x86_64", nil
	case key.OS == platform.OSLinux && key.Arch == platform.ArchX8664 &&
		key.Accelerator == platform.AccelCUDA:
		return "linux-x86_64-cuda", nil
	case key.OS == platform.OSWindows && key.Arch == platform.ArchX8664 &&
		key.Accelerator == platform.AccelCUDA:
		return "windows-x86_64-cuda", nil
	default:
		return "", &UnsupportedPlatformError{Key: key}
	}
}
