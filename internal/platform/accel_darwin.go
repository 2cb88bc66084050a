package platform

import "runtime"

// DetectAccelerator reports "mps" on Apple Silicon and "none" on Intel Macs.
// The arm64 manifest carries the MPS-enabled torch build; Intel Macs get the
// CPU-only pin set.
func DetectAccelerator() string {
	if runtime.GOARCH == "arm64" {
		return AccelMPS
	}

	return AccelNone
}
