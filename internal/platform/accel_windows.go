package platform

import "os/exec"

// DetectAccelerator reports "cuda" when the NVIDIA driver tooling is on PATH
// and "none" otherwise. Installer archives for Windows are only produced for
// CUDA machines, so a machine without the driver cannot generate manifests.
func DetectAccelerator() string {
	if _, err := exec.LookPath("nvidia-smi"); err == nil {
		return AccelCUDA
	}

	return AccelNone
}
