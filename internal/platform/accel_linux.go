package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// PCI class codes for display controllers (top 16 bits).
const (
	pciClassVGA = "0x0300" // VGA compatible controller
	pciClass3D  = "0x0302" // 3D controller (e.g., NVIDIA Tesla)
)

// pciVendorNVIDIA is the PCI vendor ID assigned to NVIDIA.
const pciVendorNVIDIA = "0x10de"

// DetectAccelerator reports "cuda" when an NVIDIA display controller is
// present on the PCI bus and "none" otherwise.
func DetectAccelerator() string {
	return detectAcceleratorWithRoot("")
}

// detectAcceleratorWithRoot scans sysfs under a custom root path for testing.
// An empty root uses the real filesystem root.
func detectAcceleratorWithRoot(root string) string {
	if root == "" {
		root = "/"
	}

	pattern := filepath.Join(root, "sys", "bus", "pci", "devices", "*", "class")

	classFiles, err := filepath.Glob(pattern)
	if err != nil || len(classFiles) == 0 {
		return AccelNone
	}

	for _, classFile := range classFiles {
		classData, err := os.ReadFile(classFile)
		if err != nil {
			continue
		}

		if !isDisplayController(strings.TrimSpace(string(classData))) {
			continue
		}

		// Read the vendor file from the same device directory.
		vendorFile := filepath.Join(filepath.Dir(classFile), "vendor")

		vendorData, err := os.ReadFile(vendorFile)
		if err != nil {
			continue
		}

		if strings.TrimSpace(string(vendorData)) == pciVendorNVIDIA {
			return AccelCUDA
		}
	}

	return AccelNone
}

// isDisplayController checks whether a PCI class value denotes a VGA or 3D controller.
func isDisplayController(class string) bool {
	if len(class) < 6 {
		return false
	}

	prefix := class[:6]

	return prefix == pciClassVGA || prefix == pciClass3D
}
