package platform

import "runtime"

// Detect builds the Key describing the machine the process is running on.
// Manifest generation must happen on a machine physically matching the
// target key, so detection never consults anything but the local host.
func Detect() (Key, error) {
	return NewKey(runtime.GOOS, runtime.GOARCH, DetectAccelerator())
}
