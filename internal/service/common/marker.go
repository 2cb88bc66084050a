package common

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/invoke-ai/release-packager/internal/logger"
)

const (
	// MarkerFilename marks that a locking run is in progress so packaging
	// and concurrent locking runs do not race against it.
	MarkerFilename = "release-lock-marker.bin"

	// markerLifetime is the period after which a leftover marker is treated
	// as stale. Dependency locking can legitimately run for several minutes.
	markerLifetime = 30 * time.Minute

	// markerFileMode is the permission for the marker file.
	markerFileMode os.FileMode = 0o644

	// lockerProcessName is the executable whose liveness decides whether a
	// stale marker can be reclaimed.
	lockerProcessName = "release-locker"
)

// errLockerRunning indicates a locking run holds the marker.
var errLockerRunning = errors.New("a dependency locking run is in progress")

// MarkerPath returns the marker location inside the manifest directory, the
// one directory all three binaries share.
func MarkerPath(manifestDir string) string {
	return filepath.Join(manifestDir, MarkerFilename)
}

// AcquireMarker claims the lock marker at path or reports why it cannot.
// A fresh marker always wins. A stale marker is reclaimed when no other
// locker process is alive.
func AcquireMarker(ctx context.Context, path string) error {
	if IsLockerRunning(ctx, path) {
		return errLockerRunning
	}

	contents := []byte(strconv.Itoa(os.Getpid()))
	if err := os.WriteFile(path, contents, markerFileMode); err != nil {
		return fmt.Errorf("write lock marker: %w", err)
	}

	return nil
}

// ReleaseMarker removes the lock marker. A missing marker is not an error.
func ReleaseMarker(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove lock marker: %w", err)
	}

	return nil
}

// IsLockerRunning checks presence of the marker file and attempts recovery
// if it looks stale.
func IsLockerRunning(ctx context.Context, path string) bool {
	fileInfo, err := os.Stat(path)
	if err == nil {
		if time.Since(fileInfo.ModTime()) <= markerLifetime {
			return true
		}

		logger.Info(ctx, "Found a stale lock marker, checking for a live locker process")

		if processRunning(lockerExecutable()) {
			return true
		}

		if err = os.Remove(path); err != nil {
			return true
		}

		return false
	}

	if errors.Is(err, os.ErrNotExist) {
		return false
	}

	logger.Infof(ctx, "Unable to read lock marker: %v", err)

	return false
}

// lockerExecutable returns the locker process name for the current platform.
func lockerExecutable() string {
	if runtime.GOOS == "windows" {
		return lockerProcessName + ".exe"
	}

	return lockerProcessName
}

// processRunning reports whether a process with the provided executable name
// is alive, excluding the current process.
func processRunning(processName string) bool {
	processList, err := ps.Processes()
	if err != nil {
		// Cannot tell, assume it is running to stay safe.
		return true
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if process.Executable() == processName {
			return true
		}
	}

	return false
}
