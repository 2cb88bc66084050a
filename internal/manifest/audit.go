package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invoke-ai/release-packager/internal/platform"
)

// Status classifies one supported platform's manifest during an audit.
type Status int

const (
	// StatusFresh means the manifest exists and was compiled from the current source.
	StatusFresh Status = iota
	// StatusStale means the manifest exists but the requirements source changed since.
	StatusStale
	// StatusMissing means the manifest file is absent.
	StatusMissing
	// StatusUnrecorded means the manifest file exists but the index has no
	// record of its generation, so its provenance is unknown.
	StatusUnrecorded
)

// String renders the status for logs.
func (s Status) String() string {
	switch s {
	case StatusFresh:
		return "fresh"
	case StatusStale:
		return "stale"
	case StatusMissing:
		return "missing"
	case StatusUnrecorded:
		return "unrecorded"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result pairs a supported platform with the state of its manifest.
type Result struct {
	// Key is the platform tuple being audited.
	Key platform.Key
	// Ref is the manifest filename the platform resolves to.
	Ref Ref
	// Status is the audit outcome for this manifest.
	Status Status
}

// OK reports whether the manifest is safe to package.
func (r Result) OK() bool {
	return r.Status == StatusFresh
}

// Audit checks every supported platform's manifest in dir against the
// current checksum of the requirements source at sourcePath.
//
// A changed source without regenerated manifests is the silent failure mode
// of this release process: installers would pin dependencies nobody intended
// to ship. Audit turns it into a visible, pre-packaging condition.
func Audit(pythonVersion, dir, sourcePath string, index *Index) ([]Result, error) {
	sum, err := SourceChecksum(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("checksum requirements source: %w", err)
	}

	supported := SupportedKeys()
	results := make([]Result, 0, len(supported))

	for _, key := range supported {
		ref, err := ResolveFor(pythonVersion, key)
		if err != nil {
			return nil, err
		}

		results = append(results, Result{
			Key:    key,
			Ref:    ref,
			Status: auditOne(dir, ref, sum, index),
		})
	}

	return results, nil
}

// auditOne classifies a single manifest file.
func auditOne(dir string, ref Ref, sourceSum string, index *Index) Status {
	if _, err := os.Stat(filepath.Join(dir, string(ref))); errors.Is(err, os.ErrNotExist) {
		return StatusMissing
	}

	record, ok := index.Manifests[string(ref)]
	if !ok {
		return StatusUnrecorded
	}

	if record.SourceChecksum != sourceSum {
		return StatusStale
	}

	return StatusFresh
}
