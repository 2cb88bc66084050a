package manifest

import (
	"crypto"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	// Ensure SHA512 is available for checksum calculation.
	_ "crypto/sha512"
)

const (
	// IndexFilename stores per-manifest generation records next to the manifests.
	IndexFilename = "manifest-lock-index.yaml"

	// DefaultFileMode is used when writing the index.
	DefaultFileMode os.FileMode = 0o644

	// DefaultChecksumFunction is used to fingerprint the requirements source.
	DefaultChecksumFunction crypto.Hash = crypto.SHA512
)

var errHashUnavailable = errors.New("hash function unavailable")

// Record describes one generated manifest.
type Record struct {
	// SourceChecksum is the base64-encoded checksum of the requirements
	// source at the time the manifest was compiled.
	SourceChecksum string `yaml:"source_checksum"`
	// Host is the platform key of the machine that compiled the manifest.
	Host string `yaml:"host"`
	// GeneratedAt is the UTC timestamp of the compilation.
	GeneratedAt time.Time `yaml:"generated_at"`
}

// Index records which manifests were generated from which requirements source.
// It is the only cross-platform state in the release process: each platform's
// locker run appends its own record, and the checker and packager read the
// union to decide whether the manifest set is coherent.
type Index struct {
	// Source is the requirements source file the manifests are compiled from.
	Source string `yaml:"source"`
	// Manifests maps manifest filenames to their generation records.
	Manifests map[string]Record `yaml:"manifests"`
}

// NewIndex produces an empty index for the given requirements source.
func NewIndex(source string) *Index {
	return &Index{
		Source:    source,
		Manifests: make(map[string]Record),
	}
}

// LoadIndex reads the index from path. A missing file yields an empty index
// for the provided source, so first runs need no bootstrap step.
func LoadIndex(path, source string) (*Index, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, os.ErrNotExist) {
		return NewIndex(source), nil
	} else if err != nil {
		return nil, fmt.Errorf("read lock index: %w", err)
	}

	var index Index
	if err := yaml.Unmarshal(contents, &index); err != nil {
		return nil, fmt.Errorf("unmarshal lock index: %w", err)
	}

	if index.Manifests == nil {
		index.Manifests = make(map[string]Record)
	}

	return &index, nil
}

// Save writes the index to path.
func (x *Index) Save(path string) error {
	contents, err := yaml.Marshal(x)
	if err != nil {
		return fmt.Errorf("marshal lock index: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), contents, DefaultFileMode); err != nil {
		return fmt.Errorf("write lock index: %w", err)
	}

	return nil
}

// SetRecord stores the generation record for a manifest.
func (x *Index) SetRecord(ref Ref, record Record) {
	x.Manifests[string(ref)] = record
}

// SourceChecksum returns the base64-encoded checksum of the file at path
// using DefaultChecksumFunction.
func SourceChecksum(path string) (string, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", err
	}

	if !DefaultChecksumFunction.Available() {
		return "", fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	hasher := DefaultChecksumFunction.New()
	if _, err = hasher.Write(contents); err != nil {
		return "", fmt.Errorf("calculate checksum: %w", err)
	}

	return base64.StdEncoding.EncodeToString(hasher.Sum(nil)), nil
}
