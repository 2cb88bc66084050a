package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// Config holds release settings shared by the locker, checker and packager binaries.
type Config struct {
	// ReleaseURL is the repository base URL embedded into installers as RELEASE_URL.
	ReleaseURL string `yaml:"release_url"`
	// ReleaseSourceball is the archive path suffix embedded as RELEASE_SOURCEBALL.
	ReleaseSourceball string `yaml:"release_sourceball"`
	// ProductName is used in installer archive filenames and rendered scripts.
	ProductName string `yaml:"product_name"`
	// ReleaseVersion is the semantic version of the release being packaged.
	ReleaseVersion string `yaml:"release_version"`
	// PythonVersion is the interpreter series the pinned manifests target.
	PythonVersion string `yaml:"python_version"`
	// SourceFile is the unpinned requirements source the manifests are compiled from.
	SourceFile string `yaml:"source_file"`
	// ManifestDir is the directory holding the pinned manifests and the lock index.
	ManifestDir string `yaml:"manifest_dir"`
	// OutputDir is where installer archives are written.
	OutputDir string `yaml:"output_dir"`
	// LockTool is the external dependency-locking command (pip-compile by default).
	LockTool string `yaml:"lock_tool"`
	// Timeout is the duration for network probes and external tool runs.
	Timeout time.Duration `yaml:"timeout"`
}

const (
	// DefaultConfigFilename is the default filename for release settings.
	DefaultConfigFilename = "release-packager-settings.yaml"

	// DefaultProductName names the application the installers are built for.
	DefaultProductName = "invokeai"

	// DefaultPythonVersion is the interpreter series baked into manifest filenames.
	DefaultPythonVersion = "3.10"

	// DefaultSourceFile is the unpinned requirements manifest source.
	DefaultSourceFile = "requirements.in"

	// DefaultOutputDir is where installer archives land.
	DefaultOutputDir = "dist"

	// DefaultLockTool is the external dependency-locking command.
	DefaultLockTool = "pip-compile"

	// DefaultTimeout is the default duration for network and tool operations.
	DefaultTimeout = 5 * time.Minute

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errTrailingSlash is returned when the release URL ends with a slash,
	// which would double the separator in the concatenated download URL.
	errTrailingSlash = errors.New("release URL must not end with a slash")
	// errSourceballPrefix is returned when the sourceball suffix does not start with a slash.
	errSourceballPrefix = errors.New("release sourceball must start with a slash")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadOrDefault behaves like Load but substitutes defaults when the settings
// file does not exist yet. The locker typically runs before the packager has
// persisted a release target, so a missing file is not an error for it.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}

	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	cfg = new(Config)
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills defaults and checks the formatting of any release fields that are set.
// Presence of the release target itself is enforced by the packager, not here,
// so the locker and checker can run before a target is configured.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	applyDefaults(cfg)

	if _, err := semver.NewVersion(cfg.PythonVersion); err != nil {
		return fmt.Errorf("invalid python version %q: %w", cfg.PythonVersion, err)
	}

	if cfg.ReleaseVersion != "" {
		if _, err := semver.NewVersion(cfg.ReleaseVersion); err != nil {
			return fmt.Errorf("invalid release version %q: %w", cfg.ReleaseVersion, err)
		}
	}

	if cfg.ReleaseURL != "" {
		parsed, err := url.ParseRequestURI(cfg.ReleaseURL)
		if err != nil {
			return fmt.Errorf("invalid release URL: %w", err)
		}

		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("invalid release URL scheme: %q", parsed.Scheme)
		}

		if strings.HasSuffix(cfg.ReleaseURL, "/") {
			return errTrailingSlash
		}
	}

	if cfg.ReleaseSourceball != "" && !strings.HasPrefix(cfg.ReleaseSourceball, "/") {
		return errSourceballPrefix
	}

	return nil
}

// applyDefaults fills unset fields with their default values.
func applyDefaults(cfg *Config) {
	if cfg.ProductName == "" {
		cfg.ProductName = DefaultProductName
	}

	if cfg.PythonVersion == "" {
		cfg.PythonVersion = DefaultPythonVersion
	}

	if cfg.SourceFile == "" {
		cfg.SourceFile = DefaultSourceFile
	}

	if cfg.ManifestDir == "" {
		cfg.ManifestDir = "."
	}

	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}

	if cfg.LockTool == "" {
		cfg.LockTool = DefaultLockTool
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
}
