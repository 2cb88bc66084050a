package packager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/invoke-ai/release-packager/internal/archive"
	"github.com/invoke-ai/release-packager/internal/config"
	"github.com/invoke-ai/release-packager/internal/logger"
	"github.com/invoke-ai/release-packager/internal/manifest"
	"github.com/invoke-ai/release-packager/internal/platform"
	"github.com/invoke-ai/release-packager/internal/release"
	"github.com/invoke-ai/release-packager/internal/service/checker"
	"github.com/invoke-ai/release-packager/internal/service/common"
	"github.com/invoke-ai/release-packager/internal/templates"
)

// Options contains inputs for the packager entry point.
type Options struct {
	// ConfigPath is an optional path to persist release settings.
	ConfigPath string
	// ReleaseURL overrides the configured repository base URL when set.
	ReleaseURL string
	// ReleaseSourceball overrides the configured archive path suffix when set.
	ReleaseSourceball string
	// Force overwrites existing installer archives.
	Force bool
	// SkipVerify skips the release target reachability probe, for packaging
	// on machines without network access.
	SkipVerify bool
}

var (
	// errLockerRunning indicates a locking run holds the marker, so the
	// manifest set could change mid-packaging.
	errLockerRunning = errors.New("a dependency locking run is in progress, retry when it finishes")
	// errReleaseTargetUnset is returned when no release target is configured or given.
	errReleaseTargetUnset = errors.New("release URL and sourceball must be configured or passed as arguments")
	// errManifestsNotReady indicates packaging was attempted against an
	// incomplete or stale manifest set.
	errManifestsNotReady = errors.New("refusing to package: platform manifests are missing or stale")
)

// scriptFileMode is the permission recorded for installer entry scripts.
const scriptFileMode os.FileMode = 0o755

// manifestFileMode is the permission recorded for manifests and readme files.
const manifestFileMode os.FileMode = 0o644

// bundle describes one distributable installer archive.
type bundle struct {
	// osName is the archive name suffix shown to end users.
	osName string
	// script is the embedded template of the entry script.
	script string
	// scriptName is the entry script filename inside the archive.
	scriptName string
	// keys are the platforms whose manifests ship in the archive.
	keys []platform.Key
}

// bundles enumerates the three archives produced per release.
func bundles() []bundle {
	return []bundle{
		{
			osName:     "mac",
			script:     templates.UnixScript,
			scriptName: "install.sh",
			keys: []platform.Key{
				{OS: platform.OSDarwin, Arch: platform.ArchARM64, Accelerator: platform.AccelMPS},
				{OS: platform.OSDarwin, Arch: platform.ArchX8664, Accelerator: platform.AccelNone},
			},
		},
		{
			osName:     "linux",
			script:     templates.UnixScript,
			scriptName: "install.sh",
			keys: []platform.Key{
				{OS: platform.OSLinux, Arch: platform.ArchX8664, Accelerator: platform.AccelCUDA},
			},
		},
		{
			osName:     "windows",
			script:     templates.WindowsScript,
			scriptName: "install.bat",
			keys: []platform.Key{
				{OS: platform.OSWindows, Arch: platform.ArchX8664, Accelerator: platform.AccelCUDA},
			},
		},
	}
}

// packager builds the platform installer archives for a verified release target.
type packager struct {
	cfg      *config.Config
	target   release.Target
	force    bool
	built    []string
	verifier *release.Verifier
}

// Run executes the packaging workflow.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "release-packager")

	pkg, err := newPackager(ctx, opts)
	if err != nil {
		return fmt.Errorf("initialize packager: %w", err)
	}

	if !opts.SkipVerify {
		if err := pkg.verifier.Verify(ctx, pkg.target); err != nil {
			return fmt.Errorf("verify release target: %w", err)
		}

		logger.InfoKV(ctx, "Verified release target", "download_url", pkg.target.DownloadURL())
	}

	if err := pkg.run(ctx); err != nil {
		return fmt.Errorf("packager failed: %w", err)
	}

	logger.Info(ctx, "Packager completed successfully")

	return nil
}

// newPackager merges settings with overrides, persists them and validates
// the release target.
func newPackager(ctx context.Context, opts *Options) (*packager, error) {
	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	if opts.ReleaseURL != "" {
		cfg.ReleaseURL = opts.ReleaseURL
	}

	if opts.ReleaseSourceball != "" {
		cfg.ReleaseSourceball = opts.ReleaseSourceball
	}

	if cfg.ReleaseURL == "" || cfg.ReleaseSourceball == "" {
		return nil, errReleaseTargetUnset
	}

	if common.IsLockerRunning(ctx, common.MarkerPath(cfg.ManifestDir)) {
		return nil, errLockerRunning
	}

	target := release.Target{URL: cfg.ReleaseURL, Sourceball: cfg.ReleaseSourceball}
	if err := target.Validate(); err != nil {
		return nil, err
	}

	// Persist the release target so reruns and the other binaries agree on it.
	if err := config.Save(opts.ConfigPath, cfg); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}

	return &packager{
		cfg:      cfg,
		target:   target,
		force:    opts.Force,
		verifier: release.NewVerifier(cfg.Timeout),
	}, nil
}

// run gates on manifest freshness, then builds every platform archive.
func (p *packager) run(ctx context.Context) error {
	if err := p.ensureManifestsReady(ctx); err != nil {
		return err
	}

	if err := os.MkdirAll(p.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	for _, b := range bundles() {
		path, err := p.buildBundle(ctx, b)
		if err != nil {
			return err
		}

		p.built = append(p.built, path)
	}

	p.printNextSteps(ctx)

	return nil
}

// ensureManifestsReady refuses to package against missing or stale manifests.
func (p *packager) ensureManifestsReady(ctx context.Context) error {
	results, err := checker.Audit(ctx, p.cfg)
	if err != nil {
		return err
	}

	var notReady []string

	for _, result := range results {
		if !result.OK() {
			notReady = append(notReady,
				fmt.Sprintf("%s (%s)", result.Key, result.Status))
		}
	}

	if len(notReady) > 0 {
		return fmt.Errorf("%w: %s", errManifestsNotReady, strings.Join(notReady, ", "))
	}

	return nil
}

// buildBundle renders the entry script and zips it with the platform manifests.
func (p *packager) buildBundle(ctx context.Context, b bundle) (string, error) {
	data := templates.Data{
		ProductName:   p.cfg.ProductName,
		Version:       p.cfg.ReleaseVersion,
		PythonVersion: p.cfg.PythonVersion,
		ReleaseURL:    p.target.URL,
		Sourceball:    p.target.Sourceball,
	}

	script, err := templates.Render(b.script, data)
	if err != nil {
		return "", err
	}

	readme, err := templates.Render(templates.Readme, data)
	if err != nil {
		return "", err
	}

	entries := []archive.Entry{
		{Name: b.scriptName, Body: script, Mode: scriptFileMode},
		{Name: "readme.txt", Body: readme, Mode: manifestFileMode},
	}

	for _, key := range b.keys {
		ref, err := manifest.ResolveFor(p.cfg.PythonVersion, key)
		if err != nil {
			return "", err
		}

		entry, err := archive.FileEntry(string(ref),
			filepath.Join(p.cfg.ManifestDir, string(ref)), manifestFileMode)
		if err != nil {
			return "", err
		}

		entries = append(entries, entry)
	}

	path := filepath.Join(p.cfg.OutputDir, p.archiveName(b))
	if err := archive.Build(path, entries, p.force); err != nil {
		return "", err
	}

	logger.InfoKV(ctx, "Built installer archive", "path", path, "files", len(entries))

	return path, nil
}

// archiveName renders the distributable filename for a bundle.
func (p *packager) archiveName(b bundle) string {
	version := p.cfg.ReleaseVersion
	if version == "" {
		version = "dev"
	}

	return fmt.Sprintf("%s-installer-%s-%s.zip", p.cfg.ProductName, version, b.osName)
}

// printNextSteps logs human-readable guidance for publishing the archives.
func (p *packager) printNextSteps(ctx context.Context) {
	files := append([]string(nil), p.built...)
	sort.Strings(files)

	var builder strings.Builder

	builder.WriteString("Attach the following archives to the release page for ")
	builder.WriteString(p.target.URL)
	builder.WriteString(":\n")

	for i, name := range files {
		if i > 0 {
			builder.WriteString(",\n")
		}

		builder.WriteString(name)
	}

	builder.WriteString("\nEnd users download the archive for their platform, unzip it and run the installer script.")

	logger.Info(ctx, builder.String())
}
