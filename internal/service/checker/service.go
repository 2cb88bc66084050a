package checker

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/invoke-ai/release-packager/internal/config"
	"github.com/invoke-ai/release-packager/internal/logger"
	"github.com/invoke-ai/release-packager/internal/manifest"
)

// Options contains inputs for the checker entry point.
type Options struct {
	// ConfigPath is an optional path to the release settings file.
	ConfigPath string
}

// errManifestsNotReady indicates at least one platform manifest is missing,
// stale or of unknown provenance.
var errManifestsNotReady = errors.New("platform manifests are not ready for packaging")

// Run audits every supported platform's manifest against the current
// requirements source and fails when any of them cannot be packaged.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "release-checker")

	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return err
	}

	results, err := Audit(ctx, cfg)
	if err != nil {
		return err
	}

	notReady := 0

	for _, result := range results {
		if result.OK() {
			logger.InfoKV(ctx, "Manifest is ready",
				"platform", result.Key.String(), "manifest", string(result.Ref))
			continue
		}

		notReady++

		logger.WarnKV(ctx, "Manifest is not ready",
			"platform", result.Key.String(),
			"manifest", string(result.Ref),
			"status", result.Status.String())
	}

	if notReady > 0 {
		return fmt.Errorf("%w: %d of %d platforms need a locking run",
			errManifestsNotReady, notReady, len(results))
	}

	logger.Info(ctx, "All platform manifests are ready for packaging")

	return nil
}

// Audit loads the lock index and classifies every supported platform's
// manifest. It is shared with the packager, which refuses to build installer
// archives against anything but a fully fresh manifest set.
func Audit(_ context.Context, cfg *config.Config) ([]manifest.Result, error) {
	indexPath := filepath.Join(cfg.ManifestDir, manifest.IndexFilename)

	index, err := manifest.LoadIndex(indexPath, cfg.SourceFile)
	if err != nil {
		return nil, err
	}

	return manifest.Audit(cfg.PythonVersion, cfg.ManifestDir, cfg.SourceFile, index)
}
