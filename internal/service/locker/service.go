package locker

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/invoke-ai/release-packager/internal/config"
	"github.com/invoke-ai/release-packager/internal/logger"
	"github.com/invoke-ai/release-packager/internal/manifest"
	"github.com/invoke-ai/release-packager/internal/platform"
	"github.com/invoke-ai/release-packager/internal/service/common"
)

// Options contains inputs for the locker entry point.
type Options struct {
	// ConfigPath is an optional path to the release settings file.
	ConfigPath string
	// Accelerator optionally overrides accelerator detection. The override
	// still has to resolve against the detected OS and architecture; it
	// cannot retarget another machine.
	Accelerator string
}

// errAcceleratorToken is returned when the accelerator override is not a known token.
var errAcceleratorToken = errors.New("unrecognized accelerator override")

// runner compiles the pinned manifest for the host platform.
type runner struct {
	cfg *config.Config
	key platform.Key
	ref manifest.Ref
}

// Run executes the locking workflow: detect the host platform, resolve its
// manifest filename, invoke the external dependency-locking tool and record
// the generation in the lock index.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "release-locker")

	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return err
	}

	r, err := newRunner(ctx, cfg, opts.Accelerator)
	if err != nil {
		return fmt.Errorf("initialize locker: %w", err)
	}

	if err := r.run(ctx); err != nil {
		return fmt.Errorf("locker failed: %w", err)
	}

	logger.Info(ctx, "Locker completed successfully")

	return nil
}

// newRunner detects the host platform and resolves its manifest filename.
// Resolution failing here is the wrong-platform precondition tripping:
// manifests are only ever generated on a machine matching the target.
func newRunner(ctx context.Context, cfg *config.Config, acceleratorOverride string) (*runner, error) {
	key, err := platform.Detect()
	if err != nil {
		return nil, err
	}

	if acceleratorOverride != "" {
		accelerator, ok := platform.NormalizeAccelerator(acceleratorOverride)
		if !ok {
			return nil, fmt.Errorf("%w: %q", errAcceleratorToken, acceleratorOverride)
		}

		key.Accelerator = accelerator
	}

	ref, err := manifest.ResolveFor(cfg.PythonVersion, key)
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Resolved host platform", "platform", key.String(), "manifest", string(ref))

	return &runner{cfg: cfg, key: key, ref: ref}, nil
}

// run holds the lock marker while compiling the manifest and updating the index.
func (r *runner) run(ctx context.Context) error {
	markerPath := common.MarkerPath(r.cfg.ManifestDir)

	if err := common.AcquireMarker(ctx, markerPath); err != nil {
		return err
	}

	defer func() {
		_ = common.ReleaseMarker(markerPath)
	}()

	if err := r.compile(ctx); err != nil {
		return err
	}

	if err := r.recordGeneration(); err != nil {
		return err
	}

	r.printNextSteps(ctx)

	return nil
}

// compile invokes the external dependency-locking tool.
func (r *runner) compile(ctx context.Context) error {
	destination := filepath.Join(r.cfg.ManifestDir, string(r.ref))
	args := lockCommandArgs(destination, r.cfg.SourceFile)

	logger.InfoKV(ctx, "Compiling pinned manifest",
		"tool", r.cfg.LockTool, "args", strings.Join(args, " "))

	cmdCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, r.cfg.LockTool, args...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s failed: %w\n%s", r.cfg.LockTool, err, output)
	}

	return nil
}

// lockCommandArgs builds the dependency-locking tool invocation.
func lockCommandArgs(destination, source string) []string {
	return []string{
		"--allow-unsafe",
		"--generate-hashes",
		"--output-file=" + destination,
		source,
	}
}

// recordGeneration stores the source checksum for the freshly compiled manifest.
func (r *runner) recordGeneration() error {
	checksum, err := manifest.SourceChecksum(r.cfg.SourceFile)
	if err != nil {
		return fmt.Errorf("checksum requirements source: %w", err)
	}

	indexPath := filepath.Join(r.cfg.ManifestDir, manifest.IndexFilename)

	index, err := manifest.LoadIndex(indexPath, r.cfg.SourceFile)
	if err != nil {
		return err
	}

	index.SetRecord(r.ref, manifest.Record{
		SourceChecksum: checksum,
		Host:           r.key.String(),
		GeneratedAt:    time.Now().UTC(),
	})

	return index.Save(indexPath)
}

// printNextSteps tells the operator which platforms still need a locking run.
func (r *runner) printNextSteps(ctx context.Context) {
	indexPath := filepath.Join(r.cfg.ManifestDir, manifest.IndexFilename)

	index, err := manifest.LoadIndex(indexPath, r.cfg.SourceFile)
	if err != nil {
		return
	}

	results, err := manifest.Audit(r.cfg.PythonVersion, r.cfg.ManifestDir, r.cfg.SourceFile, index)
	if err != nil {
		return
	}

	var remaining []string

	for _, result := range results {
		if !result.OK() {
			remaining = append(remaining, result.Key.String())
		}
	}

	if len(remaining) == 0 {
		logger.Info(ctx, "All platform manifests are up to date, ready to package")
		return
	}

	var builder strings.Builder

	builder.WriteString("Run release-locker on machines matching the remaining platforms:\n")
	builder.WriteString(strings.Join(remaining, ",\n"))

	logger.Info(ctx, builder.String())
}
