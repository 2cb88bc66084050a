package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/invoke-ai/release-packager/internal/config"
	"github.com/invoke-ai/release-packager/internal/service/locker"
	"github.com/invoke-ai/release-packager/internal/version"
)

var (
	// configPath stores the path to the release settings YAML file.
	configPath string
	// accelerator optionally overrides accelerator detection.
	accelerator string

	// rootCmd represents the base command for compiling the host platform's manifest.
	rootCmd = &cobra.Command{
		Use:   "release-locker",
		Short: "Compile the pinned requirements manifest for this machine",
		Long: `Compile the pinned, hash-verified requirements manifest for the machine this
command runs on, using the external dependency-locking tool.

Manifests are host-bound: each supported platform (macOS arm64, macOS x86_64,
Linux x86_64 CUDA, Windows x86_64 CUDA) must run its own locking pass on
matching hardware. The run is recorded in the lock index so the checker and
packager can tell fresh manifests from stale ones.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &locker.Options{
				ConfigPath:  configPath,
				Accelerator: accelerator,
			}

			return locker.Run(ctx, options)
		},
	}
)

// Execute runs the release-locker CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&accelerator, "accelerator", "a", "", "override accelerator detection (mps, cuda, none)")
}
