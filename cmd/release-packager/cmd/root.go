package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/invoke-ai/release-packager/internal/config"
	"github.com/invoke-ai/release-packager/internal/service/packager"
	"github.com/invoke-ai/release-packager/internal/version"
)

var (
	// configPath stores the path to the release settings YAML file.
	configPath string
	// force overwrites existing installer archives.
	force bool
	// skipVerify disables the release target reachability probe.
	skipVerify bool

	// rootCmd represents the base command for building installer archives.
	rootCmd = &cobra.Command{
		Use:   "release-packager [release-url] [release-sourceball]",
		Short: "Build the platform installer archives for a release",
		Long: `Build the distributable installer archives for macOS, Linux and Windows.

The release URL and sourceball identify the source archive the installers
will download at install time; they are embedded into the entry scripts as
RELEASE_URL and RELEASE_SOURCEBALL and persisted to the settings file for
later runs. Packaging refuses to proceed while manifests are missing or
stale, or while a locking run is in progress.`,
		Args: cobra.RangeArgs(0, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &packager.Options{
				ConfigPath: configPath,
				Force:      force,
				SkipVerify: skipVerify,
			}

			// Positional overrides: URL first, sourceball second.
			if len(args) > 0 {
				options.ReleaseURL = args[0]
			}

			if len(args) > 1 {
				options.ReleaseSourceball = args[1]
			}

			return packager.Run(ctx, options)
		},
	}
)

// Execute runs the release-packager CLI and exits with non-zero status on error.
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
	rootCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite existing installer archives")
	rootCmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "skip the release target reachability check")
}
