package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/invoke-ai/release-packager/internal/config"
	"github.com/invoke-ai/release-packager/internal/service/checker"
	"github.com/invoke-ai/release-packager/internal/version"
)

var (
	// configPath stores the path to the release settings YAML file.
	configPath string

	// rootCmd represents the base command for auditing manifest hygiene.
	rootCmd = &cobra.Command{
		Use:   "release-checker",
		Short: "Audit platform manifests against the requirements source",
		Long: `Audit every supported platform's pinned manifest against the current
requirements source.

Changing the requirements source without rerunning the locker on all four
platforms would silently ship installers pinning unintended dependencies.
This command makes that state visible and exits non-zero until every
manifest is fresh.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return checker.Run(ctx, &checker.Options{ConfigPath: configPath})
		},
	}
)

// Execute runs the release-checker CLI and exits with non-zero status on error.
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
}
