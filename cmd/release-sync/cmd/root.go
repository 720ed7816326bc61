package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/oshokin/release-sync/internal/config"
	"github.com/oshokin/release-sync/internal/logger"
	"github.com/oshokin/release-sync/internal/service/syncer"
	"github.com/oshokin/release-sync/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// artifactsDir overrides the configured artifacts directory.
	artifactsDir string
	// logLevel is the minimum level of printed log lines.
	logLevel string
	// failFast stops at the first failing repository.
	failFast bool

	// rootCmd mirrors the latest releases of the configured repositories.
	rootCmd = &cobra.Command{
		Use:   "release-sync [owner/name...]",
		Short: "Mirror the latest GitHub releases into a local directory.",
		Long: `Fetches the latest release of every configured repository and mirrors its assets
into <artifacts-dir>/<directory>, next to a version.txt marker and a metadata.json record.

A repository is only downloaded again when its latest tag differs from the stored marker.
The new release is assembled in a staging directory and swapped into place, so an
interrupted run never leaves a half-written directory behind.

Repositories given as arguments replace the configured list for this run.
The GITHUB_TOKEN environment variable must hold a token with read access.`,
		Args:              cobra.ArbitraryArgs,
		SilenceUsage:      true,
		PersistentPreRunE: applyLogLevel,
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &syncer.Options{
				ConfigPath:   configPath,
				ArtifactsDir: artifactsDir,
				Repositories: args,
				FailFast:     failFast,
				Output:       os.Stdout,
			}

			// Progress bars only make sense on an interactive terminal.
			if term.IsTerminal(int(os.Stderr.Fd())) {
				options.ProgressOutput = os.Stderr
			}

			return syncer.Run(ctx, options)
		},
	}
)

// Execute runs the release-sync CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// applyLogLevel sets the global logger level from the --log-level flag.
func applyLogLevel(_ *cobra.Command, _ []string) error {
	level, ok := logger.ParseLogLevel(logLevel)
	if !ok {
		return fmt.Errorf("unknown log level %q", logLevel)
	}

	logger.SetLevel(level)

	return nil
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", "", "path to configuration file (default "+config.DefaultConfigFilename+" when present)")
	rootCmd.PersistentFlags().StringVar(&artifactsDir, "artifacts-dir", "", "override the configured artifacts directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")
	rootCmd.Flags().BoolVar(&failFast, "fail-fast", false, "stop at the first repository that fails")

	rootCmd.AddCommand(statusCmd, initConfigCmd)
}
