package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/release-sync/internal/service/bootstrap"
)

var (
	// force overwrites an existing settings file.
	force bool

	// initConfigCmd writes a starter configuration file.
	initConfigCmd = &cobra.Command{
		Use:   "init-config",
		Short: "Write a configuration file with the default settings.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			options := &bootstrap.Options{
				ConfigPath:   configPath,
				ArtifactsDir: artifactsDir,
				Force:        force,
			}

			return bootstrap.Run(cmd.Context(), options)
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	initConfigCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing configuration file")
}
