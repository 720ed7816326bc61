package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/release-sync/internal/service/status"
)

// statusCmd prints what is currently mirrored.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the mirrored release of every configured repository.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		options := &status.Options{
			ConfigPath:   configPath,
			ArtifactsDir: artifactsDir,
			Output:       cmd.OutOrStdout(),
		}

		return status.Run(cmd.Context(), options)
	},
}
