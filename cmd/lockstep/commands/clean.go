package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/lockstep/internal/app"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Clean the fingerprint cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stale, _ := cmd.Flags().GetBool("stale")
			return c.app.Clean(cmd.Context(), app.CleanOptions{
				Dir:   dirFlag(cmd),
				Stale: stale,
			})
		},
	}
	cmd.Flags().Bool("stale", false, "Only drop entries of modules that are no longer in the workspace")
	return cmd
}
