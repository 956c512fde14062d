package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/lockstep/internal/app"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Resolve again whenever a module manifest or the workfile changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			force, _ := cmd.Flags().GetBool("force")
			return c.app.Watch(cmd.Context(), app.WatchOptions{
				Dir:   dirFlag(cmd),
				Force: force,
			})
		},
	}
	cmd.Flags().BoolP("force", "f", false, "Force the initial pass")
	return cmd
}
