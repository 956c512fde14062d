package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/lockstep/internal/app"
)

func (c *CLI) newClosureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "closure [modules...]",
		Short: "Print the resolved dependency closures from the current lock file",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Closures(cmd.Context(), app.ClosureOptions{
				Dir:     dirFlag(cmd),
				Modules: args,
				Output:  cmd.OutOrStdout(),
			})
		},
	}
}
