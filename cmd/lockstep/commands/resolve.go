package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/lockstep/internal/app"
)

func (c *CLI) newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve all modules against one root manifest",
		Long: "Resolve writes a root manifest listing every module as a workspace member, runs the resolver " +
			"once and records module fingerprints. It does nothing when no module changed since the last run.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			force, _ := cmd.Flags().GetBool("force")
			return c.app.Resolve(cmd.Context(), app.ResolveOptions{
				Dir:   dirFlag(cmd),
				Force: force,
			})
		},
	}
	cmd.Flags().BoolP("force", "f", false, "Resolve even if every module is up to date")
	return cmd
}
