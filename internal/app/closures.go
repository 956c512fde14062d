package app

import (
	"fmt"
	"io"

	"go.trai.ch/lockstep/internal/core/domain"
	"go.trai.ch/lockstep/internal/ui/output"
	"go.trai.ch/lockstep/internal/ui/style"
)

// WriteClosures prints one block per module: each declared dependency with the version it resolved to,
// followed by its transitive packages.
func WriteClosures(w io.Writer, modules []*domain.Module, closures map[string]*domain.ModuleClosure) error {
	out := output.New(w)

	for _, m := range modules {
		if _, err := fmt.Fprintln(out, output.Paint(out, m.Name, style.Iris)); err != nil {
			return err
		}

		mc, ok := closures[m.Name]
		if !ok || len(mc.Dependencies) == 0 {
			if _, err := fmt.Fprintln(out, "  "+output.Paint(out, "no external dependencies", style.Slate)); err != nil {
				return err
			}
			continue
		}

		for _, dc := range mc.Sorted() {
			line := fmt.Sprintf("  %s %s %s",
				dc.Requested.Selector(),
				style.Arrow,
				output.Paint(out, dc.Resolved.String(), style.Green),
			)
			if _, err := fmt.Fprintln(out, line); err != nil {
				return err
			}
			for _, pkg := range dc.Transitive {
				if _, err := fmt.Fprintln(out, "    "+output.Paint(out, pkg.String(), style.Slate)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
