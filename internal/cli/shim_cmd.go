package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cognia-dev/cognia-launcher/internal/shim"
)

// newShimCommand creates the "shim" command tree for managing the
// wrapper scripts that make active provider versions resolve on PATH.
func newShimCommand(manager *shim.Manager, pathManager *shim.PathManager) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shim",
		Short: "Manage PATH shims for installed runtimes",
	}

	cmd.AddCommand(
		newShimListCommand(manager),
		newShimRemoveCommand(manager),
		newShimRegenerateCommand(manager),
		newShimPathCommand(pathManager),
	)

	return cmd
}

func newShimListCommand(manager *shim.Manager) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every registered shim",
		RunE: func(cmd *cobra.Command, args []string) error {
			shims := manager.ListShims()
			if len(shims) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No shims installed.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "BINARY\tENVIRONMENT\tVERSION")
			for _, s := range shims {
				version := s.Version
				if version == "" {
					version = "current"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", s.BinaryName, s.EnvType, version)
			}
			return w.Flush()
		},
	}
}

func newShimRemoveCommand(manager *shim.Manager) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <binary>",
		Aliases: []string{"rm"},
		Short:   "Remove a shim",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := manager.RemoveShim(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed shim %s\n", args[0])
			return nil
		},
	}
}

func newShimRegenerateCommand(manager *shim.Manager) *cobra.Command {
	return &cobra.Command{
		Use:   "regenerate",
		Short: "Rewrite every shim script from its stored configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := manager.RegenerateAll(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Shims regenerated.")
			return nil
		},
	}
}

func newShimPathCommand(pathManager *shim.PathManager) *cobra.Command {
	var add bool

	cmd := &cobra.Command{
		Use:   "path",
		Short: "Check or update whether the shim directory is on PATH",
		RunE: func(cmd *cobra.Command, args []string) error {
			if add {
				if err := pathManager.AddToPath(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Added shim directory to PATH. Restart your shell to pick up the change.")
				return nil
			}

			if pathManager.IsInPath() {
				fmt.Fprintln(cmd.OutOrStdout(), "Shim directory is already on PATH.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Shim directory is not on PATH. Run:")
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", pathManager.AddToPathCommand())
			fmt.Fprintln(cmd.OutOrStdout(), "or run 'cognia shim path --add' to edit your shell config automatically.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&add, "add", false, "Edit the shell config to add the shim directory to PATH")
	return cmd
}
