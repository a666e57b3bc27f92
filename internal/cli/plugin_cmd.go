package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/cognia-dev/cognia-launcher/internal/plugin"
)

// dangerousPermissions are never auto-granted on install and require
// an explicit interactive confirmation, per a plugin's declared
// permissions in plugin.toml.
var dangerousPermissions = []struct {
	name    string
	granted func(plugin.Permissions) bool
}{
	{plugin.PermConfigWrite, func(p plugin.Permissions) bool { return p.ConfigWrite }},
	{plugin.PermPkgInstall, func(p plugin.Permissions) bool { return p.PkgInstall }},
	{plugin.PermProcessExec, func(p plugin.Permissions) bool { return p.ProcessExec }},
}

// newPluginCommand creates the "plugin" management command group.
func newPluginCommand(registry *plugin.Registry) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugin",
		Short: "Manage plugins",
	}

	cmd.AddCommand(
		newPluginListCommand(registry),
		newPluginInstallCommand(registry),
		newPluginUninstallCommand(registry),
		newPluginEnableCommand(registry),
		newPluginDisableCommand(registry),
		newPluginReloadCommand(registry),
		newPluginUpdateCommand(registry),
	)

	return cmd
}

// newPluginListCommand creates the "plugin list" command.
func newPluginListCommand(registry *plugin.Registry) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed plugins",
		RunE: func(cmd *cobra.Command, args []string) error {
			installed := registry.List()
			out := cmd.OutOrStdout()
			if len(installed) == 0 {
				fmt.Fprintln(out, "No plugins installed.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tVERSION\tENABLED\tORIGIN")
			for _, p := range installed {
				fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", p.Name, p.Version, p.Enabled, p.Origin)
			}
			return w.Flush()
		},
	}
}

// newPluginInstallCommand creates the "plugin install" command. target
// is either a local directory holding plugin.toml, or a URL pointing
// directly at one.
func newPluginInstallCommand(registry *plugin.Registry) *cobra.Command {
	var skipConfirm bool

	cmd := &cobra.Command{
		Use:   "install <path-or-url>",
		Short: "Install a plugin from a local directory or URL",
		Long: `Install a plugin from a local directory containing plugin.toml, or
from a URL pointing directly at a plugin.toml manifest.

Examples:
  cognia plugin install ./my-plugin
  cognia plugin install https://example.com/plugins/nodejs/plugin.toml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := args[0]
			out := cmd.OutOrStdout()
			ctx := cmd.Context()

			isURL := strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")

			if !isURL {
				manifestPath := filepath.Join(target, "plugin.toml")
				data, err := os.ReadFile(manifestPath)
				if err != nil {
					return fmt.Errorf("reading plugin manifest: %w", err)
				}
				manifest, err := plugin.ParseManifest(data)
				if err != nil {
					return err
				}
				if !skipConfirm {
					if err := confirmDangerousPermissions(manifest); err != nil {
						return err
					}
				}

				installed, err := registry.InstallFromPath(ctx, target)
				if err != nil {
					return fmt.Errorf("installing plugin: %w", err)
				}
				fmt.Fprintf(out, "Installed %s@%s\n", installed.Name, installed.Version)
				return nil
			}

			installed, err := registry.InstallFromURL(ctx, target)
			if err != nil {
				return fmt.Errorf("installing plugin: %w", err)
			}
			fmt.Fprintf(out, "Installed %s@%s\n", installed.Name, installed.Version)
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipConfirm, "yes", false, "Skip the confirmation prompt for dangerous permissions")
	return cmd
}

// confirmDangerousPermissions prompts the user before installing a
// plugin whose manifest declares config_write, pkg_install, or
// process_exec — permissions the runtime never auto-grants.
func confirmDangerousPermissions(manifest *plugin.Manifest) error {
	var requested []string
	for _, dp := range dangerousPermissions {
		if dp.granted(manifest.Permissions) {
			requested = append(requested, dp.name)
		}
	}
	if len(requested) == 0 {
		return nil
	}

	var confirmed bool
	prompt := huh.NewConfirm().
		Title(fmt.Sprintf("%s requests: %s", manifest.Name, strings.Join(requested, ", "))).
		Description("These permissions are not auto-granted on install.").
		Affirmative("Install anyway").
		Negative("Cancel").
		Value(&confirmed)

	if err := prompt.Run(); err != nil {
		return fmt.Errorf("confirmation prompt: %w", err)
	}
	if !confirmed {
		return fmt.Errorf("installation cancelled")
	}
	return nil
}

// newPluginUninstallCommand creates the "plugin uninstall" command.
func newPluginUninstallCommand(registry *plugin.Registry) *cobra.Command {
	return &cobra.Command{
		Use:     "uninstall <name>",
		Aliases: []string{"remove", "rm"},
		Short:   "Uninstall a plugin",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := registry.Uninstall(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uninstalled %q\n", args[0])
			return nil
		},
	}
}

// newPluginEnableCommand creates the "plugin enable" command.
func newPluginEnableCommand(registry *plugin.Registry) *cobra.Command {
	return &cobra.Command{
		Use:   "enable <name>",
		Short: "Enable an installed plugin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := registry.Enable(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Enabled %q\n", args[0])
			return nil
		},
	}
}

// newPluginDisableCommand creates the "plugin disable" command.
func newPluginDisableCommand(registry *plugin.Registry) *cobra.Command {
	return &cobra.Command{
		Use:   "disable <name>",
		Short: "Disable an installed plugin without uninstalling it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := registry.Disable(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Disabled %q\n", args[0])
			return nil
		},
	}
}

// newPluginReloadCommand creates the "plugin reload" command.
func newPluginReloadCommand(registry *plugin.Registry) *cobra.Command {
	return &cobra.Command{
		Use:   "reload <name>",
		Short: "Re-read a plugin's manifest and permissions from disk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			installed, err := registry.Reload(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reloaded %s@%s\n", installed.Name, installed.Version)
			return nil
		},
	}
}

// newPluginUpdateCommand creates the "plugin update" command.
func newPluginUpdateCommand(registry *plugin.Registry) *cobra.Command {
	return &cobra.Command{
		Use:   "update <name>",
		Short: "Update a URL-installed plugin to its latest published version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := plugin.NewURLUpdateSource()
			installed, err := registry.Update(cmd.Context(), args[0], src)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s to %s\n", installed.Name, installed.Version)
			return nil
		},
	}
}

// formatSize formats bytes into a human-readable string.
func formatSize(bytes int64) string {
	const (
		kb = 1024
		mb = kb * 1024
	)
	switch {
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
