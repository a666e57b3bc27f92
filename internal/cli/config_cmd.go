package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cognia-dev/cognia-launcher/internal/config"
)

// configKeys lists every dotted key Config.Get/Set understands, for
// "config list" display.
var configKeys = []string{
	"output",
	"quiet",
	"general.parallel_downloads",
	"general.cache_max_size",
	"general.cache_max_age_days",
	"general.auto_clean_cache",
	"network.timeout",
	"network.retries",
	"network.proxy",
	"security.allow_http",
	"security.verify_certificates",
	"security.allow_self_signed",
}

// newConfigCommand creates the "config" management command.
func newConfigCommand(cfg *config.Config, configPath string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and modify settings.yaml",
	}

	cmd.AddCommand(
		newConfigGetCommand(cfg),
		newConfigSetCommand(cfg, configPath),
		newConfigListCommand(cfg),
	)

	return cmd
}

// newConfigGetCommand creates the "config get" command.
func newConfigGetCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print a single setting's value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, ok := cfg.Get(args[0])
			if !ok {
				return fmt.Errorf("unknown config key %q", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

// newConfigSetCommand creates the "config set" command.
func newConfigSetCommand(cfg *config.Config, configPath string) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a setting and persist it to settings.yaml",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Save(configPath); err != nil {
				return fmt.Errorf("saving config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", args[0], args[1])
			return nil
		},
	}
}

// newConfigListCommand creates the "config list" command.
func newConfigListCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every known setting and its current value",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tVALUE")
			for _, key := range configKeys {
				value, ok := cfg.Get(key)
				if !ok {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\n", key, value)
			}
			return w.Flush()
		},
	}
}
