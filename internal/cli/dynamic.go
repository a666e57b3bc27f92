package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cognia-dev/cognia-launcher/internal/output"
	"github.com/cognia-dev/cognia-launcher/internal/plugin"
	"github.com/cognia-dev/cognia-launcher/internal/wasmhost"
)

// generatePluginCommand builds a cobra command tree for one discovered
// plugin: a parent command named after the plugin, with one subcommand
// per entry in its manifest's [[tools]] array.
func generatePluginCommand(disc plugin.DiscoveredPlugin, host *wasmhost.Host, outputFormat *string) *cobra.Command {
	pluginCmd := &cobra.Command{
		Use:   disc.Manifest.Name,
		Short: disc.Manifest.Description,
	}

	for _, tool := range disc.Manifest.Tools {
		pluginCmd.AddCommand(createToolCommand(disc, tool, host, outputFormat))
	}

	return pluginCmd
}

// createToolCommand creates a cobra command for a single plugin tool.
// Arguments are passed as a JSON object via --input; the plugin's
// entry function receives that object verbatim.
func createToolCommand(disc plugin.DiscoveredPlugin, tool plugin.Tool, host *wasmhost.Host, outputFormat *string) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   tool.ID,
		Short: tool.NameEN,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTool(cmd.Context(), disc, tool, host, input, *outputFormat)
		},
	}

	cmd.Flags().StringVar(&input, "input", "{}", "JSON object of arguments to pass to the tool")

	return cmd
}

// runTool loads the plugin's WASM module, invokes the tool's entry
// function with argJSON, and renders the result.
func runTool(ctx context.Context, disc plugin.DiscoveredPlugin, tool plugin.Tool, host *wasmhost.Host, argJSON, outputFormat string) error {
	if !json.Valid([]byte(argJSON)) {
		return fmt.Errorf("--input is not valid JSON")
	}

	wasmBytes, err := disc.Loader()
	if err != nil {
		return fmt.Errorf("loading plugin %q: %w", disc.Manifest.Name, err)
	}

	instance, err := host.Load(ctx, disc.Manifest.Name, wasmBytes)
	if err != nil {
		return fmt.Errorf("instantiating plugin %q: %w", disc.Manifest.Name, err)
	}
	defer func() { _ = instance.Close(ctx) }()

	resultJSON, err := instance.Call(ctx, tool.Entry, argJSON)
	if err != nil {
		return fmt.Errorf("invoking %s.%s: %w", disc.Manifest.Name, tool.ID, err)
	}

	var result output.Result
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return fmt.Errorf("decoding result from %s.%s: %w", disc.Manifest.Name, tool.ID, err)
	}

	formatter, err := output.NewFormatter(outputFormat)
	if err != nil {
		return err
	}
	if err := formatter.Format(os.Stdout, result, nil); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	if !result.IsSuccess() {
		os.Exit(1)
	}
	return nil
}
