package cli

import (
	"testing"

	"github.com/cognia-dev/cognia-launcher/internal/plugin"
)

func TestGeneratePluginCommand_ToolsAsSubcommands(t *testing.T) {
	disc := plugin.DiscoveredPlugin{
		Manifest: plugin.Manifest{
			Name:        "nodejs",
			Description: "Node.js version manager",
			Tools: []plugin.Tool{
				{ID: "install", Entry: "cognia_tool_install", NameEN: "Install a version"},
				{ID: "list", Entry: "cognia_tool_list", NameEN: "List installed versions"},
			},
		},
		Loader: func() ([]byte, error) { return nil, nil },
	}

	outputFormat := "json"
	cmd := generatePluginCommand(disc, nil, &outputFormat)

	if cmd.Use != "nodejs" {
		t.Errorf("expected Use='nodejs', got %q", cmd.Use)
	}
	if len(cmd.Commands()) != 2 {
		t.Fatalf("expected 2 tool subcommands, got %d", len(cmd.Commands()))
	}

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Use] = true
	}
	if !names["install"] || !names["list"] {
		t.Errorf("expected 'install' and 'list' subcommands, got %v", names)
	}
}

func TestCreateToolCommand_HasInputFlag(t *testing.T) {
	disc := plugin.DiscoveredPlugin{
		Manifest: plugin.Manifest{Name: "nodejs"},
		Loader:   func() ([]byte, error) { return nil, nil },
	}
	tool := plugin.Tool{ID: "install", Entry: "cognia_tool_install", NameEN: "Install a version"}

	outputFormat := "json"
	cmd := createToolCommand(disc, tool, nil, &outputFormat)

	if cmd.Use != "install" {
		t.Errorf("expected Use='install', got %q", cmd.Use)
	}
	if cmd.Flags().Lookup("input") == nil {
		t.Error("expected an --input flag")
	}
}
