package platformenv

import (
	"os"
	"strings"
	"testing"
)

func TestModifications_ShellCommands_Bash(t *testing.T) {
	m := NewModifications().
		SetVar("NODE_ENV", "production").
		UnsetVar("NPM_CONFIG_PREFIX").
		PrependPath("/home/user/.cognia/versions/node/18.0.0/bin")

	out := m.ShellCommands(ShellBash)

	if want := "unset NPM_CONFIG_PREFIX\n"; !strings.Contains(out, want) {
		t.Errorf("expected %q in output, got %q", want, out)
	}
	if want := `export NODE_ENV="production"` + "\n"; !strings.Contains(out, want) {
		t.Errorf("expected %q in output, got %q", want, out)
	}
	if want := `export PATH="/home/user/.cognia/versions/node/18.0.0/bin":$PATH` + "\n"; !strings.Contains(out, want) {
		t.Errorf("expected %q in output, got %q", want, out)
	}
}

func TestModifications_ShellCommands_Fish(t *testing.T) {
	m := NewModifications().SetVar("FOO", "bar").AppendPath("/opt/bin")
	out := m.ShellCommands(ShellFish)

	if !strings.Contains(out, "set -gx FOO \"bar\"") {
		t.Errorf("expected fish set -gx, got %q", out)
	}
	if !strings.Contains(out, `fish_add_path --append "/opt/bin"`) {
		t.Errorf("expected fish_add_path --append, got %q", out)
	}
}

func TestModifications_ShellCommands_PowerShell(t *testing.T) {
	m := NewModifications().SetVar("FOO", "bar").UnsetVar("BAZ")
	out := m.ShellCommands(ShellPowerShell)

	if !strings.Contains(out, `$env:FOO = "bar"`) {
		t.Errorf("expected powershell $env: assignment, got %q", out)
	}
	if !strings.Contains(out, "Remove-Item Env:BAZ") {
		t.Errorf("expected powershell Remove-Item, got %q", out)
	}
}

func TestModifications_ShellCommands_Cmd(t *testing.T) {
	m := NewModifications().SetVar("FOO", "bar")
	out := m.ShellCommands(ShellCmd)

	if !strings.Contains(out, "set FOO=bar") {
		t.Errorf("expected cmd set syntax, got %q", out)
	}
}

func TestModifications_Apply(t *testing.T) {
	t.Setenv("COGNIA_TEST_VAR", "old")

	m := NewModifications().SetVar("COGNIA_TEST_VAR", "new").UnsetVar("COGNIA_TEST_UNSET")
	if err := m.Apply(); err != nil {
		t.Fatal(err)
	}

	if got := os.Getenv("COGNIA_TEST_VAR"); got != "new" {
		t.Errorf("expected COGNIA_TEST_VAR=new, got %q", got)
	}
}

func TestExpandPath_Tilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		t.Skip("no home directory available")
	}
	got := ExpandPath("~/bin")
	if !strings.Contains(got, home) {
		t.Errorf("expected expanded path to contain home dir %q, got %q", home, got)
	}
}

func TestDetectShell_RespectsShellEnvVar(t *testing.T) {
	t.Setenv("SHELL", "/usr/bin/zsh")
	if got := DetectShell(); got != ShellZsh {
		t.Errorf("expected zsh, got %s", got)
	}

	t.Setenv("SHELL", "/bin/fish")
	if got := DetectShell(); got != ShellFish {
		t.Errorf("expected fish, got %s", got)
	}
}
