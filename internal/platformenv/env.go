// Package platformenv computes and applies the environment changes needed
// to make an installed runtime or tool visible on PATH: which variables to
// set or unset, which directories to prepend, and how to render those
// changes as shell-specific commands for a user's rc file.
package platformenv

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/cognia-dev/cognia-launcher/internal/cogniaerr"
)

// Shell identifies a command shell whose syntax differs for exporting
// variables and manipulating PATH.
type Shell string

const (
	ShellBash       Shell = "bash"
	ShellZsh        Shell = "zsh"
	ShellFish       Shell = "fish"
	ShellPowerShell Shell = "powershell"
	ShellCmd        Shell = "cmd"
)

// DetectShell inspects the environment to guess the user's interactive
// shell. On Unix it trusts $SHELL; on Windows it assumes PowerShell when
// $PSModulePath is set (present in every PowerShell session) and cmd.exe
// otherwise.
func DetectShell() Shell {
	if runtime.GOOS == "windows" {
		if os.Getenv("PSModulePath") != "" {
			return ShellPowerShell
		}
		return ShellCmd
	}

	shellPath := os.Getenv("SHELL")
	switch {
	case strings.HasSuffix(shellPath, "zsh"):
		return ShellZsh
	case strings.HasSuffix(shellPath, "fish"):
		return ShellFish
	default:
		return ShellBash
	}
}

// ConfigFile returns the rc file a shell reads on interactive startup,
// relative to the user's home directory. Bash is ambiguous between
// .bashrc and .bash_profile; CogniaLauncher always targets .bashrc since
// that is what non-login interactive shells (the common case for a
// freshly opened terminal) source.
func (s Shell) ConfigFile(home string) string {
	switch s {
	case ShellZsh:
		return filepath.Join(home, ".zshrc")
	case ShellFish:
		return filepath.Join(home, ".config", "fish", "config.fish")
	case ShellPowerShell:
		return filepath.Join(home, "Documents", "PowerShell", "Microsoft.PowerShell_profile.ps1")
	case ShellCmd:
		return ""
	default:
		return filepath.Join(home, ".bashrc")
	}
}

// Modifications describes a batch of environment changes an installed
// provider version wants applied: directories to add to PATH, and
// variables to set or clear.
type Modifications struct {
	PathPrepend    []string
	PathAppend     []string
	SetVariables   map[string]string
	UnsetVariables []string
}

// NewModifications returns an empty, ready-to-use Modifications.
func NewModifications() *Modifications {
	return &Modifications{SetVariables: make(map[string]string)}
}

// PrependPath queues dir to be added to the front of PATH.
func (m *Modifications) PrependPath(dir string) *Modifications {
	m.PathPrepend = append(m.PathPrepend, dir)
	return m
}

// AppendPath queues dir to be added to the back of PATH.
func (m *Modifications) AppendPath(dir string) *Modifications {
	m.PathAppend = append(m.PathAppend, dir)
	return m
}

// SetVar queues key=value to be exported.
func (m *Modifications) SetVar(key, value string) *Modifications {
	if m.SetVariables == nil {
		m.SetVariables = make(map[string]string)
	}
	m.SetVariables[key] = value
	return m
}

// UnsetVar queues key to be cleared.
func (m *Modifications) UnsetVar(key string) *Modifications {
	m.UnsetVariables = append(m.UnsetVariables, key)
	return m
}

// Apply mutates the current process's environment. It does not touch any
// shell rc file; use ShellCommands to hand the user (or a rc file writer)
// the equivalent persistent change.
func (m *Modifications) Apply() error {
	for _, key := range m.UnsetVariables {
		if err := os.Unsetenv(key); err != nil {
			return cogniaerr.Wrap(cogniaerr.KindIO, fmt.Sprintf("unsetting %s", key), err)
		}
	}
	for key, value := range m.SetVariables {
		if err := os.Setenv(key, value); err != nil {
			return cogniaerr.Wrap(cogniaerr.KindIO, fmt.Sprintf("setting %s", key), err)
		}
	}

	if len(m.PathPrepend) == 0 && len(m.PathAppend) == 0 {
		return nil
	}

	current := filepath.SplitList(os.Getenv("PATH"))
	newPath := append(append(append([]string{}, m.PathPrepend...), current...), m.PathAppend...)
	if err := os.Setenv("PATH", strings.Join(newPath, string(os.PathListSeparator))); err != nil {
		return cogniaerr.Wrap(cogniaerr.KindIO, "updating PATH", err)
	}
	return nil
}

// ShellCommands renders the modifications as a script in the syntax of
// shell, suitable for appending to a shell rc file or printing for the
// user to source.
func (m *Modifications) ShellCommands(shell Shell) string {
	var b strings.Builder

	for _, key := range m.UnsetVariables {
		b.WriteString(unsetCommand(shell, key))
		b.WriteByte('\n')
	}
	for key, value := range m.SetVariables {
		b.WriteString(setCommand(shell, key, value))
		b.WriteByte('\n')
	}
	for _, dir := range m.PathPrepend {
		b.WriteString(pathCommand(shell, dir, true))
		b.WriteByte('\n')
	}
	for _, dir := range m.PathAppend {
		b.WriteString(pathCommand(shell, dir, false))
		b.WriteByte('\n')
	}

	return b.String()
}

func setCommand(shell Shell, key, value string) string {
	switch shell {
	case ShellFish:
		return fmt.Sprintf("set -gx %s %q", key, value)
	case ShellPowerShell:
		return fmt.Sprintf("$env:%s = %q", key, value)
	case ShellCmd:
		return fmt.Sprintf("set %s=%s", key, value)
	default:
		return fmt.Sprintf("export %s=%q", key, value)
	}
}

func unsetCommand(shell Shell, key string) string {
	switch shell {
	case ShellFish:
		return fmt.Sprintf("set -e %s", key)
	case ShellPowerShell:
		return fmt.Sprintf("Remove-Item Env:%s -ErrorAction SilentlyContinue", key)
	case ShellCmd:
		return fmt.Sprintf("set %s=", key)
	default:
		return fmt.Sprintf("unset %s", key)
	}
}

func pathCommand(shell Shell, dir string, prepend bool) string {
	switch shell {
	case ShellFish:
		if prepend {
			return fmt.Sprintf("fish_add_path --prepend %q", dir)
		}
		return fmt.Sprintf("fish_add_path --append %q", dir)
	case ShellPowerShell:
		if prepend {
			return fmt.Sprintf("$env:PATH = %q + \";\" + $env:PATH", dir)
		}
		return fmt.Sprintf("$env:PATH = $env:PATH + \";\" + %q", dir)
	case ShellCmd:
		if prepend {
			return fmt.Sprintf("set PATH=%s;%%PATH%%", dir)
		}
		return fmt.Sprintf("set PATH=%%PATH%%;%s", dir)
	default:
		if prepend {
			return fmt.Sprintf("export PATH=%q:$PATH", dir)
		}
		return fmt.Sprintf("export PATH=$PATH:%q", dir)
	}
}

// ExpandPath expands a leading ~ and $VAR/${VAR} references in path the
// way a shell would before using it as a filesystem path.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return os.Expand(path, os.Getenv)
}

// PlatformTag returns the GOOS/GOARCH pair CogniaLauncher uses to pick
// provider download artifacts, e.g. "linux-amd64".
func PlatformTag() string {
	return fmt.Sprintf("%s-%s", runtime.GOOS, runtime.GOARCH)
}
