package shim

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/cognia-dev/cognia-launcher/internal/cogniaerr"
	"github.com/cognia-dev/cognia-launcher/internal/platformenv"
)

// PathManager checks whether the shim directory is on PATH and, on
// request, edits the user's shell configuration (or, on Windows, the
// user environment variable) to add or remove it.
type PathManager struct {
	shimDir string
}

// NewPathManager returns a PathManager for shimDir.
func NewPathManager(shimDir string) *PathManager {
	return &PathManager{shimDir: shimDir}
}

// IsInPath reports whether the shim directory already appears in the
// current process's PATH.
func (p *PathManager) IsInPath() bool {
	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		if dir == p.shimDir {
			return true
		}
	}
	return false
}

// AddToPathCommand returns a one-line instruction the user can run
// themselves instead of letting AddToPath edit their shell config.
func (p *PathManager) AddToPathCommand() string {
	shell := platformenv.DetectShell()
	switch shell {
	case platformenv.ShellFish:
		return fmt.Sprintf("fish_add_path %q", p.shimDir)
	case platformenv.ShellPowerShell:
		return fmt.Sprintf("$env:PATH += \";%s\"", p.shimDir)
	case platformenv.ShellCmd:
		return fmt.Sprintf("set PATH=%%PATH%%;%s", p.shimDir)
	default:
		return fmt.Sprintf("export PATH=%q:$PATH", p.shimDir)
	}
}

const pathMarker = "# added by cognia"

// AddToPath appends an export line for the shim directory to the user's
// shell rc file (or sets the persistent user PATH on Windows). It is a
// no-op if the shim directory is already present in that file.
func (p *PathManager) AddToPath() error {
	if runtime.GOOS == "windows" {
		return p.addToPathWindows()
	}

	shell := platformenv.DetectShell()
	home, err := os.UserHomeDir()
	if err != nil {
		return cogniaerr.Wrap(cogniaerr.KindIO, "resolving home directory", err)
	}
	rcPath := shell.ConfigFile(home)
	if rcPath == "" {
		return cogniaerr.Newf(cogniaerr.KindPlatformNotSupported, "no shell config file for %s", shell)
	}

	existing, err := os.ReadFile(rcPath)
	if err != nil && !os.IsNotExist(err) {
		return cogniaerr.Wrap(cogniaerr.KindIO, "reading shell config", err)
	}
	if strings.Contains(string(existing), p.shimDir) {
		return nil
	}

	line := platformenv.NewModifications().PrependPath(p.shimDir).ShellCommands(shell)
	block := fmt.Sprintf("\n%s\n%s", pathMarker, line)

	f, err := os.OpenFile(rcPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return cogniaerr.Wrap(cogniaerr.KindIO, "opening shell config", err)
	}
	defer f.Close()
	if _, err := f.WriteString(block); err != nil {
		return cogniaerr.Wrap(cogniaerr.KindIO, "writing shell config", err)
	}
	return nil
}

// RemoveFromPath removes the line(s) AddToPath previously inserted.
func (p *PathManager) RemoveFromPath() error {
	if runtime.GOOS == "windows" {
		return p.removeFromPathWindows()
	}

	shell := platformenv.DetectShell()
	home, err := os.UserHomeDir()
	if err != nil {
		return cogniaerr.Wrap(cogniaerr.KindIO, "resolving home directory", err)
	}
	rcPath := shell.ConfigFile(home)
	if rcPath == "" {
		return nil
	}

	data, err := os.ReadFile(rcPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return cogniaerr.Wrap(cogniaerr.KindIO, "reading shell config", err)
	}

	lines := strings.Split(string(data), "\n")
	kept := make([]string, 0, len(lines))
	skipNext := false
	for _, line := range lines {
		if skipNext {
			skipNext = false
			continue
		}
		if strings.TrimSpace(line) == pathMarker {
			skipNext = true
			continue
		}
		if strings.Contains(line, p.shimDir) {
			continue
		}
		kept = append(kept, line)
	}

	return os.WriteFile(rcPath, []byte(strings.Join(kept, "\n")), 0o644)
}

// addToPathWindows only affects the current process; persisting a user
// environment variable on Windows needs registry access CogniaLauncher's
// dependency set has no library for, so AddToPathCommand is what callers
// should surface to the user on that platform.
func (p *PathManager) addToPathWindows() error {
	return platformenv.NewModifications().PrependPath(p.shimDir).Apply()
}

func (p *PathManager) removeFromPathWindows() error {
	current := filepath.SplitList(os.Getenv("PATH"))
	kept := make([]string, 0, len(current))
	for _, dir := range current {
		if dir != p.shimDir {
			kept = append(kept, dir)
		}
	}
	return os.Setenv("PATH", strings.Join(kept, string(os.PathListSeparator)))
}
