package wasmhost

import (
	"context"
	"os/exec"
	"runtime"

	"github.com/atotto/clipboard"

	"github.com/cognia-dev/cognia-launcher/internal/cogniaerr"
	"github.com/cognia-dev/cognia-launcher/internal/logging"
	"github.com/cognia-dev/cognia-launcher/internal/meta"
)

// SystemClipboard backs the cognia_clipboard_* ABI group with
// atotto/clipboard, the same library the teacher's other retrieval-pack
// dependency (CogniaLauncher's domain stack table) names for it.
type SystemClipboard struct{}

func (SystemClipboard) Read() (string, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindIO, "reading system clipboard", err)
	}
	return text, nil
}

func (SystemClipboard) Write(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return cogniaerr.Wrap(cogniaerr.KindIO, "writing system clipboard", err)
	}
	return nil
}

// LogNotifier backs cognia_notification_send by logging the notification
// rather than shelling out to a platform-specific notifier binary —
// CogniaLauncher has no bundled desktop-notification dependency in its
// retrieval pack, so this ambient fallback keeps the ABI call meaningful
// without inventing one.
type LogNotifier struct {
	Logger *logging.Logger
}

func (n LogNotifier) Send(title, body string) error {
	n.Logger.Infow("plugin notification", "title", title, "body", body)
	return nil
}

// ExecProcessRunner backs cognia_process_exec via os/exec, the same
// subprocess mechanism the teacher's own plugin execution path uses.
type ExecProcessRunner struct{}

func (ExecProcessRunner) Run(ctx context.Context, command string, args []string) (string, int, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	output, err := cmd.CombinedOutput()
	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if ok := asExitError(err, &exitErr); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return string(output), -1, cogniaerr.Wrap(cogniaerr.KindPlugin, "running plugin subprocess", err)
		}
	}
	return string(output), exitCode, nil
}

func asExitError(err error, target **exec.ExitError) bool {
	exitErr, ok := err.(*exec.ExitError)
	if ok {
		*target = exitErr
	}
	return ok
}

// LocalMetaService backs the ABI's ambient meta group from static
// platform info and the shared Logger, with a minimal in-process
// translation table (CogniaLauncher ships English strings only; the
// i18n group exists for plugin-side UI, not launcher localization).
type LocalMetaService struct {
	Logger       *logging.Logger
	CacheDir     string
	CacheEntries func() int
	CacheBytes   func() int64
}

func (m LocalMetaService) Locale() string {
	return "en-US"
}

func (m LocalMetaService) Translate(key, locale string) (string, error) {
	return key, nil
}

func (m LocalMetaService) AllTranslations(locale string) (map[string]string, error) {
	return map[string]string{}, nil
}

func (m LocalMetaService) PlatformInfo() any {
	return map[string]any{
		"os":      runtime.GOOS,
		"arch":    runtime.GOARCH,
		"version": meta.Version,
	}
}

func (m LocalMetaService) CacheInfo() any {
	entries, bytes := 0, int64(0)
	if m.CacheEntries != nil {
		entries = m.CacheEntries()
	}
	if m.CacheBytes != nil {
		bytes = m.CacheBytes()
	}
	return map[string]any{
		"cache_dir":    m.CacheDir,
		"entry_count":  entries,
		"total_bytes":  bytes,
	}
}

func (m LocalMetaService) Log(pluginID, level, message string) {
	switch level {
	case "error":
		m.Logger.Errorw(message, "plugin", pluginID)
	case "warn":
		m.Logger.Warnw(message, "plugin", pluginID)
	case "debug":
		m.Logger.Debugw(message, "plugin", pluginID)
	default:
		m.Logger.Infow(message, "plugin", pluginID)
	}
}

func (m LocalMetaService) EmitEvent(pluginID, eventName string, payload map[string]any) {
	m.Logger.Debugw("plugin event", "plugin", pluginID, "event", eventName, "payload", payload)
}
