package wasmhost

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/cognia-dev/cognia-launcher/internal/cogniaerr"
)

// --- Filesystem ---
// Every call is sandboxed to the plugin's own data directory via
// Manager.CheckFsAccess, in addition to the read/write permission gate
// already applied by Host.wrap.

func (h *Host) fsRead(ctx context.Context, pluginID, argJSON string) (string, error) {
	var req struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal([]byte(argJSON), &req); err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindPlugin, "parsing cognia_fs_read argument", err)
	}
	path := h.resolvePluginPath(pluginID, req.Path)
	if err := h.deps.Permissions.CheckFsAccess(pluginID, path, false); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindIO, "reading plugin file", err)
	}
	return toJSON(map[string]any{"content": string(data)})
}

func (h *Host) fsListDir(ctx context.Context, pluginID, argJSON string) (string, error) {
	var req struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal([]byte(argJSON), &req); err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindPlugin, "parsing cognia_fs_list_dir argument", err)
	}
	path := h.resolvePluginPath(pluginID, req.Path)
	if err := h.deps.Permissions.CheckFsAccess(pluginID, path, false); err != nil {
		return "", err
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindIO, "listing plugin directory", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return toJSON(map[string]any{"entries": names})
}

func (h *Host) fsExists(ctx context.Context, pluginID, argJSON string) (string, error) {
	var req struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal([]byte(argJSON), &req); err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindPlugin, "parsing cognia_fs_exists argument", err)
	}
	path := h.resolvePluginPath(pluginID, req.Path)
	if err := h.deps.Permissions.CheckFsAccess(pluginID, path, false); err != nil {
		return "", err
	}
	_, err := os.Stat(path)
	return toJSON(map[string]any{"exists": err == nil})
}

func (h *Host) fsWrite(ctx context.Context, pluginID, argJSON string) (string, error) {
	var req struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal([]byte(argJSON), &req); err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindPlugin, "parsing cognia_fs_write argument", err)
	}
	path := h.resolvePluginPath(pluginID, req.Path)
	if err := h.deps.Permissions.CheckFsAccess(pluginID, path, true); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindIO, "creating plugin directory", err)
	}
	if err := os.WriteFile(path, []byte(req.Content), 0o644); err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindIO, "writing plugin file", err)
	}
	return toJSON(map[string]any{"ok": true})
}

func (h *Host) fsDelete(ctx context.Context, pluginID, argJSON string) (string, error) {
	var req struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal([]byte(argJSON), &req); err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindPlugin, "parsing cognia_fs_delete argument", err)
	}
	path := h.resolvePluginPath(pluginID, req.Path)
	if err := h.deps.Permissions.CheckFsAccess(pluginID, path, true); err != nil {
		return "", err
	}
	if err := os.RemoveAll(path); err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindIO, "deleting plugin file", err)
	}
	return toJSON(map[string]any{"ok": true})
}

func (h *Host) fsMkdir(ctx context.Context, pluginID, argJSON string) (string, error) {
	var req struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal([]byte(argJSON), &req); err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindPlugin, "parsing cognia_fs_mkdir argument", err)
	}
	path := h.resolvePluginPath(pluginID, req.Path)
	if err := h.deps.Permissions.CheckFsAccess(pluginID, path, true); err != nil {
		return "", err
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindIO, "creating plugin directory", err)
	}
	return toJSON(map[string]any{"ok": true})
}

// resolvePluginPath treats a relative guest path as rooted at the
// plugin's sandboxed data directory; an absolute path is passed through
// for CheckFsAccess to reject if it escapes the sandbox.
func (h *Host) resolvePluginPath(pluginID, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(h.deps.Permissions.GetPluginDataDir(pluginID), path)
}

// --- HTTP ---
// httpClient is shared across calls; CheckHTTPAccess enforces the
// plugin's declared allow-list before any request leaves the host.

const maxHTTPResponseBytes = 10 << 20 // 10 MiB

func (h *Host) httpGet(ctx context.Context, pluginID, argJSON string) (string, error) {
	var req struct {
		URL     string            `json:"url"`
		Headers map[string]string `json:"headers"`
	}
	if err := json.Unmarshal([]byte(argJSON), &req); err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindPlugin, "parsing cognia_http_get argument", err)
	}
	if err := h.deps.Permissions.CheckHTTPAccess(pluginID, req.URL); err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindPlugin, "building plugin HTTP request", err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	return h.doHTTP(httpReq)
}

func (h *Host) httpPost(ctx context.Context, pluginID, argJSON string) (string, error) {
	var req struct {
		URL     string            `json:"url"`
		Body    string            `json:"body"`
		Headers map[string]string `json:"headers"`
	}
	if err := json.Unmarshal([]byte(argJSON), &req); err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindPlugin, "parsing cognia_http_post argument", err)
	}
	if err := h.deps.Permissions.CheckHTTPAccess(pluginID, req.URL); err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, stringReader(req.Body))
	if err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindPlugin, "building plugin HTTP request", err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	return h.doHTTP(httpReq)
}

func (h *Host) doHTTP(req *http.Request) (string, error) {
	resp, err := h.httpClient().Do(req)
	if err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindNetwork, "performing plugin HTTP request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxHTTPResponseBytes))
	if err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindNetwork, "reading plugin HTTP response", err)
	}
	return toJSON(map[string]any{
		"status": resp.StatusCode,
		"body":   string(body),
	})
}

func (h *Host) httpClient() *http.Client {
	if h.sharedHTTPClient == nil {
		h.sharedHTTPClient = &http.Client{}
	}
	return h.sharedHTTPClient
}

func stringReader(s string) io.Reader {
	return &stringReaderImpl{s: s}
}

type stringReaderImpl struct {
	s string
	i int
}

func (r *stringReaderImpl) Read(p []byte) (int, error) {
	if r.i >= len(r.s) {
		return 0, io.EOF
	}
	n := copy(p, r.s[r.i:])
	r.i += n
	return n, nil
}

// --- Clipboard / Notification / Process ---

func (h *Host) clipboardRead(ctx context.Context, pluginID, argJSON string) (string, error) {
	text, err := h.deps.Clipboard.Read()
	if err != nil {
		return "", err
	}
	return toJSON(map[string]any{"text": text})
}

func (h *Host) clipboardWrite(ctx context.Context, pluginID, argJSON string) (string, error) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(argJSON), &req); err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindPlugin, "parsing cognia_clipboard_write argument", err)
	}
	if err := h.deps.Clipboard.Write(req.Text); err != nil {
		return "", err
	}
	return toJSON(map[string]any{"ok": true})
}

func (h *Host) notificationSend(ctx context.Context, pluginID, argJSON string) (string, error) {
	var req struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if err := json.Unmarshal([]byte(argJSON), &req); err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindPlugin, "parsing cognia_notification_send argument", err)
	}
	if err := h.deps.Notifier.Send(req.Title, req.Body); err != nil {
		return "", err
	}
	return toJSON(map[string]any{"ok": true})
}

func (h *Host) processExec(ctx context.Context, pluginID, argJSON string) (string, error) {
	var req struct {
		Command string   `json:"command"`
		Args    []string `json:"args"`
	}
	if err := json.Unmarshal([]byte(argJSON), &req); err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindPlugin, "parsing cognia_process_exec argument", err)
	}
	stdout, exitCode, err := h.deps.Process.Run(ctx, req.Command, req.Args)
	if err != nil {
		return "", err
	}
	return toJSON(map[string]any{"stdout": stdout, "exit_code": exitCode})
}

// --- Meta ---

func (h *Host) getLocale(ctx context.Context, pluginID, argJSON string) (string, error) {
	return toJSON(map[string]any{"locale": h.deps.Meta.Locale()})
}

func (h *Host) i18nTranslate(ctx context.Context, pluginID, argJSON string) (string, error) {
	var req struct {
		Key    string `json:"key"`
		Locale string `json:"locale"`
	}
	if err := json.Unmarshal([]byte(argJSON), &req); err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindPlugin, "parsing cognia_i18n_translate argument", err)
	}
	value, err := h.deps.Meta.Translate(req.Key, req.Locale)
	if err != nil {
		return "", err
	}
	return toJSON(map[string]any{"value": value})
}

func (h *Host) i18nGetAll(ctx context.Context, pluginID, argJSON string) (string, error) {
	var req struct {
		Locale string `json:"locale"`
	}
	if err := json.Unmarshal([]byte(argJSON), &req); err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindPlugin, "parsing cognia_i18n_get_all argument", err)
	}
	values, err := h.deps.Meta.AllTranslations(req.Locale)
	if err != nil {
		return "", err
	}
	return toJSON(map[string]any{"values": values})
}

func (h *Host) platformInfo(ctx context.Context, pluginID, argJSON string) (string, error) {
	return toJSON(h.deps.Meta.PlatformInfo())
}

func (h *Host) cacheInfo(ctx context.Context, pluginID, argJSON string) (string, error) {
	return toJSON(h.deps.Meta.CacheInfo())
}

func (h *Host) log(ctx context.Context, pluginID, argJSON string) (string, error) {
	var req struct {
		Level   string `json:"level"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(argJSON), &req); err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindPlugin, "parsing cognia_log argument", err)
	}
	h.deps.Meta.Log(pluginID, req.Level, req.Message)
	return toJSON(map[string]any{"ok": true})
}

func (h *Host) eventEmit(ctx context.Context, pluginID, argJSON string) (string, error) {
	var req struct {
		Event   string         `json:"event"`
		Payload map[string]any `json:"payload"`
	}
	if err := json.Unmarshal([]byte(argJSON), &req); err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindPlugin, "parsing cognia_event_emit argument", err)
	}
	h.deps.Meta.EmitEvent(pluginID, req.Event, req.Payload)
	return toJSON(map[string]any{"ok": true})
}

func (h *Host) getPluginID(ctx context.Context, pluginID, argJSON string) (string, error) {
	return toJSON(map[string]any{"plugin_id": pluginID})
}
