package wasmhost

import (
	"context"
	"encoding/json"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/cognia-dev/cognia-launcher/internal/cogniaerr"
	"github.com/cognia-dev/cognia-launcher/internal/plugin"
)

// registerABI builds the "env" host module carrying every cognia_*
// import from spec.md §4.3's ABI table, each gated by the permission
// its column names before dispatching into Dependencies.
func (h *Host) registerABI(ctx context.Context) error {
	b := h.runtime.NewHostModuleBuilder(hostImportModule)

	register := func(name, permission string, fn hostFunc) {
		b.NewFunctionBuilder().
			WithFunc(h.wrap(permission, fn)).
			Export(name)
	}

	// Config
	register("cognia_config_get", plugin.PermConfigRead, h.configGet)
	register("cognia_config_set", plugin.PermConfigWrite, h.configSet)

	// Environment
	register("cognia_env_list", plugin.PermEnvRead, h.envList)
	register("cognia_env_detect", plugin.PermEnvRead, h.envDetect)
	register("cognia_env_get_current", plugin.PermEnvRead, h.envGetCurrent)
	register("cognia_env_list_versions", plugin.PermEnvRead, h.envListVersions)
	register("cognia_env_install_version", plugin.PermProcessExec, h.envInstallVersion)
	register("cognia_env_set_version", plugin.PermEnvRead, h.envSetVersion)

	// Packages
	register("cognia_pkg_search", plugin.PermPkgSearch, h.pkgSearch)
	register("cognia_pkg_info", plugin.PermPkgSearch, h.pkgInfo)
	register("cognia_pkg_versions", plugin.PermPkgSearch, h.pkgVersions)
	register("cognia_pkg_dependencies", plugin.PermPkgSearch, h.pkgDependencies)
	register("cognia_pkg_list_installed", plugin.PermPkgSearch, h.pkgListInstalled)
	register("cognia_pkg_check_updates", plugin.PermPkgSearch, h.pkgCheckUpdates)
	register("cognia_pkg_install", plugin.PermPkgInstall, h.pkgInstall)
	register("cognia_pkg_uninstall", plugin.PermPkgInstall, h.pkgUninstall)

	// Filesystem — also sandboxed to the plugin's data dir by CheckFsAccess
	register("cognia_fs_read", plugin.PermFsRead, h.fsRead)
	register("cognia_fs_list_dir", plugin.PermFsRead, h.fsListDir)
	register("cognia_fs_exists", plugin.PermFsRead, h.fsExists)
	register("cognia_fs_write", plugin.PermFsWrite, h.fsWrite)
	register("cognia_fs_delete", plugin.PermFsWrite, h.fsDelete)
	register("cognia_fs_mkdir", plugin.PermFsWrite, h.fsMkdir)

	// HTTP — also allow-list-checked by CheckHTTPAccess
	register("cognia_http_get", plugin.PermHTTP, h.httpGet)
	register("cognia_http_post", plugin.PermHTTP, h.httpPost)

	// Clipboard / Notification / Process
	register("cognia_clipboard_read", plugin.PermClipboard, h.clipboardRead)
	register("cognia_clipboard_write", plugin.PermClipboard, h.clipboardWrite)
	register("cognia_notification_send", plugin.PermNotification, h.notificationSend)
	register("cognia_process_exec", plugin.PermProcessExec, h.processExec)

	// Meta — ambient, no permission gate
	register("cognia_get_locale", "", h.getLocale)
	register("cognia_i18n_translate", "", h.i18nTranslate)
	register("cognia_i18n_get_all", "", h.i18nGetAll)
	register("cognia_platform_info", "", h.platformInfo)
	register("cognia_cache_info", "", h.cacheInfo)
	register("cognia_log", "", h.log)
	register("cognia_event_emit", "", h.eventEmit)
	register("cognia_get_plugin_id", "", h.getPluginID)

	_, err := b.Instantiate(ctx)
	if err != nil {
		return cogniaerr.Wrap(cogniaerr.KindInternal, "registering plugin host ABI", err)
	}
	return nil
}

// wrap adapts a hostFunc into the wazero Go-function signature every
// cognia_* import uses: (argPtr, argLen uint32) -> packed (ptr, len)
// uint64, reading the argument from and writing the result into the
// calling module's own linear memory. A required permission is
// enforced before fn runs; the empty string means no gate (meta group).
func (h *Host) wrap(permission string, fn hostFunc) func(ctx context.Context, mod api.Module, argPtr, argLen uint32) uint64 {
	return func(ctx context.Context, mod api.Module, argPtr, argLen uint32) uint64 {
		pluginID := h.currentPluginID()

		arg, err := readGuestString(mod, argPtr, argLen)
		if err != nil {
			return h.writeResult(ctx, mod, errorJSON(err))
		}

		if permission != "" {
			if err := h.deps.Permissions.CheckPermission(pluginID, permission); err != nil {
				return h.writeResult(ctx, mod, errorJSON(err))
			}
		}

		result, err := fn(ctx, pluginID, arg)
		if err != nil {
			return h.writeResult(ctx, mod, errorJSON(err))
		}
		return h.writeResult(ctx, mod, result)
	}
}

func (h *Host) writeResult(ctx context.Context, mod api.Module, s string) uint64 {
	ptr, size, err := writeGuestString(ctx, mod, s)
	if err != nil {
		return 0
	}
	return pack(ptr, size)
}

func toJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindInternal, "marshalling host result", err)
	}
	return string(data), nil
}

// --- Config ---

func (h *Host) configGet(ctx context.Context, pluginID, argJSON string) (string, error) {
	var req struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal([]byte(argJSON), &req); err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindPlugin, "parsing cognia_config_get argument", err)
	}
	value, ok := h.deps.Config.Get(req.Key)
	return toJSON(map[string]any{"value": value, "found": ok})
}

func (h *Host) configSet(ctx context.Context, pluginID, argJSON string) (string, error) {
	var req struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := json.Unmarshal([]byte(argJSON), &req); err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindPlugin, "parsing cognia_config_set argument", err)
	}
	if err := h.deps.Config.Set(req.Key, req.Value); err != nil {
		return "", err
	}
	return toJSON(map[string]any{"ok": true})
}

// --- Environment ---

func (h *Host) envList(ctx context.Context, pluginID, argJSON string) (string, error) {
	providers, err := h.deps.Environment.ListProviders(ctx)
	if err != nil {
		return "", err
	}
	return toJSON(map[string]any{"providers": providers})
}

func (h *Host) envDetect(ctx context.Context, pluginID, argJSON string) (string, error) {
	var req struct {
		Provider  string `json:"provider"`
		StartPath string `json:"start_path"`
	}
	if err := json.Unmarshal([]byte(argJSON), &req); err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindPlugin, "parsing cognia_env_detect argument", err)
	}
	version, err := h.deps.Environment.DetectVersion(ctx, req.Provider, req.StartPath)
	if err != nil {
		return "", err
	}
	return toJSON(map[string]any{"version": version})
}

func (h *Host) envGetCurrent(ctx context.Context, pluginID, argJSON string) (string, error) {
	var req struct {
		Provider string `json:"provider"`
	}
	if err := json.Unmarshal([]byte(argJSON), &req); err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindPlugin, "parsing cognia_env_get_current argument", err)
	}
	version, err := h.deps.Environment.GetCurrentVersion(ctx, req.Provider)
	if err != nil {
		return "", err
	}
	return toJSON(map[string]any{"version": version})
}

func (h *Host) envListVersions(ctx context.Context, pluginID, argJSON string) (string, error) {
	var req struct {
		Provider string `json:"provider"`
	}
	if err := json.Unmarshal([]byte(argJSON), &req); err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindPlugin, "parsing cognia_env_list_versions argument", err)
	}
	versions, err := h.deps.Environment.ListInstalledVersions(ctx, req.Provider)
	if err != nil {
		return "", err
	}
	return toJSON(map[string]any{"versions": versions})
}

func (h *Host) envInstallVersion(ctx context.Context, pluginID, argJSON string) (string, error) {
	var req struct {
		Provider string `json:"provider"`
		Version  string `json:"version"`
	}
	if err := json.Unmarshal([]byte(argJSON), &req); err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindPlugin, "parsing cognia_env_install_version argument", err)
	}
	if err := h.deps.Environment.InstallVersion(ctx, req.Provider, req.Version); err != nil {
		return "", err
	}
	return toJSON(map[string]any{"ok": true})
}

func (h *Host) envSetVersion(ctx context.Context, pluginID, argJSON string) (string, error) {
	var req struct {
		Provider string `json:"provider"`
		Version  string `json:"version"`
		Global   bool   `json:"global"`
	}
	if err := json.Unmarshal([]byte(argJSON), &req); err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindPlugin, "parsing cognia_env_set_version argument", err)
	}
	if err := h.deps.Environment.SetVersion(ctx, req.Provider, req.Version, req.Global); err != nil {
		return "", err
	}
	return toJSON(map[string]any{"ok": true})
}

// --- Packages ---

func (h *Host) pkgSearch(ctx context.Context, pluginID, argJSON string) (string, error) {
	var req struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(argJSON), &req); err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindPlugin, "parsing cognia_pkg_search argument", err)
	}
	result, err := h.deps.Packages.Search(ctx, req.Query)
	if err != nil {
		return "", err
	}
	return toJSON(result)
}

func (h *Host) pkgInfo(ctx context.Context, pluginID, argJSON string) (string, error) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal([]byte(argJSON), &req); err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindPlugin, "parsing cognia_pkg_info argument", err)
	}
	result, err := h.deps.Packages.Info(ctx, req.Name)
	if err != nil {
		return "", err
	}
	return toJSON(result)
}

func (h *Host) pkgVersions(ctx context.Context, pluginID, argJSON string) (string, error) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal([]byte(argJSON), &req); err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindPlugin, "parsing cognia_pkg_versions argument", err)
	}
	result, err := h.deps.Packages.Versions(ctx, req.Name)
	if err != nil {
		return "", err
	}
	return toJSON(result)
}

func (h *Host) pkgDependencies(ctx context.Context, pluginID, argJSON string) (string, error) {
	var req struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}
	if err := json.Unmarshal([]byte(argJSON), &req); err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindPlugin, "parsing cognia_pkg_dependencies argument", err)
	}
	result, err := h.deps.Packages.Dependencies(ctx, req.Name, req.Version)
	if err != nil {
		return "", err
	}
	return toJSON(result)
}

func (h *Host) pkgListInstalled(ctx context.Context, pluginID, argJSON string) (string, error) {
	result, err := h.deps.Packages.ListInstalled(ctx)
	if err != nil {
		return "", err
	}
	return toJSON(result)
}

func (h *Host) pkgCheckUpdates(ctx context.Context, pluginID, argJSON string) (string, error) {
	var req struct {
		Names []string `json:"names"`
	}
	if err := json.Unmarshal([]byte(argJSON), &req); err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindPlugin, "parsing cognia_pkg_check_updates argument", err)
	}
	result, err := h.deps.Packages.CheckUpdates(ctx, req.Names)
	if err != nil {
		return "", err
	}
	return toJSON(result)
}

func (h *Host) pkgInstall(ctx context.Context, pluginID, argJSON string) (string, error) {
	var req struct {
		Name       string `json:"name"`
		Constraint string `json:"constraint"`
	}
	if err := json.Unmarshal([]byte(argJSON), &req); err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindPlugin, "parsing cognia_pkg_install argument", err)
	}
	result, err := h.deps.Packages.Install(ctx, req.Name, req.Constraint)
	if err != nil {
		return "", err
	}
	return toJSON(result)
}

func (h *Host) pkgUninstall(ctx context.Context, pluginID, argJSON string) (string, error) {
	var req struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}
	if err := json.Unmarshal([]byte(argJSON), &req); err != nil {
		return "", cogniaerr.Wrap(cogniaerr.KindPlugin, "parsing cognia_pkg_uninstall argument", err)
	}
	if err := h.deps.Packages.Uninstall(ctx, req.Name, req.Version); err != nil {
		return "", err
	}
	return toJSON(map[string]any{"ok": true})
}
