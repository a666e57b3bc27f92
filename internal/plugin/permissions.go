package plugin

import (
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cognia-dev/cognia-launcher/internal/cogniaerr"
)

const (
	PermConfigRead   = "config_read"
	PermConfigWrite  = "config_write"
	PermEnvRead      = "env_read"
	PermPkgSearch    = "pkg_search"
	PermPkgInstall   = "pkg_install"
	PermClipboard    = "clipboard"
	PermNotification = "notification"
	PermProcessExec  = "process_exec"
	PermFsRead       = "fs_read"
	PermFsWrite      = "fs_write"
	PermHTTP         = "http"
)

// PermissionState is the runtime grant/deny state for one loaded
// plugin, seeded from its declared manifest permissions.
type PermissionState struct {
	Declared Permissions
	granted  map[string]bool
	denied   map[string]bool
}

// NewPermissionState auto-grants the safe permissions declared true and
// the allow-list permissions declared non-empty. Dangerous permissions
// (config_write, pkg_install, process_exec) are never auto-granted.
func NewPermissionState(declared Permissions) *PermissionState {
	granted := map[string]bool{}

	if declared.ConfigRead {
		granted[PermConfigRead] = true
	}
	if declared.EnvRead {
		granted[PermEnvRead] = true
	}
	if declared.PkgSearch {
		granted[PermPkgSearch] = true
	}
	if declared.Clipboard {
		granted[PermClipboard] = true
	}
	if declared.Notification {
		granted[PermNotification] = true
	}
	if len(declared.FsRead) > 0 {
		granted[PermFsRead] = true
	}
	if len(declared.FsWrite) > 0 {
		granted[PermFsWrite] = true
	}
	if len(declared.HTTP) > 0 {
		granted[PermHTTP] = true
	}

	return &PermissionState{
		Declared: declared,
		granted:  granted,
		denied:   map[string]bool{},
	}
}

// IsGranted reports whether permission is currently granted and not
// subsequently denied.
func (s *PermissionState) IsGranted(permission string) bool {
	return s.granted[permission] && !s.denied[permission]
}

// Manager tracks permission state per loaded plugin and enforces the
// filesystem/HTTP sandboxes at host-call time.
type Manager struct {
	mu            sync.RWMutex
	states        map[string]*PermissionState
	pluginsDataDir string
}

// NewManager creates a Manager rooted at pluginsDataDir (each plugin's
// sandbox lives at <pluginsDataDir>/<id>/data).
func NewManager(pluginsDataDir string) *Manager {
	return &Manager{
		states:         map[string]*PermissionState{},
		pluginsDataDir: pluginsDataDir,
	}
}

// RegisterPlugin seeds permission state for pluginID from its declared
// manifest permissions.
func (m *Manager) RegisterPlugin(pluginID string, declared Permissions) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[pluginID] = NewPermissionState(declared)
}

// UnregisterPlugin drops a plugin's permission state entirely.
func (m *Manager) UnregisterPlugin(pluginID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, pluginID)
}

// GetState returns the permission state for pluginID, or nil if unknown.
func (m *Manager) GetState(pluginID string) *PermissionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.states[pluginID]
}

func (m *Manager) lookupLocked(pluginID string) (*PermissionState, error) {
	s, ok := m.states[pluginID]
	if !ok {
		return nil, cogniaerr.Newf(cogniaerr.KindPlugin, "plugin %q not found", pluginID)
	}
	return s, nil
}

// GrantPermission grants permission to pluginID, clearing any prior denial.
func (m *Manager) GrantPermission(pluginID, permission string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.lookupLocked(pluginID)
	if err != nil {
		return err
	}
	delete(s.denied, permission)
	s.granted[permission] = true
	return nil
}

// RevokePermission denies permission to pluginID, overriding any grant.
func (m *Manager) RevokePermission(pluginID, permission string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.lookupLocked(pluginID)
	if err != nil {
		return err
	}
	delete(s.granted, permission)
	s.denied[permission] = true
	return nil
}

// CheckPermission returns a PermissionDenied error unless pluginID
// currently holds permission.
func (m *Manager) CheckPermission(pluginID, permission string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, err := m.lookupLocked(pluginID)
	if err != nil {
		return err
	}
	if s.IsGranted(permission) {
		return nil
	}
	return cogniaerr.Newf(cogniaerr.KindPermissionDenied, "plugin %q does not have %q permission", pluginID, permission)
}

// GetPluginDataDir returns the sandboxed data directory for pluginID.
func (m *Manager) GetPluginDataDir(pluginID string) string {
	return filepath.Join(m.pluginsDataDir, pluginID, "data")
}

// CheckFsAccess validates that path is within pluginID's sandboxed data
// directory and that the read/write permission is granted.
func (m *Manager) CheckFsAccess(pluginID, path string, write bool) error {
	m.mu.RLock()
	s, err := m.lookupLocked(pluginID)
	m.mu.RUnlock()
	if err != nil {
		return err
	}

	permKey := PermFsRead
	if write {
		permKey = PermFsWrite
	}
	if !s.IsGranted(permKey) {
		return cogniaerr.Newf(cogniaerr.KindPermissionDenied, "plugin %q does not have %q permission", pluginID, permKey)
	}

	dataDir, err := canonicalPath(m.GetPluginDataDir(pluginID))
	if err != nil {
		return cogniaerr.Newf(cogniaerr.KindPermissionDenied, "plugin %q data directory is not accessible", pluginID)
	}

	canonical, err := canonicalPath(path)
	if err != nil {
		return cogniaerr.Newf(cogniaerr.KindPermissionDenied, "plugin %q cannot access unresolvable path: %s", pluginID, path)
	}

	if canonical != dataDir && !strings.HasPrefix(canonical, dataDir+string(filepath.Separator)) {
		return cogniaerr.Newf(cogniaerr.KindPermissionDenied, "plugin %q cannot access path outside its data directory: %s", pluginID, path)
	}
	return nil
}

// canonicalPath resolves path to an absolute, symlink-free form so a
// symlink inside the sandbox cannot be used to point at a target outside
// it. If path does not yet exist (e.g. a file about to be created), the
// nearest existing ancestor directory is resolved instead and the
// remaining components are rejoined unresolved.
func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	abs = filepath.Clean(abs)

	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}

	dir := filepath.Dir(abs)
	resolvedDir, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedDir, filepath.Base(abs)), nil
}

// CheckHTTPAccess validates rawURL's host against pluginID's declared
// HTTP allow-list. An http permission with an empty allow-list always
// denies, even though the permission itself may be granted — an empty
// list can never represent an intentional grant of any host.
func (m *Manager) CheckHTTPAccess(pluginID, rawURL string) error {
	m.mu.RLock()
	s, err := m.lookupLocked(pluginID)
	m.mu.RUnlock()
	if err != nil {
		return err
	}

	if !s.IsGranted(PermHTTP) {
		return cogniaerr.Newf(cogniaerr.KindPermissionDenied, "plugin %q does not have %q permission", pluginID, PermHTTP)
	}

	allowed := s.Declared.HTTP
	if len(allowed) == 0 {
		return cogniaerr.Newf(cogniaerr.KindPermissionDenied, "plugin %q has no allowed HTTP domains", pluginID)
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return cogniaerr.Newf(cogniaerr.KindPlugin, "invalid URL %q", rawURL)
	}
	host := parsed.Hostname()

	for _, pattern := range allowed {
		trimmed := strings.TrimSuffix(strings.TrimSuffix(pattern, "/"), "/*")
		trimmed = strings.TrimPrefix(strings.TrimPrefix(trimmed, "https://"), "http://")

		if strings.HasPrefix(trimmed, "*") {
			suffix := strings.TrimPrefix(trimmed, "*")
			if strings.HasSuffix(host, suffix) {
				return nil
			}
		} else if host == trimmed {
			return nil
		}
	}

	return cogniaerr.Newf(cogniaerr.KindPermissionDenied, "plugin %q is not allowed to access %q", pluginID, rawURL)
}
