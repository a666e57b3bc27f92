package plugin

import "testing"

func TestAutoGrantSafePermissions(t *testing.T) {
	state := NewPermissionState(Permissions{
		ConfigRead:   true,
		EnvRead:      true,
		PkgSearch:    true,
		Clipboard:    true,
		Notification: true,
	})

	for _, p := range []string{PermConfigRead, PermEnvRead, PermPkgSearch, PermClipboard, PermNotification} {
		if !state.IsGranted(p) {
			t.Errorf("expected %s auto-granted", p)
		}
	}
}

func TestDangerousPermissionsNotAutoGranted(t *testing.T) {
	state := NewPermissionState(Permissions{ConfigWrite: true, PkgInstall: true})
	if state.IsGranted(PermConfigWrite) {
		t.Error("expected config_write not auto-granted")
	}
	if state.IsGranted(PermPkgInstall) {
		t.Error("expected pkg_install not auto-granted")
	}
}

func TestFsHTTPAutoGrantedWhenDeclared(t *testing.T) {
	state := NewPermissionState(Permissions{
		FsRead:  []string{"data/*"},
		FsWrite: []string{"data/*"},
		HTTP:    []string{"api.example.com"},
	})
	if !state.IsGranted(PermFsRead) || !state.IsGranted(PermFsWrite) || !state.IsGranted(PermHTTP) {
		t.Error("expected fs_read/fs_write/http auto-granted when non-empty")
	}
}

func TestDeniedOverridesGranted(t *testing.T) {
	state := NewPermissionState(Permissions{ConfigRead: true})
	if !state.IsGranted(PermConfigRead) {
		t.Fatal("expected initially granted")
	}
	state.denied[PermConfigRead] = true
	if state.IsGranted(PermConfigRead) {
		t.Error("expected denial to override grant")
	}
}

func TestDefaultPermsGrantNothing(t *testing.T) {
	state := NewPermissionState(Permissions{})
	if len(state.granted) != 0 {
		t.Errorf("expected no grants by default, got %v", state.granted)
	}
	if state.IsGranted(PermConfigRead) || state.IsGranted(PermFsRead) {
		t.Error("expected no permissions granted by default")
	}
}

func TestProcessExecNotAutoGranted(t *testing.T) {
	state := NewPermissionState(Permissions{ProcessExec: true})
	if state.IsGranted(PermProcessExec) {
		t.Error("expected process_exec not auto-granted")
	}
}

func testManager() *Manager {
	return NewManager("/tmp/test-plugins")
}

func TestRegisterAndCheckPermission(t *testing.T) {
	mgr := testManager()
	mgr.RegisterPlugin("test-plugin", Permissions{ConfigRead: true})

	if err := mgr.CheckPermission("test-plugin", PermConfigRead); err != nil {
		t.Errorf("expected config_read granted: %v", err)
	}
	if err := mgr.CheckPermission("test-plugin", PermConfigWrite); err == nil {
		t.Error("expected config_write denied")
	}
}

func TestCheckPermissionUnknownPlugin(t *testing.T) {
	mgr := testManager()
	if err := mgr.CheckPermission("nonexistent", PermConfigRead); err == nil {
		t.Error("expected error for unknown plugin")
	}
}

func TestUnregisterPlugin(t *testing.T) {
	mgr := testManager()
	mgr.RegisterPlugin("p1", Permissions{})
	if mgr.GetState("p1") == nil {
		t.Fatal("expected state present after register")
	}
	mgr.UnregisterPlugin("p1")
	if mgr.GetState("p1") != nil {
		t.Error("expected state gone after unregister")
	}
}

func TestGrantAndRevoke(t *testing.T) {
	mgr := testManager()
	mgr.RegisterPlugin("p1", Permissions{ConfigWrite: true})

	if err := mgr.CheckPermission("p1", PermConfigWrite); err == nil {
		t.Fatal("expected not granted initially")
	}

	if err := mgr.GrantPermission("p1", PermConfigWrite); err != nil {
		t.Fatal(err)
	}
	if err := mgr.CheckPermission("p1", PermConfigWrite); err != nil {
		t.Errorf("expected granted after GrantPermission: %v", err)
	}

	if err := mgr.RevokePermission("p1", PermConfigWrite); err != nil {
		t.Fatal(err)
	}
	if err := mgr.CheckPermission("p1", PermConfigWrite); err == nil {
		t.Error("expected denied after RevokePermission")
	}
}

func TestGrantUnknownPluginFails(t *testing.T) {
	mgr := testManager()
	if err := mgr.GrantPermission("nonexistent", PermConfigRead); err == nil {
		t.Error("expected error")
	}
	if err := mgr.RevokePermission("nonexistent", PermConfigRead); err == nil {
		t.Error("expected error")
	}
}

func TestGetPluginDataDir(t *testing.T) {
	mgr := NewManager("/data/plugins")
	dir := mgr.GetPluginDataDir("com.example.test")
	if dir != "/data/plugins/com.example.test/data" {
		t.Errorf("unexpected data dir: %s", dir)
	}
}

func TestCheckHTTPAccessExactDomain(t *testing.T) {
	mgr := testManager()
	mgr.RegisterPlugin("p1", Permissions{HTTP: []string{"api.example.com"}})

	if err := mgr.CheckPermission("p1", PermHTTP); err != nil {
		t.Fatal(err)
	}
	if err := mgr.CheckHTTPAccess("p1", "https://api.example.com/v1/data"); err != nil {
		t.Errorf("expected allowed domain to succeed: %v", err)
	}
	if err := mgr.CheckHTTPAccess("p1", "https://evil.com/steal"); err == nil {
		t.Error("expected disallowed domain to fail")
	}
}

func TestCheckHTTPAccessWildcardDomain(t *testing.T) {
	mgr := testManager()
	mgr.RegisterPlugin("p1", Permissions{HTTP: []string{"*.github.com"}})

	if err := mgr.CheckHTTPAccess("p1", "https://api.github.com/repos"); err != nil {
		t.Errorf("expected subdomain allowed: %v", err)
	}
	if err := mgr.CheckHTTPAccess("p1", "https://raw.github.com/file"); err != nil {
		t.Errorf("expected subdomain allowed: %v", err)
	}
	if err := mgr.CheckHTTPAccess("p1", "https://evil.com/"); err == nil {
		t.Error("expected disallowed domain to fail")
	}
}

func TestCheckHTTPAccessNoPermission(t *testing.T) {
	mgr := testManager()
	mgr.RegisterPlugin("p1", Permissions{})
	if err := mgr.CheckHTTPAccess("p1", "https://example.com"); err == nil {
		t.Error("expected denial when http permission not granted")
	}
}

func TestCheckHTTPAccessInvalidURL(t *testing.T) {
	mgr := testManager()
	mgr.RegisterPlugin("p1", Permissions{HTTP: []string{"example.com"}})
	if err := mgr.CheckHTTPAccess("p1", "not a url"); err == nil {
		t.Error("expected invalid url to error")
	}
}

func TestGrantProcessExec(t *testing.T) {
	mgr := testManager()
	mgr.RegisterPlugin("p1", Permissions{ProcessExec: true})
	if err := mgr.CheckPermission("p1", PermProcessExec); err == nil {
		t.Fatal("expected not granted initially")
	}
	if err := mgr.GrantPermission("p1", PermProcessExec); err != nil {
		t.Fatal(err)
	}
	if err := mgr.CheckPermission("p1", PermProcessExec); err != nil {
		t.Errorf("expected granted after explicit grant: %v", err)
	}
}

func TestCheckHTTPAccessEmptyAllowedDomainsAlwaysDenies(t *testing.T) {
	mgr := testManager()
	mgr.RegisterPlugin("p1", Permissions{})
	if err := mgr.GrantPermission("p1", PermHTTP); err != nil {
		t.Fatal(err)
	}
	// http permission is force-granted but the allow-list is empty: this
	// must still deny, correcting the original implementation's
	// inconsistency where a granted-but-empty allow-list behaved as
	// "no restriction" in some code paths.
	if err := mgr.CheckHTTPAccess("p1", "https://example.com"); err == nil {
		t.Error("expected empty allow-list to always deny")
	}
}
