package provider

import (
	"context"
	"testing"
)

// mockProvider is a minimal in-memory Provider used for registry and
// orchestrator tests.
type mockProvider struct {
	BaseProvider
	available bool
	packages  map[string]*PackageInfo
	installed []InstalledPackage
}

func (m *mockProvider) IsAvailable(ctx context.Context) bool { return m.available }

func (m *mockProvider) Search(ctx context.Context, query string, opts SearchOptions) ([]PackageSummary, error) {
	return nil, nil
}

func (m *mockProvider) GetPackageInfo(ctx context.Context, name string) (*PackageInfo, error) {
	info, ok := m.packages[name]
	if !ok {
		return nil, errPackageNotFound(name)
	}
	return info, nil
}

func (m *mockProvider) GetVersions(ctx context.Context, name string) ([]VersionInfo, error) {
	info, err := m.GetPackageInfo(ctx, name)
	if err != nil {
		return nil, err
	}
	return info.Versions, nil
}

func (m *mockProvider) GetDependencies(ctx context.Context, name, version string) ([]string, error) {
	return nil, nil
}

func (m *mockProvider) Install(ctx context.Context, req InstallRequest) (*InstallReceipt, error) {
	return &InstallReceipt{Name: req.Name, Version: "1.0.0", ProviderID: m.ID(), InstallPath: "/tmp/" + req.Name}, nil
}

func (m *mockProvider) Uninstall(ctx context.Context, req UninstallRequest) error { return nil }

func (m *mockProvider) ListInstalled(ctx context.Context, filter InstalledFilter) ([]InstalledPackage, error) {
	return m.installed, nil
}

func (m *mockProvider) CheckUpdates(ctx context.Context, names []string) ([]UpdateInfo, error) {
	return nil, nil
}

func errPackageNotFound(name string) error {
	return &notFoundErr{name}
}

type notFoundErr struct{ name string }

func (e *notFoundErr) Error() string { return "package not found: " + e.name }

func TestS1ProviderSelection(t *testing.T) {
	reg := NewRegistry()

	a := &mockProvider{
		BaseProvider: BaseProvider{IDValue: "a", CapabilitiesList: []Capability{CapInstall}, PlatformsList: []Platform{PlatformLinux}, PriorityValue: 90},
		available:    false,
		packages:     map[string]*PackageInfo{},
	}
	b := &mockProvider{
		BaseProvider: BaseProvider{IDValue: "b", CapabilitiesList: []Capability{CapInstall}, PlatformsList: []Platform{PlatformLinux}, PriorityValue: 50},
		available:    true,
		packages: map[string]*PackageInfo{
			"foo": {Name: "foo", Versions: []VersionInfo{{Version: "1.0.0"}}},
		},
	}
	reg.Register(a)
	reg.Register(b)

	if CurrentPlatform() != PlatformLinux {
		t.Skip("S1 scenario is specified for Linux; skip on other platforms")
	}

	byCap := reg.FindByCapability(CapInstall)
	if len(byCap) != 2 || byCap[0].ID() != "a" || byCap[1].ID() != "b" {
		t.Fatalf("expected [a,b] priority-ordered, got %v", ids(byCap))
	}

	p, err := reg.FindForPackage(context.Background(), "foo")
	if err != nil {
		t.Fatalf("FindForPackage: %v", err)
	}
	if p.ID() != "b" {
		t.Errorf("expected provider b to win (a unavailable, a.get_package_info=NotFound), got %s", p.ID())
	}
}

func ids(ps []Provider) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID()
	}
	return out
}

func TestFindForPackageNoneAvailable(t *testing.T) {
	reg := NewRegistry()
	a := &mockProvider{
		BaseProvider: BaseProvider{IDValue: "a", CapabilitiesList: []Capability{CapInstall}, PlatformsList: []Platform{CurrentPlatform()}},
		available:    false,
	}
	reg.Register(a)

	_, err := reg.FindForPackage(context.Background(), "foo")
	if err == nil {
		t.Fatal("expected error when no provider is available")
	}
}

func TestRegisterEnvironmentProviderIndexesBothMaps(t *testing.T) {
	reg := NewRegistry()
	env := &mockEnvProvider{mockProvider: mockProvider{BaseProvider: BaseProvider{IDValue: "rbenv"}}}
	reg.RegisterEnvironmentProvider(env)

	if reg.Get("rbenv") == nil {
		t.Error("expected plain provider lookup to find environment provider")
	}
	if reg.GetEnvironmentProvider("rbenv") == nil {
		t.Error("expected environment provider lookup to find it")
	}
}

type mockEnvProvider struct {
	mockProvider
}

func (m *mockEnvProvider) ListInstalledVersions(ctx context.Context) ([]InstalledVersion, error) {
	return nil, nil
}
func (m *mockEnvProvider) GetCurrentVersion(ctx context.Context) (string, error) { return "", nil }
func (m *mockEnvProvider) SetGlobalVersion(ctx context.Context, v string) error  { return nil }
func (m *mockEnvProvider) SetLocalVersion(ctx context.Context, projectPath, v string) error {
	return nil
}
func (m *mockEnvProvider) DetectVersion(ctx context.Context, startPath string) (*VersionDetection, error) {
	return nil, nil
}
func (m *mockEnvProvider) GetEnvModifications(ctx context.Context, v string) (EnvModifications, error) {
	return EnvModifications{}, nil
}
func (m *mockEnvProvider) VersionFileName() string { return ".rbenv-version" }
