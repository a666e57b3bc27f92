package wasmhost

import (
	"context"

	"github.com/cognia-dev/cognia-launcher/internal/cogniaerr"
	"github.com/cognia-dev/cognia-launcher/internal/provider"
)

// ProviderAdapter satisfies PackageService and EnvironmentService by
// dispatching into a provider.Registry and its bound Orchestrator,
// translating the ABI's flat JSON-friendly request/response shapes into
// the registry's typed contracts.
type ProviderAdapter struct {
	Registry     *provider.Registry
	Orchestrator *provider.Orchestrator
}

func NewProviderAdapter(registry *provider.Registry, orchestrator *provider.Orchestrator) *ProviderAdapter {
	return &ProviderAdapter{Registry: registry, Orchestrator: orchestrator}
}

// --- PackageService ---

func (a *ProviderAdapter) Search(ctx context.Context, query string) (any, error) {
	var all []provider.PackageSummary
	for _, id := range a.Registry.List() {
		p := a.Registry.Get(id)
		if p == nil || !p.IsAvailable(ctx) {
			continue
		}
		results, err := p.Search(ctx, query, provider.SearchOptions{})
		if err != nil {
			continue
		}
		all = append(all, results...)
	}
	return all, nil
}

func (a *ProviderAdapter) Info(ctx context.Context, name string) (any, error) {
	p, err := a.Registry.FindForPackage(ctx, name)
	if err != nil {
		return nil, err
	}
	return p.GetPackageInfo(ctx, name)
}

func (a *ProviderAdapter) Versions(ctx context.Context, name string) (any, error) {
	p, err := a.Registry.FindForPackage(ctx, name)
	if err != nil {
		return nil, err
	}
	return p.GetVersions(ctx, name)
}

func (a *ProviderAdapter) Dependencies(ctx context.Context, name, version string) (any, error) {
	p, err := a.Registry.FindForPackage(ctx, name)
	if err != nil {
		return nil, err
	}
	return p.GetDependencies(ctx, name, version)
}

func (a *ProviderAdapter) ListInstalled(ctx context.Context) (any, error) {
	var all []provider.InstalledPackage
	for _, id := range a.Registry.List() {
		p := a.Registry.Get(id)
		if p == nil {
			continue
		}
		installed, err := p.ListInstalled(ctx, provider.InstalledFilter{})
		if err != nil {
			continue
		}
		all = append(all, installed...)
	}
	return all, nil
}

func (a *ProviderAdapter) CheckUpdates(ctx context.Context, names []string) (any, error) {
	if len(names) == 0 {
		return a.Orchestrator.CheckUpdatesAll(ctx)
	}
	var all []provider.UpdateInfo
	for _, name := range names {
		p, err := a.Registry.FindForPackage(ctx, name)
		if err != nil {
			continue
		}
		updates, err := p.CheckUpdates(ctx, []string{name})
		if err != nil {
			continue
		}
		all = append(all, updates...)
	}
	return all, nil
}

func (a *ProviderAdapter) Install(ctx context.Context, name, constraint string) (any, error) {
	spec := name
	if constraint != "" {
		spec = name + "@" + constraint
	}
	plan, err := a.Orchestrator.Plan(ctx, []string{spec})
	if err != nil {
		return nil, err
	}
	receipts, err := a.Orchestrator.Execute(ctx, plan, nil)
	if err != nil {
		return nil, err
	}
	return receipts, nil
}

func (a *ProviderAdapter) Uninstall(ctx context.Context, name, version string) error {
	return a.Orchestrator.UninstallAll(ctx, []string{name}, false)
}

// --- EnvironmentService ---

func (a *ProviderAdapter) ListProviders(ctx context.Context) ([]string, error) {
	return a.Registry.ListEnvironmentProviders(), nil
}

func (a *ProviderAdapter) environmentProvider(providerID string) (provider.EnvironmentProvider, error) {
	p := a.Registry.GetEnvironmentProvider(providerID)
	if p == nil {
		return nil, cogniaerr.Newf(cogniaerr.KindProviderNotFound, "environment provider %q not registered", providerID)
	}
	return p, nil
}

func (a *ProviderAdapter) DetectVersion(ctx context.Context, providerID, startPath string) (string, error) {
	p, err := a.environmentProvider(providerID)
	if err != nil {
		return "", err
	}
	detection, err := p.DetectVersion(ctx, startPath)
	if err != nil {
		return "", err
	}
	return detection.Version, nil
}

func (a *ProviderAdapter) GetCurrentVersion(ctx context.Context, providerID string) (string, error) {
	p, err := a.environmentProvider(providerID)
	if err != nil {
		return "", err
	}
	return p.GetCurrentVersion(ctx)
}

func (a *ProviderAdapter) ListInstalledVersions(ctx context.Context, providerID string) ([]string, error) {
	p, err := a.environmentProvider(providerID)
	if err != nil {
		return nil, err
	}
	versions, err := p.ListInstalledVersions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(versions))
	for i, v := range versions {
		out[i] = v.Version
	}
	return out, nil
}

func (a *ProviderAdapter) InstallVersion(ctx context.Context, providerID, version string) error {
	p, err := a.environmentProvider(providerID)
	if err != nil {
		return err
	}
	_, err = p.Install(ctx, provider.InstallRequest{Name: providerID, Constraint: version})
	return err
}

func (a *ProviderAdapter) SetVersion(ctx context.Context, providerID, version string, global bool) error {
	p, err := a.environmentProvider(providerID)
	if err != nil {
		return err
	}
	if global {
		return p.SetGlobalVersion(ctx, version)
	}
	return p.SetLocalVersion(ctx, ".", version)
}
