package provider

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"github.com/cognia-dev/cognia-launcher/internal/cogniaerr"
)

// Registry holds the set of registered Provider values, guarded by a
// single sync.RWMutex per spec.md §5 ("one instance, guarded by an async
// RWLock; readers dominate"). Environment providers are indexed in both
// the plain-provider map and a dedicated environment-provider map, per
// spec.md §9's capability-set (not inheritance) model.
type Registry struct {
	mu                   sync.RWMutex
	providers            map[string]Provider
	environmentProviders map[string]EnvironmentProvider
}

// NewRegistry returns an empty registry. Providers are registered at
// startup; mutation after that point is rare, matching spec.md §5.
func NewRegistry() *Registry {
	return &Registry{
		providers:            make(map[string]Provider),
		environmentProviders: make(map[string]EnvironmentProvider),
	}
}

// Register inserts provider under provider.ID().
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.ID()] = p
}

// RegisterEnvironmentProvider inserts p under both the plain-provider and
// environment-provider maps.
func (r *Registry) RegisterEnvironmentProvider(p EnvironmentProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.ID()] = p
	r.environmentProviders[p.ID()] = p
}

// Get returns the provider registered under id, or nil.
func (r *Registry) Get(id string) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[id]
}

// GetEnvironmentProvider returns the environment-provider view registered
// under id, or nil if id names a plain provider or nothing at all.
func (r *Registry) GetEnvironmentProvider(id string) EnvironmentProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.environmentProviders[id]
}

// List returns a stable (sorted) snapshot of registered provider ids.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ListEnvironmentProviders returns a stable snapshot of environment
// provider ids.
func (r *Registry) ListEnvironmentProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.environmentProviders))
	for id := range r.environmentProviders {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CurrentPlatform maps runtime.GOOS to a Platform value.
func CurrentPlatform() Platform {
	switch runtime.GOOS {
	case "darwin":
		return PlatformDarwin
	case "windows":
		return PlatformWindows
	default:
		return PlatformLinux
	}
}

// FindByCapability returns providers advertising capability c, filtered
// to those supporting the current platform, ordered by priority
// descending (ties broken by id, for determinism).
func (r *Registry) FindByCapability(c Capability) []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	platform := CurrentPlatform()
	var matches []Provider
	for _, p := range r.providers {
		if !hasCapability(p, c) {
			continue
		}
		if !supportsPlatform(p, platform) {
			continue
		}
		matches = append(matches, p)
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Priority() != matches[j].Priority() {
			return matches[i].Priority() > matches[j].Priority()
		}
		return matches[i].ID() < matches[j].ID()
	})
	return matches
}

// FindForPackage returns the first platform-filtered, priority-ordered
// provider whose IsAvailable is true and whose GetPackageInfo(name)
// succeeds with a non-empty version list. Returns nil if none match.
func (r *Registry) FindForPackage(ctx context.Context, name string) (Provider, error) {
	candidates := r.FindByCapability(CapInstall)
	if len(candidates) == 0 {
		// Install is the minimum bar for "can resolve a package"; fall
		// back to any provider regardless of capability so read-only
		// consumers (search-only adapters) still resolve.
		r.mu.RLock()
		for _, p := range r.providers {
			if supportsPlatform(p, CurrentPlatform()) {
				candidates = append(candidates, p)
			}
		}
		r.mu.RUnlock()
		sort.Slice(candidates, func(i, j int) bool {
			if candidates[i].Priority() != candidates[j].Priority() {
				return candidates[i].Priority() > candidates[j].Priority()
			}
			return candidates[i].ID() < candidates[j].ID()
		})
	}

	for _, p := range candidates {
		if !p.IsAvailable(ctx) {
			continue
		}
		info, err := p.GetPackageInfo(ctx, name)
		if err != nil {
			continue
		}
		if info != nil && len(info.Versions) > 0 {
			return p, nil
		}
	}
	return nil, cogniaerr.Newf(cogniaerr.KindProviderNotFound, "no provider resolves package %q", name)
}

// CheckProviderAvailable dispatches to Provider.IsAvailable. Advisory: a
// provider may become unavailable between this check and subsequent use.
func (r *Registry) CheckProviderAvailable(ctx context.Context, id string) bool {
	p := r.Get(id)
	if p == nil {
		return false
	}
	return p.IsAvailable(ctx)
}

// Info returns a descriptive snapshot of the provider registered under id.
func (r *Registry) Info(id string) (ProviderInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	if !ok {
		return ProviderInfo{}, false
	}
	_, isEnv := r.environmentProviders[id]
	return ProviderInfo{
		ID:                 p.ID(),
		DisplayName:        p.DisplayName(),
		Capabilities:       p.Capabilities(),
		SupportedPlatforms: p.SupportedPlatforms(),
		Priority:           p.Priority(),
		IsEnvironment:      isEnv,
	}, true
}

// ListAllInfo returns ProviderInfo for every registered provider, in
// stable id order.
func (r *Registry) ListAllInfo() []ProviderInfo {
	ids := r.List()
	infos := make([]ProviderInfo, 0, len(ids))
	for _, id := range ids {
		if info, ok := r.Info(id); ok {
			infos = append(infos, info)
		}
	}
	return infos
}

func hasCapability(p Provider, c Capability) bool {
	for _, pc := range p.Capabilities() {
		if pc == c {
			return true
		}
	}
	return false
}

func supportsPlatform(p Provider, platform Platform) bool {
	for _, sp := range p.SupportedPlatforms() {
		if sp == platform {
			return true
		}
	}
	return false
}
