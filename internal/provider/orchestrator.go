package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/cognia-dev/cognia-launcher/internal/cogniaerr"
	cogniaversion "github.com/cognia-dev/cognia-launcher/internal/version"
)

// PlannedInstall is one resolved entry in an InstallPlan.
type PlannedInstall struct {
	Spec       string // as given by the caller: "name" or "name@constraint"
	Name       string
	Constraint string
	ProviderID string
}

// InstallPlan is the purely descriptive output of Orchestrator.Plan; no
// mutation occurs until Execute.
type InstallPlan struct {
	Packages []PlannedInstall
}

// ProgressEventKind discriminates InstallPlan execution progress events.
type ProgressEventKind string

const (
	ProgressResolving  ProgressEventKind = "resolving"
	ProgressDownloading ProgressEventKind = "downloading"
	ProgressVerifying  ProgressEventKind = "verifying"
	ProgressInstalling ProgressEventKind = "installing"
	ProgressCompleted  ProgressEventKind = "completed"
	ProgressFailed     ProgressEventKind = "failed"
)

// ProgressEvent is one item of the execution progress stream.
type ProgressEvent struct {
	Kind     ProgressEventKind
	Package  string
	Fraction float64 // 0..1, for Downloading
	Receipts []InstallReceipt
	Error    error
}

// Orchestrator composes multi-package install/uninstall operations across
// the Registry's providers, per spec.md §4.1.
type Orchestrator struct {
	registry *Registry
}

// NewOrchestrator binds an Orchestrator to a Registry.
func NewOrchestrator(registry *Registry) *Orchestrator {
	return &Orchestrator{registry: registry}
}

// Plan resolves each "name" or "name@constraint" spec to a bound
// provider via FindForPackage, preserving input order. It performs no
// installation.
func (o *Orchestrator) Plan(ctx context.Context, specs []string) (*InstallPlan, error) {
	plan := &InstallPlan{Packages: make([]PlannedInstall, 0, len(specs))}
	for _, spec := range specs {
		name, constraint := splitSpec(spec)
		p, err := o.registry.FindForPackage(ctx, name)
		if err != nil {
			return nil, err
		}
		plan.Packages = append(plan.Packages, PlannedInstall{
			Spec:       spec,
			Name:       name,
			Constraint: constraint,
			ProviderID: p.ID(),
		})
	}
	return plan, nil
}

// splitSpec splits "name@constraint" into its parts; constraint is ""
// when absent (meaning Any).
func splitSpec(spec string) (name, constraint string) {
	if i := strings.Index(spec, "@"); i >= 0 {
		return spec[:i], spec[i+1:]
	}
	return spec, ""
}

// Execute installs plan.Packages serially in order, each via its bound
// provider. Any failure short-circuits subsequent installs; no
// compensating rollback is attempted (uninstall is a separate flow).
// events, if non-nil, receives the progress stream described in
// spec.md §4.1.
func (o *Orchestrator) Execute(ctx context.Context, plan *InstallPlan, events chan<- ProgressEvent) ([]InstallReceipt, error) {
	if events != nil {
		defer close(events)
	}
	emit := func(e ProgressEvent) {
		if events != nil {
			select {
			case events <- e:
			case <-ctx.Done():
			}
		}
	}

	var receipts []InstallReceipt
	for _, planned := range plan.Packages {
		emit(ProgressEvent{Kind: ProgressResolving, Package: planned.Name})

		p := o.registry.Get(planned.ProviderID)
		if p == nil {
			err := cogniaerr.Newf(cogniaerr.KindProviderNotFound, "provider %q no longer registered", planned.ProviderID)
			emit(ProgressEvent{Kind: ProgressFailed, Package: planned.Name, Error: err})
			return receipts, err
		}

		emit(ProgressEvent{Kind: ProgressDownloading, Package: planned.Name, Fraction: 0})
		emit(ProgressEvent{Kind: ProgressInstalling, Package: planned.Name})

		receipt, err := p.Install(ctx, InstallRequest{Name: planned.Name, Constraint: planned.Constraint})
		if err != nil {
			emit(ProgressEvent{Kind: ProgressFailed, Package: planned.Name, Error: err})
			return receipts, err
		}

		emit(ProgressEvent{Kind: ProgressVerifying, Package: planned.Name})
		receipts = append(receipts, *receipt)
	}

	emit(ProgressEvent{Kind: ProgressCompleted, Receipts: receipts})
	return receipts, nil
}

// UninstallAll resolves and uninstalls each named package, continuing
// past individual failures and aggregating them into a composite error
// only if at least one occurred.
func (o *Orchestrator) UninstallAll(ctx context.Context, names []string, force bool) error {
	var errs []string
	for _, name := range names {
		p, err := o.registry.FindForPackage(ctx, name)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		if err := p.Uninstall(ctx, UninstallRequest{Name: name, Force: force}); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", name, err))
		}
	}
	if len(errs) > 0 {
		return cogniaerr.New(cogniaerr.KindInstallation, "uninstall failures: "+strings.Join(errs, "; "))
	}
	return nil
}

// CheckUpdatesAll scans every installed package across every provider
// that advertises Update, per spec.md §9's mandate that an empty names
// list means "scan all installed packages".
func (o *Orchestrator) CheckUpdatesAll(ctx context.Context) ([]UpdateInfo, error) {
	var all []UpdateInfo
	for _, p := range o.registry.FindByCapability(CapUpdate) {
		updates, err := p.CheckUpdates(ctx, nil)
		if err != nil {
			continue
		}
		all = append(all, updates...)
	}
	return all, nil
}

// ResolveConstraint implements spec.md §4.1's best-effort constraint
// resolution: filter to matching versions, prefer non-prerelease among
// equals, pick the maximum; if nothing matches and the constraint is Any,
// fall back to the overall maximum (prereleases only if no stable version
// exists).
func ResolveConstraint(constraint cogniaversion.Constraint, versions []string) (string, error) {
	parsed := make([]cogniaversion.Version, 0, len(versions))
	for _, vs := range versions {
		v, err := cogniaversion.Parse(vs)
		if err != nil {
			continue
		}
		parsed = append(parsed, v)
	}
	if len(parsed) == 0 {
		return "", cogniaerr.New(cogniaerr.KindVersionNotFound, "no parseable versions supplied")
	}

	var matching []cogniaversion.Version
	for _, v := range parsed {
		if constraint.Matches(v) {
			matching = append(matching, v)
		}
	}

	if len(matching) == 0 {
		if constraint.Kind == cogniaversion.KindAny {
			return pickMax(parsed).String(), nil
		}
		return "", cogniaerr.New(cogniaerr.KindResolution, "no version satisfies constraint")
	}

	stable := filterStable(matching)
	if len(stable) > 0 {
		return pickMax(stable).String(), nil
	}
	return pickMax(matching).String(), nil
}

func filterStable(vs []cogniaversion.Version) []cogniaversion.Version {
	var out []cogniaversion.Version
	for _, v := range vs {
		if !v.IsPrerelease() {
			out = append(out, v)
		}
	}
	return out
}

func pickMax(vs []cogniaversion.Version) cogniaversion.Version {
	max := vs[0]
	for _, v := range vs[1:] {
		if v.Greater(max) {
			max = v
		}
	}
	return max
}
