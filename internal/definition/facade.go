package definition

// Definition is the public facade spec.md §4.7 describes: it owns the
// manifest/locked-state pair, memoizes resolution, and exposes the
// operations the CLI commands call into.
type Definition struct {
	ctx      Context
	manifest *Manifest
	locked   *LockedState
	unlock   UnlockRequest
	backend  Backend

	preConvergenceSpecs *SpecSet
	flags               ChangeFlags
	converged           bool

	resolved    *SpecSet
	resolveErr  error
	hasResolved bool
}

// NewDefinition builds a Definition over a manifest and its (possibly
// absent) locked state. backend may be nil if the caller never intends
// to call Resolve or Lock (e.g. read-only inspection).
func NewDefinition(manifest *Manifest, locked *LockedState, unlock UnlockRequest, backend Backend, ctx Context) *Definition {
	if locked == nil {
		locked = NewLockedState()
	} else if unlock.All {
		fresh := NewLockedState()
		fresh.Platforms = locked.Platforms
		fresh.RubyVersion = locked.RubyVersion
		fresh.BundlerVersion = locked.BundlerVersion
		locked = fresh
	}
	return &Definition{
		ctx:      ctx,
		manifest: manifest,
		locked:   locked,
		unlock:   unlock,
		backend:  backend,
	}
}

// converge runs the Convergence Engine exactly once, lazily, caching
// the pre-convergence spec snapshot the Planner needs for
// base_requirements.
func (d *Definition) converge() ChangeFlags {
	if d.converged {
		return d.flags
	}
	d.preConvergenceSpecs = d.locked.Specs.Clone()
	d.flags = converge(d.locked, d.manifest, d.unlock, d.ctx)
	d.converged = true
	return d.flags
}

// UpToDate reports whether resolution can be skipped entirely: nothing
// changed and the caller isn't forcing an unlock (spec.md §8 invariant
// 4 and §4.3's "do nothing" fast path).
func (d *Definition) UpToDate() bool {
	flags := d.converge()
	if d.unlock.Unlocking() {
		return false
	}
	return flags.NothingChanged()
}

// Resolve drives the full pipeline: converge, validate, build a plan,
// and invoke the backend, memoizing the result so repeat calls never
// re-resolve (spec.md §8 invariant 6, "idempotence").
func (d *Definition) Resolve() (*SpecSet, error) {
	if d.hasResolved {
		return d.resolved, d.resolveErr
	}
	d.hasResolved = true

	flags := d.converge()
	d.flags = validateLockfile(d.locked, d.manifest, flags)

	if d.UpToDate() {
		d.resolved = d.locked.Specs
		return d.resolved, nil
	}

	sm, err := NewSourceMap(firstRubygemsSource(d.manifest, d.locked), d.manifest.Dependencies, d.locked.Specs.All())
	if err != nil {
		d.resolveErr = err
		return nil, err
	}

	unlockSet := step4ExpandUnlock(d.locked, d.unlock)
	plan := BuildPlan(d.locked, d.manifest, d.preConvergenceSpecs, sm, unlockSet, d.unlock, d.ctx)

	if d.backend == nil {
		d.resolveErr = NewLockfileError("no resolver backend configured")
		return nil, d.resolveErr
	}

	solved, err := resolve(d.backend, plan)
	if err != nil {
		d.resolveErr = err
		return nil, err
	}

	specs, err := materialize(d.backend, plan, solved, d.manifest.Dependencies, d.locked.Platforms)
	if err != nil {
		d.resolveErr = err
		return nil, err
	}

	d.resolved = specs
	d.locked.Specs = specs
	return specs, nil
}

// Specs returns every resolved spec, resolving first if necessary.
func (d *Definition) Specs() ([]Spec, error) {
	specs, err := d.Resolve()
	if err != nil {
		return nil, err
	}
	return specs.All(), nil
}

// SpecsFor resolves the roots and returns only the transitive closure
// reachable from them, preferring specs for the locked platforms. The
// only Settings restriction applied is that a Without list containing
// "development" drops development dependencies; dependencies are not
// filtered by their groups.
func (d *Definition) SpecsFor(roots []Dependency) ([]Spec, error) {
	specs, err := d.Resolve()
	if err != nil {
		return nil, err
	}
	includeDev := true
	if d.ctx.Settings != nil && len(d.ctx.Settings.Without) > 0 {
		includeDev = !containsAny(d.ctx.Settings.Without, []string{"development"})
	}
	return specs.For(roots, includeDev, d.locked.Platforms), nil
}

// MissingSpecs reports dependencies with no resolved spec at all, as
// opposed to ones that merely lack a platform-specific variant. By the
// time Resolve has returned successfully, materialize has already
// turned any real gap into a GemNotFound or ErrNoProgress error, so
// this is a read-only query over the now-complete result.
func (d *Definition) MissingSpecs() ([]Dependency, error) {
	specs, err := d.Resolve()
	if err != nil {
		return nil, err
	}
	m := specs.Materialize(d.manifest.Dependencies, d.locked.Platforms)
	return m.Missing, nil
}

// Lock resolves (if needed) and returns the LockedState ready to be
// serialized by internal/definition's lock writer. It refuses to run
// under a frozen Settings if a resolve would actually be required.
func (d *Definition) Lock() (*LockedState, error) {
	if d.ctx.Settings != nil && d.ctx.Settings.Frozen && !d.UpToDate() {
		diff := d.frozenDiff()
		return nil, NewProductionError(diff)
	}
	if _, err := d.Resolve(); err != nil {
		return nil, err
	}
	return d.locked, nil
}

// frozenDiff renders the ChangeFlags accumulated during convergence
// into the structured diff ProductionError reports (spec.md §5 / S5).
func (d *Definition) frozenDiff() FrozenDiff {
	var diff FrozenDiff
	flags := d.flags
	if flags.DependencyChanges {
		diff.Changed = append(diff.Changed, "dependencies")
	}
	if flags.SourceChanges {
		diff.SourceMigrations = append(diff.SourceMigrations, "sources")
	}
	if flags.NewPlatform {
		diff.PlatformsAdded = append(diff.PlatformsAdded, d.ctx.CurrentPlatform)
	}
	if flags.MissingLockfileDep != "" {
		diff.Added = append(diff.Added, flags.MissingLockfileDep)
	}
	if flags.InvalidLockfileDep != "" {
		diff.Changed = append(diff.Changed, flags.InvalidLockfileDep)
	}
	return diff
}

// EnsureEquivalentGemfileAndLockfile is the explicit, eagerly-raising
// form of the frozen check CLI commands call before doing destructive
// work (spec.md §4.7).
func (d *Definition) EnsureEquivalentGemfileAndLockfile() error {
	if !d.UpToDate() {
		return NewProductionError(d.frozenDiff())
	}
	return nil
}

// ValidateRuntime checks the running Ruby engine against the locked
// RubyVersionMismatchError constraint, per spec.md §7.
func (d *Definition) ValidateRuntime() error {
	if d.locked.RubyVersion == "" {
		return nil
	}
	if d.ctx.Engine.Version == "" {
		return nil
	}
	if d.locked.RubyVersion != d.ctx.Engine.Version {
		return NewRubyVersionMismatchError(d.ctx.Engine.Name, d.ctx.Engine.Version, d.locked.RubyVersion, "")
	}
	return nil
}

// AddPlatform appends a platform to the locked set if absent, returning
// whether anything changed (spec.md SUPPLEMENTED FEATURES: `ore
// platform add`).
func (d *Definition) AddPlatform(platform string) bool {
	for _, p := range d.locked.Platforms {
		if p == platform {
			return false
		}
	}
	d.locked.Platforms = append(d.locked.Platforms, platform)
	d.hasResolved = false
	return true
}

// RemovePlatform drops a platform from the locked set. Removing the
// last remaining platform is rejected, mirroring the original's guard
// against producing an unresolvable lockfile.
func (d *Definition) RemovePlatform(platform string) error {
	if len(d.locked.Platforms) <= 1 {
		return NewInvalidOptionError("cannot remove the only remaining platform: " + platform)
	}
	out := d.locked.Platforms[:0]
	found := false
	for _, p := range d.locked.Platforms {
		if p == platform {
			found = true
			continue
		}
		out = append(out, p)
	}
	if !found {
		return NewInvalidOptionError("platform not locked: " + platform)
	}
	d.locked.Platforms = out
	d.hasResolved = false
	return nil
}

func containsAny(haystack, needles []string) bool {
	set := make(map[string]bool, len(haystack))
	for _, h := range haystack {
		set[h] = true
	}
	for _, n := range needles {
		if set[n] {
			return true
		}
	}
	return false
}
