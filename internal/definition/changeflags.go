package definition

// ChangeFlags are the booleans the convergence engine sets while
// reconciling the manifest against the locked state (spec.md §3). The
// set is monotonic within a single construction: flags are only ever
// set, never cleared (spec.md §5, "Ordering guarantees").
type ChangeFlags struct {
	SourceChanges       bool
	DependencyChanges   bool
	PathChanges         bool
	LocalChanges        bool
	NewPlatform         bool
	MissingLockfileDep  string // first missing dep name, "" if none
	InvalidLockfileDep  string // first invalid dep name, "" if none
	UnlockingBundler    bool
}

// NothingChanged reports spec.md §8 invariant 3: no-resolve-needed iff
// none of the six structural flags are set (the two name-carrying
// flags count as "set" when non-empty).
func (c ChangeFlags) NothingChanged() bool {
	return !c.SourceChanges && !c.DependencyChanges && !c.PathChanges &&
		!c.LocalChanges && !c.NewPlatform && c.MissingLockfileDep == "" &&
		c.InvalidLockfileDep == "" && !c.UnlockingBundler
}

// merge folds other into c, preserving monotonicity: booleans only
// turn true, name fields only get set from "" to a value.
func (c ChangeFlags) merge(other ChangeFlags) ChangeFlags {
	c.SourceChanges = c.SourceChanges || other.SourceChanges
	c.DependencyChanges = c.DependencyChanges || other.DependencyChanges
	c.PathChanges = c.PathChanges || other.PathChanges
	c.LocalChanges = c.LocalChanges || other.LocalChanges
	c.NewPlatform = c.NewPlatform || other.NewPlatform
	c.UnlockingBundler = c.UnlockingBundler || other.UnlockingBundler
	if c.MissingLockfileDep == "" {
		c.MissingLockfileDep = other.MissingLockfileDep
	}
	if c.InvalidLockfileDep == "" {
		c.InvalidLockfileDep = other.InvalidLockfileDep
	}
	return c
}

// ChangeReason renders a short, user-facing explanation of why a
// resolve is needed, mirroring `change_reason()` from spec.md §8 (S1/S2).
func (c ChangeFlags) ChangeReason() string {
	if c.NothingChanged() {
		return ""
	}
	var reasons []string
	if c.DependencyChanges {
		reasons = append(reasons, "the dependencies in your gemfile changed")
	}
	if c.SourceChanges {
		reasons = append(reasons, "the gem sources changed")
	}
	if c.PathChanges {
		reasons = append(reasons, "a local path gem changed")
	}
	if c.LocalChanges {
		reasons = append(reasons, "a local override changed")
	}
	if c.NewPlatform {
		reasons = append(reasons, "you added a new platform to your gemfile")
	}
	if c.MissingLockfileDep != "" {
		reasons = append(reasons, "your lockfile is missing "+c.MissingLockfileDep)
	}
	if c.InvalidLockfileDep != "" {
		reasons = append(reasons, "your lockfile has an invalid entry for "+c.InvalidLockfileDep)
	}
	if c.UnlockingBundler {
		reasons = append(reasons, "you are unlocking bundler")
	}
	out := reasons[0]
	for _, r := range reasons[1:] {
		out += ", and " + r
	}
	return out
}
