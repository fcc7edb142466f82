package definition

import "fmt"

// Backend is the narrow interface the Resolver Driver needs from a SAT
// solver implementation. CLI wiring supplies a concrete implementation
// that delegates to internal/resolver's PubGrub integration (via
// internal/lockresolve.Bridge); tests can supply a stub that returns a
// canned SpecSet.
type Backend interface {
	Solve(plan *Plan) (*SpecSet, error)
}

// maxMaterializeRetries bounds the incomplete-specs retry loop so a
// backend that keeps returning the same incomplete set can't spin
// forever; the termination invariant itself (spec.md §4.6) already
// guarantees the loop stops sooner, via ErrNoProgress.
const maxMaterializeRetries = 8

// resolve runs spec.md §4.6's start_resolution: a single call into the
// backend over plan. Reacting to missing or platform-incomplete specs
// is materialize's job, not this one's.
func resolve(backend Backend, plan *Plan) (*SpecSet, error) {
	specs, err := backend.Solve(plan)
	if err != nil {
		return nil, fmt.Errorf("resolving dependencies: %w", err)
	}
	return specs, nil
}

// materialize implements spec.md §4.6's materialize(deps): resolve once,
// then react to the gaps materialization finds instead of just
// reporting them.
//
// A missing dep (known, no spec at all) fails immediately with
// GemNotFound — yanked if the plan's locked specs still remember a
// version for it, unknown to any source otherwise (S4).
//
// An incomplete dep (spec exists, not for a required platform) is
// deleted from the plan's locked specs and the plan re-resolved, up to
// maxMaterializeRetries times, raising ErrNoProgress the moment two
// successive attempts leave the same set incomplete (S6; the
// termination invariant: the set strictly shrinks each round, or
// equality raises).
func materialize(backend Backend, plan *Plan, specs *SpecSet, deps []Dependency, platforms []string) (*SpecSet, error) {
	attemptPlan := plan
	current := specs
	var lastIncomplete []string

	for attempt := 0; ; attempt++ {
		m := current.Materialize(deps, platforms)

		if len(m.Missing) > 0 {
			return nil, gemNotFoundError(attemptPlan, m.Missing)
		}
		if len(m.Incomplete) == 0 {
			return current, nil
		}

		names := uniqueSorted(incompleteNames(m.Incomplete))
		if lastIncomplete != nil && equalStringSets(names, lastIncomplete) {
			return nil, NewErrNoProgress(names)
		}
		if attempt >= maxMaterializeRetries {
			return nil, NewErrNoProgress(names)
		}
		lastIncomplete = names

		attemptPlan = deleteFromPlan(attemptPlan, m.Incomplete)
		next, err := resolve(backend, attemptPlan)
		if err != nil {
			return nil, err
		}
		current = next
	}
}

// deleteFromPlan returns a copy of plan with the incomplete
// dependencies' entries dropped from LockedSpecs, so a re-resolve can't
// just echo the same platform-incomplete answer back (spec.md §4.6:
// "plan.delete(incomplete); re-resolve").
func deleteFromPlan(plan *Plan, incomplete []Dependency) *Plan {
	next := *plan
	if plan.LockedSpecs == nil {
		return &next
	}
	next.LockedSpecs = plan.LockedSpecs.DeleteNames(incompleteNames(incomplete))
	return &next
}

// gemNotFoundError distinguishes a yanked version (the name was locked
// to a specific version the source no longer carries) from a name
// unknown to any source (spec.md §7, S4).
func gemNotFoundError(plan *Plan, missing []Dependency) error {
	var unknown []string
	for _, dep := range missing {
		if plan.LockedSpecs != nil {
			if locked := plan.LockedSpecs.Lookup(dep.Name); len(locked) > 0 {
				return NewGemNotFoundYanked(dep.Name, locked[0].Version)
			}
		}
		unknown = append(unknown, dep.Name)
	}
	return NewGemNotFoundUnknown(unknown)
}

func incompleteNames(deps []Dependency) []string {
	names := make([]string, 0, len(deps))
	for _, d := range deps {
		names = append(names, d.Name)
	}
	return names
}
