package definition

import "github.com/solidify-dev/solidify/internal/resolver"

// validateLockfile implements spec.md §4.4: for each dependency of
// each locked spec, mark the spec missing if no locked spec has that
// name, or invalid if no locked spec satisfies the requirement.
// Missing/invalid specs are deleted from the locked set; the
// MissingLockfileDep/InvalidLockfileDep flags record the first
// offending name.
func validateLockfile(state *LockedState, manifest *Manifest, flags ChangeFlags) ChangeFlags {
	var missingNames, invalidNames []string
	var toDelete []Spec

	for _, name := range state.Specs.Names() {
		for _, spec := range state.Specs.Lookup(name) {
			for _, dep := range spec.Dependencies {
				candidates := state.Specs.Lookup(dep.Name)
				if len(candidates) == 0 {
					missingNames = append(missingNames, dep.Name)
					toDelete = append(toDelete, spec)
					continue
				}
				if !anySatisfies(candidates, dep.Requirement) {
					invalidNames = append(invalidNames, dep.Name)
					toDelete = append(toDelete, spec)
				}
			}
		}
	}

	if len(toDelete) > 0 {
		state.Specs = state.Specs.Sub(NewSpecSetFrom(toDelete))
	}

	if len(missingNames) > 0 {
		flags.MissingLockfileDep = missingNames[0]
	} else if !flags.DependencyChanges {
		// spec.md §4.4: "otherwise, if no dependency changes were
		// detected, set missing_lockfile_dep to the first declared dep
		// (other than bundler itself) that has no locked spec."
		for _, dep := range manifest.Dependencies {
			if dep.Name == "bundler" {
				continue
			}
			if len(state.Specs.Lookup(dep.Name)) == 0 {
				flags.MissingLockfileDep = dep.Name
				break
			}
		}
	}

	if len(invalidNames) > 0 {
		flags.InvalidLockfileDep = invalidNames[0]
	}

	return flags
}

// anySatisfies reports whether any candidate spec's version satisfies
// requirement. An empty requirement string is always satisfied.
func anySatisfies(candidates []Spec, requirement string) bool {
	if requirement == "" {
		return len(candidates) > 0
	}
	cond, err := resolver.NewSemverCondition(requirement)
	if err != nil {
		// An unparsable requirement can't be validated against; treat
		// as satisfied rather than spuriously invalidating the lock.
		return true
	}
	for _, c := range candidates {
		ver, err := resolver.NewSemverVersion(c.Version)
		if err != nil {
			continue
		}
		if cond.Satisfies(ver) {
			return true
		}
	}
	return false
}
