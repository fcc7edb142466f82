package definition

import "testing"

func TestValidateLockfileDropsSpecWithMissingDependency(t *testing.T) {
	state := NewLockedState()
	state.Specs.Add(Spec{
		Name: "rails", Version: "7.0.0",
		Dependencies: []Dependency{{Name: "activesupport"}},
	})
	// activesupport is intentionally absent from the locked set.

	manifest := &Manifest{Dependencies: []Dependency{{Name: "rails"}}}
	flags := validateLockfile(state, manifest, ChangeFlags{})

	if flags.MissingLockfileDep != "activesupport" {
		t.Fatalf("expected MissingLockfileDep to be activesupport, got %q", flags.MissingLockfileDep)
	}
	if len(state.Specs.Lookup("rails")) != 0 {
		t.Fatalf("expected the offending spec to be dropped from the locked set")
	}
}

func TestValidateLockfileDropsSpecWithInvalidRequirement(t *testing.T) {
	state := NewLockedState()
	state.Specs.Add(Spec{
		Name: "rails", Version: "7.0.0",
		Dependencies: []Dependency{{Name: "activesupport", Requirement: "~> 8.0"}},
	})
	state.Specs.Add(Spec{Name: "activesupport", Version: "7.0.0"})

	manifest := &Manifest{Dependencies: []Dependency{{Name: "rails"}}}
	flags := validateLockfile(state, manifest, ChangeFlags{})

	if flags.InvalidLockfileDep != "activesupport" {
		t.Fatalf("expected InvalidLockfileDep to be activesupport, got %q", flags.InvalidLockfileDep)
	}
	if len(state.Specs.Lookup("rails")) != 0 {
		t.Fatalf("expected the invalid spec to be dropped")
	}
}

func TestValidateLockfileLeavesValidLockAlone(t *testing.T) {
	state := NewLockedState()
	state.Specs.Add(Spec{
		Name: "rails", Version: "7.0.0",
		Dependencies: []Dependency{{Name: "activesupport", Requirement: "~> 7.0"}},
	})
	state.Specs.Add(Spec{Name: "activesupport", Version: "7.0.5"})

	manifest := &Manifest{Dependencies: []Dependency{{Name: "rails"}}}
	flags := validateLockfile(state, manifest, ChangeFlags{})

	if flags.MissingLockfileDep != "" || flags.InvalidLockfileDep != "" {
		t.Fatalf("expected no flags for a valid lock, got %+v", flags)
	}
	if len(state.Specs.Lookup("rails")) != 1 {
		t.Fatalf("expected rails to remain locked")
	}
}

func TestValidateLockfileFallsBackToFirstDeclaredDepWithoutLockedSpec(t *testing.T) {
	state := NewLockedState()
	manifest := &Manifest{Dependencies: []Dependency{{Name: "bundler"}, {Name: "pg"}}}

	flags := validateLockfile(state, manifest, ChangeFlags{DependencyChanges: false})
	if flags.MissingLockfileDep != "pg" {
		t.Fatalf("expected fallback to skip bundler and report pg, got %q", flags.MissingLockfileDep)
	}
}

func TestValidateLockfileSkipsFallbackWhenDependencyChangesAlreadySet(t *testing.T) {
	state := NewLockedState()
	manifest := &Manifest{Dependencies: []Dependency{{Name: "pg"}}}

	flags := validateLockfile(state, manifest, ChangeFlags{DependencyChanges: true})
	if flags.MissingLockfileDep != "" {
		t.Fatalf("expected no fallback when dependency_changes is already set, got %q", flags.MissingLockfileDep)
	}
}
