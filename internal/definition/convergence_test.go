package definition

import (
	"testing"

	"github.com/solidify-dev/solidify/internal/config"
)

func TestConvergeNothingChangedWhenIdentical(t *testing.T) {
	state := NewLockedState()
	state.Dependencies["rack"] = Dependency{Name: "rack", Requirement: "~> 3.0", Type: DependencyRuntime}
	state.Specs.Add(Spec{Name: "rack", Version: "3.0.0"})
	state.Platforms = []string{"ruby"}

	manifest := &Manifest{
		Dependencies: []Dependency{{Name: "rack", Requirement: "~> 3.0", Type: DependencyRuntime}},
	}

	ctx := Context{CurrentPlatform: "ruby"}
	flags := converge(state, manifest, UnlockRequest{}, ctx)

	if !flags.NothingChanged() {
		t.Fatalf("expected no changes for an already-converged state, got %+v", flags)
	}
}

func TestConvergeDetectsDependencyChange(t *testing.T) {
	state := NewLockedState()
	state.Dependencies["rack"] = Dependency{Name: "rack", Requirement: "~> 2.0", Type: DependencyRuntime}
	state.Specs.Add(Spec{Name: "rack", Version: "2.2.0"})
	state.Platforms = []string{"ruby"}

	manifest := &Manifest{
		Dependencies: []Dependency{{Name: "rack", Requirement: "~> 3.0", Type: DependencyRuntime}},
	}

	ctx := Context{CurrentPlatform: "ruby"}
	flags := converge(state, manifest, UnlockRequest{}, ctx)

	if !flags.DependencyChanges {
		t.Fatalf("expected DependencyChanges to be set when requirement string changes")
	}
}

func TestConvergeTypeFieldHackCopiesDeclaredType(t *testing.T) {
	state := NewLockedState()
	state.Dependencies["rspec"] = Dependency{Name: "rspec", Requirement: "~> 3.0", Type: DependencyRuntime}

	manifest := &Manifest{
		Dependencies: []Dependency{{Name: "rspec", Requirement: "~> 3.0", Type: DependencyDevelopment}},
	}

	converge(state, manifest, UnlockRequest{}, Context{})

	if state.Dependencies["rspec"].Type != DependencyDevelopment {
		t.Fatalf("expected locked dependency's Type to be overwritten by the declared one")
	}
}

func TestConvergeAddsNewPlatform(t *testing.T) {
	state := NewLockedState()
	state.Platforms = []string{"ruby"}
	manifest := &Manifest{}

	ctx := Context{CurrentPlatform: "arm64-darwin-24"}
	flags := converge(state, manifest, UnlockRequest{}, ctx)

	if !flags.NewPlatform {
		t.Fatalf("expected NewPlatform to be set when the current platform isn't locked")
	}
	found := false
	for _, p := range state.Platforms {
		if p == "arm64-darwin-24" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the new platform to be appended, got %v", state.Platforms)
	}
}

func TestConvergeFrozenSkipsPlatformAdjustment(t *testing.T) {
	state := NewLockedState()
	state.Platforms = []string{"ruby"}
	manifest := &Manifest{}

	ctx := Context{CurrentPlatform: "arm64-darwin-24", Settings: &config.Settings{Frozen: true}}
	flags := converge(state, manifest, UnlockRequest{}, ctx)

	if flags.NewPlatform {
		t.Fatalf("expected frozen mode to skip adding a new platform")
	}
}

func TestStep4ExpandUnlockWalksTransitiveGraph(t *testing.T) {
	state := NewLockedState()
	state.Specs.Add(Spec{Name: "rails", Version: "7.0.0", Dependencies: []Dependency{
		{Name: "activesupport", Type: DependencyRuntime},
	}})
	state.Specs.Add(Spec{Name: "activesupport", Version: "7.0.0"})

	names := step4ExpandUnlock(state, UnlockRequest{Gems: []string{"rails"}})
	if !names["rails"] || !names["activesupport"] {
		t.Fatalf("expected unlock set to include rails and its transitive dep, got %v", names)
	}
}
