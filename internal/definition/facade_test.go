package definition

import (
	"testing"

	"github.com/solidify-dev/solidify/internal/config"
)

func TestDefinitionUpToDateWhenNothingChanged(t *testing.T) {
	state := NewLockedState()
	state.Dependencies["rack"] = Dependency{Name: "rack", Requirement: "~> 3.0", Type: DependencyRuntime}
	state.Specs.Add(Spec{Name: "rack", Version: "3.0.0"})
	state.Platforms = []string{"ruby"}

	manifest := &Manifest{Dependencies: []Dependency{{Name: "rack", Requirement: "~> 3.0", Type: DependencyRuntime}}}
	ctx := Context{CurrentPlatform: "ruby"}

	def := NewDefinition(manifest, state, UnlockRequest{}, nil, ctx)
	if !def.UpToDate() {
		t.Fatal("expected an unchanged manifest/lockfile pair to be up to date")
	}
}

func TestDefinitionResolveIsMemoized(t *testing.T) {
	state := NewLockedState()
	manifest := &Manifest{Dependencies: []Dependency{{Name: "rack", Requirement: "~> 3.0"}}}

	backend := &countingBackend{result: NewSpecSetFrom([]Spec{{Name: "rack", Version: "3.0.0"}})}
	def := NewDefinition(manifest, state, UnlockRequest{}, backend, Context{CurrentPlatform: "ruby"})

	if _, err := def.Resolve(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := def.Resolve(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if backend.calls != 1 {
		t.Fatalf("expected Resolve to memoize and solve only once, got %d calls", backend.calls)
	}
}

func TestDefinitionLockRejectsFrozenDivergence(t *testing.T) {
	state := NewLockedState()
	manifest := &Manifest{Dependencies: []Dependency{{Name: "rack", Requirement: "~> 3.0"}}}

	def := NewDefinition(manifest, state, UnlockRequest{}, nil, Context{
		CurrentPlatform: "ruby",
		Settings:        &config.Settings{Frozen: true},
	})

	_, err := def.Lock()
	if err == nil {
		t.Fatal("expected a ProductionError under frozen mode with a divergent manifest")
	}
	if _, ok := err.(*ProductionError); !ok {
		t.Fatalf("expected *ProductionError, got %T: %v", err, err)
	}
}

func TestDefinitionAddAndRemovePlatform(t *testing.T) {
	state := NewLockedState()
	state.Platforms = []string{"ruby"}
	manifest := &Manifest{}
	def := NewDefinition(manifest, state, UnlockRequest{}, nil, Context{})

	if !def.AddPlatform("arm64-darwin-24") {
		t.Fatal("expected AddPlatform to report a change")
	}
	if def.AddPlatform("arm64-darwin-24") {
		t.Fatal("expected a second AddPlatform of the same platform to be a no-op")
	}

	if err := def.RemovePlatform("arm64-darwin-24"); err != nil {
		t.Fatalf("unexpected error removing a present platform: %v", err)
	}
	if err := def.RemovePlatform("ruby"); err == nil {
		t.Fatal("expected removing the last platform to be rejected")
	}
}

type countingBackend struct {
	calls  int
	result *SpecSet
}

func (b *countingBackend) Solve(plan *Plan) (*SpecSet, error) {
	b.calls++
	return b.result, nil
}
