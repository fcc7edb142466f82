package definition

import "testing"

func TestBuildPlanIncludesMetadataDependencies(t *testing.T) {
	state := NewLockedState()
	state.Platforms = []string{"ruby"}
	manifest := &Manifest{Dependencies: []Dependency{{Name: "rack", Requirement: "~> 3.0"}}}
	sm, err := NewSourceMap(NewRubygemsSource("https://rubygems.org"), manifest.Dependencies, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	plan := BuildPlan(state, manifest, state.Specs.Clone(), sm, map[string]bool{}, UnlockRequest{}, Context{})

	names := map[string]bool{}
	for _, d := range plan.ExpandedDependencies {
		names[d.Name] = true
	}
	if !names["rack"] || !names["Ruby\x00"] || !names["RubyGems\x00"] {
		t.Fatalf("expected expanded deps to include rack and the metadata pseudo-deps, got %v", names)
	}
}

func TestBuildPlanSetsBaseRequirementFloorForDroppedSpec(t *testing.T) {
	state := NewLockedState()
	pre := NewSpecSetFrom([]Spec{{Name: "rake", Version: "13.0.0"}})
	// state.Specs no longer contains rake: convergence dropped it.

	manifest := &Manifest{}
	sm, err := NewSourceMap(NewRubygemsSource("https://rubygems.org"), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	plan := BuildPlan(state, manifest, pre, sm, map[string]bool{}, UnlockRequest{}, Context{})

	if plan.BaseRequirements["rake"] != ">= 13.0.0" {
		t.Fatalf("expected a floor requirement for rake, got %+v", plan.BaseRequirements)
	}
}

func TestBuildPlanPrependsBundlerPinWhenUnlockingBundler(t *testing.T) {
	state := NewLockedState()
	manifest := &Manifest{}
	sm, err := NewSourceMap(NewRubygemsSource("https://rubygems.org"), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	unlock := UnlockRequest{Bundler: "2.7.2"}

	plan := BuildPlan(state, manifest, state.Specs.Clone(), sm, map[string]bool{}, unlock, Context{})

	if len(plan.ExpandedDependencies) == 0 || plan.ExpandedDependencies[0].Name != "bundler" {
		t.Fatalf("expected bundler pin to be prepended, got %+v", plan.ExpandedDependencies)
	}
	if plan.ExpandedDependencies[0].Requirement != "= 2.7.2" {
		t.Fatalf("expected exact bundler pin, got %q", plan.ExpandedDependencies[0].Requirement)
	}
}
