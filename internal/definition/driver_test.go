package definition

import "testing"

type stubBackend struct {
	attempts []*Plan
	results  []*SpecSet
	errs     []error
}

func (b *stubBackend) Solve(plan *Plan) (*SpecSet, error) {
	i := len(b.attempts)
	b.attempts = append(b.attempts, plan)
	if i < len(b.errs) && b.errs[i] != nil {
		return nil, b.errs[i]
	}
	if i < len(b.results) {
		return b.results[i], nil
	}
	return NewSpecSet(), nil
}

func TestResolveDelegatesToBackendOnce(t *testing.T) {
	complete := NewSpecSetFrom([]Spec{{Name: "rack", Version: "3.0.0"}})
	backend := &stubBackend{results: []*SpecSet{complete}}
	plan := &Plan{ExpandedDependencies: []Dependency{{Name: "rack"}}, Platforms: []string{"ruby"}}

	got, err := resolve(backend, plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Len() != 1 {
		t.Fatalf("expected the backend's result unchanged, got %d specs", got.Len())
	}
	if len(backend.attempts) != 1 {
		t.Fatalf("expected resolve to call the backend exactly once, got %d", len(backend.attempts))
	}
}

func TestMaterializeReturnsCompleteSpecsWithoutRetry(t *testing.T) {
	complete := NewSpecSetFrom([]Spec{{Name: "rack", Version: "3.0.0"}})
	backend := &stubBackend{}
	plan := &Plan{ExpandedDependencies: []Dependency{{Name: "rack"}}, Platforms: []string{"ruby"}}
	deps := []Dependency{{Name: "rack"}}

	got, err := materialize(backend, plan, complete, deps, plan.Platforms)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Len() != 1 {
		t.Fatalf("expected one spec, got %d", got.Len())
	}
	if len(backend.attempts) != 0 {
		t.Fatalf("expected no re-resolve when nothing is incomplete, got %d attempts", len(backend.attempts))
	}
}

func TestMaterializeDeletesIncompleteAndRetriesUntilComplete(t *testing.T) {
	incomplete := NewSpecSetFrom([]Spec{{Name: "nokogiri", Version: "1.15.0", Platform: "x86_64-linux"}})
	complete := NewSpecSetFrom([]Spec{
		{Name: "nokogiri", Version: "1.15.0", Platform: "x86_64-linux"},
		{Name: "nokogiri", Version: "1.15.0", Platform: "arm64-darwin"},
	})
	backend := &stubBackend{results: []*SpecSet{complete}}

	lockedBefore := NewSpecSetFrom([]Spec{{Name: "nokogiri", Version: "1.15.0", Platform: "x86_64-linux"}})
	plan := &Plan{
		ExpandedDependencies: []Dependency{{Name: "nokogiri"}},
		Platforms:            []string{"x86_64-linux", "arm64-darwin"},
		LockedSpecs:          lockedBefore,
	}
	deps := []Dependency{{Name: "nokogiri"}}

	got, err := materialize(backend, plan, incomplete, deps, plan.Platforms)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Len() != 2 {
		t.Fatalf("expected the re-resolved complete set, got %d specs", got.Len())
	}
	if len(backend.attempts) != 1 {
		t.Fatalf("expected exactly one re-resolve attempt, got %d", len(backend.attempts))
	}
	if retried := backend.attempts[0].LockedSpecs.Lookup("nokogiri"); len(retried) != 0 {
		t.Fatalf("expected nokogiri deleted from the retried plan's locked specs, got %v", retried)
	}
}

func TestMaterializeRaisesNoProgressWhenIncompleteSetIsUnchanged(t *testing.T) {
	incomplete := NewSpecSetFrom([]Spec{{Name: "nokogiri", Version: "1.15.0", Platform: "x86_64-linux"}})
	backend := &stubBackend{results: []*SpecSet{incomplete, incomplete}}

	plan := &Plan{
		ExpandedDependencies: []Dependency{{Name: "nokogiri"}},
		Platforms:            []string{"x86_64-linux", "arm64-darwin"},
		LockedSpecs:          NewSpecSet(),
	}
	deps := []Dependency{{Name: "nokogiri"}}

	_, err := materialize(backend, plan, incomplete, deps, plan.Platforms)
	if err == nil {
		t.Fatal("expected an error when the incomplete set never changes")
	}
	if _, ok := err.(*ErrNoProgress); !ok {
		t.Fatalf("expected *ErrNoProgress, got %T: %v", err, err)
	}
}

func TestMaterializeRaisesGemNotFoundForYankedVersion(t *testing.T) {
	// foo was locked to 1.0.3 but the freshly resolved set has no spec
	// for it at all: the source removed that version (S4).
	backend := &stubBackend{}
	locked := NewSpecSetFrom([]Spec{{Name: "foo", Version: "1.0.3"}})
	plan := &Plan{LockedSpecs: locked}
	resolved := NewSpecSet()
	deps := []Dependency{{Name: "foo"}}

	_, err := materialize(backend, plan, resolved, deps, nil)
	gnf, ok := err.(*GemNotFoundError)
	if !ok {
		t.Fatalf("expected *GemNotFoundError, got %T: %v", err, err)
	}
	if !gnf.Yanked {
		t.Fatalf("expected Yanked, got %+v", gnf)
	}
	if gnf.Error() != "the author of foo (1.0.3) has removed it" {
		t.Fatalf("unexpected message: %q", gnf.Error())
	}
}

func TestMaterializeRaisesGemNotFoundForUnknownGem(t *testing.T) {
	backend := &stubBackend{}
	plan := &Plan{LockedSpecs: NewSpecSet()}
	resolved := NewSpecSet()
	deps := []Dependency{{Name: "totally-unknown"}}

	_, err := materialize(backend, plan, resolved, deps, nil)
	gnf, ok := err.(*GemNotFoundError)
	if !ok {
		t.Fatalf("expected *GemNotFoundError, got %T: %v", err, err)
	}
	if gnf.Yanked {
		t.Fatalf("expected an unknown-gem error, not yanked: %+v", gnf)
	}
}
