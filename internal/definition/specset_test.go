package definition

import "testing"

func specFor(name, version, platform string, deps ...Dependency) Spec {
	return Spec{Name: name, Version: version, Platform: platform, Dependencies: deps}
}

func TestSpecSetAddDeduplicatesByIdentity(t *testing.T) {
	s := NewSpecSet()
	s.Add(specFor("rack", "3.0.0", ""))
	s.Add(specFor("rack", "3.0.0", ""))
	s.Add(specFor("rack", "3.1.0", ""))

	if got := len(s.Lookup("rack")); got != 2 {
		t.Fatalf("expected 2 distinct rack specs, got %d", got)
	}
}

func TestSpecSetSubAndMerge(t *testing.T) {
	a := NewSpecSetFrom([]Spec{specFor("rack", "3.0.0", ""), specFor("rake", "13.0.0", "")})
	b := NewSpecSetFrom([]Spec{specFor("rack", "3.0.0", "")})

	diff := a.Sub(b)
	if diff.Len() != 1 || len(diff.Lookup("rake")) != 1 {
		t.Fatalf("expected Sub to leave only rake, got names=%v", diff.Names())
	}

	merged := diff.Merge(b)
	if merged.Len() != 2 {
		t.Fatalf("expected Merge to restore both specs, got %d", merged.Len())
	}
}

func TestSpecSetForWalksTransitiveClosure(t *testing.T) {
	s := NewSpecSet()
	s.Add(specFor("rails", "7.0.0", "", Dependency{Name: "activesupport", Type: DependencyRuntime}))
	s.Add(specFor("activesupport", "7.0.0", "", Dependency{Name: "i18n", Type: DependencyRuntime}))
	s.Add(specFor("i18n", "1.12.0", ""))
	s.Add(specFor("rspec", "3.12.0", "")) // unrelated, should not appear

	roots := []Dependency{{Name: "rails", Type: DependencyRuntime}}
	got := s.For(roots, true, nil)

	names := map[string]bool{}
	for _, sp := range got {
		names[sp.Name] = true
	}
	for _, want := range []string{"rails", "activesupport", "i18n"} {
		if !names[want] {
			t.Errorf("expected %s in transitive closure, got %v", want, names)
		}
	}
	if names["rspec"] {
		t.Errorf("did not expect rspec in transitive closure")
	}
}

func TestSpecSetForExcludesDevelopmentByDefault(t *testing.T) {
	s := NewSpecSet()
	s.Add(specFor("rails", "7.0.0", ""))
	s.Add(specFor("rspec", "3.12.0", ""))

	roots := []Dependency{
		{Name: "rails", Type: DependencyRuntime},
		{Name: "rspec", Type: DependencyDevelopment},
	}
	got := s.For(roots, false, nil)
	if len(got) != 1 || got[0].Name != "rails" {
		t.Fatalf("expected only rails when excluding development, got %v", got)
	}
}

func TestSpecSetMaterializeReportsGaps(t *testing.T) {
	s := NewSpecSet()
	s.Add(specFor("rack", "3.0.0", ""))
	s.Add(specFor("nokogiri", "1.15.0", "x86_64-linux"))

	deps := []Dependency{
		{Name: "rack"},
		{Name: "nokogiri", Platforms: []string{"x86_64-linux"}},
		{Name: "pg"},
	}
	result := s.Materialize(deps, []string{"arm64-darwin"})

	if len(result.Specs) != 1 || result.Specs[0].Name != "rack" {
		t.Fatalf("expected only rack to materialize, got %v", result.Specs)
	}
	if len(result.Missing) != 1 || result.Missing[0].Name != "pg" {
		t.Fatalf("expected pg to be missing, got %v", result.Missing)
	}
	if len(result.Incomplete) != 1 || result.Incomplete[0].Name != "nokogiri" {
		t.Fatalf("expected nokogiri to be incomplete for arm64-darwin, got %v", result.Incomplete)
	}
}

func TestSpecSetCloneIsIndependent(t *testing.T) {
	s := NewSpecSetFrom([]Spec{specFor("rack", "3.0.0", "")})
	clone := s.Clone()
	clone.Add(specFor("rake", "13.0.0", ""))

	if s.Len() != 1 {
		t.Fatalf("expected original SpecSet untouched, got len %d", s.Len())
	}
	if clone.Len() != 2 {
		t.Fatalf("expected clone to have the new spec, got len %d", clone.Len())
	}
}
