package definition

import "testing"

func TestSourceMapPrecedence(t *testing.T) {
	defaultSrc := NewRubygemsSource("https://rubygems.org")
	gitSrc := NewGitSource("https://github.com/acme/rack.git", "main", "", "")
	lockedSrc := NewRubygemsSource("https://gems.example.com")

	deps := []Dependency{{Name: "rack", Source: gitSrc}}
	locked := []Spec{{Name: "rake", Source: lockedSrc}}

	sm, err := NewSourceMap(defaultSrc, deps, locked)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sm.SourceFor("rack") != gitSrc {
		t.Errorf("expected explicit source to win for rack")
	}
	if sm.SourceFor("rake") != lockedSrc {
		t.Errorf("expected locked source to win for rake")
	}
	if sm.SourceFor("pg") != defaultSrc {
		t.Errorf("expected default source to win for pg")
	}
}

func TestSourceMapAmbiguousDeclaration(t *testing.T) {
	defaultSrc := NewRubygemsSource("https://rubygems.org")
	a := NewGitSource("https://github.com/acme/rack.git", "main", "", "")
	b := NewGitSource("https://github.com/other/rack.git", "main", "", "")

	deps := []Dependency{
		{Name: "rack", Source: a},
		{Name: "rack", Source: b},
	}

	_, err := NewSourceMap(defaultSrc, deps, nil)
	if err == nil {
		t.Fatal("expected an ambiguous source error")
	}
	if _, ok := err.(*AmbiguousSourceError); !ok {
		t.Fatalf("expected *AmbiguousSourceError, got %T", err)
	}
}

func TestSourceMapAllRequirementsFallsBackToDefault(t *testing.T) {
	defaultSrc := NewRubygemsSource("https://rubygems.org")
	sm, err := NewSourceMap(defaultSrc, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := sm.AllRequirements([]string{"rack", "rake"})
	if out["rack"] != defaultSrc || out["rake"] != defaultSrc {
		t.Fatalf("expected every transitive name to fall back to default source, got %+v", out)
	}
}
