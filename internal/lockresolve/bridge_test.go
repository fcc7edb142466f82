package lockresolve

import (
	"testing"

	"github.com/solidify-dev/solidify/internal/definition"
)

func TestIsMetadataDep(t *testing.T) {
	if !isMetadataDep("Ruby\x00") || !isMetadataDep("RubyGems\x00") {
		t.Fatal("expected the synthetic ruby/rubygems names to be recognized as metadata deps")
	}
	if isMetadataDep("rack") {
		t.Fatal("did not expect a normal gem name to be treated as metadata")
	}
}

func TestContainsName(t *testing.T) {
	deps := []definition.Dependency{{Name: "rack"}, {Name: "rake"}}
	if !containsName(deps, "rack") {
		t.Fatal("expected rack to be found")
	}
	if containsName(deps, "pg") {
		t.Fatal("did not expect pg to be found")
	}
}

func TestSourceForCachesByRemote(t *testing.T) {
	b := New()
	a := b.sourceFor("https://rubygems.org")
	again := b.sourceFor("https://rubygems.org")
	if a != again {
		t.Fatal("expected the same remote to return a cached RubyGemsSource")
	}
	other := b.sourceFor("https://gems.example.com")
	if other == a {
		t.Fatal("expected a different remote to get its own RubyGemsSource")
	}
}
