package definition

import (
	"github.com/contriboss/pubgrub-go"
	"github.com/solidify-dev/solidify/internal/resolver"
)

// wirePathProbes points src's SpecsProbe/IndexProbe at a real
// internal/resolver.PathSource reading src.PathDir's gemspec, so
// step2DetectPathChanges's specs_changed? (spec.md §4.3 step 2) can
// actually see a changed path gem instead of silently reporting
// "unchanged" forever. Called only from the production parsing
// entrypoints (sourceFromGemfile, LockedStateFromFile); unit tests that
// build sources directly via NewPathSource/NewGemspecSource keep nil
// probes, matching the existing convention of swallowing a nil probe
// as "not changed".
func wirePathProbes(src *Source) {
	dir := src.PathDir
	src.SpecsProbe = func() ([]string, error) {
		ps, err := resolver.NewPathSource(dir)
		if err != nil {
			return nil, err
		}
		terms, err := ps.GetDependencies(pubgrub.MakeName(""), nil)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(terms))
		for _, t := range terms {
			names = append(names, t.Name.Value())
		}
		return names, nil
	}
	src.IndexProbe = func() ([]string, error) {
		ps, err := resolver.NewPathSource(dir)
		if err != nil {
			return nil, err
		}
		name, err := ps.GetName()
		if err != nil {
			return nil, err
		}
		return []string{name}, nil
	}
}
