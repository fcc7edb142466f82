package definition

// SpecSet is an ordered, queryable collection of resolved Specs. Within
// a SpecSet, (name, version, platform) is unique (spec.md §4.1).
type SpecSet struct {
	byName map[string][]Spec
	order  []string // insertion order of names, for deterministic iteration
	keys   map[string]bool
}

// NewSpecSet returns an empty SpecSet.
func NewSpecSet() *SpecSet {
	return &SpecSet{
		byName: map[string][]Spec{},
		keys:   map[string]bool{},
	}
}

// NewSpecSetFrom builds a SpecSet from a flat slice of specs.
func NewSpecSetFrom(specs []Spec) *SpecSet {
	s := NewSpecSet()
	for _, sp := range specs {
		s.Add(sp)
	}
	return s
}

// Add inserts a spec, ignoring duplicates by identity key.
func (s *SpecSet) Add(spec Spec) {
	key := spec.Key()
	if s.keys[key] {
		return
	}
	s.keys[key] = true
	if _, ok := s.byName[spec.Name]; !ok {
		s.order = append(s.order, spec.Name)
	}
	s.byName[spec.Name] = append(s.byName[spec.Name], spec)
}

// Lookup returns every spec registered under name, in insertion order.
func (s *SpecSet) Lookup(name string) []Spec {
	return s.byName[name]
}

// Find returns the unique spec matching (name, version, platform), if any.
func (s *SpecSet) Find(name, version, platform string) (Spec, bool) {
	key := (Spec{Name: name, Version: version, Platform: platform}).Key()
	for _, sp := range s.byName[name] {
		if sp.Key() == key {
			return sp, true
		}
	}
	return Spec{}, false
}

// Names returns every distinct gem name in insertion order.
func (s *SpecSet) Names() []string {
	return append([]string(nil), s.order...)
}

// All returns every spec, grouped by name in insertion order but
// otherwise flattened.
func (s *SpecSet) All() []Spec {
	var out []Spec
	for _, name := range s.order {
		out = append(out, s.byName[name]...)
	}
	return out
}

// Len returns the total number of distinct specs.
func (s *SpecSet) Len() int {
	n := 0
	for _, name := range s.order {
		n += len(s.byName[name])
	}
	return n
}

// Clone returns an independent copy; Spec values are copied but their
// Source back-references are shared (sources are owned by the
// Definition's registry, not by any one SpecSet).
func (s *SpecSet) Clone() *SpecSet {
	clone := NewSpecSet()
	for _, name := range s.order {
		for _, sp := range s.byName[name] {
			clone.Add(sp)
		}
	}
	return clone
}

// Sub returns a new SpecSet containing every spec in s not present in
// other, compared by identity key (the `-` operator of spec.md §4.1).
func (s *SpecSet) Sub(other *SpecSet) *SpecSet {
	out := NewSpecSet()
	for _, sp := range s.All() {
		if _, found := other.Find(sp.Name, sp.Version, sp.Platform); !found {
			out.Add(sp)
		}
	}
	return out
}

// Merge returns the union of s and other (the `+` operator).
func (s *SpecSet) Merge(other *SpecSet) *SpecSet {
	out := s.Clone()
	for _, sp := range other.All() {
		out.Add(sp)
	}
	return out
}

// DeleteNames returns a copy of s with every spec whose name appears in
// names removed.
func (s *SpecSet) DeleteNames(names []string) *SpecSet {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	out := NewSpecSet()
	for _, name := range s.order {
		if drop[name] {
			continue
		}
		for _, sp := range s.byName[name] {
			out.Add(sp)
		}
	}
	return out
}

// platformMatches reports whether a spec's platform is acceptable
// under the given platform restriction list. An empty spec platform
// (pure Ruby) always matches; an empty restriction list accepts any
// platform (used for "materialize regardless of target").
func platformMatches(specPlatform string, platforms []string) bool {
	if specPlatform == "" || specPlatform == "ruby" {
		return true
	}
	if len(platforms) == 0 {
		return true
	}
	for _, p := range platforms {
		if p == specPlatform {
			return true
		}
	}
	return false
}

// For computes the transitive closure of specs reachable from the
// given root dependencies, constrained by platforms and optionally
// excluding development-only dependencies. Returned specs are in
// dependency-first-seen order, matching spec.md §4.1.
func (s *SpecSet) For(roots []Dependency, includeDevelopment bool, platforms []string) []Spec {
	var result []Spec
	seen := map[string]bool{}

	var visitName func(name string)
	visitName = func(name string) {
		candidates := s.byName[name]
		if len(candidates) == 0 {
			return
		}
		// Prefer the first spec whose platform matches; fall back to
		// the first entry so incomplete platform results still surface
		// (the driver loop in C6 is what reacts to that incompleteness).
		var chosen *Spec
		for i := range candidates {
			if platformMatches(candidates[i].Platform, platforms) {
				chosen = &candidates[i]
				break
			}
		}
		if chosen == nil {
			chosen = &candidates[0]
		}
		key := chosen.Key()
		if seen[key] {
			return
		}
		seen[key] = true
		result = append(result, *chosen)
		for _, dep := range chosen.Dependencies {
			if !includeDevelopment && dep.Type == DependencyDevelopment {
				continue
			}
			visitName(dep.Name)
		}
	}

	for _, root := range roots {
		if !includeDevelopment && root.Type == DependencyDevelopment {
			continue
		}
		visitName(root.Name)
	}

	return result
}

// MaterializedSet is the result of resolving a set of dependencies to
// concrete specs, per spec.md §4.1.
type MaterializedSet struct {
	Specs      []Spec
	Missing    []Dependency // dep known, no spec for it at all
	Incomplete []Dependency // spec present, but not for a required platform
}

// Materialize resolves each dependency to a concrete spec, reporting
// gaps instead of erroring so callers (C6 in particular) can react.
func (s *SpecSet) Materialize(deps []Dependency, platforms []string) MaterializedSet {
	var result MaterializedSet
	for _, dep := range deps {
		candidates := s.byName[dep.Name]
		if len(candidates) == 0 {
			result.Missing = append(result.Missing, dep)
			continue
		}
		var chosen *Spec
		for i := range candidates {
			if platformMatches(candidates[i].Platform, platforms) {
				chosen = &candidates[i]
				break
			}
		}
		complete := chosen != nil
		for _, p := range platforms {
			covered := false
			for _, c := range candidates {
				if platformMatches(c.Platform, []string{p}) {
					covered = true
					break
				}
			}
			complete = complete && covered
		}
		if !complete {
			result.Incomplete = append(result.Incomplete, dep)
			continue
		}
		result.Specs = append(result.Specs, *chosen)
	}
	return result
}
