package definition

// SourceMap indexes per-package source authority: which source owns
// which gem name, under the precedence rule in spec.md §4.2 (explicit
// declaration > locked source > default source).
type SourceMap struct {
	defaultSource *Source
	direct        map[string]*Source
	locked        map[string]*Source
}

// NewSourceMap computes direct/locked requirements from a default
// source, the declared dependencies, and the locked spec list.
func NewSourceMap(defaultSource *Source, dependencies []Dependency, lockedSpecs []Spec) (*SourceMap, error) {
	sm := &SourceMap{
		defaultSource: defaultSource,
		direct:        map[string]*Source{},
		locked:        map[string]*Source{},
	}

	for _, dep := range dependencies {
		if dep.Source == nil {
			continue
		}
		if existing, ok := sm.direct[dep.Name]; ok && !existing.Equal(dep.Source) {
			return nil, NewAmbiguousSourceError(dep.Name)
		}
		sm.direct[dep.Name] = dep.Source
	}

	for _, spec := range lockedSpecs {
		if spec.Source == nil {
			continue
		}
		if _, ok := sm.locked[spec.Name]; !ok {
			sm.locked[spec.Name] = spec.Source
		}
	}

	return sm, nil
}

// DirectRequirements returns name -> source for every explicitly
// declared dependency.
func (sm *SourceMap) DirectRequirements() map[string]*Source {
	out := make(map[string]*Source, len(sm.direct))
	for k, v := range sm.direct {
		out[k] = v
	}
	return out
}

// AllRequirements extends DirectRequirements with every indirect
// dependency name resolved against the locked source when known,
// falling back to the default source otherwise.
func (sm *SourceMap) AllRequirements(transitiveNames []string) map[string]*Source {
	out := sm.DirectRequirements()
	for _, name := range transitiveNames {
		if _, ok := out[name]; ok {
			continue
		}
		if src, ok := sm.locked[name]; ok {
			out[name] = src
			continue
		}
		out[name] = sm.defaultSource
	}
	return out
}

// LockedRequirements returns name -> source from the locked specs,
// used when resolving offline (§4.5, "overlay locked_requirements when
// offline").
func (sm *SourceMap) LockedRequirements() map[string]*Source {
	out := make(map[string]*Source, len(sm.locked))
	for k, v := range sm.locked {
		out[k] = v
	}
	return out
}

// SourceFor resolves a single name under the direct > locked > default
// precedence rule.
func (sm *SourceMap) SourceFor(name string) *Source {
	if src, ok := sm.direct[name]; ok {
		return src
	}
	if src, ok := sm.locked[name]; ok {
		return src
	}
	return sm.defaultSource
}
