package definition

// Plan is the resolver's input, assembled by BuildPlan per spec.md §4.5.
type Plan struct {
	SourceRequirements   map[string]*Source
	DefaultSource        *Source
	ExpandedDependencies []Dependency
	BaseRequirements     map[string]string // name -> floor requirement, e.g. ">= 1.2.3"
	Platforms            []string
	UnlockGems           []string
	LockedSpecs          *SpecSet
}

// BuildPlan assembles everything the Resolver Driver needs: per-package
// source requirements, synthetic ruby/rubygems/bundler dependencies,
// version floors for anything dropped during convergence, and the
// final platform/unlock sets (spec.md §4.5).
func BuildPlan(state *LockedState, manifest *Manifest, preConvergenceSpecs *SpecSet, sm *SourceMap, unlockSet map[string]bool, unlock UnlockRequest, ctx Context) *Plan {
	plan := &Plan{
		BaseRequirements: map[string]string{},
		Platforms:        append([]string(nil), state.Platforms...),
	}

	var transitive []string
	for _, name := range state.Specs.Names() {
		transitive = append(transitive, name)
	}

	preferLocal := ctx.Settings != nil && !ctx.Settings.Frozen
	_ = preferLocal // computed but not read; no prefer-local variant selection is performed

	plan.SourceRequirements = sm.AllRequirements(transitive)
	metadata := findOrCreateMetadataSource(state)
	plan.SourceRequirements["bundler"] = metadata
	plan.DefaultSource = firstRubygemsSource(manifest, state)

	plan.ExpandedDependencies = append([]Dependency(nil), manifest.Dependencies...)
	plan.ExpandedDependencies = append(plan.ExpandedDependencies,
		Dependency{Name: "Ruby\x00", Requirement: runtimeRubyRequirement(ctx), Source: metadata},
		Dependency{Name: "RubyGems\x00", Requirement: "", Source: metadata},
	)
	if unlock.UnlockingBundler() {
		plan.ExpandedDependencies = append([]Dependency{{Name: "bundler", Requirement: "= " + unlock.Bundler, Source: metadata}}, plan.ExpandedDependencies...)
	}

	if preConvergenceSpecs != nil {
		for _, sp := range preConvergenceSpecs.All() {
			if _, stillLocked := state.Specs.Find(sp.Name, sp.Version, sp.Platform); stillLocked {
				continue
			}
			if sp.Source != nil && (sp.Source.Kind == SourcePath || sp.Source.Kind == SourceGemspec) {
				continue
			}
			plan.BaseRequirements[sp.Name] = ">= " + sp.Version
		}
	}

	for name := range unlockSet {
		plan.UnlockGems = append(plan.UnlockGems, name)
	}

	plan.LockedSpecs = state.Specs

	return plan
}

func findOrCreateMetadataSource(state *LockedState) *Source {
	for _, s := range state.Sources {
		if s.Kind == SourceMetadata {
			return s
		}
	}
	meta := NewMetadataSource()
	state.Sources = append(state.Sources, meta)
	return meta
}

func firstRubygemsSource(manifest *Manifest, state *LockedState) *Source {
	for _, s := range manifest.Sources {
		if s.Kind == SourceRubygems || s.Kind == SourceAggregate {
			return s
		}
	}
	for _, s := range state.Sources {
		if s.Kind == SourceRubygems || s.Kind == SourceAggregate {
			return s
		}
	}
	return NewRubygemsSource("https://rubygems.org")
}

func runtimeRubyRequirement(ctx Context) string {
	if ctx.Engine.Version == "" {
		return ""
	}
	return "= " + ctx.Engine.Version
}
