package definition

// converge runs the fixed seven-step sequence from spec.md §4.3 over
// state, mutating it in place and returning the union of flags set
// along the way. Each step is its own pure-ish function per DESIGN
// NOTES ("Mutable locked state"): it takes the state so far and
// returns the flags it contributed; converge folds them in order.
func converge(state *LockedState, manifest *Manifest, unlock UnlockRequest, ctx Context) ChangeFlags {
	var flags ChangeFlags

	step1PromotePathToGemspec(state, manifest)
	flags = flags.merge(step2DetectPathChanges(state, manifest, ctx))
	flags = flags.merge(step3ConvergeSources(state, manifest, unlock))

	unlockSet := step4ExpandUnlock(state, unlock)

	flags = flags.merge(step5ConvergeDependencies(state, manifest, unlock))
	flags = flags.merge(step6ApplyLocalOverrides(state, manifest, unlockSet, ctx))
	flags = flags.merge(step7AdjustPlatforms(state, ctx))

	if unlock.UnlockingBundler() {
		flags.UnlockingBundler = true
	}

	return flags
}

// step1PromotePathToGemspec rewrites every locked bare-Path source to
// the Gemspec variant when the manifest declares a Gemspec source for
// the same directory. Applied to locked sources, spec back-references,
// and locked dependency back-references uniformly (spec.md §4.3 step 1).
func step1PromotePathToGemspec(state *LockedState, manifest *Manifest) {
	gemspecByDir := map[string]*Source{}
	for _, src := range manifest.Sources {
		if src.Kind == SourceGemspec {
			gemspecByDir[src.PathDir] = src
		}
	}
	if len(gemspecByDir) == 0 {
		return
	}

	promoted := map[*Source]*Source{}
	for i, src := range state.Sources {
		if src.Kind != SourcePath {
			continue
		}
		if gemspec, ok := gemspecByDir[src.PathDir]; ok {
			promoted[src] = gemspec
			state.Sources[i] = gemspec
		}
	}
	if len(promoted) == 0 {
		return
	}

	for _, name := range state.Specs.Names() {
		specs := state.Specs.byName[name]
		for i := range specs {
			if repl, ok := promoted[specs[i].Source]; ok {
				specs[i].Source = repl
			}
		}
	}
	for name, dep := range state.Dependencies {
		if repl, ok := promoted[dep.Source]; ok {
			dep.Source = repl
			state.Dependencies[name] = dep
		}
	}
}

// specsChanged implements the `specs_changed?` contract from spec.md
// §4.3 step 2: true if (a) the locked list lacks this source, (b) the
// dependency list for it differs, or (c) the source's spec index
// (the gem name(s) it currently resolves to) differs from the locked
// projection of the same source. Errors from either probe are
// swallowed per spec.md §7 and treated as "not changed" for that
// clause — the real error resurfaces during resolution.
func specsChanged(manifestSrc *Source, state *LockedState, lockedNames map[string][]string) bool {
	var lockedSrc *Source
	for _, s := range state.Sources {
		if s.Equal(manifestSrc) {
			lockedSrc = s
			break
		}
	}
	if lockedSrc == nil {
		return true
	}

	if manifestDeps, err := probeDependencyNames(manifestSrc); err == nil {
		lockedDeps := lockedNames[manifestSrc.PathDir]
		if !equalStringSets(uniqueSorted(manifestDeps), uniqueSorted(lockedDeps)) {
			return true
		}
	}

	if manifestIndex, err := probeIndexNames(manifestSrc); err == nil {
		lockedIndex := lockedSpecNamesForPath(state, manifestSrc.PathDir)
		if !equalStringSets(uniqueSorted(manifestIndex), uniqueSorted(lockedIndex)) {
			return true
		}
	}

	return false
}

// probeDependencyNames asks a path/gemspec source for its own
// transitive dependency names (clause (b)), via the SpecsProbe hook
// wirePathProbes populates for real path gems; kept nil-safe for unit
// tests that never populate it.
func probeDependencyNames(src *Source) ([]string, error) {
	if src.SpecsProbe == nil {
		return nil, nil
	}
	return src.SpecsProbe()
}

// probeIndexNames asks a path/gemspec source what gem name(s) it
// currently resolves to (clause (c)), via the IndexProbe hook.
func probeIndexNames(src *Source) ([]string, error) {
	if src.IndexProbe == nil {
		return nil, nil
	}
	return src.IndexProbe()
}

// lockedSpecNamesForPath returns the names of every locked spec whose
// source is the path/gemspec source rooted at dir — the locked
// projection clause (c) compares the live probe against.
func lockedSpecNamesForPath(state *LockedState, dir string) []string {
	var names []string
	for _, name := range state.Specs.Names() {
		for _, sp := range state.Specs.Lookup(name) {
			if sp.Source != nil && (sp.Source.Kind == SourcePath || sp.Source.Kind == SourceGemspec) && sp.Source.PathDir == dir {
				names = append(names, sp.Name)
			}
		}
	}
	return names
}

func uniqueSorted(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// step2DetectPathChanges sets PathChanges iff any manifest path or
// gemspec source reports specs_changed? against its locked counterpart.
func step2DetectPathChanges(state *LockedState, manifest *Manifest, ctx Context) ChangeFlags {
	lockedDepNames := map[string][]string{}
	for _, name := range state.Specs.Names() {
		for _, sp := range state.Specs.Lookup(name) {
			if sp.Source != nil && (sp.Source.Kind == SourcePath || sp.Source.Kind == SourceGemspec) {
				var names []string
				for _, d := range sp.Dependencies {
					names = append(names, d.Name)
				}
				lockedDepNames[sp.Source.PathDir] = names
			}
		}
	}

	var flags ChangeFlags
	for _, src := range manifest.Sources {
		if src.Kind != SourcePath && src.Kind != SourceGemspec {
			continue
		}
		if specsChanged(src, state, lockedDepNames) {
			flags.PathChanges = true
		}
	}
	return flags
}

// step3ConvergeSources replaces manifest sources with their lockfile
// equivalents where equal (to preserve pinned git revisions), then
// unlocks any source that is both unlockable and requested in
// unlock.Sources.
func step3ConvergeSources(state *LockedState, manifest *Manifest, unlock UnlockRequest) ChangeFlags {
	var flags ChangeFlags

	for i, msrc := range manifest.Sources {
		for _, lsrc := range state.Sources {
			if msrc.Equal(lsrc) {
				manifest.Sources[i] = lsrc
				break
			}
		}
	}

	requested := map[string]bool{}
	for _, name := range unlock.Sources {
		requested[name] = true
	}
	if len(requested) > 0 {
		for _, src := range state.Sources {
			if !src.SupportsUnlock() {
				continue
			}
			if requested[src.GitURL] {
				src.Unlock()
				flags.SourceChanges = true
			}
		}
	}

	return flags
}

// step4ExpandUnlock expands the requested unlock set through the
// locked dependency graph: every spec transitively reachable from an
// unlocked name is added to the unlock set (spec.md §4.3 step 4). In
// conservative mode the unlock set is every declared dependency name
// plus any named gems, with no transitive expansion.
func step4ExpandUnlock(state *LockedState, unlock UnlockRequest) map[string]bool {
	names := map[string]bool{}

	if unlock.All {
		for _, name := range state.Specs.Names() {
			names[name] = true
		}
		return names
	}

	if unlock.Conservative {
		for name := range state.Dependencies {
			names[name] = true
		}
		for _, g := range unlock.Gems {
			names[g] = true
		}
		return names
	}
	for _, g := range unlock.Gems {
		names[g] = true
	}

	if len(names) == 0 {
		return names
	}

	var roots []Dependency
	for name := range names {
		roots = append(roots, Dependency{Name: name, Type: DependencyRuntime})
	}
	for _, sp := range state.Specs.For(roots, true, nil) {
		names[sp.Name] = true
	}

	return names
}

// step5ConvergeDependencies resolves each declared dependency's source
// reference and, unless unlocking everything, compares its requirement
// string against the locked dependency of the same name. It also
// copies the declared dep's Type onto the locked copy, since the
// lockfile doesn't record type (spec.md §4.3 step 5, §9 "Type-field
// hack").
func step5ConvergeDependencies(state *LockedState, manifest *Manifest, unlock UnlockRequest) ChangeFlags {
	var flags ChangeFlags

	for _, dep := range manifest.Dependencies {
		locked, hasLocked := state.Dependencies[dep.Name]

		if !unlock.All {
			if !hasLocked {
				flags.DependencyChanges = true
			} else if dep.Requirement != locked.Requirement {
				flags.DependencyChanges = true
			}
		}

		if hasLocked {
			locked.Type = dep.Type
			state.Dependencies[dep.Name] = locked
		} else {
			state.Dependencies[dep.Name] = dep
		}
	}

	return flags
}

// step6ApplyLocalOverrides applies user-supplied (name, path) local
// overrides: if the dep's source supports LocalOverride, it's applied
// (and unlocked, if the name is in the unlock set). LocalChanges is set
// if any override changed something, or if its source's specs changed.
func step6ApplyLocalOverrides(state *LockedState, manifest *Manifest, unlockSet map[string]bool, ctx Context) ChangeFlags {
	var flags ChangeFlags

	for name, path := range manifest.LocalOverrides {
		dep, ok := state.Dependencies[name]
		if !ok || dep.Source == nil {
			continue
		}
		src := dep.Source
		if !src.SupportsLocalOverride() {
			continue
		}

		changed := src.LocalOverride(path)
		if unlockSet[name] {
			src.Unlock()
		}

		if changed {
			flags.LocalChanges = true
		}
		if specsChanged(src, state, nil) {
			flags.LocalChanges = true
		}
	}

	return flags
}

// step7AdjustPlatforms adds the current platform to the locked set if
// it's missing (unless frozen), and reconciles the generic "ruby"
// pseudo-platform against the current local platform the same way
// spec.md §4.3 step 7 describes.
func step7AdjustPlatforms(state *LockedState, ctx Context) ChangeFlags {
	var flags ChangeFlags
	if ctx.Settings != nil && ctx.Settings.Frozen {
		return flags
	}

	current := ctx.CurrentPlatform
	if current == "" {
		return flags
	}

	covered := false
	for _, p := range state.Platforms {
		if p == current {
			covered = true
			break
		}
	}
	if !covered {
		state.Platforms = append(state.Platforms, current)
		flags.NewPlatform = true
		return flags
	}

	hasRuby := false
	rubyIdx := -1
	for i, p := range state.Platforms {
		if p == "ruby" {
			hasRuby = true
			rubyIdx = i
			break
		}
	}
	if hasRuby && current != "ruby" {
		missingRubyOnly := false
		for _, name := range state.Specs.Names() {
			for _, sp := range state.Specs.Lookup(name) {
				if sp.Platform == "" || sp.Platform == "ruby" {
					if _, found := state.Specs.Find(sp.Name, sp.Version, current); !found {
						missingRubyOnly = true
					}
				}
			}
		}
		if missingRubyOnly {
			state.Platforms = append(state.Platforms[:rubyIdx], state.Platforms[rubyIdx+1:]...)
			if !covered {
				state.Platforms = append(state.Platforms, current)
			}
		}
	}

	return flags
}
