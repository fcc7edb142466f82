// Package definition implements the dependency definition core: the
// subsystem that reconciles a parsed Gemfile against a previously
// recorded lockfile, decides whether re-resolution is required, and
// drives the PubGrub resolver to produce a reproducible dependency set.
package definition

import (
	"github.com/contriboss/gemfile-go/gemfile"
	"github.com/contriboss/gemfile-go/lockfile"
	"github.com/solidify-dev/solidify/internal/config"
	"github.com/solidify-dev/solidify/internal/ruby"
)

// SourceKind tags the variant held by a Source value. Only the fields
// relevant to a given kind are populated; see the capability probes
// below instead of dynamic dispatch.
type SourceKind int

const (
	SourceRubygems SourceKind = iota
	SourceGit
	SourcePath
	SourceGemspec
	SourceMetadata
	SourceAggregate
)

func (k SourceKind) String() string {
	switch k {
	case SourceRubygems:
		return "rubygems"
	case SourceGit:
		return "git"
	case SourcePath:
		return "path"
	case SourceGemspec:
		return "gemspec"
	case SourceMetadata:
		return "metadata"
	case SourceAggregate:
		return "aggregate"
	default:
		return "unknown"
	}
}

// Source is a tagged union over the package origins the core knows
// about. A Spec's Source field is a shared back-reference into the
// registry held by the Definition; specs never own their source.
type Source struct {
	Kind SourceKind

	// Rubygems / Aggregate
	Remotes []string

	// Git
	GitURL      string
	GitBranch   string
	GitTag      string
	GitRef      string
	GitRevision string
	unlocked    bool // cleared pinned revision via Unlock()

	// Path / Gemspec
	PathDir     string
	GemspecPath string
	overridden  bool // local_override! applied

	// Aggregate
	members []*Source

	// SpecsProbe, when set, lets convergence ask a path/gemspec source
	// for its current transitive dependency names (spec.md §4.3 step 2
	// clause (b), `specs_changed?`). Populated by wirePathProbes for
	// every path/gemspec source built from real Gemfile/lockfile
	// parsing; unit tests that call NewPathSource directly leave it nil.
	SpecsProbe func() ([]string, error)

	// IndexProbe, when set, reports the gem name(s) this source
	// currently resolves to — the "source's spec index" from spec.md
	// §4.3 step 2 clause (c), distinct from SpecsProbe's dependency
	// names. Populated alongside SpecsProbe.
	IndexProbe func() ([]string, error)
}

// NewRubygemsSource builds a remote rubygems source for the given
// mirrors (first entry is primary, the rest are fallbacks).
func NewRubygemsSource(remotes ...string) *Source {
	return &Source{Kind: SourceRubygems, Remotes: remotes}
}

// NewGitSource builds a git source pinned to one of branch/tag/ref.
func NewGitSource(url, branch, tag, ref string) *Source {
	return &Source{Kind: SourceGit, GitURL: url, GitBranch: branch, GitTag: tag, GitRef: ref}
}

// NewPathSource builds a bare path source.
func NewPathSource(dir string) *Source {
	return &Source{Kind: SourcePath, PathDir: dir}
}

// NewGemspecSource builds a path source that additionally carries
// gemspec metadata; Step 1 of convergence promotes bare Path sources
// to this variant when the manifest declares one for the same path.
func NewGemspecSource(dir, gemspecPath string) *Source {
	return &Source{Kind: SourceGemspec, PathDir: dir, GemspecPath: gemspecPath}
}

// NewMetadataSource builds the synthetic source that hosts the
// ruby/bundler pseudo-specs injected into resolution.
func NewMetadataSource() *Source {
	return &Source{Kind: SourceMetadata}
}

// NewAggregateSource merges several rubygems sources into one that
// satisfies the resolver's "one source requirement per package" shape
// when no fine-grained dependency API is available.
func NewAggregateSource(members ...*Source) *Source {
	remotes := make([]string, 0, len(members))
	for _, m := range members {
		remotes = append(remotes, m.Remotes...)
	}
	return &Source{Kind: SourceAggregate, Remotes: remotes, members: members}
}

// Equal reports whether two sources describe the same origin. Git
// sources compare on URL + ref triple, not on resolved revision, so
// that a locked revision doesn't make a manifest source look "changed"
// spuriously.
func (s *Source) Equal(other *Source) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.Kind != other.Kind {
		return false
	}
	switch s.Kind {
	case SourceRubygems, SourceAggregate:
		return equalStringSets(s.Remotes, other.Remotes)
	case SourceGit:
		return s.GitURL == other.GitURL && s.GitBranch == other.GitBranch &&
			s.GitTag == other.GitTag && s.GitRef == other.GitRef
	case SourcePath, SourceGemspec:
		return s.PathDir == other.PathDir
	case SourceMetadata:
		return true
	default:
		return false
	}
}

// Include reports whether other is subsumed by s, e.g. a rubygems
// source whose remotes are a subset of s's.
func (s *Source) Include(other *Source) bool {
	if s == nil || other == nil || s.Kind != other.Kind {
		return false
	}
	if s.Kind != SourceRubygems && s.Kind != SourceAggregate {
		return s.Equal(other)
	}
	have := make(map[string]bool, len(s.Remotes))
	for _, r := range s.Remotes {
		have[r] = true
	}
	for _, r := range other.Remotes {
		if !have[r] {
			return false
		}
	}
	return true
}

// SupportsUnlock reports whether Unlock has any effect on this source.
func (s *Source) SupportsUnlock() bool {
	return s.Kind == SourceGit
}

// Unlock drops a pinned git revision, forcing the next resolve to
// refetch refs. No-op for kinds that don't support it.
func (s *Source) Unlock() {
	if s.Kind == SourceGit {
		s.GitRevision = ""
		s.unlocked = true
	}
}

// SupportsLocalOverride reports whether LocalOverride has any effect.
func (s *Source) SupportsLocalOverride() bool {
	return s.Kind == SourceGit
}

// LocalOverride points a git source at a local checkout, returning
// whether anything actually changed.
func (s *Source) LocalOverride(path string) bool {
	if s.Kind != SourceGit {
		return false
	}
	if s.PathDir == path {
		return false
	}
	s.PathDir = path
	s.overridden = true
	return true
}

// ToGemfile returns a human label, mirroring the optional
// `to_gemfile` capability from spec.md §6.
func (s *Source) ToGemfile() string {
	switch s.Kind {
	case SourceRubygems:
		if len(s.Remotes) > 0 {
			return "remote: " + s.Remotes[0]
		}
		return "remote: (default)"
	case SourceAggregate:
		return "remote: (aggregate)"
	case SourceGit:
		ref := s.GitBranch
		if s.GitTag != "" {
			ref = s.GitTag
		}
		if s.GitRef != "" {
			ref = s.GitRef
		}
		if ref == "" {
			return "git: " + s.GitURL
		}
		return "git: " + s.GitURL + "@" + ref
	case SourcePath:
		return "path: " + s.PathDir
	case SourceGemspec:
		return "path (gemspec): " + s.PathDir
	case SourceMetadata:
		return "metadata"
	default:
		return "unknown"
	}
}

func equalStringSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, v := range a {
		seen[v]++
	}
	for _, v := range b {
		seen[v]--
	}
	for _, n := range seen {
		if n != 0 {
			return false
		}
	}
	return true
}

// DependencyType is informational only — it must never participate in
// Dependency equality (spec.md §3 invariant).
type DependencyType string

const (
	DependencyRuntime     DependencyType = "runtime"
	DependencyDevelopment DependencyType = "development"
)

// Dependency is a declared requirement, either from the manifest or
// from a locked spec's transitive dependency list.
type Dependency struct {
	Name        string
	Requirement string // e.g. "~> 1.0", "" means unconstrained
	Groups      []string
	Platforms   []string
	Source      *Source
	Type        DependencyType
}

// Equal compares two dependencies ignoring Type, per the spec.md §3
// invariant ("the type field is informational and must NOT participate
// in equality"). Requirement comparison is a plain string compare,
// matching how the lockfile records constraints verbatim.
func (d Dependency) Equal(other Dependency) bool {
	return d.Name == other.Name &&
		d.Requirement == other.Requirement &&
		equalStringSets(d.Groups, other.Groups) &&
		equalStringSets(d.Platforms, other.Platforms) &&
		sourcesEqual(d.Source, other.Source)
}

func sourcesEqual(a, b *Source) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(b)
}

// Spec is a concrete, resolved package. Identity is (Name, Version,
// Platform); Source is a shared back-reference owned by the
// Definition's source registry, never copied.
type Spec struct {
	Name         string
	Version      string
	Platform     string
	Source       *Source
	Dependencies []Dependency
}

// Key returns the (name, version, platform) identity tuple as a string,
// used by SpecSet for uniqueness and lookup.
func (s Spec) Key() string {
	platform := s.Platform
	if platform == "" {
		platform = "ruby"
	}
	return s.Name + "\x00" + s.Version + "\x00" + platform
}

// FullName mirrors gemfile-go's lockfile.GemSpec.FullName() convention
// (name-version[-platform]) used for vendor-directory paths.
func (s Spec) FullName() string {
	if s.Platform == "" || s.Platform == "ruby" {
		return s.Name + "-" + s.Version
	}
	return s.Name + "-" + s.Version + "-" + s.Platform
}

// Context carries settings, UI, and runtime platform/ruby info through
// construction, per DESIGN NOTES ("Global settings / singletons").
// No part of this package reads process-global state directly.
type Context struct {
	Settings        *config.Settings
	Engine          ruby.Engine
	CurrentPlatform string
	UI              UI
}

// UI is a minimal reporting sink carried in Context; nothing in this
// package calls it. The CLI's update command sets it to a stdout
// adapter (cliUI); other callers leave it nil.
type UI interface {
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Manifest is the declared-dependency view the Facade converges
// against, sourced from gemfile-go's parser.
type Manifest struct {
	Dependencies []Dependency
	Sources      []*Source
	RubyVersion  string // declared `ruby "x.y.z"`, "" if absent
	LocalOverrides map[string]string // gem name -> local path; ManifestFromParsed leaves it empty
}

// ManifestFromParsed adapts a gemfile-go ParsedGemfile into the core's
// own Dependency/Source types, so the rest of the package never touches
// gemfile-go structs directly.
func ManifestFromParsed(deps []gemfile.GemDependency, rubyVersion string) *Manifest {
	m := &Manifest{RubyVersion: rubyVersion}
	seen := map[string]*Source{}
	for _, d := range deps {
		dep := Dependency{
			Name:        d.Name,
			Groups:      d.Groups,
			Type:        DependencyRuntime,
			Requirement: joinConstraints(d.Constraints),
		}
		if d.Source != nil {
			key := d.Source.Type + "\x00" + d.Source.URL + "\x00" + d.Source.Branch + "\x00" + d.Source.Tag + "\x00" + d.Source.Ref
			src, ok := seen[key]
			if !ok {
				src = sourceFromGemfile(d.Source)
				seen[key] = src
				m.Sources = append(m.Sources, src)
			}
			dep.Source = src
		}
		m.Dependencies = append(m.Dependencies, dep)
	}
	return m
}

func sourceFromGemfile(s *gemfile.Source) *Source {
	switch s.Type {
	case "git":
		return NewGitSource(s.URL, s.Branch, s.Tag, s.Ref)
	case "path":
		src := NewPathSource(s.URL)
		wirePathProbes(src)
		return src
	default:
		return NewRubygemsSource(s.URL)
	}
}

func joinConstraints(cs []string) string {
	out := ""
	for i, c := range cs {
		if i > 0 {
			out += ", "
		}
		out += c
	}
	return out
}

// LockedState is a snapshot parsed from the lockfile. It is the only
// mutable value in the package's lifecycle: convergence mutates it in
// place step by step, after which it is treated as immutable.
type LockedState struct {
	Sources      []*Source
	Dependencies map[string]Dependency // name -> locked dependency
	Specs        *SpecSet
	Platforms    []string
	RubyVersion  string
	BundlerVersion string
}

// NewLockedState builds an empty, lockfile-less state (used when no
// lockfile exists yet).
func NewLockedState() *LockedState {
	return &LockedState{
		Dependencies: map[string]Dependency{},
		Specs:        NewSpecSet(),
	}
}

// LockedStateFromFile adapts a parsed gemfile-go lockfile.Lockfile into
// the core's own types.
func LockedStateFromFile(lock *lockfile.Lockfile) *LockedState {
	state := NewLockedState()
	state.Platforms = append([]string(nil), lock.Platforms...)
	state.BundlerVersion = lock.BundledWith

	rubygems := NewRubygemsSource()
	state.Sources = append(state.Sources, rubygems)

	for _, g := range lock.GemSpecs {
		spec := Spec{
			Name:     g.Name,
			Version:  g.Version,
			Platform: g.Platform,
			Source:   rubygems,
		}
		for _, d := range g.Dependencies {
			spec.Dependencies = append(spec.Dependencies, Dependency{
				Name:        d.Name,
				Requirement: joinConstraints(d.Constraints),
				Type:        DependencyType(d.Type),
			})
		}
		state.Specs.Add(spec)
	}

	for _, g := range lock.GitSpecs {
		src := NewGitSource(g.Remote, g.Branch, g.Tag, "")
		src.GitRevision = g.Revision
		state.Sources = append(state.Sources, src)
		spec := Spec{Name: g.Name, Version: g.Version, Source: src}
		for _, d := range g.Dependencies {
			spec.Dependencies = append(spec.Dependencies, Dependency{Name: d.Name, Requirement: joinConstraints(d.Constraints)})
		}
		state.Specs.Add(spec)
	}

	for _, g := range lock.PathSpecs {
		src := NewPathSource(g.Remote)
		wirePathProbes(src)
		state.Sources = append(state.Sources, src)
		spec := Spec{Name: g.Name, Version: g.Version, Source: src}
		for _, d := range g.Dependencies {
			spec.Dependencies = append(spec.Dependencies, Dependency{Name: d.Name, Requirement: joinConstraints(d.Constraints)})
		}
		state.Specs.Add(spec)
	}

	for _, d := range lock.Dependencies {
		state.Dependencies[d.Name] = Dependency{
			Name:        d.Name,
			Requirement: joinConstraints(d.Constraints),
			Type:        DependencyType(d.Type),
		}
	}

	return state
}

// Clone returns a deep-enough copy of the locked state for convergence
// to mutate without disturbing the pre-convergence snapshot the
// Planner needs for base_requirements (spec.md §4.5).
func (l *LockedState) Clone() *LockedState {
	clone := &LockedState{
		Sources:        append([]*Source(nil), l.Sources...),
		Dependencies:   make(map[string]Dependency, len(l.Dependencies)),
		Specs:          l.Specs.Clone(),
		Platforms:      append([]string(nil), l.Platforms...),
		RubyVersion:    l.RubyVersion,
		BundlerVersion: l.BundlerVersion,
	}
	for k, v := range l.Dependencies {
		clone.Dependencies[k] = v
	}
	return clone
}
