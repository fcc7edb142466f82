// Package lockresolve wires the definition core's Resolver Driver
// (internal/definition.Backend) to the PubGrub solver assembled in
// internal/resolver. It lives outside both
// packages because internal/definition already imports internal/resolver
// for Ruby-version-constraint parsing, and internal/resolver's solver
// types need to be translated into internal/definition's Spec/Source
// shapes — putting the translation in either package would cycle back
// into the other.
package lockresolve

import (
	"fmt"
	"sort"
	"sync"

	"github.com/contriboss/pubgrub-go"
	"github.com/solidify-dev/solidify/internal/definition"
	"github.com/solidify-dev/solidify/internal/resolver"
)

// Bridge implements definition.Backend by delegating to a PubGrub
// solver rooted at each call's Plan. A Bridge is safe for reuse across
// resolves; it caches one resolver.RubyGemsSource per remote URL.
type Bridge struct {
	mu      sync.Mutex
	sources map[string]*resolver.RubyGemsSource
}

// New returns a ready-to-use Bridge.
func New() *Bridge {
	return &Bridge{sources: map[string]*resolver.RubyGemsSource{}}
}

func (b *Bridge) sourceFor(remote string) *resolver.RubyGemsSource {
	if remote == "" {
		remote = "https://rubygems.org"
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if src, ok := b.sources[remote]; ok {
		return src
	}
	src := resolver.NewRubyGemsSourceWithURL(remote)
	b.sources[remote] = src
	return src
}

// Solve builds a PubGrub root source from plan.ExpandedDependencies,
// resolves it against the default source's first remote, and converts
// the solution back into a definition.SpecSet, looking up each solved
// package's dependencies from its plan.SourceRequirements remote. The
// synthetic root and the Ruby/RubyGems metadata pseudo-packages are
// dropped from the output; a bundler dependency is resolved and kept
// like any other gem.
func (b *Bridge) Solve(plan *definition.Plan) (*definition.SpecSet, error) {
	rootSource := pubgrub.NewRootSource()

	for _, dep := range plan.ExpandedDependencies {
		if isMetadataDep(dep.Name) {
			continue
		}
		condition, err := conditionFor(dep.Requirement)
		if err != nil {
			condition = resolver.NewAnyVersionCondition()
		}
		rootSource.AddPackage(pubgrub.MakeName(dep.Name), condition)
	}

	for name, floor := range plan.BaseRequirements {
		if containsName(plan.ExpandedDependencies, name) {
			continue
		}
		condition, err := conditionFor(floor)
		if err != nil {
			continue
		}
		rootSource.AddPackage(pubgrub.MakeName(name), condition)
	}

	defaultRemote := ""
	if plan.DefaultSource != nil && len(plan.DefaultSource.Remotes) > 0 {
		defaultRemote = plan.DefaultSource.Remotes[0]
	}
	defaultBackend := b.sourceFor(defaultRemote)

	solver := pubgrub.NewSolver(rootSource, defaultBackend)
	solution, err := solver.Solve(rootSource.Term())
	if err != nil {
		return nil, fmt.Errorf(
			"could not resolve dependencies: no versions satisfy the constraints, or requirements conflict: %w", err)
	}

	sort.Slice(solution, func(i, j int) bool {
		return solution[i].Name.Value() < solution[j].Name.Value()
	})

	out := definition.NewSpecSet()
	rootName := pubgrub.MakeName("$$root")
	for _, pkg := range solution {
		if pkg.Name == rootName || isMetadataDep(pkg.Name.Value()) {
			continue
		}
		name := pkg.Name.Value()
		backend := b.backendFor(plan, name, defaultRemote)

		deps, err := backend.GetDependencies(pkg.Name, pkg.Version)
		if err != nil {
			deps = nil
		}

		spec := definition.Spec{
			Name:    name,
			Version: pkg.Version.String(),
			Source:  plan.SourceRequirements[name],
		}
		if spec.Source == nil {
			spec.Source = plan.DefaultSource
		}
		for _, d := range deps {
			req := ""
			if d.Condition != nil && d.Condition.String() != ">= 0" {
				req = d.Condition.String()
			}
			spec.Dependencies = append(spec.Dependencies, definition.Dependency{
				Name:        d.Name.Value(),
				Requirement: req,
				Type:        definition.DependencyRuntime,
			})
		}
		out.Add(spec)
	}

	return out, nil
}

func (b *Bridge) backendFor(plan *definition.Plan, name, defaultRemote string) *resolver.RubyGemsSource {
	if src, ok := plan.SourceRequirements[name]; ok && src != nil && len(src.Remotes) > 0 {
		return b.sourceFor(src.Remotes[0])
	}
	return b.sourceFor(defaultRemote)
}

func conditionFor(requirement string) (pubgrub.Condition, error) {
	if requirement == "" {
		return resolver.NewAnyVersionCondition(), nil
	}
	return resolver.NewSemverCondition(requirement)
}

func isMetadataDep(name string) bool {
	return name == "Ruby\x00" || name == "RubyGems\x00"
}

func containsName(deps []definition.Dependency, name string) bool {
	for _, d := range deps {
		if d.Name == name {
			return true
		}
	}
	return false
}
