package definition

import (
	"bytes"
	"os"
	"regexp"
	"strings"

	"github.com/contriboss/gemfile-go/lockfile"
)

// writeLockfileFile is overridable in tests; it's the seam between
// WriteLockfile's no-op/CRLF handling and gemfile-go's writer, which
// only exposes a path-based WriteFile (no io.Writer variant).
var writeLockfileFile = func(lock *lockfile.Lockfile, path string) error {
	return lockfile.NewLockfileWriter().WriteFile(lock, path)
}

// WriteLockfile serializes a LockedState with gemfile-go's writer and
// preserves two details a naive re-serialize would lose: the file's
// existing line-ending style, and a true no-op write when nothing but
// the RUBY/BUNDLED WITH trailer would change (spec.md §4.7, "Lock must
// not touch the file if nothing material changed").
func WriteLockfile(state *LockedState, path string) error {
	lock := toLockfileStruct(state)

	tmp := path + ".ore-tmp"
	if err := writeLockfileFile(lock, tmp); err != nil {
		return NewLockfileError("writing lockfile: " + err.Error())
	}
	rendered, err := os.ReadFile(tmp)
	if err != nil {
		return NewLockfileError("reading rendered lockfile: " + err.Error())
	}
	defer os.Remove(tmp)

	existing, err := os.ReadFile(path)
	if err == nil {
		if usesCRLF(existing) {
			rendered = toCRLF(rendered)
		}
		if stripTrailer(existing) == stripTrailer(rendered) {
			return nil
		}
	}

	return os.WriteFile(path, rendered, 0o644)
}

func toLockfileStruct(state *LockedState) *lockfile.Lockfile {
	lock := &lockfile.Lockfile{
		Platforms:   append([]string(nil), state.Platforms...),
		BundledWith: state.BundlerVersion,
	}

	for _, name := range state.Specs.Names() {
		for _, sp := range state.Specs.Lookup(name) {
			if sp.Source == nil {
				continue
			}
			var deps []lockfile.Dependency
			for _, d := range sp.Dependencies {
				deps = append(deps, lockfile.Dependency{
					Name:        d.Name,
					Constraints: splitConstraints(d.Requirement),
					Type:        string(d.Type),
				})
			}
			switch sp.Source.Kind {
			case SourceGit:
				lock.GitSpecs = append(lock.GitSpecs, lockfile.GitGemSpec{
					Name: sp.Name, Version: sp.Version,
					Remote: sp.Source.GitURL, Revision: sp.Source.GitRevision,
					Branch: sp.Source.GitBranch, Tag: sp.Source.GitTag,
					Dependencies: deps,
				})
			case SourcePath, SourceGemspec:
				lock.PathSpecs = append(lock.PathSpecs, lockfile.PathGemSpec{
					Name: sp.Name, Version: sp.Version,
					Remote: sp.Source.PathDir, Dependencies: deps,
				})
			default:
				sourceURL := ""
				if len(sp.Source.Remotes) > 0 {
					sourceURL = sp.Source.Remotes[0]
				}
				lock.GemSpecs = append(lock.GemSpecs, lockfile.GemSpec{
					Name: sp.Name, Version: sp.Version, Platform: sp.Platform,
					SourceURL: sourceURL, Dependencies: deps,
				})
			}
		}
	}

	for _, dep := range state.Dependencies {
		lock.Dependencies = append(lock.Dependencies, lockfile.Dependency{
			Name:        dep.Name,
			Constraints: splitConstraints(dep.Requirement),
			Type:        string(dep.Type),
		})
	}

	return lock
}

func splitConstraints(req string) []string {
	if req == "" {
		return nil
	}
	parts := strings.Split(req, ", ")
	return parts
}

func usesCRLF(content []byte) bool {
	idx := bytes.IndexByte(content, '\n')
	return idx > 0 && content[idx-1] == '\r'
}

func toCRLF(content []byte) []byte {
	normalized := bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	return bytes.ReplaceAll(normalized, []byte("\n"), []byte("\r\n"))
}

var trailerPattern = regexp.MustCompile(`(?ms)^(RUBY VERSION|BUNDLED WITH)\n.*?(\n\n|\z)`)

// stripTrailer removes the two sections that change on every run even
// when nothing a user cares about did (the recorded interpreter and
// bundler versions), so the no-op comparison only looks at gem/source
// content.
func stripTrailer(content []byte) string {
	normalized := bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	return trailerPattern.ReplaceAllString(string(normalized), "")
}
