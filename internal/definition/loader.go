package definition

import (
	"os"

	"github.com/contriboss/gemfile-go/gemfile"
	"github.com/contriboss/gemfile-go/lockfile"
)

// LoadManifest parses a Gemfile into a Manifest, the entry point CLI
// commands use instead of touching gemfile-go's parser directly.
func LoadManifest(gemfilePath string) (*Manifest, error) {
	parser := gemfile.NewGemfileParser(gemfilePath)
	parsed, err := parser.Parse()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewGemfileNotFoundError(gemfilePath)
		}
		return nil, NewLockfileError("parsing Gemfile: " + err.Error())
	}
	return ManifestFromParsed(parsed.Dependencies, parsed.RubyVersion), nil
}

// LoadLockedState parses an existing lockfile, or returns a fresh empty
// state if the path doesn't exist (a first `ore lock` run).
func LoadLockedState(lockfilePath string) (*LockedState, error) {
	if _, err := os.Stat(lockfilePath); err != nil {
		return NewLockedState(), nil
	}
	lock, err := lockfile.ParseFile(lockfilePath)
	if err != nil {
		return nil, NewLockfileError("parsing lockfile: " + err.Error())
	}
	return LockedStateFromFile(lock), nil
}
