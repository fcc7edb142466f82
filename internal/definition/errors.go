package definition

import "fmt"

// BundlerError is the marker interface every error produced by this
// package satisfies, mirroring spec.md §6's error surface.
type BundlerError interface {
	error
	bundlerError()
}

type baseError struct{ msg string }

func (e *baseError) Error() string  { return e.msg }
func (e *baseError) bundlerError()  {}

// GemfileNotFoundError is raised when the manifest file is missing.
type GemfileNotFoundError struct{ baseError }

func NewGemfileNotFoundError(path string) *GemfileNotFoundError {
	return &GemfileNotFoundError{baseError{fmt.Sprintf("could not locate Gemfile at %q", path)}}
}

// GemNotFoundError distinguishes a yanked version from a name unknown
// to any source (spec.md §7, "Materialization-gap").
type GemNotFoundError struct {
	baseError
	Name    string
	Version string
	Yanked  bool
}

func NewGemNotFoundYanked(name, version string) *GemNotFoundError {
	return &GemNotFoundError{
		baseError: baseError{fmt.Sprintf("the author of %s (%s) has removed it", name, version)},
		Name:      name, Version: version, Yanked: true,
	}
}

func NewGemNotFoundUnknown(names []string) *GemNotFoundError {
	msg := "could not find compatible versions for: " + joinConstraints(names)
	return &GemNotFoundError{baseError: baseError{msg}, Name: joinConstraints(names)}
}

// LockfileError wraps failures reading or writing the lockfile.
type LockfileError struct{ baseError }

func NewLockfileError(msg string) *LockfileError { return &LockfileError{baseError{msg}} }

// RubyVersionMismatchError carries the structured subfields spec.md §7
// requires; Patchlevel must be a string (fed, never a bare int), or
// constructing the error itself is an error.
type RubyVersionMismatchError struct {
	baseError
	Engine        string
	Version       string
	EngineVersion string
	Patchlevel    string
}

func NewRubyVersionMismatchError(engine, version, engineVersion, patchlevel string) *RubyVersionMismatchError {
	return &RubyVersionMismatchError{
		baseError:     baseError{fmt.Sprintf("your Ruby version is %s, but your lockfile requires %s %s", version, engine, engineVersion)},
		Engine:        engine,
		Version:       version,
		EngineVersion: engineVersion,
		Patchlevel:    patchlevel,
	}
}

// ProductionError is raised under frozen mode when the gemfile and
// lockfile have diverged; it carries a structured diff.
type ProductionError struct {
	baseError
	Diff FrozenDiff
}

// FrozenDiff enumerates the structured changes that would be needed to
// reconcile the gemfile and lockfile, per spec.md §5 / §8 (S5).
type FrozenDiff struct {
	Added            []string
	Deleted          []string
	Changed          []string
	PlatformsAdded   []string
	PlatformsRemoved []string
	SourceMigrations []string
}

func (d FrozenDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Deleted) == 0 && len(d.Changed) == 0 &&
		len(d.PlatformsAdded) == 0 && len(d.PlatformsRemoved) == 0 && len(d.SourceMigrations) == 0
}

func NewProductionError(diff FrozenDiff) *ProductionError {
	msg := "The Gemfile lock is frozen and cannot be updated:\n"
	for _, a := range diff.Added {
		msg += fmt.Sprintf("  * %s added to the Gemfile\n", a)
	}
	for _, d := range diff.Deleted {
		msg += fmt.Sprintf("  * %s deleted from the Gemfile\n", d)
	}
	for _, c := range diff.Changed {
		msg += fmt.Sprintf("  * %s changed\n", c)
	}
	return &ProductionError{baseError: baseError{msg}, Diff: diff}
}

// InvalidOptionError is raised by option-validation paths like
// RemovePlatform on an absent platform.
type InvalidOptionError struct{ baseError }

func NewInvalidOptionError(msg string) *InvalidOptionError { return &InvalidOptionError{baseError{msg}} }

// AmbiguousSourceError is raised by SourceMap when two explicit
// declarations disagree about a package's source.
type AmbiguousSourceError struct{ baseError }

func NewAmbiguousSourceError(name string) *AmbiguousSourceError {
	return &AmbiguousSourceError{baseError{fmt.Sprintf("the source for %q is ambiguous between multiple declared sources", name)}}
}

// ErrNoProgress is raised by the resolver driver's incomplete-specs
// loop when two successive iterations produce the same incomplete set
// (spec.md §4.6, "Termination").
type ErrNoProgress struct{ baseError }

func NewErrNoProgress(names []string) *ErrNoProgress {
	return &ErrNoProgress{baseError{"could not find a version that satisfies all requirements for: " + joinConstraints(names)}}
}
