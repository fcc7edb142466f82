package definition

// RubyUnlock represents whether (and how) the ruby directive is being
// unlocked. Open Question #1 in spec.md §9 notes the original's
// `@unlock[:ruby] ||= (!@locked_ruby_version ^ !@ruby_version)` conflates
// "unlocked" with "the diff value" in one boolean-or-tuple field; we
// keep them distinct instead: Forced is the explicit user request,
// Diff is populated only when both versions are present and differ.
type RubyUnlock struct {
	Forced bool
	Diff   *RubyVersionDiff
}

// RubyVersionDiff records that the declared and locked ruby versions
// differed, without needing a union-typed field to express it.
type RubyVersionDiff struct {
	Declared string
	Locked   string
}

// Any reports whether ruby participates in this unlock at all (forced
// or because the versions actually differ).
func (r RubyUnlock) Any() bool {
	return r.Forced || r.Diff != nil
}

// UnlockRequest classifies what the user asked to update, per spec.md
// §3/§4.8.
type UnlockRequest struct {
	Gems         []string
	Sources      []string
	Ruby         RubyUnlock
	Bundler      string // target bundler version, "" if not unlocking bundler
	Conservative bool
	All          bool // sentinel: unlock everything; locked specs, sources and dependencies discarded
}

// RawUnlock mirrors the raw shapes callers may pass in: a bool `true`
// for "unlock everything", a bool `false`/nil for "no unlocking", or a
// structured request.
type RawUnlock struct {
	All          bool
	Gems         []string
	Sources      []string
	Ruby         bool
	Bundler      string
	Conservative bool
}

// NewUnlockRequest builds an UnlockRequest from raw user input plus the
// declared/locked ruby versions needed to resolve the ruby-diff rule.
func NewUnlockRequest(raw RawUnlock, declaredRuby, lockedRuby string) UnlockRequest {
	if raw.All {
		return UnlockRequest{All: true}
	}

	req := UnlockRequest{
		Gems:         append([]string(nil), raw.Gems...),
		Sources:      append([]string(nil), raw.Sources...),
		Bundler:      raw.Bundler,
		Conservative: raw.Conservative,
	}

	diff := rubyDiff(declaredRuby, lockedRuby)
	req.Ruby = RubyUnlock{Forced: raw.Ruby, Diff: diff}

	return req
}

func rubyDiff(declared, locked string) *RubyVersionDiff {
	if declared == "" && locked == "" {
		return nil
	}
	if declared == locked {
		return nil
	}
	return &RubyVersionDiff{Declared: declared, Locked: locked}
}

// Unlocking reports whether any explicit unlock was requested (used by
// invariant 4 in spec.md §8: unlocking bypasses the no-op fast path
// even when nothing else changed).
func (u UnlockRequest) Unlocking() bool {
	if u.All {
		return true
	}
	return len(u.Gems) > 0 || len(u.Sources) > 0 || u.Ruby.Any() || u.Bundler != "" || u.Conservative
}

// UnlockingBundler reports whether bundler itself is being pinned to a
// new version.
func (u UnlockRequest) UnlockingBundler() bool {
	return u.Bundler != ""
}
