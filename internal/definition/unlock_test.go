package definition

import "testing"

func TestNewUnlockRequestAll(t *testing.T) {
	req := NewUnlockRequest(RawUnlock{All: true}, "3.2.0", "3.1.0")
	if !req.All || !req.Unlocking() {
		t.Fatalf("expected All unlock to be recognized as unlocking")
	}
}

func TestNewUnlockRequestRubyDiff(t *testing.T) {
	req := NewUnlockRequest(RawUnlock{}, "3.2.0", "3.1.0")
	if req.Ruby.Forced {
		t.Fatalf("expected Forced false when ruby unlock wasn't requested")
	}
	if req.Ruby.Diff == nil {
		t.Fatalf("expected a ruby version diff when declared != locked")
	}
	if req.Ruby.Diff.Declared != "3.2.0" || req.Ruby.Diff.Locked != "3.1.0" {
		t.Fatalf("unexpected diff contents: %+v", req.Ruby.Diff)
	}
	if !req.Ruby.Any() || !req.Unlocking() {
		t.Fatalf("a ruby version diff alone should count as unlocking")
	}
}

func TestNewUnlockRequestNoRubyDiffWhenEqual(t *testing.T) {
	req := NewUnlockRequest(RawUnlock{}, "3.2.0", "3.2.0")
	if req.Ruby.Diff != nil {
		t.Fatalf("expected no diff when versions match, got %+v", req.Ruby.Diff)
	}
	if req.Unlocking() {
		t.Fatalf("expected no unlock when nothing was requested and versions match")
	}
}

func TestUnlockRequestBundlerPin(t *testing.T) {
	req := NewUnlockRequest(RawUnlock{Bundler: "2.7.2"}, "", "")
	if !req.UnlockingBundler() {
		t.Fatalf("expected UnlockingBundler to report true when Bundler is set")
	}
	if !req.Unlocking() {
		t.Fatalf("expected Unlocking to be true when pinning bundler")
	}
}

func TestUnlockRequestGemsAndConservativeTriggerUnlocking(t *testing.T) {
	req := NewUnlockRequest(RawUnlock{Gems: []string{"rack"}}, "", "")
	if !req.Unlocking() {
		t.Fatalf("expected named gem unlock to be recognized")
	}
	req2 := NewUnlockRequest(RawUnlock{Conservative: true}, "", "")
	if !req2.Unlocking() {
		t.Fatalf("expected conservative mode to be recognized as unlocking")
	}
}
