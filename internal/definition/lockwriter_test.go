package definition

import "testing"

func TestUsesCRLFDetection(t *testing.T) {
	if !usesCRLF([]byte("GEM\r\n  remote: https://rubygems.org/\r\n")) {
		t.Fatal("expected CRLF content to be detected")
	}
	if usesCRLF([]byte("GEM\n  remote: https://rubygems.org/\n")) {
		t.Fatal("did not expect LF content to be detected as CRLF")
	}
}

func TestToCRLFNormalizesLineEndings(t *testing.T) {
	out := toCRLF([]byte("a\nb\r\nc\n"))
	want := "a\r\nb\r\nc\r\n"
	if string(out) != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestStripTrailerIgnoresVersionChurn(t *testing.T) {
	a := "GEM\n  specs:\n    rack (3.0.0)\n\nRUBY VERSION\n   ruby 3.2.0\n\nBUNDLED WITH\n   2.7.1\n"
	b := "GEM\n  specs:\n    rack (3.0.0)\n\nRUBY VERSION\n   ruby 3.4.0\n\nBUNDLED WITH\n   2.7.2\n"
	if stripTrailer([]byte(a)) != stripTrailer([]byte(b)) {
		t.Fatal("expected RUBY VERSION/BUNDLED WITH churn to be ignored by stripTrailer")
	}

	c := "GEM\n  specs:\n    rack (3.1.0)\n\nRUBY VERSION\n   ruby 3.2.0\n\nBUNDLED WITH\n   2.7.1\n"
	if stripTrailer([]byte(a)) == stripTrailer([]byte(c)) {
		t.Fatal("expected a real gem version change to be detected")
	}
}

func TestSplitConstraintsEmpty(t *testing.T) {
	if got := splitConstraints(""); got != nil {
		t.Fatalf("expected nil for an empty requirement, got %v", got)
	}
	got := splitConstraints(">= 1.0, < 2.0")
	if len(got) != 2 || got[0] != ">= 1.0" || got[1] != "< 2.0" {
		t.Fatalf("unexpected split: %v", got)
	}
}
