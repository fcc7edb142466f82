package main

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/contriboss/gemfile-go/gemfile"
)

// TestSimpleGemfileParsing verifies we can parse a Gemfile using the shared gemfile-go module.
// This mirrors the parsing logic used in the original ore_reference codebase.
func TestSimpleGemfileParsing(t *testing.T) {
	_, thisFile, _, _ := runtime.Caller(0)
	fixtureDir := filepath.Join(filepath.Dir(thisFile), "..", "..", "testdata", "simple_app")
	gemfilePath := filepath.Join(fixtureDir, "Gemfile")

	parser := gemfile.NewGemfileParser(gemfilePath)
	parsed, err := parser.Parse()
	if err != nil {
		t.Fatalf("failed to parse Gemfile fixture: %v", err)
	}

	if len(parsed.Dependencies) != 3 {
		t.Fatalf("expected 3 dependencies, got %d", len(parsed.Dependencies))
	}

	var (
		foundRake     bool
		foundRack     bool
		foundMinitest bool
	)

	for _, dep := range parsed.Dependencies {
		switch dep.Name {
		case "rake":
			foundRake = true
		case "rack":
			foundRack = true
			if len(dep.Constraints) != 1 || dep.Constraints[0] != "~> 3.0" {
				t.Fatalf("expected rack constraint \"~> 3.0\", got %v", dep.Constraints)
			}
		case "minitest":
			foundMinitest = true
		}
	}

	if !foundRake {
		t.Fatalf("expected to find rake dependency in parsed Gemfile")
	}

	if !foundRack {
		t.Fatalf("expected to find rack dependency in parsed Gemfile")
	}

	if !foundMinitest {
		t.Fatalf("expected to find minitest dependency in parsed Gemfile")
	}
}

func TestVersionInfo(t *testing.T) {
	info := versionInfo()
	if !strings.Contains(info, "ore version") {
		t.Fatalf("expected version info string, got %q", info)
	}
	if !strings.Contains(info, version) {
		t.Fatalf("expected version string %q in info %q", version, info)
	}
}

func TestConfigOverrides(t *testing.T) {
	origCfg := appConfig
	appConfig = &Config{Gemfile: "/tmp/CustomGemfile"}
	t.Cleanup(func() { appConfig = origCfg })

	value, present := os.LookupEnv("ORE_GEMFILE")
	t.Cleanup(func() {
		if present {
			_ = os.Setenv("ORE_GEMFILE", value)
		} else {
			_ = os.Unsetenv("ORE_GEMFILE")
		}
	})
	_ = os.Unsetenv("ORE_GEMFILE")

	if gemfile := defaultGemfilePath(); gemfile != "/tmp/CustomGemfile" {
		t.Fatalf("expected gemfile from config, got %s", gemfile)
	}
}

func TestRunLockCommandMissingGemfile(t *testing.T) {
	tmp := t.TempDir()
	missing := filepath.Join(tmp, "Gemfile")

	err := runLockCommand([]string{"--gemfile", missing})
	if err == nil || !strings.Contains(err.Error(), "Gemfile not found") {
		t.Fatalf("expected missing Gemfile error, got %v", err)
	}
}
