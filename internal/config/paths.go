package config

import (
	"os"

	"github.com/contriboss/gemfile-go/lockfile"
)

// Config represents the application configuration
type Config struct {
	Gemfile string
}

// DefaultLockfilePath returns the default lockfile path
func DefaultLockfilePath() string {
	// Try to auto-detect Gemfile.lock or gems.locked
	// This respects BUNDLE_GEMFILE if set
	lockPath, err := lockfile.FindLockfileOnly()
	if err == nil {
		return lockPath
	}

	// Fallback to Gemfile.lock for backward compatibility
	return "Gemfile.lock"
}

// DefaultGemfilePath returns the default Gemfile path
// Supports both Gemfile and gems.rb naming conventions
func DefaultGemfilePath(cfg *Config) string {
	if env := os.Getenv("ORE_GEMFILE"); env != "" {
		return env
	}
	if cfg != nil && cfg.Gemfile != "" {
		return cfg.Gemfile
	}

	// Check for gems.rb first (newer Bundler 2.0+ convention)
	if _, err := os.Stat("gems.rb"); err == nil {
		return "gems.rb"
	}

	// Default to Gemfile
	return "Gemfile"
}
