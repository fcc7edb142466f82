package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/solidify-dev/solidify/cmd/ore/commands"
	"github.com/solidify-dev/solidify/internal/config"
	"github.com/solidify-dev/solidify/internal/definition"
	"github.com/solidify-dev/solidify/internal/lockresolve"
	"github.com/solidify-dev/solidify/internal/ruby"
)

var (
	version     = "0.2.0"
	buildCommit = "unknown"
)

func main() {
	// Ruby developers: This is like parsing ARGV in a Ruby CLI script
	// Go requires explicit length checks - no implicit nil handling like Ruby's ARGV[0]
	if len(os.Args) < 2 {
		printHelp()
		return
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	// This is like Ruby's case/when, but switch in Go doesn't fall through by default!
	switch cmd {
	case "--help", "-h", "help":
		printHelp()
	case "--version", "-V", "-v", "version":
		printVersion()
	case "add":
		if err := commands.RunAdd(args); err != nil {
			exitWithError(err)
		}
	case "remove":
		if err := commands.RunRemove(args); err != nil {
			exitWithError(err)
		}
	case "update":
		if err := commands.RunUpdate(args); err != nil {
			exitWithError(err)
		}
	case "check":
		if err := commands.RunCheck(args); err != nil {
			exitWithError(err)
		}
	case "lock":
		if err := runLockCommand(args); err != nil {
			exitWithError(err)
		}
	case "platform":
		if err := commands.RunPlatform(args); err != nil {
			exitWithError(err)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", cmd)
		printHelp()
		os.Exit(1)
	}
}

// runLockCommand implements `ore lock`: converge the Gemfile against
// Gemfile.lock, resolve whatever that convergence leaves outstanding, and
// rewrite the lockfile. Everything downstream of parsing lives in
// internal/definition; this is just flag plumbing.
func runLockCommand(args []string) error {
	fs := flag.NewFlagSet("lock", flag.ContinueOnError)
	gemfilePath := fs.String("gemfile", defaultGemfilePath(), "Path to Gemfile")
	verbose := fs.Bool("v", false, "Enable verbose output")
	frozen := fs.Bool("frozen", false, "Fail instead of re-resolving if the Gemfile and lockfile have diverged")
	conservative := fs.Bool("conservative", false, "When updating, try to minimize changes to already-locked versions")
	updateGems := fs.Bool("update", false, "Re-resolve, unlocking every currently locked gem")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := os.Stat(*gemfilePath); err != nil {
		return fmt.Errorf("Gemfile not found at %s", *gemfilePath)
	}

	if *verbose {
		fmt.Printf("🔒 Resolving dependencies from %s…\n", *gemfilePath)
	}

	lockfilePath := *gemfilePath + ".lock"

	manifest, err := definition.LoadManifest(*gemfilePath)
	if err != nil {
		return err
	}
	locked, err := definition.LoadLockedState(lockfilePath)
	if err != nil {
		return err
	}

	settings := config.SettingsFromEnv()
	settings.Frozen = settings.Frozen || *frozen

	unlock := definition.NewUnlockRequest(definition.RawUnlock{
		All:          *updateGems,
		Conservative: *conservative,
	}, manifest.RubyVersion, locked.RubyVersion)

	ctx := definition.Context{
		Settings:        settings,
		CurrentPlatform: detectLockPlatform(),
		Engine:          ruby.DetectEngine(),
	}

	def := definition.NewDefinition(manifest, locked, unlock, lockresolve.New(), ctx)
	result, err := def.Lock()
	if err != nil {
		return fmt.Errorf("failed to generate lockfile: %w", err)
	}

	if err := definition.WriteLockfile(result, lockfilePath); err != nil {
		return fmt.Errorf("failed to write lockfile: %w", err)
	}

	if *verbose {
		fmt.Printf("✅ Updated %s\n", lockfilePath)
	} else {
		fmt.Printf("✨ Wrote %s\n", lockfilePath)
	}

	return nil
}

func detectLockPlatform() string {
	cmd := exec.Command("ruby", "-e", "puts RUBY_PLATFORM")
	output, err := cmd.Output()
	if err == nil {
		platform := strings.TrimSpace(string(output))
		if platform != "" && platform != "ruby" {
			return platform
		}
	}
	return runtime.GOARCH + "-" + runtime.GOOS
}

func printHelp() {
	fmt.Print(`ore

Usage: ore [OPTIONS] [COMMAND]

Options:
  -V, --version    Print version info and exit
  -h, --help       Print help

Commands:
    add           Add gems to Gemfile
    remove        Remove gems from Gemfile
    update        Update gems to their latest versions within constraints
    lock          Regenerate Gemfile.lock from Gemfile
    check         Verify the Gemfile and Gemfile.lock are in sync
    platform      Add or remove a platform from the lockfile

See 'ore <command> --help' for more information on a specific command.
`)
}

func printVersion() {
	fmt.Println(versionInfo())
	fmt.Println("Ruby gem manager written in Go")
}

func versionInfo() string {
	hash := shortHash(buildCommit)
	return fmt.Sprintf("ore version %s (%s)", version, hash)
}

func shortHash(commit string) string {
	if commit == "" || commit == "unknown" {
		return "unknown"
	}
	if len(commit) > 7 {
		return commit[:7]
	}
	return commit
}

func exitWithError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func defaultGemfilePath() string {
	return config.DefaultGemfilePath(configAdapter(appConfig))
}

// configAdapter converts main.Config to internal/config.Config
func configAdapter(c *Config) *config.Config {
	if c == nil {
		return nil
	}
	return &config.Config{Gemfile: c.Gemfile}
}
