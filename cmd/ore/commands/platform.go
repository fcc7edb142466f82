package commands

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"runtime"

	"github.com/contriboss/gemfile-go/gemfile"
	"github.com/contriboss/gemfile-go/lockfile"
	"github.com/solidify-dev/solidify/internal/config"
	"github.com/solidify-dev/solidify/internal/definition"
	"github.com/solidify-dev/solidify/internal/lockresolve"
	"github.com/solidify-dev/solidify/internal/ruby"
)

// RunPlatform implements the ore platform command. `ore platform add
// <name>`/`ore platform remove <name>` mutate the lockfile's platform
// list through the definition core's Facade instead of the plain
// display path below (spec.md SUPPLEMENTED FEATURES).
func RunPlatform(args []string) error {
	if len(args) > 0 && (args[0] == "add" || args[0] == "remove") {
		return runPlatformMutation(args[0], args[1:])
	}

	fs := flag.NewFlagSet("platform", flag.ContinueOnError)
	gemfilePath := fs.String("gemfile", defaultGemfilePath(), "Path to Gemfile")
	rubyOnly := fs.Bool("ruby", false, "Display only Ruby version requirement")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// Find the lockfile - supports both Gemfile.lock and gems.locked
	lockfilePath, err := findLockfilePath(*gemfilePath)
	if err != nil {
		return fmt.Errorf("failed to find lockfile: %w", err)
	}

	// Get current platform
	currentPlatform := detectCurrentPlatform()

	if *rubyOnly {
		// Just show Ruby requirement from Gemfile
		parser := gemfile.NewGemfileParser(*gemfilePath)
		parsed, err := parser.Parse()
		if err != nil {
			return fmt.Errorf("failed to parse Gemfile: %w", err)
		}

		if parsed.RubyVersion != "" {
			fmt.Println(parsed.RubyVersion)
		}
		return nil
	}

	// Parse Gemfile for Ruby requirement
	var rubyRequirement string
	parser := gemfile.NewGemfileParser(*gemfilePath)
	parsed, err := parser.Parse()
	if err == nil && parsed.RubyVersion != "" {
		rubyRequirement = parsed.RubyVersion
	}

	// Parse lockfile for platforms
	var platforms []string
	if _, err := os.Stat(lockfilePath); err == nil {
		lock, err := lockfile.ParseFile(lockfilePath)
		if err == nil {
			platforms = lock.Platforms
		}
	}

	// Display information
	fmt.Printf("Your platform is: %s\n", currentPlatform)

	if len(platforms) > 0 {
		fmt.Println("\nYour app has gems that work on these platforms:")
		for _, platform := range platforms {
			fmt.Printf("* %s\n", platform)
		}
	}

	if rubyRequirement != "" {
		fmt.Println("\nYour Gemfile specifies a Ruby version requirement:")
		fmt.Printf("* ruby %s\n", rubyRequirement)

		// Check if current Ruby matches
		currentRubyVersion := detectCurrentRubyVersion()
		if currentRubyVersion != "" {
			if currentRubyVersion == rubyRequirement {
				fmt.Println("\nYour current platform satisfies the Ruby version requirement.")
			} else {
				fmt.Printf("\nYour Ruby version is %s, but your Gemfile specified %s\n",
					currentRubyVersion, rubyRequirement)
			}
		}
	} else {
		fmt.Println("\nYour Gemfile does not specify a Ruby version requirement.")
	}

	return nil
}

func detectCurrentPlatform() string {
	// Try to get Ruby platform first
	cmd := exec.Command("ruby", "-e", "puts RUBY_PLATFORM")
	output, err := cmd.Output()
	if err == nil {
		platform := regexp.MustCompile(`\s+`).ReplaceAllString(string(output), "")
		if platform != "" && platform != "ruby" {
			return platform
		}
	}

	// Fallback to Go's runtime detection
	goos := runtime.GOOS
	goarch := runtime.GOARCH

	// Map to Ruby-style platform names
	switch goos {
	case "darwin":
		return goarch + "-darwin"
	case "linux":
		return goarch + "-linux"
	case "windows":
		return goarch + "-mingw32"
	default:
		return goarch + "-" + goos
	}
}

func detectCurrentRubyVersion() string {
	cmd := exec.Command("ruby", "-e", "puts RUBY_VERSION")
	output, err := cmd.Output()
	if err == nil {
		version := regexp.MustCompile(`\s+`).ReplaceAllString(string(output), "")
		return version
	}
	return ""
}

// runPlatformMutation backs `ore platform add <name>` / `ore platform
// remove <name>`, loading the lockfile through the definition core,
// mutating its platform list, and writing it back without forcing a
// full re-resolve.
func runPlatformMutation(verb string, rest []string) error {
	fs := flag.NewFlagSet("platform "+verb, flag.ContinueOnError)
	gemfilePath := fs.String("gemfile", defaultGemfilePath(), "Path to Gemfile")
	if err := fs.Parse(rest); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: ore platform %s <platform>", verb)
	}
	platform := fs.Arg(0)

	lockfilePath, err := findLockfilePath(*gemfilePath)
	if err != nil {
		lockfilePath = *gemfilePath + ".lock"
	}

	manifest, err := definition.LoadManifest(*gemfilePath)
	if err != nil {
		return err
	}
	locked, err := definition.LoadLockedState(lockfilePath)
	if err != nil {
		return err
	}

	ctx := definition.Context{
		Settings:        config.SettingsFromEnv(),
		CurrentPlatform: detectCurrentPlatform(),
		Engine:          ruby.DetectEngine(),
	}
	def := definition.NewDefinition(manifest, locked, definition.UnlockRequest{}, lockresolve.New(), ctx)

	switch verb {
	case "add":
		if !def.AddPlatform(platform) {
			fmt.Printf("%s is already in your lockfile's platform list.\n", platform)
			return nil
		}
	case "remove":
		if err := def.RemovePlatform(platform); err != nil {
			return err
		}
	}

	result, err := def.Lock()
	if err != nil {
		return fmt.Errorf("failed to re-lock after platform %s: %w", verb, err)
	}
	if err := definition.WriteLockfile(result, lockfilePath); err != nil {
		return fmt.Errorf("failed to write lockfile: %w", err)
	}

	verbPast := "added"
	if verb == "remove" {
		verbPast = "removed"
	}
	fmt.Printf("✨ %s platform %s in %s\n", verbPast, platform, lockfilePath)
	return nil
}
