package commands

import (
	"flag"
	"fmt"

	"github.com/solidify-dev/solidify/internal/config"
	"github.com/solidify-dev/solidify/internal/definition"
	"github.com/solidify-dev/solidify/internal/lockresolve"
	"github.com/solidify-dev/solidify/internal/ruby"
)

// RunUpdate implements the ore update command: a thin CLI layer over
// the definition core's selective-unlock resolution (spec.md §4.8 /
// SUPPLEMENTED FEATURES). Naming specific gems on the command line
// unlocks only those names and their transitive closure; with no names
// (and no `--conservative`) every gem is unlocked, as with `--all`;
// `--all` discards the locked specs, sources and dependencies, keeping
// only the locked platforms and versions; `--conservative` unlocks declared
// dependencies but tries to keep their transitive deps as pinned as
// the solver allows.
func RunUpdate(args []string) error {
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	gemfilePath := fs.String("gemfile", defaultGemfilePath(), "Path to Gemfile")
	verbose := fs.Bool("v", false, "Enable verbose output")
	all := fs.Bool("all", false, "Unlock every gem, discarding the current lockfile's specs")
	conservative := fs.Bool("conservative", false, "Attempt to resolve only the specified gems, minimizing other changes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	gems := fs.Args()

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

	raw := definition.RawUnlock{All: *all || (len(gems) == 0 && !*conservative), Gems: gems, Conservative: *conservative}
	unlock := definition.NewUnlockRequest(raw, manifest.RubyVersion, locked.RubyVersion)

	ctx := definition.Context{
		Settings:        config.SettingsFromEnv(),
		CurrentPlatform: detectCurrentPlatform(),
		Engine:          ruby.DetectEngine(),
		UI:              cliUI{verbose: *verbose},
	}

	def := definition.NewDefinition(manifest, locked, unlock, lockresolve.New(), ctx)

	if *verbose {
		if len(gems) == 0 && !*all {
			fmt.Println("🔄 Updating all gems...")
		} else if *all {
			fmt.Println("🔄 Unlocking every gem and re-resolving from scratch...")
		} else {
			fmt.Printf("🔄 Updating gems: %v\n", gems)
		}
	}

	result, err := def.Lock()
	if err != nil {
		return fmt.Errorf("failed to update lockfile: %w", err)
	}
	if err := definition.WriteLockfile(result, lockfilePath); err != nil {
		return fmt.Errorf("failed to write lockfile: %w", err)
	}

	fmt.Printf("✨ Updated %s\n", lockfilePath)
	fmt.Println("💡 Run `ore install` to fetch the updated gems.")
	return nil
}

// cliUI adapts the definition core's UI sink to plain stdout, the way
// the rest of the CLI already prints status lines directly rather than
// going through internal/logger for user-facing command output.
type cliUI struct{ verbose bool }

func (u cliUI) Info(msg string, args ...any) {
	fmt.Printf(msg+"\n", args...)
}

func (u cliUI) Debug(msg string, args ...any) {
	if u.verbose {
		fmt.Printf(msg+"\n", args...)
	}
}

func (u cliUI) Warn(msg string, args ...any) {
	fmt.Printf("⚠ "+msg+"\n", args...)
}
