package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/waivern/wct/orchestration"
)

var validateRunbookCmd = &cobra.Command{
	Use:   "validate-runbook <runbook>",
	Short: "Parse and validate a runbook without executing it",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidateRunbook,
}

func init() {
	validateRunbookCmd.Flags().Bool("watch", false, "keep running and re-validate the runbook on every save")
}

func runValidateRunbook(cmd *cobra.Command, args []string) error {
	path := args[0]

	a, err := loadConfig(cmd)
	if err != nil {
		os.Exit(exitConfig)
		return nil
	}

	watch, _ := cmd.Flags().GetBool("watch")
	ok := validateOnce(a, path)
	if !watch {
		if !ok {
			os.Exit(exitFailed)
		}
		return nil
	}

	return watchRunbook(a, path)
}

// validateOnce plans path, printing the result. Planning subsumes
// loader.LoadFile's structural validation with dependency-graph and
// schema-compatibility checks, so a runbook that passes here is also
// guaranteed runnable as far as its wiring goes. It reports whether the
// runbook was valid.
func validateOnce(a *app, path string) bool {
	planner := orchestration.NewPlanner(a.loader, a.registry)
	plan, err := planner.Plan(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "wct: invalid runbook:", err)
		return false
	}
	fmt.Fprintf(os.Stdout, "runbook %q is valid: %d artifact(s)\n", plan.Runbook.Name, len(plan.Runbook.Artifacts))
	return true
}

// watchRunbook re-validates path on every save. It watches the containing
// directory, not the file itself, so editors that save via rename (write a
// temp file, then rename over the original) still trigger a re-validation.
// Runs until interrupted or the watcher closes.
func watchRunbook(a *app, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	target := filepath.Clean(path)
	fmt.Fprintf(os.Stdout, "watching %s for changes (ctrl-c to stop)\n", path)

	var lastEvent time.Time
	const debounce = 200 * time.Millisecond

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if since := time.Since(lastEvent); since < debounce {
				continue
			}
			lastEvent = time.Now()
			validateOnce(a, path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintln(os.Stderr, "wct: watch error:", err)
		}
	}
}
