// Command wct runs compliance-analysis runbooks: scanning data sources,
// matching them against detection/classification rulesets, and exporting
// findings, driven by orchestration.DAGExecutor.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/waivern/wct/config"
)

// Exit codes, per the runbook execution contract: 0 every artifact
// completed, 1 at least one artifact failed, 2 the run is paused on a
// pending LLM batch job, 3 a configuration error prevented the run from
// starting at all.
const (
	exitSuccess = 0
	exitFailed  = 1
	exitPending = 2
	exitConfig  = 3
)

var rootCmd = &cobra.Command{
	Use:   "wct",
	Short: "Waivern Compliance Tool",
	Long: `wct runs compliance-analysis runbooks against data sources, matching
scanned content against detection and classification rulesets and
exporting the resulting findings.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Named with a dot, not a dash, so viper.BindPFlags (which keys bindings
	// by the flag's literal name) lines up with config.Load's "log.level".
	rootCmd.PersistentFlags().String("log.level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(runCmd, pollCmd, runsCmd, validateRunbookCmd, lsConnectorsCmd, lsProcessorsCmd, lsExportersCmd, lsRulesetsCmd)
}

// loadConfig resolves process configuration and constructs the app wiring
// used by every subcommand. Any error returned here is a configuration
// error (exit code 3).
func loadConfig(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return newApp(cfg)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "wct:", err)
		os.Exit(exitConfig)
	}
}
