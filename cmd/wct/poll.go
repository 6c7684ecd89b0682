package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/waivern/wct/llm"
)

var pollCmd = &cobra.Command{
	Use:   "poll <run_id>",
	Short: "Check a paused run's pending LLM batch job for results",
	Args:  cobra.ExactArgs(1),
	RunE:  runPoll,
}

func runPoll(cmd *cobra.Command, args []string) error {
	runID := args[0]

	a, err := loadConfig(cmd)
	if err != nil {
		os.Exit(exitConfig)
		return nil
	}

	poller := llm.NewBatchResultPoller(a.backend, a.provider, a.cfg.LLM.Provider, a.cfg.LLM.Model)

	result, err := poller.PollRun(context.Background(), runID)
	if err != nil {
		fmt.Fprintln(os.Stderr, "wct: poll failed:", err)
		os.Exit(exitFailed)
		return nil
	}

	if err := json.NewEncoder(os.Stdout).Encode(result); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	switch {
	case result.Pending > 0:
		os.Exit(exitPending)
	case result.Failed > 0:
		os.Exit(exitFailed)
	default:
		os.Exit(exitSuccess)
	}
	return nil
}
