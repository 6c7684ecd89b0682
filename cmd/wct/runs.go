package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/waivern/wct/orchestration"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List known runs and their status",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().String("status", "", "filter by status (completed, failed, pending)")
}

func runRuns(cmd *cobra.Command, args []string) error {
	a, err := loadConfig(cmd)
	if err != nil {
		os.Exit(exitConfig)
		return nil
	}

	statusFilter, _ := cmd.Flags().GetString("status")

	runs, err := orchestration.ListRuns(context.Background(), a.backend, statusFilter)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	return json.NewEncoder(os.Stdout).Encode(runs)
}
