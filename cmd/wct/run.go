package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/waivern/wct/orchestration"
	"github.com/waivern/wct/orchestration/engine"
	"github.com/waivern/wct/orchestration/engine/inmem"
	"github.com/waivern/wct/orchestration/engine/temporal"
)

var runCmd = &cobra.Command{
	Use:   "run <runbook>",
	Short: "Execute a runbook",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().String("output-dir", "", "directory the json exporter writes results to (default: ./wct-output)")
	runCmd.Flags().String("output", "", "override the run ID used for checkpointing and artifact storage (default: a generated UUID)")
	runCmd.Flags().String("exporter", "json_report", "process.type naming the exporter artifact whose output_dir should default to --output-dir")
	runCmd.Flags().String("resume", "", "resume a previously started run by its run ID instead of starting fresh")
	runCmd.Flags().String("engine", "inmem", "workflow engine driving the run: inmem (default, in-process) or temporal (durable, requires --temporal-host)")
	runCmd.Flags().String("temporal-host", "127.0.0.1:7233", "Temporal frontend address, used when --engine=temporal")
	runCmd.Flags().String("temporal-task-queue", "wct-runs", "Temporal task queue, used when --engine=temporal")
}

func runRun(cmd *cobra.Command, args []string) error {
	runbookPath := args[0]

	a, err := loadConfig(cmd)
	if err != nil {
		os.Exit(exitConfig)
		return nil
	}

	outputDir, _ := cmd.Flags().GetString("output-dir")
	if outputDir == "" {
		outputDir = "./wct-output"
	}
	runID, _ := cmd.Flags().GetString("resume")
	if runID == "" {
		runID, _ = cmd.Flags().GetString("output")
	}
	if runID == "" {
		runID = uuid.NewString()
	}

	exporter, _ := cmd.Flags().GetString("exporter")

	planner := orchestration.NewPlanner(a.loader, a.registry)
	plan, err := planner.Plan(runbookPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "wct: invalid runbook:", err)
		os.Exit(exitConfig)
		return nil
	}
	rb := &plan.Runbook

	injectExportDefaults(rb, exporter, outputDir)

	baseDir := filepath.Dir(runbookPath)
	executor := a.newExecutor(baseDir)

	ctx := context.Background()
	engineName, _ := cmd.Flags().GetString("engine")
	taskQueue, _ := cmd.Flags().GetString("temporal-task-queue")
	eng, closeEngine, err := newRunEngine(cmd, engineName, taskQueue)
	if err != nil {
		fmt.Fprintln(os.Stderr, "wct: configure engine:", err)
		os.Exit(exitConfig)
		return nil
	}
	defer closeEngine()

	if err := orchestration.RegisterRunbookWorkflow(ctx, eng, executor, taskQueue); err != nil {
		fmt.Fprintln(os.Stderr, "wct: register runbook workflow:", err)
		os.Exit(exitFailed)
		return nil
	}

	outcome, err := orchestration.StartRunbookRun(ctx, eng, runID, *rb)
	if err != nil {
		fmt.Fprintln(os.Stderr, "wct: run aborted:", err)
		os.Exit(exitFailed)
		return nil
	}

	result := orchestration.BuildExecutionResult(runID, outcome)
	if err := json.NewEncoder(os.Stdout).Encode(result); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	switch {
	case hasPending(outcome):
		os.Exit(exitPending)
	case hasFailure(outcome):
		os.Exit(exitFailed)
	default:
		os.Exit(exitSuccess)
	}
	return nil
}

// newRunEngine constructs the engine.Engine backing a run: "inmem" (default,
// no external dependency) or "temporal" (durable execution against a real
// Temporal frontend at --temporal-host). The returned close func releases
// any resources the engine opened and must always be called.
func newRunEngine(cmd *cobra.Command, name, taskQueue string) (engine.Engine, func(), error) {
	switch name {
	case "", "inmem":
		return inmem.New(), func() {}, nil

	case "temporal":
		host, _ := cmd.Flags().GetString("temporal-host")
		eng, err := temporal.New(temporal.Options{
			ClientOptions: temporalclient.Options{HostPort: host},
			TaskQueue:     taskQueue,
		})
		if err != nil {
			return nil, func() {}, err
		}
		return eng, eng.Close, nil

	default:
		return nil, func() {}, fmt.Errorf("unsupported engine %q (want inmem or temporal)", name)
	}
}

// injectExportDefaults points every process artifact registered under
// exporterName's output_dir property at outputDir, unless the runbook
// already set one.
func injectExportDefaults(rb *orchestration.Runbook, exporterName, outputDir string) {
	for id, artifact := range rb.Artifacts {
		if artifact.Process == nil || artifact.Process.Type != exporterName {
			continue
		}
		if artifact.Process.Properties == nil {
			artifact.Process.Properties = map[string]any{}
		}
		if _, ok := artifact.Process.Properties["output_dir"]; !ok {
			artifact.Process.Properties["output_dir"] = outputDir
		}
		rb.Artifacts[id] = artifact
	}
}

func hasPending(outcome *orchestration.RunOutcome) bool {
	for _, o := range outcome.Outcomes {
		if o.Kind == orchestration.OutcomePending {
			return true
		}
	}
	return false
}

func hasFailure(outcome *orchestration.RunOutcome) bool {
	for _, o := range outcome.Outcomes {
		if o.Kind == orchestration.OutcomeFailed {
			return true
		}
	}
	return false
}
