package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/waivern/wct/orchestration"
)

func TestInjectExportDefaultsSetsOutputDirOnMatchingArtifact(t *testing.T) {
	rb := &orchestration.Runbook{
		Artifacts: map[string]orchestration.ArtifactDefinition{
			"report": {Process: &orchestration.ProcessConfig{Type: "json_report"}},
			"scan":   {Source: &orchestration.SourceConfig{Type: "filesystem"}},
		},
	}

	injectExportDefaults(rb, "json_report", "/tmp/out")

	assert.Equal(t, "/tmp/out", rb.Artifacts["report"].Process.Properties["output_dir"])
	assert.Nil(t, rb.Artifacts["scan"].Source.Properties)
}

func TestInjectExportDefaultsDoesNotOverrideExplicitOutputDir(t *testing.T) {
	rb := &orchestration.Runbook{
		Artifacts: map[string]orchestration.ArtifactDefinition{
			"report": {Process: &orchestration.ProcessConfig{
				Type:       "json_report",
				Properties: map[string]any{"output_dir": "/already/set"},
			}},
		},
	}

	injectExportDefaults(rb, "json_report", "/tmp/out")

	assert.Equal(t, "/already/set", rb.Artifacts["report"].Process.Properties["output_dir"])
}

func TestInjectExportDefaultsIgnoresOtherProcessTypes(t *testing.T) {
	rb := &orchestration.Runbook{
		Artifacts: map[string]orchestration.ArtifactDefinition{
			"detect": {Process: &orchestration.ProcessConfig{Type: "detection"}},
		},
	}

	injectExportDefaults(rb, "json_report", "/tmp/out")

	assert.Nil(t, rb.Artifacts["detect"].Process.Properties)
}

func TestHasPendingAndHasFailure(t *testing.T) {
	pending := &orchestration.RunOutcome{Outcomes: map[string]orchestration.ArtifactOutcome{
		"a": orchestration.PendingOutcome(nil),
	}}
	assert.True(t, hasPending(pending))
	assert.False(t, hasFailure(pending))

	failed := &orchestration.RunOutcome{Outcomes: map[string]orchestration.ArtifactOutcome{
		"a": orchestration.FailedOutcome(assert.AnError),
	}}
	assert.True(t, hasFailure(failed))
	assert.False(t, hasPending(failed))

	completed := &orchestration.RunOutcome{Outcomes: map[string]orchestration.ArtifactOutcome{
		"a": orchestration.CompletedOutcome(nil),
	}}
	assert.False(t, hasPending(completed))
	assert.False(t, hasFailure(completed))
}
