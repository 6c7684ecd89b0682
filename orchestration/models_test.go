package orchestration_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waivern/wct/orchestration"
)

func TestArtifactDefinitionRequiresSourceXorInputs(t *testing.T) {
	neither := orchestration.ArtifactDefinition{}
	assert.Error(t, neither.Validate())

	both := orchestration.ArtifactDefinition{
		Source: &orchestration.SourceConfig{Type: "filesystem"},
		Inputs: orchestration.StringOrList{"other"},
	}
	assert.Error(t, both.Validate())

	onlySource := orchestration.ArtifactDefinition{Source: &orchestration.SourceConfig{Type: "filesystem"}}
	assert.NoError(t, onlySource.Validate())
}

func TestArtifactDefinitionChildRunbookRequiresInputsNotProcess(t *testing.T) {
	withProcess := orchestration.ArtifactDefinition{
		Inputs:       orchestration.StringOrList{"A"},
		Process:      &orchestration.ProcessConfig{Type: "analyser"},
		ChildRunbook: &orchestration.ChildRunbookConfig{Path: "child.yaml", InputMapping: map[string]string{"x": "A"}, Output: "out"},
	}
	assert.Error(t, withProcess.Validate())

	valid := orchestration.ArtifactDefinition{
		Inputs:       orchestration.StringOrList{"A"},
		ChildRunbook: &orchestration.ChildRunbookConfig{Path: "child.yaml", InputMapping: map[string]string{"x": "A"}, Output: "out"},
	}
	assert.NoError(t, valid.Validate())
}

func TestChildRunbookConfigRequiresExactlyOneOutputShape(t *testing.T) {
	neither := orchestration.ChildRunbookConfig{Path: "c.yaml", InputMapping: map[string]string{"x": "A"}}
	assert.Error(t, neither.Validate())

	both := orchestration.ChildRunbookConfig{
		Path: "c.yaml", InputMapping: map[string]string{"x": "A"},
		Output: "out", OutputMapping: map[string]string{"a": "b"},
	}
	assert.Error(t, both.Validate())

	onlyOutput := orchestration.ChildRunbookConfig{Path: "c.yaml", InputMapping: map[string]string{"x": "A"}, Output: "out"}
	assert.NoError(t, onlyOutput.Validate())
}

func TestRunbookInputDeclarationDefaultRequiresOptional(t *testing.T) {
	invalid := orchestration.RunbookInputDeclaration{InputSchema: "s/1.0.0", Default: "x", Optional: false}
	assert.Error(t, invalid.Validate())

	valid := orchestration.RunbookInputDeclaration{InputSchema: "s/1.0.0", Default: "x", Optional: true}
	assert.NoError(t, valid.Validate())
}

func TestRunbookValidateRejectsSourceWithInputsDeclared(t *testing.T) {
	rb := orchestration.Runbook{
		Name: "child", Description: "d",
		Inputs: map[string]orchestration.RunbookInputDeclaration{
			"standard_input": {InputSchema: "standard_input/1.0.0"},
		},
		Artifacts: map[string]orchestration.ArtifactDefinition{
			"bad": {Source: &orchestration.SourceConfig{Type: "filesystem"}},
		},
	}
	assert.Error(t, rb.Validate())
}

func TestRunbookValidateRejectsDanglingOutputReference(t *testing.T) {
	rb := orchestration.Runbook{
		Name: "r", Description: "d",
		Outputs: map[string]orchestration.RunbookOutputDeclaration{
			"result": {Artifact: "missing"},
		},
		Artifacts: map[string]orchestration.ArtifactDefinition{
			"A": {Source: &orchestration.SourceConfig{Type: "filesystem"}},
		},
	}
	require.Error(t, rb.Validate())
}

func TestRunbookValidateAcceptsWellFormedRunbook(t *testing.T) {
	rb := orchestration.Runbook{
		Name: "r", Description: "d",
		Config: orchestration.DefaultRunbookConfig(),
		Outputs: map[string]orchestration.RunbookOutputDeclaration{
			"result": {Artifact: "A"},
		},
		Artifacts: map[string]orchestration.ArtifactDefinition{
			"A": {Source: &orchestration.SourceConfig{Type: "filesystem"}, Output: true},
		},
	}
	assert.NoError(t, rb.Validate())
}
