package components_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waivern/wct/components"
	"github.com/waivern/wct/message"
	"github.com/waivern/wct/ruleset"
)

func writeDetectionRuleset(t *testing.T, dir, name, version, yamlContent string) {
	t.Helper()
	rsDir := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(rsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(rsDir, version+".yaml"), []byte(yamlContent), 0o644))
}

func scanMessage(t *testing.T, scan components.FilesystemScan) *message.Message {
	t.Helper()
	msg, err := message.New(components.FilesystemSchema, scan)
	require.NoError(t, err)
	return msg
}

func TestDetectionAnalyserEmitsFindingPerMatchingRule(t *testing.T) {
	dir := t.TempDir()
	writeDetectionRuleset(t, dir, "pii", "1.0.0", `
name: pii
version: 1.0.0
rules:
  - name: email
    risk_level: high
    regulations: ["GDPR"]
    patterns: ["email address"]
`)

	a := components.NewDetectionAnalyser(ruleset.NewLoader(dir))
	scan := components.FilesystemScan{Root: "/x", Files: []components.FilesystemFile{
		{Path: "a.txt", Content: "please provide your email address for contact"},
		{Path: "b.txt", Content: "nothing sensitive here"},
	}}

	msg, err := a.Analyse(context.Background(), []*message.Message{scanMessage(t, scan)}, map[string]any{"ruleset": "local/pii/1.0.0"})
	require.NoError(t, err)

	var out components.DetectionOutput
	require.NoError(t, msg.Decode(&out))
	require.Len(t, out.Findings, 1)
	assert.Equal(t, "a.txt", out.Findings[0].Metadata.Source)
	assert.Equal(t, "high", string(out.Findings[0].RiskLevel))
	require.Len(t, out.Findings[0].Evidence, 1)
	assert.Equal(t, "local/pii/1.0.0", out.Metadata.RulesetUsed)
}

func TestDetectionAnalyserMatchesValuePatterns(t *testing.T) {
	dir := t.TempDir()
	writeDetectionRuleset(t, dir, "pii", "1.0.0", `
name: pii
version: 1.0.0
rules:
  - name: email_shape
    risk_level: medium
    regulations: ["GDPR"]
    value_patterns: ["[a-z]+@[a-z]+\\.com"]
`)

	a := components.NewDetectionAnalyser(ruleset.NewLoader(dir))
	scan := components.FilesystemScan{Files: []components.FilesystemFile{
		{Path: "a.txt", Content: "contact jane@example.com for details"},
	}}

	msg, err := a.Analyse(context.Background(), []*message.Message{scanMessage(t, scan)}, map[string]any{"ruleset": "local/pii/1.0.0"})
	require.NoError(t, err)

	var out components.DetectionOutput
	require.NoError(t, msg.Decode(&out))
	require.Len(t, out.Findings, 1)
	assert.Contains(t, out.Findings[0].MatchedPatterns, "[a-z]+@[a-z]+\\.com")
}

func TestDetectionAnalyserRequiresRulesetProperty(t *testing.T) {
	a := components.NewDetectionAnalyser(ruleset.NewLoader(t.TempDir()))
	_, err := a.Analyse(context.Background(), []*message.Message{scanMessage(t, components.FilesystemScan{})}, map[string]any{})
	assert.Error(t, err)
}

func TestDetectionAnalyserNoMatchesProducesNoFindings(t *testing.T) {
	dir := t.TempDir()
	writeDetectionRuleset(t, dir, "pii", "1.0.0", `
name: pii
version: 1.0.0
rules:
  - name: email
    risk_level: high
    regulations: ["GDPR"]
    patterns: ["email address"]
`)

	a := components.NewDetectionAnalyser(ruleset.NewLoader(dir))
	scan := components.FilesystemScan{Files: []components.FilesystemFile{{Path: "a.txt", Content: "nothing here"}}}

	msg, err := a.Analyse(context.Background(), []*message.Message{scanMessage(t, scan)}, map[string]any{"ruleset": "local/pii/1.0.0"})
	require.NoError(t, err)

	var out components.DetectionOutput
	require.NoError(t, msg.Decode(&out))
	assert.Empty(t, out.Findings)
}
