package components_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waivern/wct/components"
	"github.com/waivern/wct/llm"
	"github.com/waivern/wct/llm/providers"
	"github.com/waivern/wct/message"
	"github.com/waivern/wct/ruleset"
	"github.com/waivern/wct/store"
)

type fakeClassifierProvider struct {
	response []byte
}

func (f *fakeClassifierProvider) Name() string { return "fake" }
func (f *fakeClassifierProvider) Complete(ctx context.Context, req providers.CompletionRequest) (*providers.CompletionResponse, error) {
	return &providers.CompletionResponse{ResponseJSON: f.response}, nil
}
func (f *fakeClassifierProvider) SupportsBatch() bool { return false }
func (f *fakeClassifierProvider) SubmitBatch(ctx context.Context, req providers.BatchSubmitRequest) (string, error) {
	return "", providers.ErrBatchUnsupported
}
func (f *fakeClassifierProvider) PollBatch(ctx context.Context, batchID string) (bool, []providers.BatchItemResult, error) {
	return false, nil, providers.ErrBatchUnsupported
}

func writeClassificationRuleset(t *testing.T, dir, name, version, yamlContent string) {
	t.Helper()
	rsDir := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(rsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(rsDir, version+".yaml"), []byte(yamlContent), 0o644))
}

func TestLLMClassifierAssignsMatchedClass(t *testing.T) {
	dir := t.TempDir()
	writeClassificationRuleset(t, dir, "subjects", "1.0.0", `
name: subjects
version: 1.0.0
rules:
  - name: employee_data
    risk_level: medium
    regulations: ["GDPR"]
    patterns: ["employee"]
    class: employee
`)

	resp, err := json.Marshal(map[string]any{"matched_rules": []string{"employee_data"}})
	require.NoError(t, err)

	svc := llm.NewService(store.NewMemoryStore(), &fakeClassifierProvider{response: resp}, 100_000, 10, llm.CountBased, false)
	c := components.NewLLMClassifier(ruleset.NewLoader(dir), svc)

	scan := components.FilesystemScan{Files: []components.FilesystemFile{{Path: "hr.txt", Content: "employee records"}}}
	msg, err := c.Classify(context.Background(), []*message.Message{scanMessage(t, scan)}, map[string]any{
		"ruleset": "local/subjects/1.0.0",
		"model":   "fake-model",
		"run_id":  "run-1",
	})
	require.NoError(t, err)

	var out components.ClassificationOutput
	require.NoError(t, msg.Decode(&out))
	require.Len(t, out.Findings, 1)
	assert.Equal(t, "employee", out.Findings[0].Metadata.Context["class"])
}

func TestLLMClassifierRequiresRunID(t *testing.T) {
	svc := llm.NewService(store.NewMemoryStore(), &fakeClassifierProvider{}, 100_000, 10, llm.CountBased, false)
	c := components.NewLLMClassifier(ruleset.NewLoader(t.TempDir()), svc)

	scan := components.FilesystemScan{Files: []components.FilesystemFile{{Path: "a.txt", Content: "x"}}}
	_, err := c.Classify(context.Background(), []*message.Message{scanMessage(t, scan)}, map[string]any{
		"ruleset": "local/subjects/1.0.0",
		"model":   "fake-model",
	})
	assert.Error(t, err)
}

func TestLLMClassifierNoMatchedRulesProducesNoFindings(t *testing.T) {
	dir := t.TempDir()
	writeClassificationRuleset(t, dir, "subjects", "1.0.0", `
name: subjects
version: 1.0.0
rules:
  - name: employee_data
    risk_level: medium
    regulations: ["GDPR"]
    patterns: ["employee"]
    class: employee
`)

	resp, err := json.Marshal(map[string]any{"matched_rules": []string{}})
	require.NoError(t, err)

	svc := llm.NewService(store.NewMemoryStore(), &fakeClassifierProvider{response: resp}, 100_000, 10, llm.CountBased, false)
	c := components.NewLLMClassifier(ruleset.NewLoader(dir), svc)

	scan := components.FilesystemScan{Files: []components.FilesystemFile{{Path: "a.txt", Content: "nothing relevant"}}}
	msg, err := c.Classify(context.Background(), []*message.Message{scanMessage(t, scan)}, map[string]any{
		"ruleset": "local/subjects/1.0.0",
		"model":   "fake-model",
		"run_id":  "run-1",
	})
	require.NoError(t, err)

	var out components.ClassificationOutput
	require.NoError(t, msg.Decode(&out))
	assert.Empty(t, out.Findings)
}
