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
	"github.com/waivern/wct/message"
)

func TestJSONExporterWritesOneFilePerInput(t *testing.T) {
	dir := t.TempDir()
	e := components.NewJSONExporter()

	msg := scanMessage(t, components.FilesystemScan{Root: "/x"})
	err := e.Export(context.Background(), []*message.Message{msg}, map[string]any{"output_dir": dir})
	require.NoError(t, err)

	path := filepath.Join(dir, "filesystem_scan.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "filesystem_scan", decoded["schema_name"])
}

func TestJSONExporterRequiresOutputDir(t *testing.T) {
	e := components.NewJSONExporter()
	err := e.Export(context.Background(), nil, map[string]any{})
	assert.Error(t, err)
}

func TestJSONExporterSkipsNilInputs(t *testing.T) {
	dir := t.TempDir()
	e := components.NewJSONExporter()
	err := e.Export(context.Background(), []*message.Message{nil}, map[string]any{"output_dir": dir})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
