package orchestration_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waivern/wct/orchestration"
)

const rootYAML = `
name: root
description: a root runbook
config:
  max_concurrency: 4
artifacts:
  scan:
    source: {type: filesystem, properties: {path: /data}}
`

const childYAML = `
name: child
description: a child runbook
inputs:
  standard_input: {input_schema: "std/1.0.0"}
outputs:
  result: {artifact: classify}
artifacts:
  classify:
    inputs: standard_input
    process: {type: classifier}
`

func TestLoaderLoadFileParsesAndValidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "root.yaml")
	require.NoError(t, os.WriteFile(path, []byte(rootYAML), 0o644))

	loader := orchestration.NewLoader()
	rb, err := loader.LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "root", rb.Name)
	assert.Equal(t, 4, rb.Config.MaxConcurrency)
	// timeout/max_child_depth weren't in the YAML; defaults survive the
	// partial "config:" block.
	assert.Equal(t, 300, rb.Config.Timeout)
	assert.Equal(t, 3, rb.Config.MaxChildDepth)
	assert.Contains(t, rb.Artifacts, "scan")
}

func TestLoaderLoadFileRejectsInvalidRunbook(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: bad\ndescription: d\nartifacts:\n  a: {}\n"), 0o644))

	loader := orchestration.NewLoader()
	_, err := loader.LoadFile(path)
	assert.Error(t, err)
}

func TestLoaderLoadChildResolvesRelativeToBaseDir(t *testing.T) {
	dir := t.TempDir()
	childPath := filepath.Join(dir, "child.yaml")
	require.NoError(t, os.WriteFile(childPath, []byte(childYAML), 0o644))

	loader := orchestration.NewLoader()
	rb, err := loader.LoadChild(dir, "child.yaml", 1, 3)
	require.NoError(t, err)
	assert.Equal(t, "child", rb.Name)
	assert.Contains(t, rb.Outputs, "result")
}

func TestLoaderLoadChildFallsBackToSearchPaths(t *testing.T) {
	templatesDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(templatesDir, "child.yaml"), []byte(childYAML), 0o644))

	otherDir := t.TempDir()
	loader := orchestration.NewLoader(templatesDir)
	rb, err := loader.LoadChild(otherDir, "child.yaml", 1, 3)
	require.NoError(t, err)
	assert.Equal(t, "child", rb.Name)
}

func TestLoaderLoadChildMissingFileErrors(t *testing.T) {
	loader := orchestration.NewLoader()
	_, err := loader.LoadChild(t.TempDir(), "nope.yaml", 1, 3)
	assert.Error(t, err)
}

func TestLoaderLoadChildRejectsExcessiveDepth(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "child.yaml"), []byte(childYAML), 0o644))

	loader := orchestration.NewLoader()
	_, err := loader.LoadChild(dir, "child.yaml", 4, 3)
	assert.ErrorIs(t, err, orchestration.ErrChildDepthExceeded)
}

func TestLoaderLoadChildCachesByResolvedPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "child.yaml"), []byte(childYAML), 0o644))

	loader := orchestration.NewLoader()
	first, err := loader.LoadChild(dir, "child.yaml", 1, 3)
	require.NoError(t, err)

	// Overwrite the file on disk; a cached Loader should still return the
	// originally parsed value rather than re-reading.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "child.yaml"), []byte(renamedChildYAML()), 0o644))
	second, err := loader.LoadChild(dir, "child.yaml", 1, 3)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

// renamedChildYAML is childYAML with its name changed, so the cache test
// can tell whether LoadChild re-read the file from disk.
func renamedChildYAML() string {
	return "name: child-v2" + childYAML[len("\nname: child"):]
}
