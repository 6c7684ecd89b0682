package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waivern/wct/orchestration"
)

const validRunbookYAML = `
name: root
description: a root runbook
artifacts:
  scan:
    source: {type: filesystem, properties: {path: /data}}
`

const invalidRunbookYAML = `
name: root
artifacts:
  scan:
    merge: not-a-valid-directive-without-a-source-or-process
`

func TestValidateOnceAcceptsValidRunbook(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "root.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validRunbookYAML), 0o644))

	a := &app{loader: orchestration.NewLoader(), registry: newComponentRegistry(nil, nil)}
	assert.True(t, validateOnce(a, path))
}

func TestValidateOnceRejectsInvalidRunbook(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "root.yaml")
	require.NoError(t, os.WriteFile(path, []byte(invalidRunbookYAML), 0o644))

	a := &app{loader: orchestration.NewLoader(), registry: newComponentRegistry(nil, nil)}
	assert.False(t, validateOnce(a, path))
}

func TestValidateOnceRejectsMissingFile(t *testing.T) {
	a := &app{loader: orchestration.NewLoader(), registry: newComponentRegistry(nil, nil)}
	assert.False(t, validateOnce(a, filepath.Join(t.TempDir(), "missing.yaml")))
}
