// Copyright 2025 The ProbeChain Authors
// This file is part of the ProbeChain.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "probescript.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeTempConfig(t, `
[VM]
TraceExecution = true
StressGC = true
LogGC = false
GCGrowthFactor = 4
`)

	cfg := defaultVMConfig()
	require.NoError(t, loadConfig(path, &cfg))

	assert.True(t, cfg.TraceExecution)
	assert.True(t, cfg.StressGC)
	assert.False(t, cfg.LogGC)
	assert.Equal(t, 4, cfg.GCGrowthFactor)
}

func TestLoadConfigDefaultsSurvive(t *testing.T) {
	path := writeTempConfig(t, `
[VM]
StressGC = true
`)

	cfg := defaultVMConfig()
	require.NoError(t, loadConfig(path, &cfg))

	assert.True(t, cfg.StressGC)
	// Unset keys keep their defaults.
	assert.Equal(t, defaultVMConfig().GCGrowthFactor, cfg.GCGrowthFactor)
	assert.False(t, cfg.TraceExecution)
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg := defaultVMConfig()
	assert.Error(t, loadConfig(filepath.Join(t.TempDir(), "absent.toml"), &cfg))
}

func TestLoadConfigUnknownField(t *testing.T) {
	path := writeTempConfig(t, `
[VM]
NoSuchKnob = 1
`)
	cfg := defaultVMConfig()
	assert.Error(t, loadConfig(path, &cfg))
}
