package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleModules = "../../examples/modules"

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestValidate_SampleModules(t *testing.T) {
	out, err := execute(t, "", "validate", "--dir", sampleModules)
	require.NoError(t, err, out)
	assert.Contains(t, out, "onboarding: ok")
}

func TestValidate_ReportsProblems(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte(`
title: Broken
nodes:
  - id: start
    type: message
    data:
      nextNodeId: nowhere
  - id: island
    type: message
`), 0o644))

	out, err := execute(t, "", "validate", "--dir", dir)
	assert.Error(t, err)
	assert.Contains(t, out, "broken: ")
	assert.Contains(t, out, "nowhere")
	assert.Contains(t, out, "island")
}

func TestGraph(t *testing.T) {
	out, err := execute(t, "", "graph", "onboarding", "--dir", sampleModules)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph TD"))
	assert.Contains(t, out, "need_help")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "pathway version v")
}

func TestPlay_Piped(t *testing.T) {
	// Stdout is not a terminal under go test, so the plain renderer is used.
	out, err := execute(t, "\nq\n", "play", "onboarding", "--dir", sampleModules, "--user", "ada", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "Welcome, learner")
	assert.Contains(t, out, "Platform overview")
}

func TestConfigErrors(t *testing.T) {
	t.Cleanup(func() { _ = rootCmd.PersistentFlags().Set("backend", "") })

	_, err := execute(t, "", "graph", "onboarding", "--dir", sampleModules, "--backend", "mongo")
	assert.ErrorContains(t, err, "unknown backend")

	_, err = execute(t, "", "version", "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	assert.NoError(t, err, "version does not read config")
}
