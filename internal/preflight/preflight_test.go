package preflight

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecker_EmptyDir(t *testing.T) {
	dir := t.TempDir()
	c := NewChecker()
	checks := c.Run(dir)

	for _, check := range checks {
		assert.False(t, check.Passed, "check %s should fail in empty dir", check.Name)
	}
	assert.False(t, Ready(checks))
}

func TestChecker_FullTarget(t *testing.T) {
	dir := t.TempDir()

	files := []string{"go.mod", "main.go", "README.md", "LICENSE", ".golangci.yml"}
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte(""), 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main_test.go"), []byte("package main"), 0644))

	c := NewChecker()
	checks := c.Run(dir)

	for _, check := range checks {
		assert.True(t, check.Passed, "check %s should pass: %s", check.Name, check.Detail)
	}
	assert.True(t, Ready(checks))
}

func TestChecker_CmdEntrypoint(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module test\n"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "cmd", "app"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cmd", "app", "main_test.go"), []byte("package main"), 0644))

	checks := NewChecker().Run(dir)
	assert.True(t, Ready(checks))
}

func TestReady_AdvisoryFailuresDoNotBlock(t *testing.T) {
	dir := t.TempDir()

	// Required files only, no README/LICENSE
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module test\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main_test.go"), []byte("package main"), 0644))

	checks := NewChecker().Run(dir)

	failed := 0
	for _, check := range checks {
		if !check.Passed {
			failed++
			assert.False(t, check.Required, "only advisory checks should fail: %s", check.Name)
		}
	}
	assert.Greater(t, failed, 0, "advisory checks should be failing")
	assert.True(t, Ready(checks))
}
