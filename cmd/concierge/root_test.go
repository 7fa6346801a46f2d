package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	return out.String()
}

func TestVersionCommand(t *testing.T) {
	assert.Contains(t, execute(t, "version"), "concierge version ")
}

func TestFormsCommands(t *testing.T) {
	out := execute(t, "forms", "ls")
	assert.Contains(t, out, "ss-abono-familia-form")

	out = execute(t, "forms", "show", "ss-abono-familia-form", "--mermaid")
	assert.Contains(t, out, "graph TD")
}

func TestSessionRm_RequiresTarget(t *testing.T) {
	rootCmd.SetArgs([]string{"session", "rm"})
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	assert.ErrorContains(t, rootCmd.ExecuteContext(context.Background()), "--all")
}
