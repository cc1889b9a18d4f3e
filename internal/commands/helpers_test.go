package commands_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coopbooks/coopbooks/internal/commands"
)

// run executes the CLI in-process and returns what it printed to stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := commands.NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), err
}

// mustRun is run for steps that have to succeed.
func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err, "coopbooks %v", args)
	return out
}

// newBooks creates an initialized books directory without git.
func newBooks(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "books")
	mustRun(t, "init", dir, "--name", "Harvest SACCO", "--no-git", "--actor", "secretary")
	return dir
}
