package commands_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coopbooks/coopbooks/internal/accounts"
	"github.com/coopbooks/coopbooks/internal/auditlog"
	"github.com/coopbooks/coopbooks/internal/config"
)

func TestInit_CreatesStructure(t *testing.T) {
	dir := newBooks(t)

	expectedDirs := []string{
		"accounts",
		"members",
		"loans",
		"logs",
		"import",
		filepath.Join("import", "processed"),
	}
	for _, d := range expectedDirs {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}
	for _, f := range []string{"members/members.csv", "loans/loans.csv", "import/.gitkeep", ".gitignore"} {
		assert.FileExists(t, filepath.Join(dir, f))
	}
}

func TestInit_Config(t *testing.T) {
	dir := newBooks(t)

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, "Harvest SACCO", cfg.Cooperative.Name)
	assert.Equal(t, "savings_cooperative", cfg.Cooperative.Chart)
	assert.False(t, cfg.Git.AutoCommit, "--no-git turns off auto commit")
	assert.Equal(t, "1010", cfg.Accounts.Cash)
}

func TestInit_Accounts(t *testing.T) {
	dir := newBooks(t)

	svc, err := accounts.Load(dir)
	require.NoError(t, err)
	assert.Len(t, svc.All(), 13, "default cooperative chart has 13 accounts")
}

func TestInit_AuditEntry(t *testing.T) {
	dir := newBooks(t)

	entries, err := auditlog.New(dir, "").Read()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, auditlog.ActionInit, entries[0].Action)
	assert.Equal(t, "secretary", entries[0].Actor)
}

func TestInit_GitRepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	out := mustRun(t, "init", dir, "--name", "Harvest SACCO")
	assert.Contains(t, out, "Initialized books for Harvest SACCO")

	_, err := os.Stat(filepath.Join(dir, ".git"))
	require.NoError(t, err, ".git should exist")

	log := exec.Command("git", "log", "--format=%s|%an <%ae>", "-1")
	log.Dir = dir
	got, err := log.Output()
	require.NoError(t, err)
	assert.Contains(t, string(got), "init: Initialize Harvest SACCO")
	assert.Contains(t, string(got), "Coopbooks <books@coopbooks.local>")

	entries, err := auditlog.New(dir, "").Read()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].CommitHash)
}

func TestInit_Gitignore(t *testing.T) {
	dir := newBooks(t)

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	for _, pattern := range []string{"*.db", ".env"} {
		assert.Contains(t, string(data), pattern, ".gitignore should contain %s", pattern)
	}
}

func TestInit_RequiresName(t *testing.T) {
	_, err := run(t, "init", t.TempDir(), "--no-git")
	require.Error(t, err, "init without --name should fail")
}

func TestInit_RefusesExistingBooks(t *testing.T) {
	dir := newBooks(t)
	_, err := run(t, "init", dir, "--name", "Again", "--no-git")
	assert.Error(t, err)
}
