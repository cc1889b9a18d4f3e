package gitops

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAuthor = Author{Name: "Books Clerk", Email: "clerk@coop.example"}

func newRepo(t *testing.T) *Repo {
	t.Helper()
	if !Available() {
		t.Skip("git not installed")
	}
	r := Open(t.TempDir(), testAuthor)
	require.NoError(t, r.Init(context.Background()))
	return r
}

func TestInit(t *testing.T) {
	r := newRepo(t)
	assert.True(t, r.IsRepo())
	assert.False(t, Open(t.TempDir(), testAuthor).IsRepo())
}

func TestCommitAll(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	require.NoError(t, os.WriteFile(filepath.Join(r.dir, "members.csv"), []byte("member_id\n"), 0o644))

	changed, err := r.HasChanges(ctx)
	require.NoError(t, err)
	assert.True(t, changed)

	hash, err := r.CommitAll(ctx, "member: add M-0001")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	msg, err := r.LastMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "member: add M-0001", msg)

	log := exec.Command("git", "log", "--format=%an <%ae>", "-1")
	log.Dir = r.dir
	out, err := log.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), testAuthor.String())
}

func TestCommitAll_NothingToCommit(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	require.NoError(t, os.WriteFile(filepath.Join(r.dir, "a.csv"), []byte("x"), 0o644))
	_, err := r.CommitAll(ctx, "first")
	require.NoError(t, err)

	hash, err := r.CommitAll(ctx, "second")
	require.NoError(t, err)
	assert.Empty(t, hash)
}

func TestCommitAll_NotARepo(t *testing.T) {
	if !Available() {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	_, err := Open(dir, testAuthor).CommitAll(context.Background(), "x")
	assert.Error(t, err)
}
