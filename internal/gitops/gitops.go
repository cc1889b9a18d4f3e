// Package gitops versions a books directory with the git command line.
package gitops

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNoGit is returned when the git binary is not on PATH.
var ErrNoGit = errors.New("git executable not found")

// Author identifies who commits changes to the books.
type Author struct {
	Name  string
	Email string
}

func (a Author) String() string {
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

// Repo is a books directory tracked by git.
type Repo struct {
	dir    string
	author Author
}

// Open returns a Repo for dir. It does not check that dir is a repository.
func Open(dir string, author Author) *Repo {
	return &Repo{dir: dir, author: author}
}

// Available reports whether git can be run.
func Available() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// IsRepo reports whether the books directory has its own .git.
func (r *Repo) IsRepo() bool {
	_, err := os.Stat(filepath.Join(r.dir, ".git"))
	return err == nil
}

func (r *Repo) git(ctx context.Context, args ...string) (string, error) {
	if !Available() {
		return "", ErrNoGit
	}
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME="+r.author.Name,
		"GIT_AUTHOR_EMAIL="+r.author.Email,
		"GIT_COMMITTER_NAME="+r.author.Name,
		"GIT_COMMITTER_EMAIL="+r.author.Email,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %s: %w", args[0], strings.TrimSpace(stderr.String()), err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Init creates the repository.
func (r *Repo) Init(ctx context.Context) error {
	_, err := r.git(ctx, "init", "--quiet")
	return err
}

// HasChanges reports whether the working tree differs from HEAD.
func (r *Repo) HasChanges(ctx context.Context) (bool, error) {
	out, err := r.git(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return out != "", nil
}

// CommitAll stages everything and commits it, returning the short hash.
// With nothing to commit it returns an empty hash and no error.
func (r *Repo) CommitAll(ctx context.Context, message string) (string, error) {
	changed, err := r.HasChanges(ctx)
	if err != nil {
		return "", err
	}
	if !changed {
		return "", nil
	}
	if _, err := r.git(ctx, "add", "-A"); err != nil {
		return "", err
	}
	if _, err := r.git(ctx, "commit", "--quiet", "-m", message, "--author", r.author.String()); err != nil {
		return "", err
	}
	return r.git(ctx, "rev-parse", "--short", "HEAD")
}

// LastMessage returns the subject of the most recent commit.
func (r *Repo) LastMessage(ctx context.Context) (string, error) {
	return r.git(ctx, "log", "-1", "--format=%s")
}
