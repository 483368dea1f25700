// Package gitsync tracks created and modified repository files so a
// successful build run ends in one commit-and-push. The core pipeline
// only sees the Tracker interface; a disabled tracker turns every call
// into a no-op for offline runs.
package gitsync

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const gitTimeout = 120 * time.Second

// ErrOutOfSync means the remote has commits the local checkout lacks.
// The run aborts before any folder work so the ledger is never rewritten
// on top of a stale checkout.
var ErrOutOfSync = errors.New("repository is not in sync with the remote, resolve and rerun (or use --no-git)")

// Tracker is the narrow change-tracking surface the builder consumes.
type Tracker interface {
	// PullLatest syncs with the remote; the checkout must come back
	// already up to date or the run may not proceed.
	PullLatest(ctx context.Context) error
	// Stage marks a created or modified file for the closing commit.
	Stage(ctx context.Context, path string) error
	IsStaged(ctx context.Context, path string) (bool, error)
	IsTracked(ctx context.Context, path string) (bool, error)
	HasUncommittedModification(ctx context.Context, path string) (bool, error)
	// CommitAndPush publishes everything staged during the run.
	CommitAndPush(ctx context.Context, message string) error
}

// Disabled is the no-op tracker used with --no-git. Paths report as
// tracked and unmodified so the builder never tries to stage them.
type Disabled struct{}

func (Disabled) PullLatest(context.Context) error                 { return nil }
func (Disabled) Stage(context.Context, string) error              { return nil }
func (Disabled) IsStaged(context.Context, string) (bool, error)   { return false, nil }
func (Disabled) IsTracked(context.Context, string) (bool, error)  { return true, nil }
func (Disabled) CommitAndPush(context.Context, string) error      { return nil }
func (Disabled) HasUncommittedModification(context.Context, string) (bool, error) {
	return false, nil
}

// Repo drives a real git checkout through the git binary.
type Repo struct {
	// Dir is the repository top level.
	Dir string
}

// Open resolves dir to its repository top level.
func Open(dir string) (*Repo, error) {
	out, err := gitOutput(context.Background(), dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, fmt.Errorf("%s is not inside a git repository: %w", dir, err)
	}
	return &Repo{Dir: strings.TrimSpace(out)}, nil
}

func (r *Repo) PullLatest(ctx context.Context) error {
	out, err := gitOutput(ctx, r.Dir, "pull")
	if err != nil {
		return fmt.Errorf("git pull: %w", err)
	}
	if strings.TrimSpace(out) != "Already up to date." {
		return fmt.Errorf("%w: %s", ErrOutOfSync, strings.TrimSpace(out))
	}
	return nil
}

func (r *Repo) Stage(ctx context.Context, path string) error {
	if err := runGit(ctx, r.Dir, "add", "--", r.rel(path)); err != nil {
		return fmt.Errorf("git add %s: %w", path, err)
	}
	return nil
}

func (r *Repo) IsStaged(ctx context.Context, path string) (bool, error) {
	out, err := gitOutput(ctx, r.Dir, "diff", "--cached", "--name-only", "--", r.rel(path))
	if err != nil {
		return false, fmt.Errorf("git diff --cached: %w", err)
	}
	return strings.TrimSpace(out) != "", nil
}

func (r *Repo) IsTracked(ctx context.Context, path string) (bool, error) {
	out, err := gitOutput(ctx, r.Dir, "ls-files", "--", r.rel(path))
	if err != nil {
		return false, fmt.Errorf("git ls-files: %w", err)
	}
	return strings.TrimSpace(out) != "", nil
}

func (r *Repo) HasUncommittedModification(ctx context.Context, path string) (bool, error) {
	out, err := gitOutput(ctx, r.Dir, "diff", "--name-only", "--", r.rel(path))
	if err != nil {
		return false, fmt.Errorf("git diff: %w", err)
	}
	return strings.TrimSpace(out) != "", nil
}

func (r *Repo) CommitAndPush(ctx context.Context, message string) error {
	if err := runGit(ctx, r.Dir, "commit", "-m", message); err != nil {
		return fmt.Errorf("git commit: %w", err)
	}
	if err := runGit(ctx, r.Dir, "push"); err != nil {
		return fmt.Errorf("git push: %w", err)
	}
	return nil
}

// rel maps a path to repo-relative form; git paths never carry "./".
func (r *Repo) rel(path string) string {
	if rel, err := filepath.Rel(r.Dir, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return strings.TrimPrefix(path, "./")
}

// runGit executes a git command in the given directory.
func runGit(ctx context.Context, dir string, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, gitTimeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// gitOutput executes a git command and returns its stdout.
func gitOutput(ctx context.Context, dir string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, gitTimeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("%s: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}
