// Package git implements the repository integrity gate.
package git

import (
	"context"
	"os/exec"
	"strings"

	"github.com/forgebuild/forge/internal/core/domain"
	"github.com/forgebuild/forge/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.IntegrityChecker = (*Checker)(nil)

// runner executes a git command in dir and returns its combined output.
// It is a field so tests can substitute a fake.
type runner func(ctx context.Context, dir string, args ...string) ([]byte, error)

func execGit(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	return cmd.Output()
}

// Checker verifies that a source tree is in a clean git state. It is a
// fail-fast gate: any uncommitted or untracked state aborts the build
// before compilation starts.
type Checker struct {
	run runner
}

// NewChecker creates a Checker backed by the git binary.
func NewChecker() *Checker {
	return &Checker{run: execGit}
}

// Check returns an error if the repository at dir has uncommitted
// changes or untracked files, or is not a git repository at all.
func (c *Checker) Check(ctx context.Context, dir string) error {
	if _, err := c.run(ctx, dir, "rev-parse", "--git-dir"); err != nil {
		return zerr.With(zerr.Wrap(err, "not a git repository"), "dir", dir)
	}

	out, err := c.run(ctx, dir, "status", "--porcelain")
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to query repository status"), "dir", dir)
	}

	status := strings.TrimSpace(string(out))
	if status != "" {
		err := zerr.With(domain.ErrDirtyRepository, "dir", dir)
		return zerr.With(err, "status", firstLines(status, 5))
	}

	return nil
}

// firstLines truncates multi-line status output for error metadata.
func firstLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[:n], "\n") + "\n..."
}
