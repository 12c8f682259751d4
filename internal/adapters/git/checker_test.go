package git

import (
	"context"
	"errors"
	"testing"

	"github.com/forgebuild/forge/internal/core/domain"
	"go.trai.ch/zerr"
)

func fakeGit(responses map[string]string, errs map[string]error) runner {
	return func(_ context.Context, _ string, args ...string) ([]byte, error) {
		key := args[0]
		if err, ok := errs[key]; ok {
			return nil, err
		}
		return []byte(responses[key]), nil
	}
}

func TestChecker_Clean(t *testing.T) {
	c := &Checker{run: fakeGit(map[string]string{
		"rev-parse": ".git\n",
		"status":    "",
	}, nil)}

	if err := c.Check(context.Background(), "/repo"); err != nil {
		t.Fatalf("unexpected error for clean repository: %v", err)
	}
}

func TestChecker_Dirty(t *testing.T) {
	c := &Checker{run: fakeGit(map[string]string{
		"rev-parse": ".git\n",
		"status":    " M csrc/ops.cpp\n?? scratch.py\n",
	}, nil)}

	err := c.Check(context.Background(), "/repo")
	if err == nil {
		t.Fatal("expected error for dirty repository, got nil")
	}
	if !errors.Is(err, domain.ErrDirtyRepository) {
		t.Errorf("expected ErrDirtyRepository, got %v", err)
	}

	var zErr *zerr.Error
	if !errors.As(err, &zErr) {
		t.Fatalf("expected *zerr.Error, got %T", err)
	}
	if status, ok := zErr.Metadata()["status"].(string); !ok || status == "" {
		t.Error("expected status metadata with the offending entries")
	}
}

func TestChecker_NotARepository(t *testing.T) {
	c := &Checker{run: fakeGit(nil, map[string]error{
		"rev-parse": errors.New("exit status 128"),
	})}

	err := c.Check(context.Background(), "/not-a-repo")
	if err == nil {
		t.Fatal("expected error outside a repository, got nil")
	}
	if errors.Is(err, domain.ErrDirtyRepository) {
		t.Error("expected a distinct error for a missing repository")
	}
}

func TestFirstLines(t *testing.T) {
	if got := firstLines("a\nb", 5); got != "a\nb" {
		t.Errorf("expected short input unchanged, got %q", got)
	}
	if got := firstLines("a\nb\nc", 2); got != "a\nb\n..." {
		t.Errorf("expected truncation marker, got %q", got)
	}
}
