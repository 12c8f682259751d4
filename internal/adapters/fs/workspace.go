package fs

import (
	"os"

	"github.com/forgebuild/forge/internal/core/domain"
	"github.com/forgebuild/forge/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Workspace = (*Workspace)(nil)

// Workspace materializes stage snapshot directories on the local
// filesystem.
type Workspace struct {
	copier *Copier
}

// NewWorkspace creates a new Workspace.
func NewWorkspace(copier *Copier) *Workspace {
	return &Workspace{copier: copier}
}

// Prepare recreates the stage directory. Stale state from earlier runs
// is discarded so a stage's snapshot is always a function of its
// inputs. When parentDir is set, the parent snapshot is copied in as
// the starting state.
func (w *Workspace) Prepare(stage *domain.Stage, parentDir string) error {
	if err := os.RemoveAll(stage.Dir); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to clear stage directory"), "stage", stage.ID.String())
	}
	if err := os.MkdirAll(stage.Dir, 0o750); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create stage directory"), "stage", stage.ID.String())
	}

	if parentDir != "" {
		if err := w.copier.CopyTree(parentDir, stage.Dir); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to copy parent snapshot"), "stage", stage.ID.String())
		}
	}
	return nil
}
