package ports

import "github.com/forgebuild/forge/internal/core/domain"

// Workspace materializes stage snapshot directories.
//
//go:generate go run go.uber.org/mock/mockgen -source=workspace.go -destination=mocks/mock_workspace.go -package=mocks
type Workspace interface {
	// Prepare creates the stage's snapshot directory from scratch.
	// When parentDir is non-empty the parent stage's snapshot is copied
	// in first, so the stage starts from its parent's state without
	// ever mutating it.
	Prepare(stage *domain.Stage, parentDir string) error
}
