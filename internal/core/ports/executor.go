// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"github.com/forgebuild/forge/internal/core/domain"
)

// StageExecutor runs a stage's steps inside its snapshot directory.
//
//go:generate go run go.uber.org/mock/mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type StageExecutor interface {
	// Execute runs the stage's steps in order with the given
	// environment ("KEY=VALUE" strings). A failing step aborts the
	// stage; no partial output is registered.
	Execute(ctx context.Context, stage *domain.Stage, env []string) error
}
