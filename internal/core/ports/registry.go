package ports

import (
	"context"

	"github.com/forgebuild/forge/internal/core/domain"
)

// ArtifactRegistry stores build artifacts content-addressed and hands
// out independent copies to importing stages.
//
//go:generate go run go.uber.org/mock/mockgen -source=registry.go -destination=mocks/mock_registry.go -package=mocks
type ArtifactRegistry interface {
	// Publish copies the file at path into the registry, computes its
	// digest, and registers it under the logical name. A name may be
	// published exactly once per run.
	Publish(ctx context.Context, producer domain.StageID, name, path string) (domain.Artifact, error)

	// Restore re-registers an artifact from a previous run by its
	// recorded metadata. It fails if the content is no longer present,
	// which forces the producer stage to re-run.
	Restore(ctx context.Context, art domain.Artifact) error

	// Import copies the named artifact into targetDir and verifies the
	// copy against the recorded digest.
	Import(ctx context.Context, name, targetDir string) (domain.Artifact, error)

	// Get returns the artifact registered under the logical name.
	Get(name string) (domain.Artifact, bool)
}
