package ports

import "github.com/forgebuild/forge/internal/core/domain"

// BuildInfoStore persists stage build results across invocations.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type BuildInfoStore interface {
	// Get retrieves the build info for a given stage id.
	// Returns nil, nil if not found.
	Get(stageID string) (*domain.StageBuildInfo, error)

	// Put stores the build info.
	Put(info domain.StageBuildInfo) error
}
