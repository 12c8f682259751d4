package ports

import "github.com/forgebuild/forge/internal/core/domain"

// Hasher computes cache-identity hashes for stages and files.
//
//go:generate go run go.uber.org/mock/mockgen -source=hasher.go -destination=mocks/mock_hasher.go -package=mocks
type Hasher interface {
	// ComputeStageHash computes the stage's input hash from its
	// definition, environment, declared input files, and the hashes of
	// the stages it depends on (in edge order). Identical inputs yield
	// identical hashes across invocations.
	ComputeStageHash(stage *domain.Stage, ancestors []string) (string, error)

	// ComputeFileHash computes the content hash of a single file.
	ComputeFileHash(path string) (uint64, error)
}
