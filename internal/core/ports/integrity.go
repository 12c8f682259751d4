package ports

import "context"

// IntegrityChecker is the fail-fast source-control gate run before
// compilation when enabled.
//
//go:generate go run go.uber.org/mock/mockgen -source=integrity.go -destination=mocks/mock_integrity.go -package=mocks
type IntegrityChecker interface {
	// Check returns an error if the repository at dir is in a dirty or
	// otherwise unexpected source-control state.
	Check(ctx context.Context, dir string) error
}
