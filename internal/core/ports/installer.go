package ports

import (
	"context"

	"github.com/forgebuild/forge/internal/core/domain"
)

// PackageInstaller wraps the package-installation toolchain. It is an
// opaque service: resolution failures are surfaced verbatim, with no
// retry at this layer.
//
//go:generate go run go.uber.org/mock/mockgen -source=installer.go -destination=mocks/mock_installer.go -package=mocks
type PackageInstaller interface {
	// CreateEnv materializes an isolated interpreter runtime.
	CreateEnv(ctx context.Context, dir, pythonVersion string) error

	// Install installs the given requirement manifests, in order, into
	// the runtime at venv.
	Install(ctx context.Context, venv string, step *domain.InstallStep) error

	// CompileLock resolves the manifest at src into a fully pinned lock
	// file at dst using a deterministic resolution pass.
	CompileLock(ctx context.Context, src, dst string, opts domain.LockOptions, cacheDir string) error
}
