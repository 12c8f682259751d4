package pip

import (
	"context"

	"github.com/forgebuild/forge/internal/core/ports"
	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the package installer Graft node.
const NodeID graft.ID = "adapter.package_installer"

func init() {
	graft.Register(graft.Node[ports.PackageInstaller]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.PackageInstaller, error) {
			return NewInstaller(), nil
		},
	})
}
