package git

import (
	"context"

	"github.com/forgebuild/forge/internal/core/ports"
	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the integrity checker Graft node.
const NodeID graft.ID = "adapter.integrity_checker"

func init() {
	graft.Register(graft.Node[ports.IntegrityChecker]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.IntegrityChecker, error) {
			return NewChecker(), nil
		},
	})
}
