package shell

import (
	"context"

	"github.com/forgebuild/forge/internal/adapters/fs"
	"github.com/forgebuild/forge/internal/adapters/logger"
	"github.com/forgebuild/forge/internal/adapters/pip"
	"github.com/forgebuild/forge/internal/core/ports"
	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the stage executor Graft node.
const NodeID graft.ID = "adapter.executor"

func init() {
	graft.Register(graft.Node[ports.StageExecutor]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID, pip.NodeID, fs.CopierNodeID},
		Run: func(ctx context.Context) (ports.StageExecutor, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			installer, err := graft.Dep[ports.PackageInstaller](ctx)
			if err != nil {
				return nil, err
			}
			copier, err := graft.Dep[*fs.Copier](ctx)
			if err != nil {
				return nil, err
			}
			return NewExecutor(log, installer, copier), nil
		},
	})
}
