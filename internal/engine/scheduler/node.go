package scheduler

import (
	"context"

	"github.com/forgebuild/forge/internal/adapters/cas"       //nolint:depguard // Wired in engine wiring
	"github.com/forgebuild/forge/internal/adapters/fs"        //nolint:depguard // Wired in engine wiring
	"github.com/forgebuild/forge/internal/adapters/git"       //nolint:depguard // Wired in engine wiring
	"github.com/forgebuild/forge/internal/adapters/logger"    //nolint:depguard // Wired in engine wiring
	"github.com/forgebuild/forge/internal/adapters/shell"     //nolint:depguard // Wired in engine wiring
	"github.com/forgebuild/forge/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"github.com/forgebuild/forge/internal/core/ports"
	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the scheduler Graft node.
const NodeID graft.ID = "engine.scheduler"

func init() {
	graft.Register(graft.Node[*Scheduler]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			shell.NodeID,
			cas.StoreNodeID,
			cas.RegistryNodeID,
			fs.HasherNodeID,
			fs.WorkspaceNodeID,
			git.NodeID,
			telemetry.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Scheduler, error) {
			executor, err := graft.Dep[ports.StageExecutor](ctx)
			if err != nil {
				return nil, err
			}

			hasher, err := graft.Dep[ports.Hasher](ctx)
			if err != nil {
				return nil, err
			}

			store, err := graft.Dep[ports.BuildInfoStore](ctx)
			if err != nil {
				return nil, err
			}

			registry, err := graft.Dep[ports.ArtifactRegistry](ctx)
			if err != nil {
				return nil, err
			}

			workspace, err := graft.Dep[ports.Workspace](ctx)
			if err != nil {
				return nil, err
			}

			integrity, err := graft.Dep[ports.IntegrityChecker](ctx)
			if err != nil {
				return nil, err
			}

			tel, err := graft.Dep[ports.Telemetry](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return New(
				executor,
				hasher,
				store,
				registry,
				workspace,
				integrity,
				tel,
				log,
			), nil
		},
	})
}
