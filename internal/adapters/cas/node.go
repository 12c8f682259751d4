package cas

import (
	"context"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/forgebuild/forge/internal/core/ports"
	"github.com/grindlemire/graft"
)

const (
	// StoreNodeID is the unique identifier for the build-info store Graft node.
	StoreNodeID graft.ID = "adapter.build_info_store"
	// RegistryNodeID is the unique identifier for the artifact registry Graft node.
	RegistryNodeID graft.ID = "adapter.artifact_registry"
)

func init() {
	graft.Register(graft.Node[ports.BuildInfoStore]{
		ID:        StoreNodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.BuildInfoStore, error) {
			path, err := xdg.CacheFile(filepath.Join("forge", "build-info.json"))
			if err != nil {
				return nil, err
			}
			return NewStore(path)
		},
	})

	graft.Register(graft.Node[ports.ArtifactRegistry]{
		ID:        RegistryNodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.ArtifactRegistry, error) {
			return NewRegistry(filepath.Join(xdg.CacheHome, "forge", "artifacts")), nil
		},
	})
}
