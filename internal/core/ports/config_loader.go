package ports

import "github.com/forgebuild/forge/internal/core/domain"

// ConfigLoader loads the pipeline configuration.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the configuration from the given working directory.
	Load(cwd string) (*domain.PipelineConfig, error)
}
