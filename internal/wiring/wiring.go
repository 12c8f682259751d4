// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "github.com/forgebuild/forge/internal/adapters/cas"
	_ "github.com/forgebuild/forge/internal/adapters/config"
	_ "github.com/forgebuild/forge/internal/adapters/fs"
	_ "github.com/forgebuild/forge/internal/adapters/git"
	_ "github.com/forgebuild/forge/internal/adapters/logger"
	_ "github.com/forgebuild/forge/internal/adapters/pip"
	_ "github.com/forgebuild/forge/internal/adapters/shell"
	_ "github.com/forgebuild/forge/internal/adapters/telemetry"
	// Register app and engine nodes.
	_ "github.com/forgebuild/forge/internal/app"
	_ "github.com/forgebuild/forge/internal/engine/composer"
	_ "github.com/forgebuild/forge/internal/engine/scheduler"
)
