// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/lockstep/internal/adapters/cas"
	_ "go.trai.ch/lockstep/internal/adapters/config"
	_ "go.trai.ch/lockstep/internal/adapters/fs"
	_ "go.trai.ch/lockstep/internal/adapters/logger"
	_ "go.trai.ch/lockstep/internal/adapters/shell"
	_ "go.trai.ch/lockstep/internal/adapters/telemetry/progrock"
	_ "go.trai.ch/lockstep/internal/adapters/watcher"
	_ "go.trai.ch/lockstep/internal/adapters/yarn"
	// Register app and engine nodes.
	_ "go.trai.ch/lockstep/internal/app"
	_ "go.trai.ch/lockstep/internal/engine/resolution"
)
