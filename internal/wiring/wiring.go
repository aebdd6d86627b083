// Package wiring registers every Graft node for the application; importing
// it for side effects is enough to make the whole dependency graph
// resolvable from cmd/kiln.
package wiring

import (
	// Register adapter nodes.
	_ "go.kiln.build/kiln/internal/adapters/cas"
	_ "go.kiln.build/kiln/internal/adapters/config"
	_ "go.kiln.build/kiln/internal/adapters/fs"
	_ "go.kiln.build/kiln/internal/adapters/logger"
	_ "go.kiln.build/kiln/internal/adapters/shell"
	_ "go.kiln.build/kiln/internal/adapters/telemetry"
	_ "go.kiln.build/kiln/internal/adapters/telemetry/progrock"
	_ "go.kiln.build/kiln/internal/adapters/toolchain"
	// Register engine nodes.
	_ "go.kiln.build/kiln/internal/engine/cache"
	_ "go.kiln.build/kiln/internal/engine/resolver"
	_ "go.kiln.build/kiln/internal/engine/scheduler"
	// Register the app node last: it depends on all of the above.
	_ "go.kiln.build/kiln/internal/app"
)
