// Package ports defines the interfaces core and engine code depend on,
// implemented by internal/adapters.
package ports

import "go.kiln.build/kiln/internal/core/domain"

// ConfigLoader reads the build-file DSL rooted at cwd (a single kiln.yaml
// or a kiln.work.yaml workspace) and returns the fully registered, but not
// yet frozen, target graph alongside the PropertyStore its "properties:"
// blocks defined and the (unfrozen) OptionStore holding its "options:"
// declarations, global and per-target.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=portsmock/mock_config_loader.go -package=portsmock
type ConfigLoader interface {
	Load(cwd string) (*domain.Graph, *domain.PropertyStore, *domain.OptionStore, error)
}
