//go:build wireinject

//go:generate wire

package api

import (
	"github.com/SafeMPC/flow-wallet-kit/internal/config"
	"github.com/SafeMPC/flow-wallet-kit/internal/metrics"
	"github.com/SafeMPC/flow-wallet-kit/internal/storage"
	"github.com/google/wire"
)

// INJECTORS - https://github.com/google/wire/blob/main/docs/guide.md#injectors

// serviceSet groups the default set of providers that are required for initing a server
var serviceSet = wire.NewSet(
	newServerWithComponents,
	metrics.New,
	NewNetworks,
	NewEnclave,
	flowServiceSet,
)

var flowServiceSet = wire.NewSet(
	NewEndpointResolver,
	NewIndexerClient,
	NewAccessClient,
	NewLinkedAccounts,
)

// InitNewServer returns a new Server instance.
func InitNewServer(
	_ config.Server,
) (*Server, error) {
	wire.Build(serviceSet, NewStorage)
	return new(Server), nil
}

// InitNewServerWithStorage returns a new Server instance with the given storage backend.
// All the other components are initialized via go wire according to the configuration.
func InitNewServerWithStorage(
	_ config.Server,
	_ storage.Storage,
) (*Server, error) {
	wire.Build(serviceSet)
	return new(Server), nil
}
