//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"bettersaved/infrastructure/config"

	"github.com/google/wire"
)

// CoreSet provides storage, observability, the provider guard and the buses
var CoreSet = wire.NewSet(
	ProvideLogger,
	ProvideDomainConfig,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCache,
	ProvideProfileRepository,
	ProvideEventPublisher,
	ProvideCollector,
	ProvideTracer,
	ProvideGuard,
	ProvideWorkspaceFactory,
	ProvideResourceResolver,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideTokenManager,
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	CoreSet,
	ProvideCloudWatchClient,
	ProvideRateLimiter,
	ProvideMetrics,
	ProvideBot,
	ProvideMessenger,
	ProvideFetcher,
	ProvideScheduler,
	ProvideIngestionService,
	ProvideDispatcher,
	ProvideErrorHandler,
	ProvideHTTPHandler,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil
}

// InitializeAdmin creates the operator container
func InitializeAdmin(ctx context.Context, cfg *config.Config) (*AdminContainer, func(), error) {
	wire.Build(CoreSet, wire.Struct(new(AdminContainer), "*"))
	return nil, nil, nil
}
