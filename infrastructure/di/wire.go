//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"article-interactions/infrastructure/config"

	"github.com/google/wire"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideMetrics,
	ProvideTracing,
	ProvideTracer,
	ProvideStore,
	ProvideInteractionRepository,
	ProvideTableBootstrapper,
	ProvideEventPublisher,
	ProvideInteractionService,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
