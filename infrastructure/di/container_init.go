//go:build !wireinject
// +build !wireinject

package di

import (
	"context"

	"article-interactions/infrastructure/config"
)

// InitializeContainer creates a fully wired container. It mirrors the
// SuperSet graph in wire.go; keep the two in step.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	awsCfg, err := ProvideAWSConfig(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	client := ProvideDynamoDBClient(awsCfg, cfg)
	metrics := ProvideMetrics(cfg)
	tracing, cleanup, err := ProvideTracing(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	tracer := ProvideTracer(tracing)
	store := ProvideStore(client, cfg, logger, metrics)
	repo := ProvideInteractionRepository(store)
	bootstrapper := ProvideTableBootstrapper(store)
	publisher := ProvideEventPublisher(awsCfg, cfg, logger)
	service := ProvideInteractionService(repo, bootstrapper, publisher, tracer, metrics, logger)
	router := ProvideRouter(service, metrics, logger, cfg)

	container := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
		Tracing: tracing,
		Store:   store,
		Service: service,
		Router:  router,
	}
	return container, func() {
		cleanup()
		_ = logger.Sync()
	}, nil
}
