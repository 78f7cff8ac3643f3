package di

import (
	"article-interactions/application/services"
	"article-interactions/infrastructure/config"
	"article-interactions/interfaces/http/rest"
	"article-interactions/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *observability.Collector
	Tracing *observability.TracerProvider
	Store   *Store
	Service *services.InteractionService
	Router  *rest.Router
}
