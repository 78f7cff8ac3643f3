package di

import (
	"context"
	"fmt"
	"os"

	"article-interactions/application/ports"
	"article-interactions/application/services"
	"article-interactions/infrastructure/config"
	"article-interactions/infrastructure/messaging/eventbridge"
	"article-interactions/infrastructure/persistence/dynamodb"
	"article-interactions/infrastructure/persistence/memory"
	"article-interactions/infrastructure/persistence/schema"
	"article-interactions/interfaces/http/rest"
	"article-interactions/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "article-interactions"

// Store groups the two store-facing ports so one driver backs both
type Store struct {
	Repository   ports.InteractionRepository
	Bootstrapper ports.TableBootstrapper
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	var zapCfg zap.Config
	if cfg.IsProduction() || cfg.IsLambda {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", serviceName)), nil
}

// ProvideAWSConfig creates AWS configuration. A local endpoint gets static
// credentials so DynamoDB Local works without a profile.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
		awsconfig.WithRetryMaxAttempts(cfg.AWSMaxAttempts),
	}
	if cfg.UsesLocalEndpoint() {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.LocalAccessKeyID, cfg.LocalSecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return awsCfg, nil
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config, cfg *config.Config) *awsdynamodb.Client {
	return dynamodb.NewClient(awsCfg, cfg.DynamoDBEndpoint)
}

// ProvideMetrics creates the Prometheus collector, or nil when metrics are off
func ProvideMetrics(cfg *config.Config) *observability.Collector {
	if !cfg.EnableMetrics {
		return nil
	}
	return observability.NewCollector("article_interactions")
}

// ProvideTracing creates the tracer provider. The cleanup flushes spans.
func ProvideTracing(cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func(), error) {
	if !cfg.EnableTracing {
		return observability.NoopTracing(serviceName), func() {}, nil
	}

	tp, err := observability.InitTracing(serviceName, cfg.Environment, os.Stderr)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn("Failed to shut down tracer provider", zap.Error(err))
		}
	}
	return tp, cleanup, nil
}

// ProvideTracer extracts the application tracer
func ProvideTracer(tp *observability.TracerProvider) trace.Tracer {
	return tp.Tracer()
}

// ProvideStore picks the store driver named in the configuration
func ProvideStore(
	client *awsdynamodb.Client,
	cfg *config.Config,
	logger *zap.Logger,
	metrics *observability.Collector,
) *Store {
	if cfg.StoreDriver == config.StoreDriverMemory {
		store := memory.NewInMemoryInteractionStore(cfg.TableName)
		return &Store{Repository: store, Bootstrapper: store}
	}

	definition := schema.ArticleInteractionTable(cfg.TableName, cfg.IndexName, cfg.ReadCapacity, cfg.WriteCapacity)
	return &Store{
		Repository:   dynamodb.NewInteractionRepository(client, cfg.TableName, cfg.IndexName, logger, metrics),
		Bootstrapper: schema.NewBootstrapper(client, definition, cfg.TableWaitTimeout, logger, metrics),
	}
}

// ProvideInteractionRepository exposes the store's repository port
func ProvideInteractionRepository(store *Store) ports.InteractionRepository {
	return store.Repository
}

// ProvideTableBootstrapper exposes the store's bootstrapper port
func ProvideTableBootstrapper(store *Store) ports.TableBootstrapper {
	return store.Bootstrapper
}

// ProvideEventPublisher publishes to EventBridge when a bus is configured
func ProvideEventPublisher(awsCfg aws.Config, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	if cfg.EventBusName == "" {
		return eventbridge.NewNoopPublisher(logger)
	}
	return eventbridge.NewEventBridgePublisher(awseventbridge.NewFromConfig(awsCfg), cfg.EventBusName, logger)
}

// ProvideInteractionService creates the application service
func ProvideInteractionService(
	repo ports.InteractionRepository,
	bootstrapper ports.TableBootstrapper,
	publisher ports.EventPublisher,
	tracer trace.Tracer,
	metrics *observability.Collector,
	logger *zap.Logger,
) *services.InteractionService {
	return services.NewInteractionService(repo, bootstrapper, publisher, tracer, metrics, logger)
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	service *services.InteractionService,
	metrics *observability.Collector,
	logger *zap.Logger,
	cfg *config.Config,
) *rest.Router {
	return rest.NewRouter(service, metrics, logger, rest.RouterOptions{
		Debug:      cfg.IsDevelopment(),
		EnableCORS: cfg.EnableCORS,
	})
}
