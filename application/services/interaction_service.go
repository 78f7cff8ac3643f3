package services

import (
	"context"
	"strings"
	"time"

	"article-interactions/application/ports"
	"article-interactions/domain/events"
	"article-interactions/domain/interaction"
	"article-interactions/pkg/errors"
	"article-interactions/pkg/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// InteractionService is the entry point for every interaction operation.
// It validates input, delegates to the repository, and publishes events.
type InteractionService struct {
	repo         ports.InteractionRepository
	bootstrapper ports.TableBootstrapper
	publisher    ports.EventPublisher
	tracer       trace.Tracer
	metrics      *observability.Collector
	logger       *zap.Logger
	now          func() time.Time
}

// NewInteractionService creates a new interaction service
func NewInteractionService(
	repo ports.InteractionRepository,
	bootstrapper ports.TableBootstrapper,
	publisher ports.EventPublisher,
	tracer trace.Tracer,
	metrics *observability.Collector,
	logger *zap.Logger,
) *InteractionService {
	return &InteractionService{
		repo:         repo,
		bootstrapper: bootstrapper,
		publisher:    publisher,
		tracer:       tracer,
		metrics:      metrics,
		logger:       logger,
		now:          time.Now,
	}
}

// Bootstrap makes sure the table exists. A freshly created table is announced
// with a table.created event.
func (s *InteractionService) Bootstrap(ctx context.Context) (status *ports.TableStatus, err error) {
	ctx, span := s.tracer.Start(ctx, "InteractionService.Bootstrap")
	defer func() { observability.EndSpan(span, err) }()

	status, err = s.bootstrapper.Ensure(ctx)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Bool("table.created", status.Created))

	if status.Created {
		s.publish(ctx, events.NewTableCreated(status.Name, status.Status, s.now()))
	}
	return status, nil
}

// Health reports the table state without creating anything
func (s *InteractionService) Health(ctx context.Context) (*ports.TableStatus, error) {
	return s.bootstrapper.Describe(ctx)
}

// ApplyInteraction adds the given counts to the (articleID, theme) row and
// returns the row after the update
func (s *InteractionService) ApplyInteraction(ctx context.Context, articleID, theme string, thumbsUp, thumbsDown, neutral int64) (row *interaction.Interaction, err error) {
	ctx, span := s.tracer.Start(ctx, "InteractionService.ApplyInteraction", observability.ArticleAttributes(articleID, theme))
	defer func() { observability.EndSpan(span, err) }()

	delta := interaction.NewDelta(articleID, theme, thumbsUp, thumbsDown, neutral)
	if err := interaction.ValidateDelta(delta); err != nil {
		return nil, err
	}

	row, err = s.repo.Apply(ctx, delta)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordInteraction(thumbsUp, thumbsDown, neutral)

	// The row is already committed; a lost event must not fail the update.
	s.publish(ctx, events.NewInteractionApplied(delta, *row, s.now()))

	return row, nil
}

// ListInteractionsForArticle returns every theme row of the article, in no
// particular order
func (s *InteractionService) ListInteractionsForArticle(ctx context.Context, articleID string) (rows []interaction.Interaction, err error) {
	ctx, span := s.tracer.Start(ctx, "InteractionService.ListInteractionsForArticle", observability.ArticleAttributes(articleID, ""))
	defer func() { observability.EndSpan(span, err) }()

	if err := requireArticleID(articleID); err != nil {
		return nil, err
	}
	return s.repo.ListByArticle(ctx, articleID)
}

// TopThemesByInteraction returns at most limit themes of the article ordered
// by interaction count, highest first
func (s *InteractionService) TopThemesByInteraction(ctx context.Context, articleID string, limit int) (ranked []interaction.RankedTheme, err error) {
	ctx, span := s.tracer.Start(ctx, "InteractionService.TopThemesByInteraction",
		observability.ArticleAttributes(articleID, ""),
		trace.WithAttributes(attribute.Int("limit", limit)),
	)
	defer func() { observability.EndSpan(span, err) }()

	if err := requireArticleID(articleID); err != nil {
		return nil, err
	}
	if err := interaction.ValidateLimit(limit); err != nil {
		return nil, err
	}
	return s.repo.TopThemes(ctx, articleID, limit)
}

// TopThemesWithDetails ranks the article's themes and then loads the full
// rows, keeping rank order. Rows that disappear or go unprocessed between the
// two reads are left out.
func (s *InteractionService) TopThemesWithDetails(ctx context.Context, articleID string, limit int) (rows []interaction.Interaction, err error) {
	ranked, err := s.TopThemesByInteraction(ctx, articleID, limit)
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		return []interaction.Interaction{}, nil
	}

	keys := make([]interaction.Key, 0, len(ranked))
	for _, r := range ranked {
		keys = append(keys, r.Key())
	}

	result, err := s.FetchRowsByKeys(ctx, keys)
	if err != nil {
		return nil, err
	}
	if result.HasUnprocessed() {
		s.logger.Warn("Some ranked rows were not fetched",
			zap.String("articleID", articleID),
			zap.Int("unprocessed", len(result.Unprocessed)),
		)
	}

	byKey := make(map[interaction.Key]interaction.Interaction, len(result.Rows))
	for _, row := range result.Rows {
		byKey[row.Key()] = row
	}

	rows = make([]interaction.Interaction, 0, len(ranked))
	for _, r := range ranked {
		if row, ok := byKey[r.Key()]; ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// FetchRowsByKeys loads full rows by key. Missing keys are omitted and
// unprocessed keys are reported, not retried.
func (s *InteractionService) FetchRowsByKeys(ctx context.Context, keys []interaction.Key) (result *interaction.BatchResult, err error) {
	ctx, span := s.tracer.Start(ctx, "InteractionService.FetchRowsByKeys",
		trace.WithAttributes(attribute.Int("keys", len(keys))),
	)
	defer func() { observability.EndSpan(span, err) }()

	for _, k := range keys {
		if err := interaction.ValidateKey(k); err != nil {
			return nil, err
		}
	}
	return s.repo.BatchGet(ctx, keys)
}

// ScanAll reads up to limit rows from the whole table. Diagnostic only.
func (s *InteractionService) ScanAll(ctx context.Context, limit int) (rows []interaction.Interaction, err error) {
	ctx, span := s.tracer.Start(ctx, "InteractionService.ScanAll", trace.WithAttributes(attribute.Int("limit", limit)))
	defer func() { observability.EndSpan(span, err) }()

	if err := interaction.ValidateLimit(limit); err != nil {
		return nil, err
	}
	return s.repo.Scan(ctx, limit)
}

func (s *InteractionService) publish(ctx context.Context, event events.DomainEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("eventType", event.GetEventType()),
			zap.String("aggregateID", event.GetAggregateID()),
			zap.Error(err),
		)
	}
}

func requireArticleID(articleID string) error {
	if strings.TrimSpace(articleID) == "" {
		return errors.NewValidationError("articleId is required")
	}
	return nil
}
