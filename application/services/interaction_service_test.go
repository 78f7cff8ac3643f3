package services

import (
	"context"
	"fmt"
	"testing"

	"article-interactions/application/ports"
	"article-interactions/application/ports/mocks"
	"article-interactions/domain/events"
	"article-interactions/domain/interaction"
	"article-interactions/infrastructure/persistence/memory"
	"article-interactions/pkg/errors"
	"article-interactions/pkg/observability"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

func newServiceWithMocks() (*InteractionService, *mocks.MockInteractionRepository, *mocks.MockTableBootstrapper, *mocks.MockEventPublisher) {
	repo := new(mocks.MockInteractionRepository)
	boot := new(mocks.MockTableBootstrapper)
	pub := new(mocks.MockEventPublisher)
	svc := NewInteractionService(repo, boot, pub, noop.NewTracerProvider().Tracer("test"), nil, zap.NewNop())
	return svc, repo, boot, pub
}

func newMemoryService() *InteractionService {
	store := memory.NewInMemoryInteractionStore("article_interactions")
	pub := new(mocks.MockEventPublisher)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)
	return NewInteractionService(store, store, pub, noop.NewTracerProvider().Tracer("test"), nil, zap.NewNop())
}

func TestApplyInteraction_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, repo, _, pub := newServiceWithMocks()
	delta := interaction.NewDelta("A", "tech", 1, 2, 3)
	row := interaction.Interaction{}.Apply(delta)

	repo.On("Apply", mock.Anything, delta).Return(&row, nil)
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(e events.DomainEvent) bool {
		applied, ok := e.(events.InteractionApplied)
		return ok && applied.Row.InteractionCount == 6
	})).Return(nil)

	// Act
	got, err := svc.ApplyInteraction(ctx, "A", "tech", 1, 2, 3)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(6), got.InteractionCount)
	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestApplyInteraction_InvalidInputNeverReachesStore(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name              string
		articleID, theme  string
		up, down, neutral int64
	}{
		{"empty article", "", "tech", 1, 0, 0},
		{"empty theme", "A", "", 1, 0, 0},
		{"negative thumbs down", "A", "tech", 0, -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _, pub := newServiceWithMocks()

			_, err := svc.ApplyInteraction(ctx, tt.articleID, tt.theme, tt.up, tt.down, tt.neutral)

			assert.True(t, errors.IsValidation(err))
			repo.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
			pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
		})
	}
}

func TestApplyInteraction_StoreFailurePropagates(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, pub := newServiceWithMocks()
	repo.On("Apply", mock.Anything, mock.Anything).Return(nil, errors.NewUpdateFailure("boom", fmt.Errorf("io")))

	_, err := svc.ApplyInteraction(ctx, "A", "tech", 1, 0, 0)

	assert.True(t, errors.IsUpdateFailure(err))
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestApplyInteraction_PublishFailureDoesNotFailUpdate(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, pub := newServiceWithMocks()
	delta := interaction.NewDelta("A", "tech", 1, 0, 0)
	row := interaction.Interaction{}.Apply(delta)
	repo.On("Apply", mock.Anything, delta).Return(&row, nil)
	pub.On("Publish", mock.Anything, mock.Anything).Return(fmt.Errorf("bus down"))

	got, err := svc.ApplyInteraction(ctx, "A", "tech", 1, 0, 0)

	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ThumbsUp)
}

func TestApplyInteraction_RecordsMetrics(t *testing.T) {
	ctx := context.Background()
	store := memory.NewInMemoryInteractionStore("t")
	metrics := observability.NewCollector("test")
	pub := new(mocks.MockEventPublisher)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)
	svc := NewInteractionService(store, store, pub, noop.NewTracerProvider().Tracer("test"), metrics, zap.NewNop())

	_, err := svc.ApplyInteraction(ctx, "A", "tech", 4, 0, 1)
	require.NoError(t, err)

	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.InteractionsApplied.WithLabelValues("thumbsUp")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.InteractionsApplied.WithLabelValues("neutral")))
}

func TestBootstrap_PublishesTableCreatedOnlyWhenCreated(t *testing.T) {
	ctx := context.Background()
	svc, _, boot, pub := newServiceWithMocks()

	boot.On("Ensure", mock.Anything).Return(&ports.TableStatus{Name: "t", Status: "ACTIVE", Created: true}, nil).Once()
	boot.On("Ensure", mock.Anything).Return(&ports.TableStatus{Name: "t", Status: "ACTIVE"}, nil).Once()
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(e events.DomainEvent) bool {
		return e.GetEventType() == events.TypeTableCreated
	})).Return(nil).Once()

	first, err := svc.Bootstrap(ctx)
	require.NoError(t, err)
	assert.True(t, first.Created)

	second, err := svc.Bootstrap(ctx)
	require.NoError(t, err)
	assert.False(t, second.Created)

	pub.AssertNumberOfCalls(t, "Publish", 1)
	boot.AssertExpectations(t)
}

func TestBootstrap_LookupFailurePropagates(t *testing.T) {
	ctx := context.Background()
	svc, _, boot, _ := newServiceWithMocks()
	boot.On("Ensure", mock.Anything).Return(nil, errors.NewLookupFailure("t", fmt.Errorf("denied")))

	_, err := svc.Bootstrap(ctx)

	assert.True(t, errors.IsLookupFailure(err))
}

func TestTopThemesByInteraction_Validation(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, _ := newServiceWithMocks()

	_, err := svc.TopThemesByInteraction(ctx, "A", 0)
	assert.True(t, errors.IsValidation(err))

	_, err = svc.TopThemesByInteraction(ctx, " ", 10)
	assert.True(t, errors.IsValidation(err))

	repo.AssertNotCalled(t, "TopThemes", mock.Anything, mock.Anything, mock.Anything)
}

func TestFetchRowsByKeys_RejectsIncompleteKey(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, _ := newServiceWithMocks()

	_, err := svc.FetchRowsByKeys(ctx, []interaction.Key{{ArticleID: "A", Theme: "tech"}, {ArticleID: "A"}})

	assert.True(t, errors.IsValidation(err))
	repo.AssertNotCalled(t, "BatchGet", mock.Anything, mock.Anything)
}

func TestTopThemesWithDetails_KeepsRankOrder(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, _ := newServiceWithMocks()

	ranked := []interaction.RankedTheme{
		{ArticleID: "A", Theme: "tech", InteractionCount: 30},
		{ArticleID: "A", Theme: "AI", InteractionCount: 20},
		{ArticleID: "A", Theme: "gone", InteractionCount: 10},
	}
	repo.On("TopThemes", mock.Anything, "A", 3).Return(ranked, nil)
	// Store returns rows in arbitrary order and one row has vanished
	repo.On("BatchGet", mock.Anything, []interaction.Key{ranked[0].Key(), ranked[1].Key(), ranked[2].Key()}).
		Return(&interaction.BatchResult{Rows: []interaction.Interaction{
			{ArticleID: "A", Theme: "AI", ThumbsUp: 20, InteractionCount: 20},
			{ArticleID: "A", Theme: "tech", ThumbsUp: 30, InteractionCount: 30},
		}}, nil)

	rows, err := svc.TopThemesWithDetails(ctx, "A", 3)

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "tech", rows[0].Theme)
	assert.Equal(t, "AI", rows[1].Theme)
	repo.AssertExpectations(t)
}

func TestTopThemesWithDetails_EmptyArticleSkipsBatchGet(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, _ := newServiceWithMocks()
	repo.On("TopThemes", mock.Anything, "A", 10).Return([]interaction.RankedTheme{}, nil)

	rows, err := svc.TopThemesWithDetails(ctx, "A", 10)

	require.NoError(t, err)
	assert.Empty(t, rows)
	repo.AssertNotCalled(t, "BatchGet", mock.Anything, mock.Anything)
}

func TestScanAll_RejectsNonPositiveLimit(t *testing.T) {
	svc, repo, _, _ := newServiceWithMocks()

	_, err := svc.ScanAll(context.Background(), -1)

	assert.True(t, errors.IsValidation(err))
	repo.AssertNotCalled(t, "Scan", mock.Anything, mock.Anything)
}

// TestArticleScenario walks through one article end to end.
func TestArticleScenario(t *testing.T) {
	ctx := context.Background()
	svc := newMemoryService()

	status, err := svc.Bootstrap(ctx)
	require.NoError(t, err)
	assert.True(t, status.Created)

	for _, d := range []struct {
		theme string
		up    int64
	}{{"science", 10}, {"tech", 30}, {"AI", 20}} {
		_, err := svc.ApplyInteraction(ctx, "art1", d.theme, d.up, 0, 0)
		require.NoError(t, err)
	}

	top, err := svc.TopThemesByInteraction(ctx, "art1", 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "tech", top[0].Theme)
	assert.Equal(t, int64(30), top[0].InteractionCount)
	assert.Equal(t, "AI", top[1].Theme)
	assert.Equal(t, int64(20), top[1].InteractionCount)

	rows, err := svc.ListInteractionsForArticle(ctx, "art1")
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	fetched, err := svc.FetchRowsByKeys(ctx, []interaction.Key{
		{ArticleID: "art1", Theme: "tech"},
		{ArticleID: "art1", Theme: "missing"},
	})
	require.NoError(t, err)
	require.Len(t, fetched.Rows, 1)
	assert.Equal(t, "tech", fetched.Rows[0].Theme)

	detailed, err := svc.TopThemesWithDetails(ctx, "art1", 2)
	require.NoError(t, err)
	require.Len(t, detailed, 2)
	assert.Equal(t, int64(30), detailed[0].ThumbsUp)

	again, err := svc.Bootstrap(ctx)
	require.NoError(t, err)
	assert.False(t, again.Created)
}
