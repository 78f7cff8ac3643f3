package dynamodb

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"

	"article-interactions/domain/interaction"
	"article-interactions/pkg/errors"
	"article-interactions/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testTable = "article_interactions"
	testIndex = "interactionCountIndex"
)

func newTestRepository(api *fakeAPI) *InteractionRepository {
	return NewInteractionRepository(api, testTable, testIndex, zap.NewNop(), nil)
}

func mustApply(t *testing.T, repo *InteractionRepository, articleID, theme string, up, down, neutral int64) *interaction.Interaction {
	t.Helper()
	row, err := repo.Apply(context.Background(), interaction.NewDelta(articleID, theme, up, down, neutral))
	require.NoError(t, err)
	return row
}

func TestApplyComposesIncrements(t *testing.T) {
	repo := newTestRepository(newFakeAPI())

	mustApply(t, repo, "A", "tech", 1, 0, 0)
	row := mustApply(t, repo, "A", "tech", 1, 0, 0)

	assert.Equal(t, int64(2), row.ThumbsUp)
	assert.Equal(t, int64(0), row.ThumbsDown)
	assert.Equal(t, int64(0), row.Neutral)
	assert.Equal(t, int64(2), row.InteractionCount)
	assert.Equal(t, "tech", row.ThemeName)
	assert.True(t, row.Consistent())
}

func TestApplyCreatesMissingRow(t *testing.T) {
	repo := newTestRepository(newFakeAPI())

	row := mustApply(t, repo, "A", "AI", 3, 2, 7)

	assert.Equal(t, "A", row.ArticleID)
	assert.Equal(t, "AI", row.Theme)
	assert.Equal(t, int64(12), row.InteractionCount)
}

func TestApplyConcurrentUpdatesAreNotLost(t *testing.T) {
	api := newFakeAPI()
	repo := newTestRepository(api)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Apply(context.Background(), interaction.NewDelta("A", "tech", 1, 2, 3))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rows, err := repo.ListByArticle(context.Background(), "A")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(20), rows[0].ThumbsUp)
	assert.Equal(t, int64(120), rows[0].InteractionCount)
}

func TestApplyFailureIsUpdateFailure(t *testing.T) {
	api := newFakeAPI()
	api.failures["UpdateItem"] = &types.ProvisionedThroughputExceededException{Message: aws.String("slow down")}
	repo := newTestRepository(api)

	_, err := repo.Apply(context.Background(), interaction.NewDelta("A", "tech", 1, 0, 0))

	require.Error(t, err)
	assert.True(t, errors.IsUpdateFailure(err))
	assert.Equal(t, "ProvisionedThroughputExceededException", errors.GetAppError(err).Code)
}

func TestListByArticleReturnsOneRowPerTheme(t *testing.T) {
	api := newFakeAPI()
	api.pageSize = 1
	repo := newTestRepository(api)

	mustApply(t, repo, "art1", "science", 10, 0, 0)
	mustApply(t, repo, "art1", "tech", 30, 0, 0)
	mustApply(t, repo, "art1", "tech", 0, 0, 0)
	mustApply(t, repo, "art1", "AI", 20, 0, 0)
	mustApply(t, repo, "art2", "tech", 99, 0, 0)

	rows, err := repo.ListByArticle(context.Background(), "art1")
	require.NoError(t, err)

	themes := make(map[string]int)
	for _, row := range rows {
		assert.Equal(t, "art1", row.ArticleID)
		themes[row.Theme]++
	}
	assert.Equal(t, map[string]int{"science": 1, "tech": 1, "AI": 1}, themes)
	assert.GreaterOrEqual(t, api.calls["Query"], 3)
}

func TestListByArticleUnknownArticleIsEmpty(t *testing.T) {
	repo := newTestRepository(newFakeAPI())

	rows, err := repo.ListByArticle(context.Background(), "nobody")

	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestTopThemesBoundAndOrder(t *testing.T) {
	repo := newTestRepository(newFakeAPI())
	mustApply(t, repo, "A", "science", 5, 0, 0)
	mustApply(t, repo, "A", "tech", 50, 0, 0)
	mustApply(t, repo, "A", "AI", 20, 0, 0)
	mustApply(t, repo, "B", "tech", 1000, 0, 0)

	top, err := repo.TopThemes(context.Background(), "A", 2)
	require.NoError(t, err)

	require.Len(t, top, 2)
	assert.Equal(t, interaction.RankedTheme{ArticleID: "A", Theme: "tech", InteractionCount: 50}, top[0])
	assert.Equal(t, interaction.RankedTheme{ArticleID: "A", Theme: "AI", InteractionCount: 20}, top[1])
}

func TestTopThemesFewerRowsThanLimit(t *testing.T) {
	repo := newTestRepository(newFakeAPI())
	mustApply(t, repo, "A", "tech", 1, 0, 0)

	top, err := repo.TopThemes(context.Background(), "A", 10)

	require.NoError(t, err)
	assert.Len(t, top, 1)
}

func TestTopThemesRejectsNonPositiveLimit(t *testing.T) {
	api := newFakeAPI()
	repo := newTestRepository(api)

	_, err := repo.TopThemes(context.Background(), "A", 0)

	assert.True(t, errors.IsValidation(err))
	assert.Zero(t, api.calls["QueryIndex"])
}

func TestLimitsAboveStoreMaximumAreRejected(t *testing.T) {
	api := newFakeAPI()
	repo := newTestRepository(api)
	mustApply(t, repo, "A", "tech", 3, 0, 0)
	mustApply(t, repo, "A", "AI", 2, 0, 0)
	mustApply(t, repo, "A", "science", 1, 0, 0)

	tooLarge := interaction.MaxLimit
	tooLarge++

	_, err := repo.TopThemes(context.Background(), "A", tooLarge)
	assert.True(t, errors.IsValidation(err))

	_, err = repo.Scan(context.Background(), tooLarge)
	assert.True(t, errors.IsValidation(err))

	assert.Zero(t, api.calls["QueryIndex"])
	assert.Zero(t, api.calls["Scan"])
}

func TestApplyRejectsOverflowingDeltaBeforeStore(t *testing.T) {
	api := newFakeAPI()
	repo := newTestRepository(api)

	_, err := repo.Apply(context.Background(), interaction.NewDelta("a", "tech", math.MaxInt64, 1, 0))

	assert.True(t, errors.IsValidation(err))
	assert.Zero(t, api.calls["UpdateItem"])
}

func TestBatchGetOmitsMissingKeys(t *testing.T) {
	repo := newTestRepository(newFakeAPI())
	mustApply(t, repo, "art1", "tech", 30, 0, 0)

	res, err := repo.BatchGet(context.Background(), []interaction.Key{
		{ArticleID: "art1", Theme: "tech"},
		{ArticleID: "art1", Theme: "missing"},
	})
	require.NoError(t, err)

	require.Len(t, res.Rows, 1)
	assert.Equal(t, "tech", res.Rows[0].Theme)
	assert.Equal(t, int64(30), res.Rows[0].ThumbsUp)
	assert.False(t, res.HasUnprocessed())
	assert.InDelta(t, 1.0, res.ConsumedCapacity, 0.0001)
}

func TestBatchGetChunksAndCollapsesDuplicates(t *testing.T) {
	api := newFakeAPI()
	repo := newTestRepository(api)

	keys := make([]interaction.Key, 0, 251)
	for i := 0; i < 250; i++ {
		keys = append(keys, interaction.Key{ArticleID: fmt.Sprintf("a%03d", i), Theme: "tech"})
	}
	keys = append(keys, keys[0])

	res, err := repo.BatchGet(context.Background(), keys)
	require.NoError(t, err)

	assert.Empty(t, res.Rows)
	assert.Equal(t, []int{100, 100, 50}, api.batchSizes)
}

func TestBatchGetReportsUnprocessedKeys(t *testing.T) {
	api := newFakeAPI()
	api.maxBatch = 1
	repo := newTestRepository(api)
	mustApply(t, repo, "A", "tech", 1, 0, 0)
	mustApply(t, repo, "A", "AI", 1, 0, 0)

	res, err := repo.BatchGet(context.Background(), []interaction.Key{
		{ArticleID: "A", Theme: "tech"},
		{ArticleID: "A", Theme: "AI"},
	})
	require.NoError(t, err)

	require.Len(t, res.Rows, 1)
	assert.Equal(t, []interaction.Key{{ArticleID: "A", Theme: "AI"}}, res.Unprocessed)
	assert.True(t, res.HasUnprocessed())
	assert.Equal(t, 1, api.calls["BatchGetItem"])
}

func TestBatchGetEmptyInputMakesNoCall(t *testing.T) {
	api := newFakeAPI()
	repo := newTestRepository(api)

	res, err := repo.BatchGet(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, res.Rows)
	assert.Zero(t, api.calls["BatchGetItem"])
}

func TestScanStopsAtLimit(t *testing.T) {
	api := newFakeAPI()
	api.pageSize = 2
	repo := newTestRepository(api)
	for i := 0; i < 5; i++ {
		mustApply(t, repo, fmt.Sprintf("a%d", i), "tech", 1, 0, 0)
	}

	rows, err := repo.Scan(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	all, err := repo.Scan(context.Background(), 100)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestReadFailuresAreQueryFailures(t *testing.T) {
	api := newFakeAPI()
	for _, op := range []string{"Query", "QueryIndex", "BatchGetItem", "Scan"} {
		api.failures[op] = fmt.Errorf("%s unavailable", op)
	}
	repo := newTestRepository(api)
	ctx := context.Background()

	_, err := repo.ListByArticle(ctx, "A")
	assert.True(t, errors.IsQueryFailure(err))

	_, err = repo.TopThemes(ctx, "A", 10)
	assert.True(t, errors.IsQueryFailure(err))

	_, err = repo.BatchGet(ctx, []interaction.Key{{ArticleID: "A", Theme: "tech"}})
	assert.True(t, errors.IsQueryFailure(err))

	_, err = repo.Scan(ctx, 10)
	assert.True(t, errors.IsQueryFailure(err))
}

func TestStoreMetricsAreRecorded(t *testing.T) {
	metrics := observability.NewCollector("test")
	repo := NewInteractionRepository(newFakeAPI(), testTable, testIndex, zap.NewNop(), metrics)

	mustApply(t, repo, "A", "tech", 1, 0, 0)
	_, err := repo.BatchGet(context.Background(), []interaction.Key{{ArticleID: "A", Theme: "tech"}})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StoreOperations.WithLabelValues("UpdateItem", testTable, "success")))
	assert.Equal(t, 0.5, testutil.ToFloat64(metrics.ConsumedRCU))
}
