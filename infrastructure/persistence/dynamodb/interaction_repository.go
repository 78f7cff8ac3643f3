package dynamodb

import (
	"context"
	"fmt"
	"time"

	"article-interactions/domain/interaction"
	"article-interactions/pkg/errors"
	"article-interactions/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// maxBatchGetKeys is the BatchGetItem limit per request.
const maxBatchGetKeys = 100

// InteractionRepository implements the InteractionRepository port using DynamoDB
type InteractionRepository struct {
	client    API
	tableName string
	indexName string
	logger    *zap.Logger
	metrics   *observability.Collector
}

// NewInteractionRepository creates a new InteractionRepository
func NewInteractionRepository(client API, tableName, indexName string, logger *zap.Logger, metrics *observability.Collector) *InteractionRepository {
	return &InteractionRepository{
		client:    client,
		tableName: tableName,
		indexName: indexName,
		logger:    logger,
		metrics:   metrics,
	}
}

// Apply adds the delta to the row in one UpdateItem call. Counters and the
// total are ADDed together so concurrent updates compose and the total stays
// equal to the sum of the counters. A missing row is created by the update.
// The delta is validated first so its total cannot overflow.
func (r *InteractionRepository) Apply(ctx context.Context, delta interaction.Delta) (*interaction.Interaction, error) {
	if err := interaction.ValidateDelta(delta); err != nil {
		return nil, err
	}

	update := expression.
		Add(expression.Name(interaction.AttrThumbsUp), expression.Value(delta.ThumbsUp)).
		Add(expression.Name(interaction.AttrThumbsDown), expression.Value(delta.ThumbsDown)).
		Add(expression.Name(interaction.AttrNeutral), expression.Value(delta.Neutral)).
		Add(expression.Name(interaction.AttrInteractionCount), expression.Value(delta.Total())).
		Set(expression.Name(interaction.AttrThemeName), expression.Value(delta.Theme))

	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return nil, errors.NewInternalError("failed to build update expression").WithCause(err)
	}

	key, err := attributevalue.MarshalMap(delta.Key)
	if err != nil {
		return nil, errors.NewInternalError("failed to marshal key").WithCause(err)
	}

	started := time.Now()
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       key,
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	r.metrics.ObserveStoreOperation("UpdateItem", r.tableName, started, err)
	if err != nil {
		r.logger.Error("Failed to apply interaction",
			zap.String("articleID", delta.ArticleID),
			zap.String("theme", delta.Theme),
			zap.Error(err),
		)
		return nil, errors.NewUpdateFailure(
			fmt.Sprintf("failed to apply interaction to %s/%s", delta.ArticleID, delta.Theme), err)
	}

	var row interaction.Interaction
	if err := attributevalue.UnmarshalMap(out.Attributes, &row); err != nil {
		return nil, errors.NewInternalError("failed to unmarshal updated row").WithCause(err)
	}

	r.logger.Debug("Applied interaction",
		zap.String("articleID", row.ArticleID),
		zap.String("theme", row.Theme),
		zap.Int64("interactionCount", row.InteractionCount),
	)

	return &row, nil
}

// ListByArticle queries the base table for every theme row of an article,
// following pagination until the partition is exhausted
func (r *InteractionRepository) ListByArticle(ctx context.Context, articleID string) ([]interaction.Interaction, error) {
	expr, err := articleKeyCondition(articleID)
	if err != nil {
		return nil, err
	}

	paginator := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	var rows []interaction.Interaction
	for paginator.HasMorePages() {
		started := time.Now()
		page, err := paginator.NextPage(ctx)
		r.metrics.ObserveStoreOperation("Query", r.tableName, started, err)
		if err != nil {
			r.logger.Error("Failed to query interactions",
				zap.String("articleID", articleID),
				zap.Error(err),
			)
			return nil, errors.NewQueryFailure("query interactions for article", err)
		}

		var pageRows []interaction.Interaction
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &pageRows); err != nil {
			return nil, errors.NewInternalError("failed to unmarshal interactions").WithCause(err)
		}
		rows = append(rows, pageRows...)
	}

	r.logger.Debug("Listed interactions",
		zap.String("articleID", articleID),
		zap.Int("count", len(rows)),
	)

	return rows, nil
}

// TopThemes reads the interaction count index of one article in descending
// order. The index is KEYS_ONLY so only the key and the total come back.
func (r *InteractionRepository) TopThemes(ctx context.Context, articleID string, limit int) ([]interaction.RankedTheme, error) {
	if err := interaction.ValidateLimit(limit); err != nil {
		return nil, err
	}

	expr, err := articleKeyCondition(articleID)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(r.indexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
		Limit:                     aws.Int32(int32(limit)),
	})
	r.metrics.ObserveStoreOperation("QueryIndex", r.tableName, started, err)
	if err != nil {
		r.logger.Error("Failed to query interaction index",
			zap.String("articleID", articleID),
			zap.String("index", r.indexName),
			zap.Error(err),
		)
		return nil, errors.NewQueryFailure("query top themes", err)
	}

	ranked := make([]interaction.RankedTheme, 0, len(out.Items))
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &ranked); err != nil {
		return nil, errors.NewInternalError("failed to unmarshal ranked themes").WithCause(err)
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return ranked, nil
}

// BatchGet fetches full rows by key in chunks of up to 100 keys. Keys that
// match nothing are omitted. Keys the store leaves unprocessed are reported
// back and not re-requested.
func (r *InteractionRepository) BatchGet(ctx context.Context, keys []interaction.Key) (*interaction.BatchResult, error) {
	result := &interaction.BatchResult{
		Rows:        []interaction.Interaction{},
		Unprocessed: []interaction.Key{},
	}

	keys = interaction.DedupeKeys(keys)
	for start := 0; start < len(keys); start += maxBatchGetKeys {
		end := start + maxBatchGetKeys
		if end > len(keys) {
			end = len(keys)
		}
		if err := r.batchGetChunk(ctx, keys[start:end], result); err != nil {
			return nil, err
		}
	}

	r.metrics.RecordConsumedCapacity(result.ConsumedCapacity)
	r.logger.Debug("Batch fetched interactions",
		zap.Int("requested", len(keys)),
		zap.Int("found", len(result.Rows)),
		zap.Int("unprocessed", len(result.Unprocessed)),
		zap.Float64("consumedCapacity", result.ConsumedCapacity),
	)

	return result, nil
}

func (r *InteractionRepository) batchGetChunk(ctx context.Context, keys []interaction.Key, result *interaction.BatchResult) error {
	avKeys := make([]map[string]types.AttributeValue, 0, len(keys))
	for _, k := range keys {
		av, err := attributevalue.MarshalMap(k)
		if err != nil {
			return errors.NewInternalError("failed to marshal key").WithCause(err)
		}
		avKeys = append(avKeys, av)
	}

	started := time.Now()
	out, err := r.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
		RequestItems: map[string]types.KeysAndAttributes{
			r.tableName: {Keys: avKeys},
		},
		ReturnConsumedCapacity: types.ReturnConsumedCapacityTotal,
	})
	r.metrics.ObserveStoreOperation("BatchGetItem", r.tableName, started, err)
	if err != nil {
		r.logger.Error("Failed to batch get interactions",
			zap.Int("keys", len(keys)),
			zap.Error(err),
		)
		return errors.NewQueryFailure("batch get interactions", err)
	}

	var rows []interaction.Interaction
	if err := attributevalue.UnmarshalListOfMaps(out.Responses[r.tableName], &rows); err != nil {
		return errors.NewInternalError("failed to unmarshal interactions").WithCause(err)
	}
	result.Rows = append(result.Rows, rows...)

	if pending, ok := out.UnprocessedKeys[r.tableName]; ok && len(pending.Keys) > 0 {
		var unprocessed []interaction.Key
		if err := attributevalue.UnmarshalListOfMaps(pending.Keys, &unprocessed); err != nil {
			return errors.NewInternalError("failed to unmarshal unprocessed keys").WithCause(err)
		}
		result.Unprocessed = append(result.Unprocessed, unprocessed...)
	}

	for _, cc := range out.ConsumedCapacity {
		if cc.CapacityUnits != nil {
			result.ConsumedCapacity += *cc.CapacityUnits
		}
	}

	return nil
}

// Scan reads up to limit rows across the whole table. Diagnostic only.
func (r *InteractionRepository) Scan(ctx context.Context, limit int) ([]interaction.Interaction, error) {
	if err := interaction.ValidateLimit(limit); err != nil {
		return nil, err
	}

	var (
		rows      []interaction.Interaction
		startKey  map[string]types.AttributeValue
		remaining = limit
	)
	for {
		started := time.Now()
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.tableName),
			Limit:             aws.Int32(int32(remaining)),
			ExclusiveStartKey: startKey,
		})
		r.metrics.ObserveStoreOperation("Scan", r.tableName, started, err)
		if err != nil {
			r.logger.Error("Failed to scan interactions", zap.Error(err))
			return nil, errors.NewQueryFailure("scan interactions", err)
		}

		var pageRows []interaction.Interaction
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &pageRows); err != nil {
			return nil, errors.NewInternalError("failed to unmarshal interactions").WithCause(err)
		}
		if len(pageRows) > remaining {
			pageRows = pageRows[:remaining]
		}
		rows = append(rows, pageRows...)
		remaining -= len(pageRows)

		if remaining <= 0 || len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	return rows, nil
}

func articleKeyCondition(articleID string) (expression.Expression, error) {
	keyCond := expression.Key(interaction.AttrArticleID).Equal(expression.Value(articleID))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return expression.Expression{}, errors.NewInternalError("failed to build key condition").WithCause(err)
	}
	return expr, nil
}
