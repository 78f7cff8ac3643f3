// Package schema makes sure the interaction table exists before it is used.
package schema

import (
	"context"
	"errors"
	"time"

	"article-interactions/application/ports"
	apperrors "article-interactions/pkg/errors"
	"article-interactions/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// TableAPI is the part of the DynamoDB client the bootstrapper needs.
type TableAPI interface {
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

var _ TableAPI = (*dynamodb.Client)(nil)

// TableHandle is the table metadata returned by EnsureTable.
type TableHandle struct {
	Name      string
	Status    types.TableStatus
	ARN       string
	KeySchema []types.KeySchemaElement
	Indexes   []string
	// Created is true only when this call issued CreateTable.
	Created bool
}

// Bootstrapper creates a table on first use and leaves existing tables alone.
type Bootstrapper struct {
	client      TableAPI
	definition  TableDefinition
	waitTimeout time.Duration
	logger      *zap.Logger
	metrics     *observability.Collector
}

// NewBootstrapper creates a bootstrapper for definition. A zero waitTimeout
// returns right after CreateTable without waiting for ACTIVE.
func NewBootstrapper(client TableAPI, definition TableDefinition, waitTimeout time.Duration, logger *zap.Logger, metrics *observability.Collector) *Bootstrapper {
	return &Bootstrapper{
		client:      client,
		definition:  definition,
		waitTimeout: waitTimeout,
		logger:      logger,
		metrics:     metrics,
	}
}

// Ensure runs EnsureTable for the configured definition.
func (b *Bootstrapper) Ensure(ctx context.Context) (*ports.TableStatus, error) {
	handle, err := b.EnsureTable(ctx, b.definition)
	if err != nil {
		return nil, err
	}
	return handle.status(), nil
}

// Describe reports the configured table without creating it.
func (b *Bootstrapper) Describe(ctx context.Context) (*ports.TableStatus, error) {
	name := b.definition.Name
	out, err := b.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(name)})
	if err != nil {
		if isTableNotFound(err) {
			return nil, apperrors.NewNotFoundError("table '" + name + "'").WithCause(err)
		}
		return nil, apperrors.NewLookupFailure(name, err)
	}
	return handleFrom(out.Table, false, name).status(), nil
}

// EnsureTable returns the metadata of the table named by def, creating it
// when DescribeTable reports it missing. Only a not-found lookup leads to a
// create; any other lookup error is returned and nothing is created. An
// existing table is returned as is, even if its shape differs from def.
func (b *Bootstrapper) EnsureTable(ctx context.Context, def TableDefinition) (*TableHandle, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	out, err := b.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(def.Name)})
	if err == nil {
		handle := handleFrom(out.Table, false, def.Name)
		b.logger.Debug("Table already exists",
			zap.String("table", handle.Name),
			zap.String("status", string(handle.Status)),
		)
		return handle, nil
	}
	if !isTableNotFound(err) {
		b.logger.Error("Failed to describe table",
			zap.String("table", def.Name),
			zap.Error(err),
		)
		return nil, apperrors.NewLookupFailure(def.Name, err)
	}

	input, err := def.createTableInput()
	if err != nil {
		return nil, err
	}

	b.logger.Info("Creating table", zap.String("table", def.Name))
	created, err := b.client.CreateTable(ctx, input)
	if err != nil {
		b.logger.Error("Failed to create table",
			zap.String("table", def.Name),
			zap.Error(err),
		)
		return nil, apperrors.NewCreateFailure(def.Name, err)
	}
	b.metrics.RecordTableCreated()

	desc := created.TableDescription
	if b.waitTimeout > 0 {
		waiter := dynamodb.NewTableExistsWaiter(b.client)
		ready, err := waiter.WaitForOutput(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(def.Name)}, b.waitTimeout)
		if err != nil {
			return nil, apperrors.NewCreateFailure(def.Name, err).
				WithDetails(map[string]interface{}{"stage": "wait_for_active"})
		}
		desc = ready.Table
	}

	handle := handleFrom(desc, true, def.Name)
	b.logger.Info("Table created",
		zap.String("table", handle.Name),
		zap.String("status", string(handle.Status)),
	)
	return handle, nil
}

func isTableNotFound(err error) bool {
	var notFound *types.ResourceNotFoundException
	return errors.As(err, &notFound)
}

// handleFrom converts a description; a missing one or a missing name falls
// back to the requested table name.
func handleFrom(desc *types.TableDescription, created bool, name string) *TableHandle {
	handle := &TableHandle{Name: name, Created: created}
	if desc == nil {
		return handle
	}
	if n := aws.ToString(desc.TableName); n != "" {
		handle.Name = n
	}
	handle.Status = desc.TableStatus
	handle.ARN = aws.ToString(desc.TableArn)
	handle.KeySchema = desc.KeySchema
	for _, gsi := range desc.GlobalSecondaryIndexes {
		handle.Indexes = append(handle.Indexes, aws.ToString(gsi.IndexName))
	}
	return handle
}

func (h *TableHandle) status() *ports.TableStatus {
	return &ports.TableStatus{
		Name:    h.Name,
		Status:  string(h.Status),
		ARN:     h.ARN,
		Indexes: h.Indexes,
		Created: h.Created,
	}
}
