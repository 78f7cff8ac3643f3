package ports

import (
	"context"

	"article-interactions/domain/events"
	"article-interactions/domain/interaction"
)

// InteractionRepository defines the interface for interaction counter persistence
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type InteractionRepository interface {
	// Apply adds the delta to the row, creating it when absent, and returns the row afterwards
	Apply(ctx context.Context, delta interaction.Delta) (*interaction.Interaction, error)

	// ListByArticle returns every row stored for an article
	ListByArticle(ctx context.Context, articleID string) ([]interaction.Interaction, error)

	// TopThemes returns at most limit themes of an article ordered by interaction count, highest first
	TopThemes(ctx context.Context, articleID string, limit int) ([]interaction.RankedTheme, error)

	// BatchGet fetches full rows for the given keys; missing keys are omitted
	BatchGet(ctx context.Context, keys []interaction.Key) (*interaction.BatchResult, error)

	// Scan reads up to limit rows from the whole table
	Scan(ctx context.Context, limit int) ([]interaction.Interaction, error)
}

// TableStatus is the subset of table metadata callers care about
type TableStatus struct {
	Name    string   `json:"name"`
	Status  string   `json:"status"`
	ARN     string   `json:"arn,omitempty"`
	Indexes []string `json:"indexes,omitempty"`
	Created bool     `json:"created"`
}

// TableBootstrapper makes sure the backing table exists
type TableBootstrapper interface {
	// Ensure creates the table when it does not exist yet
	Ensure(ctx context.Context) (*TableStatus, error)

	// Describe reports the current table state without creating anything
	Describe(ctx context.Context) (*TableStatus, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}
