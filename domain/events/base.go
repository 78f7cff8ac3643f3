package events

import (
	"time"

	"article-interactions/domain/interaction"

	"github.com/google/uuid"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetEventID() string
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventID     string    `json:"event_id"`
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetEventID() string      { return e.EventID }
func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

const (
	TypeInteractionApplied = "interaction.applied"
	TypeTableCreated       = "table.created"
)

// InteractionApplied is raised after a delta has been added to a row
type InteractionApplied struct {
	BaseEvent
	ArticleID string                  `json:"article_id"`
	Theme     string                  `json:"theme"`
	Delta     interaction.Delta       `json:"delta"`
	Row       interaction.Interaction `json:"row"`
}

// NewInteractionApplied creates an InteractionApplied event
func NewInteractionApplied(delta interaction.Delta, row interaction.Interaction, timestamp time.Time) InteractionApplied {
	return InteractionApplied{
		BaseEvent: BaseEvent{
			EventID:     uuid.NewString(),
			AggregateID: row.ArticleID + "#" + row.Theme,
			EventType:   TypeInteractionApplied,
			Timestamp:   timestamp,
			Version:     1,
		},
		ArticleID: row.ArticleID,
		Theme:     row.Theme,
		Delta:     delta,
		Row:       row,
	}
}

// TableCreated is raised when bootstrap had to create the table
type TableCreated struct {
	BaseEvent
	TableName string `json:"table_name"`
	Status    string `json:"status"`
}

// NewTableCreated creates a TableCreated event
func NewTableCreated(tableName, status string, timestamp time.Time) TableCreated {
	return TableCreated{
		BaseEvent: BaseEvent{
			EventID:     uuid.NewString(),
			AggregateID: tableName,
			EventType:   TypeTableCreated,
			Timestamp:   timestamp,
			Version:     1,
		},
		TableName: tableName,
		Status:    status,
	}
}
