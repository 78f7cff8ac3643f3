// Package mocks provides testify mocks of the application ports.
package mocks

import (
	"context"

	"article-interactions/application/ports"
	"article-interactions/domain/events"
	"article-interactions/domain/interaction"

	"github.com/stretchr/testify/mock"
)

// MockInteractionRepository is a mock implementation of ports.InteractionRepository
type MockInteractionRepository struct {
	mock.Mock
}

func (m *MockInteractionRepository) Apply(ctx context.Context, delta interaction.Delta) (*interaction.Interaction, error) {
	args := m.Called(ctx, delta)
	row, _ := args.Get(0).(*interaction.Interaction)
	return row, args.Error(1)
}

func (m *MockInteractionRepository) ListByArticle(ctx context.Context, articleID string) ([]interaction.Interaction, error) {
	args := m.Called(ctx, articleID)
	rows, _ := args.Get(0).([]interaction.Interaction)
	return rows, args.Error(1)
}

func (m *MockInteractionRepository) TopThemes(ctx context.Context, articleID string, limit int) ([]interaction.RankedTheme, error) {
	args := m.Called(ctx, articleID, limit)
	ranked, _ := args.Get(0).([]interaction.RankedTheme)
	return ranked, args.Error(1)
}

func (m *MockInteractionRepository) BatchGet(ctx context.Context, keys []interaction.Key) (*interaction.BatchResult, error) {
	args := m.Called(ctx, keys)
	result, _ := args.Get(0).(*interaction.BatchResult)
	return result, args.Error(1)
}

func (m *MockInteractionRepository) Scan(ctx context.Context, limit int) ([]interaction.Interaction, error) {
	args := m.Called(ctx, limit)
	rows, _ := args.Get(0).([]interaction.Interaction)
	return rows, args.Error(1)
}

// MockTableBootstrapper is a mock implementation of ports.TableBootstrapper
type MockTableBootstrapper struct {
	mock.Mock
}

func (m *MockTableBootstrapper) Ensure(ctx context.Context) (*ports.TableStatus, error) {
	args := m.Called(ctx)
	status, _ := args.Get(0).(*ports.TableStatus)
	return status, args.Error(1)
}

func (m *MockTableBootstrapper) Describe(ctx context.Context) (*ports.TableStatus, error) {
	args := m.Called(ctx)
	status, _ := args.Get(0).(*ports.TableStatus)
	return status, args.Error(1)
}

// MockEventPublisher is a mock implementation of ports.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventPublisher) PublishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	args := m.Called(ctx, domainEvents)
	return args.Error(0)
}

var (
	_ ports.InteractionRepository = (*MockInteractionRepository)(nil)
	_ ports.TableBootstrapper     = (*MockTableBootstrapper)(nil)
	_ ports.EventPublisher        = (*MockEventPublisher)(nil)
)
