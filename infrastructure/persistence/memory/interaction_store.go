package memory

import (
	"context"
	"sort"
	"sync"

	"article-interactions/application/ports"
	"article-interactions/domain/interaction"
)

// InMemoryInteractionStore provides an in-memory implementation of the
// interaction repository and table bootstrapper. Used for local runs without
// a DynamoDB endpoint and by tests.
type InMemoryInteractionStore struct {
	mu        sync.RWMutex
	rows      map[interaction.Key]interaction.Interaction
	tableName string
	created   bool
}

// NewInMemoryInteractionStore creates a new in-memory interaction store
func NewInMemoryInteractionStore(tableName string) *InMemoryInteractionStore {
	return &InMemoryInteractionStore{
		rows:      make(map[interaction.Key]interaction.Interaction),
		tableName: tableName,
	}
}

// Ensure marks the table as existing; only the first call reports Created
func (s *InMemoryInteractionStore) Ensure(ctx context.Context) (*ports.TableStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := !s.created
	s.created = true
	return &ports.TableStatus{Name: s.tableName, Status: "ACTIVE", Created: created}, nil
}

// Describe reports the table as active
func (s *InMemoryInteractionStore) Describe(ctx context.Context) (*ports.TableStatus, error) {
	return &ports.TableStatus{Name: s.tableName, Status: "ACTIVE"}, nil
}

// Apply adds the delta under the write lock
func (s *InMemoryInteractionStore) Apply(ctx context.Context, delta interaction.Delta) (*interaction.Interaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.rows[delta.Key].Apply(delta)
	s.rows[delta.Key] = row
	return &row, nil
}

// ListByArticle returns the article's rows ordered by theme
func (s *InMemoryInteractionStore) ListByArticle(ctx context.Context, articleID string) ([]interaction.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []interaction.Interaction
	for k, row := range s.rows {
		if k.ArticleID == articleID {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Theme < rows[j].Theme })
	return rows, nil
}

// TopThemes ranks the article's rows by interaction count, highest first
func (s *InMemoryInteractionStore) TopThemes(ctx context.Context, articleID string, limit int) ([]interaction.RankedTheme, error) {
	if err := interaction.ValidateLimit(limit); err != nil {
		return nil, err
	}

	rows, _ := s.ListByArticle(ctx, articleID)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].InteractionCount > rows[j].InteractionCount
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}

	ranked := make([]interaction.RankedTheme, 0, len(rows))
	for _, row := range rows {
		ranked = append(ranked, interaction.RankedTheme{
			ArticleID:        row.ArticleID,
			Theme:            row.Theme,
			InteractionCount: row.InteractionCount,
		})
	}
	return ranked, nil
}

// BatchGet returns the rows that exist for keys; nothing is ever unprocessed
func (s *InMemoryInteractionStore) BatchGet(ctx context.Context, keys []interaction.Key) (*interaction.BatchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := &interaction.BatchResult{
		Rows:        []interaction.Interaction{},
		Unprocessed: []interaction.Key{},
	}
	for _, k := range interaction.DedupeKeys(keys) {
		if row, ok := s.rows[k]; ok {
			result.Rows = append(result.Rows, row)
		}
	}
	return result, nil
}

// Scan returns up to limit rows in key order
func (s *InMemoryInteractionStore) Scan(ctx context.Context, limit int) ([]interaction.Interaction, error) {
	if err := interaction.ValidateLimit(limit); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]interaction.Interaction, 0, len(s.rows))
	for _, row := range s.rows {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ArticleID != rows[j].ArticleID {
			return rows[i].ArticleID < rows[j].ArticleID
		}
		return rows[i].Theme < rows[j].Theme
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

var (
	_ ports.InteractionRepository = (*InMemoryInteractionStore)(nil)
	_ ports.TableBootstrapper     = (*InMemoryInteractionStore)(nil)
)
