package seeddata

import (
	"context"

	"article-interactions/domain/interaction"
	"article-interactions/pkg/errors"

	"go.uber.org/zap"
)

// Applier applies one delta. Satisfied by the interaction service.
type Applier interface {
	ApplyInteraction(ctx context.Context, articleID, theme string, thumbsUp, thumbsDown, neutral int64) (*interaction.Interaction, error)
}

// Seeder applies deltas one after another.
type Seeder struct {
	applier Applier
	logger  *zap.Logger
}

// NewSeeder creates a seeder
func NewSeeder(applier Applier, logger *zap.Logger) *Seeder {
	return &Seeder{applier: applier, logger: logger}
}

// Seed applies deltas in order and stops at the first failure. It returns the
// number applied; those updates stay committed when a later one fails.
func (s *Seeder) Seed(ctx context.Context, deltas []interaction.Delta) (int, error) {
	for i, d := range deltas {
		if err := ctx.Err(); err != nil {
			return i, errors.Wrapf(err, "seeding cancelled after %d of %d", i, len(deltas))
		}
		if _, err := s.applier.ApplyInteraction(ctx, d.ArticleID, d.Theme, d.ThumbsUp, d.ThumbsDown, d.Neutral); err != nil {
			s.logger.Error("Seeding halted",
				zap.Int("applied", i),
				zap.Int("total", len(deltas)),
				zap.String("articleID", d.ArticleID),
				zap.String("theme", d.Theme),
				zap.Error(err),
			)
			return i, errors.Wrapf(err, "seeding halted after %d of %d", i, len(deltas))
		}
	}

	s.logger.Info("Seeding complete", zap.Int("applied", len(deltas)))
	return len(deltas), nil
}
