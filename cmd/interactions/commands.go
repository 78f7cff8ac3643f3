package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"article-interactions/application/services"
	"article-interactions/domain/interaction"
	"article-interactions/internal/seeddata"
	"article-interactions/pkg/errors"

	"go.uber.org/zap"
)

const (
	defaultSeedCount = 300
	defaultScanLimit = 100
	defaultTopLimit  = 2
)

type app struct {
	service *services.InteractionService
	logger  *zap.Logger
	out     io.Writer
}

func newApp(service *services.InteractionService, logger *zap.Logger, out io.Writer) *app {
	return &app{service: service, logger: logger, out: out}
}

func (a *app) bootstrap(ctx context.Context) error {
	status, err := a.service.Bootstrap(ctx)
	if err != nil {
		return err
	}
	return a.print("table", status)
}

func (a *app) seed(ctx context.Context, count int, seed uint64) error {
	_, err := a.seedWith(ctx, seeddata.NewGenerator(seed), count)
	return err
}

func (a *app) seedWith(ctx context.Context, gen *seeddata.Generator, count int) (int, error) {
	if count < 0 {
		return 0, errors.NewValidationError(fmt.Sprintf("count must not be negative, got %d", count))
	}
	applied, err := seeddata.NewSeeder(a.service, a.logger).Seed(ctx, gen.Generate(count))
	fmt.Fprintf(a.out, "applied %d of %d interactions\n", applied, count)
	return applied, err
}

func (a *app) scan(ctx context.Context, limit int) error {
	rows, err := a.service.ScanAll(ctx, limit)
	if err != nil {
		return err
	}
	return a.print(fmt.Sprintf("scan (%d rows)", len(rows)), rows)
}

func (a *app) list(ctx context.Context, articleID string) error {
	rows, err := a.service.ListInteractionsForArticle(ctx, articleID)
	if err != nil {
		return err
	}
	return a.print(fmt.Sprintf("interactions for %s", articleID), rows)
}

func (a *app) top(ctx context.Context, articleID string, limit int, details bool) error {
	title := fmt.Sprintf("top %d themes for %s", limit, articleID)
	if details {
		rows, err := a.service.TopThemesWithDetails(ctx, articleID, limit)
		if err != nil {
			return err
		}
		return a.print(title, rows)
	}

	ranked, err := a.service.TopThemesByInteraction(ctx, articleID, limit)
	if err != nil {
		return err
	}
	return a.print(title, ranked)
}

func (a *app) fetch(ctx context.Context, keys []interaction.Key) error {
	result, err := a.service.FetchRowsByKeys(ctx, keys)
	if err != nil {
		return err
	}
	return a.print("fetched rows", result)
}

// demo replays the whole flow against freshly seeded data
func (a *app) demo(ctx context.Context, count int, seed uint64) error {
	if err := a.bootstrap(ctx); err != nil {
		return err
	}

	gen := seeddata.NewGenerator(seed)
	if _, err := a.seedWith(ctx, gen, count); err != nil {
		return err
	}
	if err := a.scan(ctx, defaultScanLimit); err != nil {
		return err
	}

	articleID := gen.ArticleIDs()[0]
	if err := a.list(ctx, articleID); err != nil {
		return err
	}
	if err := a.top(ctx, articleID, defaultTopLimit, true); err != nil {
		return err
	}

	// One key that the generator may have produced and one it never does
	return a.fetch(ctx, []interaction.Key{
		{ArticleID: articleID, Theme: seeddata.Themes[0]},
		{ArticleID: articleID, Theme: "missing"},
	})
}

func (a *app) print(title string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode output")
	}
	_, err = fmt.Fprintf(a.out, "== %s ==\n%s\n", title, data)
	return err
}

// parseKeys reads articleId:theme pairs. The theme may itself contain colons.
func parseKeys(raw []string) ([]interaction.Key, error) {
	keys := make([]interaction.Key, 0, len(raw))
	for _, r := range raw {
		articleID, theme, ok := strings.Cut(r, ":")
		if !ok {
			return nil, errors.NewValidationError(fmt.Sprintf("key %q is not articleId:theme", r))
		}
		keys = append(keys, interaction.Key{ArticleID: articleID, Theme: theme})
	}
	return keys, nil
}

func seedFrom(flag int) uint64 {
	if flag == 0 {
		return uint64(time.Now().UnixNano())
	}
	return uint64(flag)
}
