package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"article-interactions/infrastructure/config"
	"article-interactions/infrastructure/di"

	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := &cli.Command{
		Name:  "interactions",
		Usage: "Bootstrap, seed and query the article interactions table",
		Commands: []*cli.Command{
			{
				Name:   "bootstrap",
				Usage:  "Create the table and its index if missing",
				Action: withContainer(runBootstrap),
			},
			{
				Name:  "seed",
				Usage: "Apply randomly generated interactions",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "count", Value: defaultSeedCount, Usage: "number of deltas to apply"},
					&cli.IntFlag{Name: "seed", Usage: "random seed (0 picks one from the clock)"},
				},
				Action: withContainer(func(ctx context.Context, c *cli.Command, a *app) error {
					return a.seed(ctx, c.Int("count"), seedFrom(c.Int("seed")))
				}),
			},
			{
				Name:  "scan",
				Usage: "Print rows from the whole table",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: defaultScanLimit, Usage: "maximum rows"},
				},
				Action: withContainer(func(ctx context.Context, c *cli.Command, a *app) error {
					return a.scan(ctx, c.Int("limit"))
				}),
			},
			{
				Name:  "list",
				Usage: "Print every theme row of an article",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "article", Required: true, Usage: "article id"},
				},
				Action: withContainer(func(ctx context.Context, c *cli.Command, a *app) error {
					return a.list(ctx, c.String("article"))
				}),
			},
			{
				Name:  "top",
				Usage: "Print an article's themes ranked by interaction count",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "article", Required: true, Usage: "article id"},
					&cli.IntFlag{Name: "limit", Value: defaultTopLimit, Usage: "number of themes"},
					&cli.BoolFlag{Name: "details", Usage: "load full rows for the ranked themes"},
				},
				Action: withContainer(func(ctx context.Context, c *cli.Command, a *app) error {
					return a.top(ctx, c.String("article"), c.Int("limit"), c.Bool("details"))
				}),
			},
			{
				Name:  "fetch",
				Usage: "Batch-get rows by key",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "key", Required: true, Usage: "row key as articleId:theme (repeatable)"},
				},
				Action: withContainer(func(ctx context.Context, c *cli.Command, a *app) error {
					keys, err := parseKeys(c.StringSlice("key"))
					if err != nil {
						return err
					}
					return a.fetch(ctx, keys)
				}),
			},
			{
				Name:  "demo",
				Usage: "Bootstrap, seed, then run every read against the seeded data",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "count", Value: defaultSeedCount, Usage: "number of deltas to apply"},
					&cli.IntFlag{Name: "seed", Usage: "random seed (0 picks one from the clock)"},
				},
				Action: withContainer(func(ctx context.Context, c *cli.Command, a *app) error {
					return a.demo(ctx, c.Int("count"), seedFrom(c.Int("seed")))
				}),
			},
		},
	}

	if err := root.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withContainer builds the dependency container for one command run
func withContainer(fn func(ctx context.Context, c *cli.Command, a *app) error) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		container, cleanup, err := di.InitializeContainer(ctx, cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		return fn(ctx, c, newApp(container.Service, container.Logger, c.Root().Writer))
	}
}

func runBootstrap(ctx context.Context, _ *cli.Command, a *app) error {
	return a.bootstrap(ctx)
}
