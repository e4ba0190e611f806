package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/letmevibethatforyou/searchbox/internal/backend"
	"github.com/letmevibethatforyou/searchbox/internal/config"
	"github.com/letmevibethatforyou/searchbox/internal/tui"
	"github.com/letmevibethatforyou/searchbox/session"
	"github.com/urfave/cli/v2"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "searchbox",
		Usage: "Search an index interactively as you type",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the settings file",
				EnvVars: []string{"SEARCHBOX_CONFIG"},
				Value:   config.FileName,
			},
			&cli.StringFlag{
				Name:    "index",
				Aliases: []string{"i"},
				Usage:   "Index JSON location (file path, http(s) URL or dynamodb://table?sk=index); overrides the settings file",
				EnvVars: []string{"SEARCH_INDEX"},
			},
			&cli.StringFlag{
				Name:    "backend",
				Aliases: []string{"b"},
				Usage:   "Search backend: memory, bleve or algolia; overrides the settings file",
				EnvVars: []string{"SEARCH_BACKEND"},
			},
			&cli.StringFlag{
				Name:    "algolia-index",
				Usage:   "Algolia index name",
				EnvVars: []string{"ALGOLIA_INDEX"},
			},
			&cli.StringFlag{
				Name:    "algolia-secret-arn",
				Usage:   "ARN of AWS Secrets Manager secret containing Algolia credentials",
				EnvVars: []string{"ALGOLIA_SECRET_ARN"},
			},
			&cli.StringFlag{
				Name:    "location",
				Aliases: []string{"l"},
				Usage:   "Start location, e.g. /search?q=database; overrides the settings file",
			},
			&cli.DurationFlag{
				Name:  "debounce",
				Usage: "Quiet period after the last keystroke; overrides the settings file",
			},
			&cli.StringFlag{
				Name:    "log-file",
				Usage:   "Write logs to this file; logging is off otherwise",
				EnvVars: []string{"SEARCHBOX_LOG"},
			},
		},
		Action: runAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "searchbox: %v\n", err)
		os.Exit(1)
	}
}

func runAction(c *cli.Context) error {
	logger, closeLog, err := newLogger(c.String("log-file"))
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	applyFlags(c, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	debounce, err := cfg.DebounceDuration()
	if err != nil {
		return err
	}

	history := session.NewMemoryHistory(cfg.UI.StartLocation)
	bridge := tui.NewBridge()

	load := bridge.Load(backend.Loader(backend.Options{
		Backend:          cfg.Index.Backend,
		Location:         cfg.Index.Location,
		AlgoliaIndex:     cfg.Algolia.IndexName,
		AlgoliaSecretARN: cfg.Algolia.SecretARN,
		AlgoliaEnv:       cfg.Algolia.Environment,
		Logger:           logger,
	}))

	loop := session.NewLoop(load,
		session.WithDebounce(debounce),
		session.WithLimit(cfg.Search.Limit),
		session.WithHistory(history),
		session.WithInput(bridge),
		session.WithRenderer(bridge),
		session.WithLogger(logger),
		session.WithTrimmer(cfg.Trimmer()),
		session.WithSearchOptions(cfg.SearchOptions()...),
	)

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	p := tea.NewProgram(tui.New(loop, history), tea.WithAltScreen(), tea.WithContext(ctx))

	go loop.Run(ctx)
	go bridge.Run(ctx, p)

	logger.InfoContext(ctx, "starting searchbox",
		"backend", cfg.Index.Backend,
		"location", cfg.UI.StartLocation,
		"debounce", debounce,
	)

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("error running program: %w", err)
	}

	// Leave the final location on stdout so it can be reopened.
	fmt.Println(history.Location())
	return nil
}

func applyFlags(c *cli.Context, cfg *config.Config) {
	if v := c.String("index"); v != "" {
		cfg.Index.Location = v
	}
	if v := c.String("backend"); v != "" {
		cfg.Index.Backend = v
	}
	if v := c.String("algolia-index"); v != "" {
		cfg.Algolia.IndexName = v
	}
	if v := c.String("algolia-secret-arn"); v != "" {
		cfg.Algolia.SecretARN = v
	}
	if v := c.String("location"); v != "" {
		cfg.UI.StartLocation = v
	}
	if c.IsSet("debounce") {
		cfg.Search.Debounce = c.Duration("debounce").String()
	}
}

// newLogger logs to path, or discards when path is empty. The terminal
// belongs to the UI while it runs.
func newLogger(path string) (*slog.Logger, func() error, error) {
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() error { return nil }, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("could not open log file: %w", err)
	}
	return slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})), f.Close, nil
}
