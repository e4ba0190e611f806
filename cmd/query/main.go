package main

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/letmevibethatforyou/searchbox"
	"github.com/letmevibethatforyou/searchbox/highlight"
	"github.com/letmevibethatforyou/searchbox/internal/backend"
	"github.com/letmevibethatforyou/searchbox/internal/config"
	"github.com/letmevibethatforyou/searchbox/session"
	"github.com/urfave/cli/v2"
)

const defaultTimeout = 5 * time.Second

func main() {
	_ = godotenv.Load()

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" || os.Getenv("AWS_REGION") != "" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	}

	app := &cli.App{
		Name:  "query",
		Usage: "Evaluate one search query and print the ranked results",
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
				Name:    "query",
				Aliases: []string{"q"},
				Usage:   "Query string to search for; positional arg is a fallback",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Maximum number of results to return; overrides the settings file",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Timeout for loading the index and searching",
				Value: defaultTimeout,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, html or json",
				Value:   "text",
			},
		},
		Action: runAction,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func runAction(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	applyFlags(c, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	query := strings.TrimSpace(c.String("query"))
	if query == "" && c.NArg() > 0 {
		query = strings.TrimSpace(c.Args().First())
	}

	format := c.String("format")
	if _, err := printer(format); err != nil {
		return err
	}

	timeout := c.Duration("timeout")
	if timeout <= 0 {
		slog.WarnContext(c.Context, "timeout must be positive; using default", "timeout", timeout, "default", defaultTimeout)
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(c.Context, timeout)
	defer cancel()

	searcher, closeFn, err := backend.Open(ctx, backendOptions(cfg))
	if err != nil {
		return errors.Wrap(err, "failed to open index")
	}
	defer closeFn()

	slog.InfoContext(ctx, "executing query",
		"backend", cfg.Index.Backend,
		"query", query,
		"limit", cfg.Search.Limit,
		"timeout", timeout,
	)

	d := session.Evaluate(ctx, searcher, query,
		session.WithLimit(cfg.Search.Limit),
		session.WithTrimmer(cfg.Trimmer()),
		session.WithSearchOptions(cfg.SearchOptions()...),
	)
	return write(os.Stdout, d, format)
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
	if c.IsSet("limit") {
		cfg.Search.Limit = c.Int("limit")
	}
}

func backendOptions(cfg *config.Config) backend.Options {
	return backend.Options{
		Backend:          cfg.Index.Backend,
		Location:         cfg.Index.Location,
		AlgoliaIndex:     cfg.Algolia.IndexName,
		AlgoliaSecretARN: cfg.Algolia.SecretARN,
		AlgoliaEnv:       cfg.Algolia.Environment,
	}
}

type printFunc func(w io.Writer, d session.Display) error

func printer(format string) (printFunc, error) {
	switch format {
	case "json":
		return printJSON, nil
	case "html":
		return printHTML, nil
	case "text", "":
		return printText(highlight.DefaultTerminal), nil
	default:
		return nil, errors.Mark(errors.Newf("unknown format %q", format), searchbox.ErrInvalidOption)
	}
}

func write(w io.Writer, d session.Display, format string) error {
	p, err := printer(format)
	if err != nil {
		return err
	}
	return p(w, d)
}

func printJSON(w io.Writer, d session.Display) error {
	payload := struct {
		Query   string           `json:"query"`
		Kind    string           `json:"kind"`
		Message string           `json:"message,omitempty"`
		Results []session.Result `json:"results"`
	}{
		Query:   d.Query,
		Kind:    d.Kind.String(),
		Message: d.Message(),
		Results: d.Results,
	}
	if payload.Results == nil {
		payload.Results = []session.Result{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	return nil
}

func printText(m highlight.Marker) printFunc {
	return func(w io.Writer, d session.Display) error {
		if msg := d.Message(); msg != "" {
			_, err := fmt.Fprintln(w, msg)
			return err
		}
		for i, r := range d.Results {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintln(w, m.Mark(r.Document.Title, r.Title))
			if r.Document.Subtitle != "" {
				fmt.Fprintln(w, "  "+m.Mark(r.Document.Subtitle, r.Subtitle))
			}
			fmt.Fprintln(w, "  "+r.Document.URI)
			if len(r.Snippets) > 0 {
				fmt.Fprintln(w, "  "+highlight.Snippets(m, r.Snippets))
			}
		}
		return nil
	}
}

func printHTML(w io.Writer, d session.Display) error {
	var m highlight.HTML
	if msg := d.Message(); msg != "" {
		_, err := fmt.Fprintf(w, "<p class=\"notice\">%s</p>\n", html.EscapeString(msg))
		return err
	}
	if d.Kind != session.DisplayResults {
		return nil
	}

	fmt.Fprintln(w, "<ol class=\"results\">")
	for _, r := range d.Results {
		fmt.Fprintf(w, "<li><a href=\"%s\">%s</a>", html.EscapeString(r.Document.URI), m.Mark(r.Document.Title, r.Title))
		if r.Document.Subtitle != "" {
			fmt.Fprintf(w, "<small>%s</small>", m.Mark(r.Document.Subtitle, r.Subtitle))
		}
		if len(r.Snippets) > 0 {
			fmt.Fprintf(w, "<p>%s</p>", highlight.Snippets(m, r.Snippets))
		}
		fmt.Fprintln(w, "</li>")
	}
	_, err := fmt.Fprintln(w, "</ol>")
	return err
}
