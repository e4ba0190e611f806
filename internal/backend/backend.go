// Package backend opens the index backend selected on the command line.
package backend

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/searchbox"
	"github.com/letmevibethatforyou/searchbox/algolia"
	bleveindex "github.com/letmevibethatforyou/searchbox/bleve"
	"github.com/letmevibethatforyou/searchbox/cache"
	"github.com/letmevibethatforyou/searchbox/corpus"
	"github.com/letmevibethatforyou/searchbox/inmemory"
	"github.com/letmevibethatforyou/searchbox/session"
)

const (
	Memory  = "memory"
	Bleve   = "bleve"
	Algolia = "algolia"
)

// Options selects and configures a backend.
type Options struct {
	// Backend is Memory, Bleve or Algolia.
	Backend string

	// Location is the corpus location for the local backends.
	Location string

	AlgoliaIndex     string
	AlgoliaSecretARN string

	// AlgoliaEnv selects the "{env}/algolia" secret when no ARN is set.
	// With neither, credentials come from the environment.
	AlgoliaEnv string

	// CacheSize bounds the result cache in front of Algolia.
	CacheSize int

	Logger *slog.Logger
}

// Open builds the backend. The returned close function releases it.
func Open(ctx context.Context, opts Options) (searchbox.Searcher, func() error, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	noop := func() error { return nil }

	switch opts.Backend {
	case Memory, "":
		docs, err := corpus.Load(ctx, opts.Location, corpus.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		logger.InfoContext(ctx, "opened in-memory index", "document_count", len(docs))
		return inmemory.New(docs...), noop, nil

	case Bleve:
		docs, err := corpus.Load(ctx, opts.Location, corpus.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		s, err := bleveindex.New(docs...)
		if err != nil {
			return nil, nil, err
		}
		logger.InfoContext(ctx, "opened bleve index", "document_count", len(docs))
		return s, s.Close, nil

	case Algolia:
		if opts.AlgoliaIndex == "" {
			return nil, nil, errors.Mark(errors.New("algolia backend needs an index name"), searchbox.ErrInvalidOption)
		}
		fetchSecrets, err := secrets(ctx, opts, logger)
		if err != nil {
			return nil, nil, err
		}
		s, err := cache.New(algolia.NewSearcher(algolia.NewClient(fetchSecrets), opts.AlgoliaIndex), opts.CacheSize)
		if err != nil {
			return nil, nil, err
		}
		logger.InfoContext(ctx, "opened algolia index", "index", opts.AlgoliaIndex)
		return s, noop, nil

	default:
		return nil, nil, errors.Mark(errors.Newf("unknown backend %q", opts.Backend), searchbox.ErrInvalidOption)
	}
}

// Loader defers Open until the session starts. The backend stays open for
// the life of the process.
func Loader(opts Options) session.LoadFunc {
	return func(ctx context.Context) (searchbox.Searcher, error) {
		s, _, err := Open(ctx, opts)
		return s, err
	}
}

func secrets(ctx context.Context, opts Options, logger *slog.Logger) (algolia.FetchSecrets, error) {
	if opts.AlgoliaSecretARN == "" && opts.AlgoliaEnv == "" {
		return algolia.EnvSecrets(), nil
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AWS config")
	}
	client := secretsmanager.NewFromConfig(cfg)

	if opts.AlgoliaSecretARN != "" {
		logger.InfoContext(ctx, "using AWS Secrets Manager for Algolia credentials", "secret_arn", opts.AlgoliaSecretARN)
		return algolia.AWSSecretsFromARN(ctx, client, opts.AlgoliaSecretARN), nil
	}
	logger.InfoContext(ctx, "using AWS Secrets Manager for Algolia credentials", "environment", opts.AlgoliaEnv)
	return algolia.AWSSecrets(ctx, client, opts.AlgoliaEnv), nil
}
