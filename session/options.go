package session

import (
	"log/slog"
	"time"

	"github.com/letmevibethatforyou/searchbox"
	"github.com/letmevibethatforyou/searchbox/snippet"
)

const (
	// DefaultDebounce is the quiet period after the last keystroke.
	DefaultDebounce = 250 * time.Millisecond
	// DefaultLimit caps the ranked result list.
	DefaultLimit = 16
	// DefaultTrackingPrefix marks links that must not trigger a search.
	DefaultTrackingPrefix = "utm_"
	// QueryParam is the location parameter holding the query.
	QueryParam = "q"
)

type config struct {
	debounce       time.Duration
	limit          int
	scheduler      Scheduler
	history        History
	input          Input
	renderer       Renderer
	logger         *slog.Logger
	trimmer        snippet.Trimmer
	queryPrefix    string
	trackingPrefix string
	searchOptions  []searchbox.SearchOption
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		debounce:       DefaultDebounce,
		limit:          DefaultLimit,
		scheduler:      clock{},
		logger:         slog.Default(),
		queryPrefix:    searchbox.ExactPrefix,
		trackingPrefix: DefaultTrackingPrefix,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Option configures a Machine, a Loop or Evaluate.
type Option func(*config)

// WithDebounce sets the quiet period that coalesces keystrokes.
func WithDebounce(d time.Duration) Option {
	return func(c *config) { c.debounce = d }
}

// WithLimit caps the number of results per evaluation.
func WithLimit(limit int) Option {
	return func(c *config) {
		if limit > 0 {
			c.limit = limit
		}
	}
}

// WithScheduler replaces the wall clock used for the debounce timer.
func WithScheduler(s Scheduler) Option {
	return func(c *config) { c.scheduler = s }
}

// WithHistory mirrors committed queries into h.
func WithHistory(h History) Option {
	return func(c *config) { c.history = h }
}

// WithInput keeps the text field in sync with committed queries.
func WithInput(in Input) Option {
	return func(c *config) { c.input = in }
}

// WithRenderer receives every display change.
func WithRenderer(r Renderer) Option {
	return func(c *config) { c.renderer = r }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithTrimmer sets how content windows are cut to boundaries.
func WithTrimmer(t snippet.Trimmer) Option {
	return func(c *config) { c.trimmer = t }
}

// WithQueryPrefix sets the token prepended to every query before it reaches
// the index. The default forces exact substring matching.
func WithQueryPrefix(prefix string) Option {
	return func(c *config) { c.queryPrefix = prefix }
}

// WithTrackingPrefix sets the substring that marks tracking links.
func WithTrackingPrefix(prefix string) Option {
	return func(c *config) { c.trackingPrefix = prefix }
}

// WithSearchOptions passes opts to the index on every search, ahead of the
// result limit.
func WithSearchOptions(opts ...searchbox.SearchOption) Option {
	return func(c *config) { c.searchOptions = append(c.searchOptions, opts...) }
}
