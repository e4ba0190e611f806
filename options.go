package searchbox

// SearchOption represents a search configuration option.
type SearchOption interface {
	Apply(*SearchConfig)
}

// SearchConfig holds all search configuration parameters.
type SearchConfig struct {
	// Limit specifies the maximum number of results to return.
	Limit int

	// Offset specifies the number of results to skip for pagination.
	Offset int

	// Weights ranks fields against each other. Empty means DefaultFieldWeights.
	Weights []FieldWeight

	// MinMatchLength drops match spans shorter than this many characters.
	MinMatchLength int
}

// FieldWeight assigns a relative importance to a field.
type FieldWeight struct {
	Field  Field
	Weight float64
}

// DefaultFieldWeights ranks title over subtitle over content.
var DefaultFieldWeights = []FieldWeight{
	{Field: FieldTitle, Weight: 15},
	{Field: FieldSubtitle, Weight: 10},
	{Field: FieldContent, Weight: 5},
}

const (
	// DefaultLimit is used when no limit is configured.
	DefaultLimit = 10
	// DefaultMinMatchLength is used when no minimum match length is configured.
	DefaultMinMatchLength = 3
)

// NewSearchConfig applies opts over the defaults.
func NewSearchConfig(opts ...SearchOption) *SearchConfig {
	cfg := &SearchConfig{}
	for _, opt := range opts {
		opt.Apply(cfg)
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Offset < 0 {
		cfg.Offset = 0
	}
	if len(cfg.Weights) == 0 {
		cfg.Weights = DefaultFieldWeights
	}
	if cfg.MinMatchLength <= 0 {
		cfg.MinMatchLength = DefaultMinMatchLength
	}
	return cfg
}

// Weight returns the configured weight of f, or 0 when f is not weighted.
func (c *SearchConfig) Weight(f Field) float64 {
	for _, w := range c.Weights {
		if w.Field == f {
			return w.Weight
		}
	}
	return 0
}

// optionFunc is a function that implements SearchOption.
type optionFunc func(*SearchConfig)

// Apply implements the SearchOption interface for optionFunc.
func (f optionFunc) Apply(cfg *SearchConfig) {
	f(cfg)
}

// WithLimit sets the maximum number of results to return.
func WithLimit(n int) SearchOption {
	return optionFunc(func(cfg *SearchConfig) {
		cfg.Limit = n
	})
}

// WithOffset sets the number of results to skip for pagination.
func WithOffset(n int) SearchOption {
	return optionFunc(func(cfg *SearchConfig) {
		cfg.Offset = n
	})
}

// WithFieldWeights replaces the field weighting.
func WithFieldWeights(weights ...FieldWeight) SearchOption {
	return optionFunc(func(cfg *SearchConfig) {
		cfg.Weights = append([]FieldWeight(nil), weights...)
	})
}

// WithMinMatchLength sets the shortest match span that is reported.
func WithMinMatchLength(n int) SearchOption {
	return optionFunc(func(cfg *SearchConfig) {
		cfg.MinMatchLength = n
	})
}
