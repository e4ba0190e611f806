// Package config reads and writes the searchbox.toml settings shared by the
// commands.
package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/searchbox"
	"github.com/letmevibethatforyou/searchbox/session"
	"github.com/letmevibethatforyou/searchbox/snippet"
	"github.com/pelletier/go-toml/v2"
)

// FileName is the default config file name.
const FileName = "searchbox.toml"

// Config represents the application configuration.
type Config struct {
	Version int             `toml:"version"`
	Index   IndexSettings   `toml:"index"`
	Search  SearchSettings  `toml:"search"`
	Algolia AlgoliaSettings `toml:"algolia"`
	UI      UISettings      `toml:"ui"`
}

// IndexSettings selects where documents come from and which backend
// searches them.
type IndexSettings struct {
	Location string `toml:"location"`
	Backend  string `toml:"backend"`
}

// SearchSettings tunes evaluation.
type SearchSettings struct {
	Limit          int                `toml:"limit"`
	MinMatchLength int                `toml:"min_match_length"`
	Debounce       string             `toml:"debounce"`
	Weights        map[string]float64 `toml:"weights"`
}

// AlgoliaSettings configures the hosted backend.
type AlgoliaSettings struct {
	IndexName string `toml:"index_name"`
	SecretARN string `toml:"secret_arn"`

	// Environment reads credentials from the "{environment}/algolia" secret
	// when SecretARN is empty.
	Environment string `toml:"environment"`
}

// UISettings configures the terminal interface.
type UISettings struct {
	StartLocation string `toml:"start_location"`
	Boundary      string `toml:"boundary"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: 1,
		Index: IndexSettings{
			Location: "index.json",
			Backend:  "memory",
		},
		Search: SearchSettings{
			Limit:          session.DefaultLimit,
			MinMatchLength: searchbox.DefaultMinMatchLength,
			Debounce:       session.DefaultDebounce.String(),
			Weights: map[string]float64{
				string(searchbox.FieldTitle):    15,
				string(searchbox.FieldSubtitle): 10,
				string(searchbox.FieldContent):  5,
			},
		},
		UI: UISettings{
			StartLocation: "/search",
			Boundary:      "whitespace",
		},
	}
}

// Load reads path over the defaults. A missing file yields Default.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}
	return nil
}

// Validate reports settings that cannot be used.
func (c *Config) Validate() error {
	switch c.Index.Backend {
	case "memory", "bleve", "algolia":
	default:
		return errors.Mark(errors.Newf("unknown backend %q", c.Index.Backend), searchbox.ErrInvalidOption)
	}

	if _, err := c.DebounceDuration(); err != nil {
		return err
	}

	for name, weight := range c.Search.Weights {
		if !isField(name) {
			return errors.Mark(errors.Newf("unknown field %q in weights", name), searchbox.ErrInvalidOption)
		}
		if weight < 0 {
			return errors.Mark(errors.Newf("negative weight for %q", name), searchbox.ErrInvalidOption)
		}
	}

	switch c.UI.Boundary {
	case "", "whitespace", "none":
	default:
		return errors.Mark(errors.Newf("unknown boundary %q", c.UI.Boundary), searchbox.ErrInvalidOption)
	}
	return nil
}

// DebounceDuration parses Search.Debounce. Empty means the default.
func (c *Config) DebounceDuration() (time.Duration, error) {
	if c.Search.Debounce == "" {
		return session.DefaultDebounce, nil
	}
	d, err := time.ParseDuration(c.Search.Debounce)
	if err != nil {
		return 0, errors.Mark(errors.Wrap(err, "invalid debounce"), searchbox.ErrInvalidOption)
	}
	return d, nil
}

// FieldWeights returns the configured weights in field order, or nil to use
// the backend defaults.
func (c *Config) FieldWeights() []searchbox.FieldWeight {
	if len(c.Search.Weights) == 0 {
		return nil
	}
	weights := make([]searchbox.FieldWeight, 0, len(searchbox.Fields))
	for _, f := range searchbox.Fields {
		if w, ok := c.Search.Weights[string(f)]; ok {
			weights = append(weights, searchbox.FieldWeight{Field: f, Weight: w})
		}
	}
	return weights
}

// SearchOptions converts the search settings into backend options.
func (c *Config) SearchOptions() []searchbox.SearchOption {
	var opts []searchbox.SearchOption
	if weights := c.FieldWeights(); len(weights) > 0 {
		opts = append(opts, searchbox.WithFieldWeights(weights...))
	}
	if c.Search.MinMatchLength > 0 {
		opts = append(opts, searchbox.WithMinMatchLength(c.Search.MinMatchLength))
	}
	return opts
}

// Trimmer returns the snippet trimmer for UI.Boundary.
func (c *Config) Trimmer() snippet.Trimmer {
	if c.UI.Boundary == "none" {
		return snippet.Trimmer{Boundary: snippet.LiteralBoundary}
	}
	return snippet.Trimmer{Boundary: snippet.WhitespaceBoundary}
}

func isField(name string) bool {
	for _, f := range searchbox.Fields {
		if string(f) == name {
			return true
		}
	}
	return false
}
