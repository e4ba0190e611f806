package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/searchbox"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	content := `
version = 1

[index]
location = "https://example.com/index.json"
backend = "bleve"

[search]
limit = 8
min_match_length = 4
debounce = "100ms"

[search.weights]
title = 3.0
subtitle = 2.0
content = 1.0

[algolia]
index_name = "docs"

[ui]
start_location = "/search?q=database"
boundary = "none"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "https://example.com/index.json", cfg.Index.Location)
	require.Equal(t, "bleve", cfg.Index.Backend)
	require.Equal(t, 8, cfg.Search.Limit)
	require.Equal(t, "docs", cfg.Algolia.IndexName)
	require.Equal(t, "/search?q=database", cfg.UI.StartLocation)
	require.Equal(t, "none", cfg.UI.Boundary)

	d, err := cfg.DebounceDuration()
	require.NoError(t, err)
	require.Equal(t, 100*time.Millisecond, d)

	require.Equal(t, []searchbox.FieldWeight{
		{Field: searchbox.FieldTitle, Weight: 3},
		{Field: searchbox.FieldSubtitle, Weight: 2},
		{Field: searchbox.FieldContent, Weight: 1},
	}, cfg.FieldWeights())

	sc := searchbox.NewSearchConfig(cfg.SearchOptions()...)
	require.Equal(t, 4, sc.MinMatchLength)
	require.Equal(t, float64(3), sc.Weight(searchbox.FieldTitle))
}

func TestLoadInvalid(t *testing.T) {
	tests := map[string]string{
		"syntax":       "version = ",
		"backend":      "[index]\nbackend = \"solr\"",
		"debounce":     "[search]\ndebounce = \"soon\"",
		"weight field": "[search.weights]\nbody = 1.0",
		"negative":     "[search.weights]\ntitle = -1.0",
		"boundary":     "[ui]\nboundary = \"regex\"",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

			_, err := Load(path)
			require.Error(t, err)
		})
	}
}

func TestValidateMarksInvalidOption(t *testing.T) {
	cfg := Default()
	cfg.Index.Backend = "solr"

	err := cfg.Validate()
	require.Error(t, err)
	require.True(t, errors.Is(err, searchbox.ErrInvalidOption))
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)

	cfg := Default()
	cfg.Index.Location = "dynamodb://documents?sk=docs"
	cfg.Algolia.SecretARN = "arn:aws:secretsmanager:us-east-1:123456789012:secret:algolia"
	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)
}

func TestSearchOptionsWithoutWeights(t *testing.T) {
	cfg := Default()
	cfg.Search.Weights = nil
	cfg.Search.MinMatchLength = 0

	require.Nil(t, cfg.FieldWeights())
	require.Empty(t, cfg.SearchOptions())
}

func TestTrimmer(t *testing.T) {
	cfg := Default()
	require.False(t, cfg.Trimmer().Boundary('x'))
	require.True(t, cfg.Trimmer().Boundary(' '))

	cfg.UI.Boundary = "none"
	require.False(t, cfg.Trimmer().Boundary(' '))
}
