package algolia

import (
	"context"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/algolia/algoliasearch-client-go/v3/algolia/opt"
	"github.com/algolia/algoliasearch-client-go/v3/algolia/search"
	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/searchbox"
)

const (
	highlightPreTag  = "<em>"
	highlightPostTag = "</em>"
)

// Searcher implements the searchbox.Searcher interface using Algolia.
type Searcher struct {
	client    *Client
	indexName string
}

// NewSearcher creates a new Algolia searcher for the specified index.
func NewSearcher(client *Client, indexName string) *Searcher {
	return &Searcher{
		client:    client,
		indexName: indexName,
	}
}

// Search implements the searchbox.Searcher interface using Algolia search.
// A leading exact-match token is dropped; Algolia has no fuzzy threshold to
// disable.
func (s *Searcher) Search(ctx context.Context, query string, opts ...searchbox.SearchOption) (*searchbox.Results, error) {
	startTime := time.Now()

	select {
	case <-ctx.Done():
		return nil, searchbox.ErrCanceled
	default:
	}

	cfg := searchbox.NewSearchConfig(opts...)
	text := strings.TrimPrefix(query, searchbox.ExactPrefix)

	res, err := s.client.search(ctx, s.indexName, text, buildSearchParams(cfg))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, searchbox.ErrTimeout
		}
		if errors.Is(err, context.Canceled) {
			return nil, searchbox.ErrCanceled
		}

		return nil, errors.WithSecondaryError(
			searchbox.ErrBackendUnavailable,
			errors.Wrapf(err, "Algolia search failed"),
		)
	}

	results, err := convertResults(res, cfg)
	if err != nil {
		return nil, errors.WithSecondaryError(
			searchbox.ErrBackendUnavailable,
			errors.Wrapf(err, "failed to decode Algolia hits"),
		)
	}
	results.Query = query
	results.Took = time.Since(startTime).Milliseconds()
	return results, nil
}

// buildSearchParams converts searchbox.SearchConfig to Algolia search parameters
func buildSearchParams(cfg *searchbox.SearchConfig) []interface{} {
	fields := make([]string, 0, len(cfg.Weights))
	for _, w := range cfg.Weights {
		fields = append(fields, string(w.Field))
	}

	params := []interface{}{
		opt.HitsPerPage(cfg.Limit),
		opt.AttributesToHighlight(fields...),
		opt.HighlightPreTag(highlightPreTag),
		opt.HighlightPostTag(highlightPostTag),
	}
	if cfg.Offset > 0 {
		params = append(params, opt.Page(cfg.Offset/cfg.Limit))
	}
	return params
}

type hitRecord struct {
	Object
	HighlightResult map[string]highlightResult `json:"_highlightResult"`
}

type highlightResult struct {
	Value      string `json:"value"`
	MatchLevel string `json:"matchLevel"`
}

func convertResults(res search.QueryRes, cfg *searchbox.SearchConfig) (*searchbox.Results, error) {
	var records []hitRecord
	if err := res.UnmarshalHits(&records); err != nil {
		return nil, err
	}

	results := &searchbox.Results{
		Items: make([]searchbox.Hit, 0, len(records)),
		Total: int64(res.NbHits),
	}

	for i, rec := range records {
		// Algolia doesn't expose relevance scores, use rank-based scoring
		score := calculateScore(len(records), i)
		results.MaxScore = max(results.MaxScore, score)

		hit := searchbox.Hit{Document: rec.Document, Score: score}
		for _, w := range cfg.Weights {
			hr, ok := rec.HighlightResult[string(w.Field)]
			if !ok || hr.MatchLevel == "none" {
				continue
			}
			indices := parseHighlight(hr.Value, cfg.MinMatchLength)
			if len(indices) > 0 {
				hit.Matches = append(hit.Matches, searchbox.FieldMatch{Key: w.Field, Indices: indices})
			}
		}
		results.Items = append(results.Items, hit)
	}

	nextPage := res.Page + 1
	if nextPage < res.NbPages {
		nextOffset := nextPage * cfg.Limit
		results.NextOffset = &nextOffset
	}

	return results, nil
}

// calculateScore creates a rank-based score for Algolia results
func calculateScore(totalResults, position int) float64 {
	if totalResults == 0 {
		return 1.0
	}
	// Higher positions get higher scores (inverse rank)
	return float64(totalResults-position) / float64(totalResults)
}

// parseHighlight turns an HTML-escaped highlighted value into rune index
// pairs over the unescaped text. Spans shorter than minLength are skipped.
func parseHighlight(value string, minLength int) [][2]int {
	var (
		indices [][2]int
		pos     int
		open    = -1
	)

	for value != "" {
		switch {
		case strings.HasPrefix(value, highlightPreTag):
			value = value[len(highlightPreTag):]
			if open < 0 {
				open = pos
			}
			continue
		case strings.HasPrefix(value, highlightPostTag):
			value = value[len(highlightPostTag):]
			if open >= 0 && pos-open >= max(minLength, 1) {
				indices = append(indices, [2]int{open, pos - 1})
			}
			open = -1
			continue
		}

		next := len(value)
		if i := strings.IndexByte(value, '<'); i > 0 {
			next = i
		} else if i == 0 {
			next = 1
		}
		pos += utf8.RuneCountInString(html.UnescapeString(value[:next]))
		value = value[next:]
	}
	return indices
}
