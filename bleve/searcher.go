// Package bleve provides a searchbox.Searcher backed by an in-memory Bleve
// full-text index.
//
// Bare queries are matched against every weighted field with the field weight
// as boost. Queries using Bleve's query string syntax (field:term, +must,
// -must_not, "phrases") are passed through unchanged.
package bleve

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	blevesearch "github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/searchbox"
)

// Searcher indexes documents in a memory-only Bleve index.
type Searcher struct {
	index bleve.Index

	mu   sync.RWMutex
	docs map[string]searchbox.Document
	seq  int
}

// New creates an index holding docs.
func New(docs ...searchbox.Document) (*Searcher, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, errors.Wrap(err, "create index")
	}

	s := &Searcher{
		index: index,
		docs:  make(map[string]searchbox.Document, len(docs)),
	}
	if err := s.Index(docs...); err != nil {
		_ = index.Close()
		return nil, err
	}
	return s, nil
}

// buildIndexMapping maps the searchable fields as analyzed text with term
// vectors, so hits can report match locations. The URI is stored unanalyzed.
func buildIndexMapping() mapping.IndexMapping {
	text := bleve.NewTextFieldMapping()
	text.Store = false
	text.IncludeTermVectors = true

	uri := bleve.NewKeywordFieldMapping()
	uri.Store = false
	uri.IncludeInAll = false

	doc := bleve.NewDocumentStaticMapping()
	doc.AddFieldMappingsAt("uri", uri)
	for _, f := range searchbox.Fields {
		doc.AddFieldMappingsAt(string(f), text)
	}

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	return m
}

// Index adds docs in a single batch. Documents are keyed by URI; documents
// without one get a generated key.
func (s *Searcher) Index(docs ...searchbox.Document) error {
	if len(docs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.index.NewBatch()
	keyed := make(map[string]searchbox.Document, len(docs))
	for _, doc := range docs {
		id := doc.URI
		if id == "" {
			s.seq++
			id = fmt.Sprintf("doc-%d", s.seq)
		}
		if err := batch.Index(id, fieldsOf(doc)); err != nil {
			return errors.Wrapf(err, "index document %q", id)
		}
		keyed[id] = doc
	}

	if err := s.index.Batch(batch); err != nil {
		return errors.Wrap(err, "commit batch")
	}
	for id, doc := range keyed {
		s.docs[id] = doc
	}
	return nil
}

func fieldsOf(doc searchbox.Document) map[string]interface{} {
	fields := map[string]interface{}{"uri": doc.URI}
	for _, f := range searchbox.Fields {
		fields[string(f)] = doc.Text(f)
	}
	return fields
}

// Close releases the index.
func (s *Searcher) Close() error {
	return s.index.Close()
}

// Search implements the searchbox.Searcher interface.
func (s *Searcher) Search(ctx context.Context, q string, opts ...searchbox.SearchOption) (*searchbox.Results, error) {
	cfg := searchbox.NewSearchConfig(opts...)

	bq, err := buildQuery(strings.TrimPrefix(q, searchbox.ExactPrefix), cfg)
	if err != nil {
		return nil, err
	}

	req := bleve.NewSearchRequestOptions(bq, cfg.Limit, cfg.Offset, false)
	req.IncludeLocations = true

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, searchbox.ErrCanceled
		}
		return nil, errors.WithSecondaryError(searchbox.ErrBackendUnavailable, errors.Wrap(err, "bleve search"))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := &searchbox.Results{
		Items:    make([]searchbox.Hit, 0, len(res.Hits)),
		Total:    int64(res.Total),
		Took:     res.Took.Milliseconds(),
		MaxScore: res.MaxScore,
		Query:    q,
	}
	for _, h := range res.Hits {
		doc, ok := s.docs[h.ID]
		if !ok {
			continue
		}
		results.Items = append(results.Items, searchbox.Hit{
			Document: doc,
			Score:    h.Score,
			Matches:  fieldMatches(doc, h.Locations, cfg),
		})
	}

	if next := cfg.Offset + len(res.Hits); uint64(next) < res.Total {
		results.NextOffset = &next
	}
	return results, nil
}

func buildQuery(q string, cfg *searchbox.SearchConfig) (query.Query, error) {
	if strings.TrimSpace(q) == "" {
		return bleve.NewMatchAllQuery(), nil
	}

	qs := bleve.NewQueryStringQuery(q)
	if _, err := qs.Parse(); err != nil {
		return nil, searchbox.InvalidQueryf("%s", err)
	}
	if strings.ContainsAny(q, `:+-"`) {
		return qs, nil
	}

	disjuncts := make([]query.Query, 0, len(cfg.Weights))
	for _, w := range cfg.Weights {
		m := bleve.NewMatchQuery(q)
		m.SetField(string(w.Field))
		m.SetBoost(w.Weight)
		disjuncts = append(disjuncts, m)
	}
	return bleve.NewDisjunctionQuery(disjuncts...), nil
}

// fieldMatches converts term locations, which Bleve reports in bytes, into
// rune index pairs ordered by position.
func fieldMatches(doc searchbox.Document, locations blevesearch.FieldTermLocationMap, cfg *searchbox.SearchConfig) []searchbox.FieldMatch {
	var matches []searchbox.FieldMatch
	for _, w := range cfg.Weights {
		terms, ok := locations[string(w.Field)]
		if !ok {
			continue
		}

		text := doc.Text(w.Field)
		var indices [][2]int
		for _, locs := range terms {
			for _, loc := range locs {
				if loc.End > uint64(len(text)) || loc.Start >= loc.End {
					continue
				}
				first := utf8.RuneCountInString(text[:loc.Start])
				last := first + utf8.RuneCountInString(text[loc.Start:loc.End]) - 1
				if last-first+1 < cfg.MinMatchLength {
					continue
				}
				indices = append(indices, [2]int{first, last})
			}
		}
		if len(indices) == 0 {
			continue
		}

		slices.SortFunc(indices, func(a, b [2]int) int { return cmp.Compare(a[0], b[0]) })
		indices = slices.Compact(indices)
		matches = append(matches, searchbox.FieldMatch{Key: w.Field, Indices: indices})
	}
	return matches
}
