// Package inmemory provides a searchbox.Searcher over documents held in
// memory, queried with an extended search syntax:
//
//	term      field contains term
//	'term     field contains term, at any length
//	=term     field equals term
//	^term     field starts with term
//	term$     field ends with term
//	!term     field does not contain term
//	!^term    field does not start with term
//	!term$    field does not end with term
//
// Whitespace separated terms must all match the same field; " | " separates
// alternatives. Double quotes group a term that contains spaces. Matching is
// case-insensitive and reports every non-overlapping occurrence.
package inmemory

import (
	"cmp"
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"
	"unicode"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/searchbox"
)

// MaxPatternLength is the longest plain term the index accepts.
const MaxPatternLength = 32

// entry is a stored document plus its case-folded field texts.
type entry struct {
	doc    searchbox.Document
	folded map[searchbox.Field][]rune
}

func newEntry(doc searchbox.Document) entry {
	e := entry{doc: doc, folded: make(map[searchbox.Field][]rune, len(searchbox.Fields))}
	for _, f := range searchbox.Fields {
		e.folded[f] = fold(doc.Text(f))
	}
	return e
}

// Searcher implements the searchbox.Searcher interface using an in-memory store.
type Searcher struct {
	mu       sync.RWMutex
	entries  []entry
	uriIndex map[string]int // maps document URI to index in entries slice
}

// New creates a new in-memory searcher.
// The searcher is ready to use and is safe for concurrent operations.
func New(docs ...searchbox.Document) *Searcher {
	s := &Searcher{
		entries:  make([]entry, 0, len(docs)),
		uriIndex: make(map[string]int),
	}
	s.AddDocuments(docs...)
	return s
}

// AddDocument adds a document to the in-memory store.
// A document with the same non-empty URI is replaced in place; documents
// without a URI are always appended.
func (s *Searcher) AddDocument(doc searchbox.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.add(doc)
}

// AddDocuments adds documents in order, as AddDocument does.
func (s *Searcher) AddDocuments(docs ...searchbox.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range docs {
		s.add(doc)
	}
}

func (s *Searcher) add(doc searchbox.Document) {
	e := newEntry(doc)
	if doc.URI != "" {
		if idx, exists := s.uriIndex[doc.URI]; exists {
			s.entries[idx] = e
			return
		}
		s.uriIndex[doc.URI] = len(s.entries)
	}
	s.entries = append(s.entries, e)
}

// AddJSON adds the documents of a JSON array, the format of a search index
// file.
func (s *Searcher) AddJSON(jsonData []byte) error {
	var docs []searchbox.Document
	if err := json.Unmarshal(jsonData, &docs); err != nil {
		return errors.Wrap(err, "failed to unmarshal JSON")
	}

	s.AddDocuments(docs...)
	return nil
}

// RemoveDocument removes a document by URI from the in-memory store.
// Returns true if the document was found and removed, false if the document was not found.
func (s *Searcher) RemoveDocument(uri string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, exists := s.uriIndex[uri]
	if !exists {
		return false
	}

	s.entries = append(s.entries[:idx], s.entries[idx+1:]...)

	// Rebuild index
	delete(s.uriIndex, uri)
	for i := idx; i < len(s.entries); i++ {
		if u := s.entries[i].doc.URI; u != "" {
			s.uriIndex[u] = i
		}
	}

	return true
}

// Clear removes all documents from the store.
func (s *Searcher) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make([]entry, 0)
	s.uriIndex = make(map[string]int)
}

// Size returns the number of documents currently stored in the in-memory store.
func (s *Searcher) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Search implements the searchbox.Searcher interface.
// An empty query matches every document with a score of 1.
func (s *Searcher) Search(ctx context.Context, query string, opts ...searchbox.SearchOption) (*searchbox.Results, error) {
	startTime := time.Now()

	select {
	case <-ctx.Done():
		return nil, searchbox.ErrCanceled
	default:
	}

	cfg := searchbox.NewSearchConfig(opts...)

	q, err := parseQuery(query)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []searchbox.Hit
	for _, e := range s.entries {
		// Check context periodically
		select {
		case <-ctx.Done():
			return nil, searchbox.ErrCanceled
		default:
		}

		if hit, ok := q.evaluate(e, cfg); ok {
			hits = append(hits, hit)
		}
	}

	slices.SortStableFunc(hits, func(a, b searchbox.Hit) int {
		return cmp.Compare(b.Score, a.Score)
	})

	// Apply pagination
	total := int64(len(hits))
	start := min(cfg.Offset, len(hits))
	end := min(cfg.Offset+cfg.Limit, len(hits))

	results := &searchbox.Results{
		Items: make([]searchbox.Hit, 0, end-start),
		Total: total,
		Query: query,
		Took:  time.Since(startTime).Milliseconds(),
	}

	for _, hit := range hits[start:end] {
		results.MaxScore = max(results.MaxScore, hit.Score)
		results.Items = append(results.Items, hit)
	}

	// Set next offset for pagination
	if end < len(hits) {
		nextOffset := end
		results.NextOffset = &nextOffset
	}

	return results, nil
}

// fold lowercases s rune by rune so offsets into the result equal offsets
// into s.
func fold(s string) []rune {
	runes := []rune(s)
	for i, r := range runes {
		runes[i] = unicode.ToLower(r)
	}
	return runes
}
