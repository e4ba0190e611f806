// Package cache decorates a searchbox.Searcher with an LRU of recent results.
package cache

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/letmevibethatforyou/searchbox"
)

// DefaultSize is the number of result sets kept when no size is given.
const DefaultSize = 128

// Searcher serves repeated queries from memory. Results are shared between
// callers and must not be modified.
type Searcher struct {
	next  searchbox.Searcher
	cache *lru.Cache[string, *searchbox.Results]
}

// New wraps next with a cache of size entries.
func New(next searchbox.Searcher, size int) (*Searcher, error) {
	if size <= 0 {
		size = DefaultSize
	}
	c, err := lru.New[string, *searchbox.Results](size)
	if err != nil {
		return nil, errors.Wrap(err, "create lru cache")
	}
	return &Searcher{next: next, cache: c}, nil
}

// Search implements searchbox.Searcher. Errors are not cached.
func (s *Searcher) Search(ctx context.Context, query string, opts ...searchbox.SearchOption) (*searchbox.Results, error) {
	key := cacheKey(query, searchbox.NewSearchConfig(opts...))
	if res, ok := s.cache.Get(key); ok {
		return res, nil
	}

	res, err := s.next.Search(ctx, query, opts...)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, res)
	return res, nil
}

// Len returns the number of cached result sets.
func (s *Searcher) Len() int { return s.cache.Len() }

// Purge drops every cached result, e.g. after the index changed.
func (s *Searcher) Purge() { s.cache.Purge() }

func cacheKey(query string, cfg *searchbox.SearchConfig) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d|%d|%d|", cfg.Limit, cfg.Offset, cfg.MinMatchLength)
	for _, w := range cfg.Weights {
		fmt.Fprintf(&b, "%s=%g,", w.Field, w.Weight)
	}
	b.WriteString("|")
	b.WriteString(query)
	return b.String()
}
