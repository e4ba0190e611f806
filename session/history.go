package session

import (
	"net/url"
	"strings"
	"sync"
)

// MemoryHistory is an in-process History with back and forward navigation.
// It is safe for concurrent use.
type MemoryHistory struct {
	mu      sync.Mutex
	entries []string
	current int
}

// NewMemoryHistory returns a history whose only entry is location.
func NewMemoryHistory(location string) *MemoryHistory {
	return &MemoryHistory{entries: []string{location}}
}

// Location implements History.
func (h *MemoryHistory) Location() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[h.current]
}

// Push implements History. Forward entries are discarded.
func (h *MemoryHistory) Push(location string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries[:h.current+1], location)
	h.current++
}

// Back moves to the previous entry and returns it.
func (h *MemoryHistory) Back() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current == 0 {
		return h.entries[0], false
	}
	h.current--
	return h.entries[h.current], true
}

// Forward moves to the next entry and returns it.
func (h *MemoryHistory) Forward() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current == len(h.entries)-1 {
		return h.entries[h.current], false
	}
	h.current++
	return h.entries[h.current], true
}

// Len returns the number of entries.
func (h *MemoryHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// QueryFromLocation returns the q parameter of location, or nil when the
// parameter is absent or location does not parse.
func QueryFromLocation(location string) *string {
	u, err := url.Parse(location)
	if err != nil {
		return nil
	}
	values := u.Query()
	if !values.Has(QueryParam) {
		return nil
	}
	q := values.Get(QueryParam)
	return &q
}

// LocationWithQuery returns location with its q parameter set to q, or
// removed when q is nil or empty. Unparseable locations are returned unchanged.
func LocationWithQuery(location string, q *string) string {
	u, err := url.Parse(location)
	if err != nil {
		return location
	}
	values := u.Query()
	if q == nil || *q == "" {
		values.Del(QueryParam)
	} else {
		values.Set(QueryParam, *q)
	}
	u.RawQuery = values.Encode()
	return u.String()
}

// isTracking reports whether the query string of location contains prefix.
// This is a substring heuristic, so "?ref=utm_x" counts as well.
func isTracking(location, prefix string) bool {
	if prefix == "" {
		return false
	}
	u, err := url.Parse(location)
	if err != nil {
		return strings.Contains(location, prefix)
	}
	return strings.Contains(u.RawQuery, prefix)
}
