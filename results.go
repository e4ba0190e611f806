package searchbox

// FieldMatch lists the character spans of one field that matched a query.
type FieldMatch struct {
	// Key is the matched field.
	Key Field `json:"key"`

	// Indices holds [first, last] rune offset pairs, last inclusive.
	Indices [][2]int `json:"indices"`
}

// Hit represents a single ranked search result.
type Hit struct {
	// Document is the matched index record.
	Document Document `json:"item"`

	// Score represents the relevance score of this result. Higher is better.
	Score float64 `json:"score"`

	// Matches holds the per-field match spans, in discovery order.
	Matches []FieldMatch `json:"matches,omitempty"`
}

// Results represents a collection of search results with metadata.
type Results struct {
	// Items contains the individual search results.
	Items []Hit

	// Total is the total number of matching documents.
	Total int64

	// Took is the time taken to execute the search in milliseconds.
	Took int64

	// MaxScore is the maximum relevance score across all results.
	MaxScore float64

	// Query is the original query string for reference.
	Query string

	// NextOffset can be used for pagination.
	NextOffset *int
}
