package session

import (
	"context"
	"reflect"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/searchbox"
	"github.com/letmevibethatforyou/searchbox/snippet"
)

func TestEvaluateEndToEnd(t *testing.T) {
	searcher := newRecordingSearcher()

	d := Evaluate(context.Background(), searcher, "database")
	if d.Kind != DisplayResults {
		t.Fatalf("Expected results, got kind %d (%v)", d.Kind, d.Err)
	}
	if len(d.Results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(d.Results))
	}
	if want := []string{"'database"}; !reflect.DeepEqual(searcher.queries, want) {
		t.Errorf("Expected index queries %v, got %v", want, searcher.queries)
	}

	r := d.Results[0]
	if r.Document.URI != "/storage/" {
		t.Errorf("Expected /storage/, got %s", r.Document.URI)
	}
	wantPositions := snippet.Positions{
		searchbox.FieldTitle:    {},
		searchbox.FieldSubtitle: {},
		searchbox.FieldContent:  {{Start: 40, Length: 8}},
	}
	if !reflect.DeepEqual(r.Positions, wantPositions) {
		t.Errorf("Expected positions %+v, got %+v", wantPositions, r.Positions)
	}
	if len(r.Title) != 0 || len(r.Subtitle) != 0 {
		t.Errorf("Expected no title or subtitle highlights, got %+v %+v", r.Title, r.Subtitle)
	}

	if len(r.Snippets) != 1 {
		t.Fatalf("Expected 1 snippet, got %d", len(r.Snippets))
	}
	s := r.Snippets[0]
	if s.Start != 10 || s.Length != 68 {
		t.Errorf("Expected window [10, 78), got start %d length %d", s.Start, s.Length)
	}
	if want := "kept in tables inside every database engine, and queries read"; s.Text != want {
		t.Errorf("Expected text %q, got %q", want, s.Text)
	}
	if want := []snippet.Highlight{{Start: 28, Length: 8}}; !reflect.DeepEqual(s.Highlights, want) {
		t.Errorf("Expected highlights %+v, got %+v", want, s.Highlights)
	}
	if s.IsStart || s.IsEnd {
		t.Errorf("Expected a mid-field snippet, got start=%v end=%v", s.IsStart, s.IsEnd)
	}
}

func TestEvaluateTitleHighlights(t *testing.T) {
	d := Evaluate(context.Background(), newRecordingSearcher(), "caching")
	if d.Kind != DisplayResults || len(d.Results) != 1 {
		t.Fatalf("Expected one result, got %+v", d)
	}

	r := d.Results[0]
	if want := []snippet.Highlight{{Start: 0, Length: 7}}; !reflect.DeepEqual(r.Title, want) {
		t.Errorf("Expected title highlights %+v, got %+v", want, r.Title)
	}

	// Content without matches still gets the leading excerpt
	if len(r.Snippets) != 1 {
		t.Fatalf("Expected 1 snippet, got %d", len(r.Snippets))
	}
	if !r.Snippets[0].Sole || r.Snippets[0].Text != "Tune the cache size before adding indexes." {
		t.Errorf("Expected the sole leading excerpt, got %+v", r.Snippets[0])
	}
}

func TestEvaluateDisplays(t *testing.T) {
	tests := map[string]struct {
		query       string
		wantKind    DisplayKind
		wantMessage string
		wantCalls   int
	}{
		"empty query": {
			query:     "",
			wantKind:  DisplayHidden,
			wantCalls: 0,
		},
		"blank query": {
			query:     "   ",
			wantKind:  DisplayHidden,
			wantCalls: 0,
		},
		"no matches": {
			query:       "zebra",
			wantKind:    DisplayEmpty,
			wantMessage: `No results matching "zebra"`,
			wantCalls:   1,
		},
		"invalid syntax": {
			query:       `"open`,
			wantKind:    DisplayError,
			wantMessage: "Invalid search query: Unbalanced quote in query",
			wantCalls:   1,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			searcher := newRecordingSearcher()
			d := Evaluate(context.Background(), searcher, tc.query)

			if d.Kind != tc.wantKind {
				t.Errorf("Expected kind %d, got %d", tc.wantKind, d.Kind)
			}
			if got := d.Message(); got != tc.wantMessage {
				t.Errorf("Expected message %q, got %q", tc.wantMessage, got)
			}
			if len(searcher.queries) != tc.wantCalls {
				t.Errorf("Expected %d index calls, got %d", tc.wantCalls, len(searcher.queries))
			}
		})
	}
}

func TestEvaluateRecoversFromPanics(t *testing.T) {
	searcher := searchbox.SearcherFunc(func(context.Context, string, ...searchbox.SearchOption) (*searchbox.Results, error) {
		panic("boom")
	})

	d := Evaluate(context.Background(), searcher, "anything")
	if d.Kind != DisplayError {
		t.Fatalf("Expected error display, got kind %d", d.Kind)
	}
	if want := "Search failed: search panicked: boom"; d.Message() != want {
		t.Errorf("Expected %q, got %q", want, d.Message())
	}
}

func TestEvaluateBackendError(t *testing.T) {
	backendErr := errors.WithSecondaryError(searchbox.ErrBackendUnavailable, errors.New("dial tcp: refused"))
	searcher := searchbox.SearcherFunc(func(context.Context, string, ...searchbox.SearchOption) (*searchbox.Results, error) {
		return nil, backendErr
	})

	d := Evaluate(context.Background(), searcher, "anything")
	if d.Kind != DisplayError {
		t.Fatalf("Expected error display, got kind %d", d.Kind)
	}
	if !errors.Is(d.Err, searchbox.ErrBackendUnavailable) {
		t.Errorf("Expected ErrBackendUnavailable, got %v", d.Err)
	}
}

func TestEvaluateLimitAndPrefix(t *testing.T) {
	var (
		gotQuery    string
		gotLimit    int
		gotMinMatch int
	)
	searcher := searchbox.SearcherFunc(func(_ context.Context, query string, opts ...searchbox.SearchOption) (*searchbox.Results, error) {
		gotQuery = query
		cfg := searchbox.NewSearchConfig(opts...)
		gotLimit, gotMinMatch = cfg.Limit, cfg.MinMatchLength

		// Misbehaving backend that ignores the limit
		res := &searchbox.Results{}
		for i := 0; i < 20; i++ {
			res.Items = append(res.Items, searchbox.Hit{Document: sessionDocs[i%len(sessionDocs)]})
		}
		return res, nil
	})

	tests := map[string]struct {
		opts         []Option
		wantQuery    string
		wantLimit    int
		wantMinMatch int
	}{
		"defaults": {
			wantQuery:    "'tables",
			wantLimit:    DefaultLimit,
			wantMinMatch: searchbox.DefaultMinMatchLength,
		},
		"custom": {
			opts: []Option{
				WithLimit(5),
				WithQueryPrefix(""),
				WithSearchOptions(searchbox.WithMinMatchLength(4), searchbox.WithLimit(99)),
			},
			wantQuery:    "tables",
			wantLimit:    5,
			wantMinMatch: 4,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			d := Evaluate(context.Background(), searcher, "tables", tc.opts...)

			if gotQuery != tc.wantQuery {
				t.Errorf("Expected query %q, got %q", tc.wantQuery, gotQuery)
			}
			if gotLimit != tc.wantLimit {
				t.Errorf("Expected limit %d, got %d", tc.wantLimit, gotLimit)
			}
			if gotMinMatch != tc.wantMinMatch {
				t.Errorf("Expected min match length %d, got %d", tc.wantMinMatch, gotMinMatch)
			}
			if len(d.Results) != tc.wantLimit {
				t.Errorf("Expected %d results, got %d", tc.wantLimit, len(d.Results))
			}
		})
	}
}
