package session

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/searchbox"
	"github.com/letmevibethatforyou/searchbox/inmemory"
)

var sessionDocs = []searchbox.Document{
	{
		URI:      "/getting-started/",
		Title:    "Getting Started",
		Subtitle: "Install the toolchain",
		Content:  "Download the installer and follow the prompts to finish setup.",
	},
	{
		URI:      "/storage/",
		Title:    "Storage Engines",
		Subtitle: "How records are persisted",
		Content:  "Records are kept in tables inside every database engine, and queries read those tables quickly.",
	},
	{
		URI:      "/caching/",
		Title:    "Caching Layers",
		Subtitle: "Keep hot data close",
		Content:  "Tune the cache size before adding indexes.",
	},
}

// recordingSearcher counts the queries that reach the index.
type recordingSearcher struct {
	next    searchbox.Searcher
	queries []string
}

func newRecordingSearcher() *recordingSearcher {
	return &recordingSearcher{next: inmemory.New(sessionDocs...)}
}

func (r *recordingSearcher) Search(ctx context.Context, query string, opts ...searchbox.SearchOption) (*searchbox.Results, error) {
	r.queries = append(r.queries, query)
	return r.next.Search(ctx, query, opts...)
}

type fakeTimer struct {
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// fakeScheduler is a manual clock. Callbacks run on Advance, in time order.
type fakeScheduler struct {
	now    time.Duration
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	t := &fakeTimer{at: s.now + d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) Advance(d time.Duration) {
	target := s.now + d
	for {
		var due []*fakeTimer
		for _, t := range s.timers {
			if !t.stopped && !t.fired && t.at <= target {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			break
		}
		sort.SliceStable(due, func(i, j int) bool { return due[i].at < due[j].at })
		next := due[0]
		s.now = next.at
		next.fired = true
		next.f()
	}
	s.now = target
}

func (s *fakeScheduler) active() int {
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type fakeInput struct {
	value   string
	active  bool
	blurred int
}

func (f *fakeInput) SetValue(value string) { f.value = value }
func (f *fakeInput) SetActive(active bool) { f.active = active }
func (f *fakeInput) Blur()                 { f.blurred++ }

func TestDisplayMessage(t *testing.T) {
	tests := map[string]struct {
		display Display
		want    string
	}{
		"hidden": {
			display: Display{Kind: DisplayHidden},
			want:    "",
		},
		"results": {
			display: Display{Kind: DisplayResults, Query: "database", Results: []Result{{}}},
			want:    "",
		},
		"empty": {
			display: Display{Kind: DisplayEmpty, Query: "zebra"},
			want:    `No results matching "zebra"`,
		},
		"invalid query": {
			display: Display{Kind: DisplayError, Query: `"open`, Err: searchbox.InvalidQueryf("Unbalanced quote in query")},
			want:    "Invalid search query: Unbalanced quote in query",
		},
		"other failure": {
			display: Display{Kind: DisplayError, Query: "q", Err: errors.New("connection refused")},
			want:    "Search failed: connection refused",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := tc.display.Message(); got != tc.want {
				t.Errorf("Message() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestQueryState(t *testing.T) {
	if got := (QueryState{}).Value(); got != "" {
		t.Errorf("Expected empty value for nil query, got %q", got)
	}
	q := "database"
	if got := (QueryState{Query: &q}).Value(); got != q {
		t.Errorf("Expected %q, got %q", q, got)
	}
}

func TestStateString(t *testing.T) {
	for state, want := range map[State]string{
		Idle:       "idle",
		Pending:    "pending",
		Evaluating: "evaluating",
		Displayed:  "displayed",
		State(9):   "State(9)",
	} {
		if got := state.String(); got != want {
			t.Errorf("Expected %q, got %q", want, got)
		}
	}
}

func TestDisplayKindString(t *testing.T) {
	for kind, want := range map[DisplayKind]string{
		DisplayHidden:  "hidden",
		DisplayResults: "results",
		DisplayEmpty:   "empty",
		DisplayError:   "error",
		DisplayKind(7): "DisplayKind(7)",
	} {
		if got := kind.String(); got != want {
			t.Errorf("Expected %q, got %q", want, got)
		}
	}
}
