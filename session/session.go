// Package session drives a search box: it decides when typed input, a clear
// gesture or history navigation triggers a search, coalesces rapid typing
// into a single evaluation, and turns ranked hits into highlighted excerpts.
//
// A Machine owns the query and the rendered display and serializes its
// events with a mutex. Loop additionally queues every event onto one
// goroutine so callers never block on a search.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/searchbox"
	"github.com/letmevibethatforyou/searchbox/snippet"
)

// QueryState is the committed query. A nil Query means no query at all,
// which is distinct from an empty one only in how history records it.
type QueryState struct {
	Query *string
}

// Value returns the query, or "" when there is none.
func (q QueryState) Value() string {
	if q.Query == nil {
		return ""
	}
	return *q.Query
}

// State is the lifecycle stage of a Machine.
type State int

const (
	// Idle shows no results.
	Idle State = iota
	// Pending waits for typing to settle.
	Pending
	// Evaluating runs the search pipeline.
	Evaluating
	// Displayed shows results, an empty notice or an error.
	Displayed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Evaluating:
		return "evaluating"
	case Displayed:
		return "displayed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Result is one ranked document prepared for display.
type Result struct {
	Document  searchbox.Document `json:"item"`
	Score     float64            `json:"score"`
	Positions snippet.Positions  `json:"positions"`
	// Title and Subtitle highlight the full field text.
	Title    []snippet.Highlight `json:"title"`
	Subtitle []snippet.Highlight `json:"subtitle"`
	// Snippets are the trimmed content excerpts.
	Snippets []snippet.Snippet `json:"snippets"`
}

// DisplayKind selects what the renderer shows.
type DisplayKind int

const (
	DisplayHidden DisplayKind = iota
	DisplayResults
	DisplayEmpty
	DisplayError
)

func (k DisplayKind) String() string {
	switch k {
	case DisplayHidden:
		return "hidden"
	case DisplayResults:
		return "results"
	case DisplayEmpty:
		return "empty"
	case DisplayError:
		return "error"
	default:
		return fmt.Sprintf("DisplayKind(%d)", int(k))
	}
}

// Display is the complete payload handed to a Renderer.
type Display struct {
	Kind    DisplayKind
	Query   string
	Results []Result
	Err     error
}

// Message returns the notice shown instead of results, if any.
func (d Display) Message() string {
	switch d.Kind {
	case DisplayEmpty:
		return fmt.Sprintf("No results matching %q", d.Query)
	case DisplayError:
		if errors.Is(d.Err, searchbox.ErrInvalidQuery) {
			return "Invalid search query: " + d.Err.Error()
		}
		return "Search failed: " + d.Err.Error()
	default:
		return ""
	}
}

// History is the navigable location history the query is mirrored into.
type History interface {
	// Location returns the current entry, e.g. "/search?q=database".
	Location() string
	// Push appends a new entry and makes it current.
	Push(location string)
}

// Input is the text field the user types into.
type Input interface {
	SetValue(value string)
	// SetActive toggles the visual flag shown while a query is present.
	SetActive(active bool)
	Blur()
}

// Renderer shows a Display.
type Renderer interface {
	Render(Display)
}

// RendererFunc adapts a function to a Renderer.
type RendererFunc func(Display)

// Render implements Renderer.
func (f RendererFunc) Render(d Display) { f(d) }

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Scheduler runs callbacks after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type clock struct{}

func (clock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// LoadFunc loads the search index once, at startup.
type LoadFunc func(context.Context) (searchbox.Searcher, error)
