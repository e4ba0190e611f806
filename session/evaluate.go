package session

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/searchbox"
	"github.com/letmevibethatforyou/searchbox/snippet"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("searchbox-session")

// Evaluate runs query through searcher and prepares the results for display.
// A blank query yields DisplayHidden without calling searcher. Errors and
// panics from searcher become DisplayError.
func Evaluate(ctx context.Context, searcher searchbox.Searcher, query string, opts ...Option) Display {
	return newConfig(opts...).evaluate(ctx, searcher, query)
}

func (c *config) evaluate(ctx context.Context, searcher searchbox.Searcher, query string) (d Display) {
	if strings.TrimSpace(query) == "" {
		return Display{Kind: DisplayHidden}
	}

	ctx, span := tracer.Start(ctx, "session.evaluate",
		trace.WithAttributes(attribute.String("searchbox.query", query)),
	)
	defer span.End()

	fail := func(err error) Display {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		c.logger.WarnContext(ctx, "search failed", "query", query, "error", err)
		return Display{Kind: DisplayError, Query: query, Err: err}
	}

	defer func() {
		if r := recover(); r != nil {
			d = fail(errors.Newf("search panicked: %v", r))
		}
	}()

	start := time.Now()
	opts := append(slices.Clip(c.searchOptions), searchbox.WithLimit(c.limit))
	res, err := searcher.Search(ctx, c.queryPrefix+query, opts...)
	if err != nil {
		return fail(err)
	}

	hits := res.Items
	if len(hits) > c.limit {
		hits = hits[:c.limit]
	}
	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		results = append(results, c.result(hit))
	}

	span.SetAttributes(attribute.Int("searchbox.result_count", len(results)))
	span.SetStatus(codes.Ok, "")
	c.logger.DebugContext(ctx, "search evaluated",
		"query", query,
		"result_count", len(results),
		"took_ms", time.Since(start).Milliseconds(),
	)

	if len(results) == 0 {
		return Display{Kind: DisplayEmpty, Query: query}
	}
	return Display{Kind: DisplayResults, Query: query, Results: results}
}

func (c *config) result(hit searchbox.Hit) Result {
	positions := snippet.Aggregate(hit)
	content := hit.Document.Content
	return Result{
		Document:  hit.Document,
		Score:     hit.Score,
		Positions: positions,
		Title:     snippet.Whole(positions[searchbox.FieldTitle]),
		Subtitle:  snippet.Whole(positions[searchbox.FieldSubtitle]),
		Snippets:  c.trimmer.TrimAll(content, snippet.BuildWindows(content, positions[searchbox.FieldContent])),
	}
}
