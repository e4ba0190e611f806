// Package snippet turns per-field match positions into short, highlighted
// excerpts.
//
// Offsets live in three distinct bases and each has its own type:
// MatchRange is absolute within a field's text, WindowRange is relative to a
// Window's start, and Highlight is relative to a trimmed Snippet's text.
// Moving between bases always goes through In or Rebase. All offsets count
// runes.
package snippet

import "github.com/letmevibethatforyou/searchbox"

// MatchRange is a span of a field's text, in runes from the start of the field.
type MatchRange struct {
	Start  int `json:"start"`
	Length int `json:"length"`
}

// End returns the exclusive end offset.
func (r MatchRange) End() int { return r.Start + r.Length }

// In re-bases r onto a window starting at origin.
func (r MatchRange) In(origin int) WindowRange {
	return WindowRange{Start: r.Start - origin, Length: r.Length}
}

// WindowRange is a span relative to the start of a Window.
type WindowRange struct {
	Start  int `json:"start"`
	Length int `json:"length"`
}

// End returns the exclusive end offset.
func (r WindowRange) End() int { return r.Start + r.Length }

// Rebase moves r onto snippet text that was cut trim runes into the window.
func (r WindowRange) Rebase(trim int) Highlight {
	return Highlight{Start: r.Start - trim, Length: r.Length}
}

// Highlight is a span of Snippet text to emphasize.
type Highlight struct {
	Start  int `json:"start"`
	Length int `json:"length"`
}

// End returns the exclusive end offset.
func (h Highlight) End() int { return h.Start + h.Length }

// Whole converts ranges of a field that is displayed untrimmed, such as a
// title, directly into highlights.
func Whole(ranges []MatchRange) []Highlight {
	out := make([]Highlight, 0, len(ranges))
	for _, r := range ranges {
		out = append(out, Highlight(r))
	}
	return out
}

// Positions maps every searchable field to the ranges matched in it.
type Positions map[searchbox.Field][]MatchRange

// Aggregate normalizes the index's [first, last] pairs of a hit into
// per-field ranges. Title, subtitle and content are always present, empty
// when unmatched. Pairs are not validated.
func Aggregate(hit searchbox.Hit) Positions {
	positions := make(Positions, len(searchbox.Fields))
	for _, f := range searchbox.Fields {
		positions[f] = []MatchRange{}
	}

	for _, m := range hit.Matches {
		for _, pair := range m.Indices {
			positions[m.Key] = append(positions[m.Key], MatchRange{
				Start:  pair[0],
				Length: pair[1] - pair[0] + 1,
			})
		}
	}
	return positions
}
