// Package highlight renders text with emphasized ranges.
package highlight

import (
	"cmp"
	"html"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/letmevibethatforyou/searchbox/snippet"
)

// Ellipsis marks a snippet edge that does not reach the end of its field.
const Ellipsis = "…"

// Marker wraps the given rune ranges of text in emphasis.
type Marker interface {
	Mark(text string, ranges []snippet.Highlight) string
}

// Plain wraps ranges in fixed delimiters.
type Plain struct {
	Open, Close string
}

// Mark implements Marker.
func (p Plain) Mark(text string, ranges []snippet.Highlight) string {
	return apply(text, ranges, identity, func(s string) string { return p.Open + s + p.Close })
}

// HTML escapes text and wraps ranges in <mark> elements.
type HTML struct{}

// Mark implements Marker.
func (HTML) Mark(text string, ranges []snippet.Highlight) string {
	return apply(text, ranges, html.EscapeString, func(s string) string {
		return "<mark>" + html.EscapeString(s) + "</mark>"
	})
}

// Terminal renders ranges with a lipgloss style.
type Terminal struct {
	Style lipgloss.Style
}

// DefaultTerminal is bold reverse video.
var DefaultTerminal = Terminal{Style: lipgloss.NewStyle().Bold(true).Reverse(true)}

// Mark implements Marker.
func (t Terminal) Mark(text string, ranges []snippet.Highlight) string {
	return apply(text, ranges, identity, func(s string) string { return t.Style.Render(s) })
}

// Snippets marks every snippet and joins them, adding an ellipsis at edges
// cut out of the middle of the field.
func Snippets(m Marker, snippets []snippet.Snippet) string {
	parts := make([]string, 0, len(snippets))
	for _, s := range snippets {
		part := m.Mark(s.Text, s.Highlights)
		if !s.IsStart {
			part = Ellipsis + part
		}
		if !s.IsEnd {
			part += Ellipsis
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, " ")
}

func identity(s string) string { return s }

// apply clips and merges ranges, then renders plain and marked segments.
func apply(text string, ranges []snippet.Highlight, plain, marked func(string) string) string {
	runes := []rune(text)
	var b strings.Builder
	pos := 0
	for _, r := range normalize(ranges, len(runes)) {
		b.WriteString(plain(string(runes[pos:r.Start])))
		b.WriteString(marked(string(runes[r.Start:r.End()])))
		pos = r.End()
	}
	b.WriteString(plain(string(runes[pos:])))
	return b.String()
}

func normalize(ranges []snippet.Highlight, n int) []snippet.Highlight {
	var out []snippet.Highlight
	for _, r := range ranges {
		start, end := max(r.Start, 0), min(r.End(), n)
		if start < end {
			out = append(out, snippet.Highlight{Start: start, Length: end - start})
		}
	}
	slices.SortFunc(out, func(a, b snippet.Highlight) int { return cmp.Compare(a.Start, b.Start) })

	merged := out[:0]
	for _, r := range out {
		if k := len(merged); k > 0 && merged[k-1].End() >= r.Start {
			last := &merged[k-1]
			last.Length = max(last.End(), r.End()) - last.Start
			continue
		}
		merged = append(merged, r)
	}
	return merged
}
