package snippet

import (
	"cmp"
	"slices"
	"unicode/utf8"
)

const (
	// ContextBefore is how many runes of context precede a match.
	ContextBefore = 30
	// ContextAfter is how many runes of context follow a match.
	ContextAfter = 30
	// MaxWindowLength caps the length of any window.
	MaxWindowLength = 200
	// MaxWindows caps the number of windows per field.
	MaxWindows = 3
	// LeadLength is the length of the window shown for a field without matches.
	LeadLength = 100
)

// Window is an excerpt of a field's text around one or more matches.
type Window struct {
	// Start is the absolute rune offset of the window in the field.
	Start int `json:"start"`
	// Length is the window length in runes.
	Length int `json:"length"`
	// Keywords are ordered, non-overlapping and within [0, Length).
	Keywords []WindowRange `json:"keywords"`
	// Sole marks the lead-in window of a field that had no matches.
	Sole bool `json:"sole,omitempty"`
}

// End returns the exclusive absolute end offset.
func (w Window) End() int { return w.Start + w.Length }

func (w *Window) addKeyword(k WindowRange) {
	if n := len(w.Keywords); n > 0 {
		last := &w.Keywords[n-1]
		if last.End() > k.Start {
			last.Length = max(last.End(), k.End()) - last.Start
			return
		}
	}
	w.Keywords = append(w.Keywords, k)
}

// BuildWindows folds the ranges matched in text into at most MaxWindows
// windows.
//
// Each range gets ContextBefore and ContextAfter runes around it. A window
// that overlaps the previous one is merged into it unless the merged window
// would exceed MaxWindowLength, in which case the range is dropped. Ranges
// with a negative start or non-positive length are ignored and ranges that
// run past the text are clipped. Without any usable range the result is a
// single Sole window over the first LeadLength runes.
func BuildWindows(text string, ranges []MatchRange) []Window {
	n := utf8.RuneCountInString(text)

	sorted := slices.Clone(ranges)
	slices.SortStableFunc(sorted, func(a, b MatchRange) int {
		return cmp.Compare(a.Start, b.Start)
	})

	var windows []Window
	for _, r := range sorted {
		r, ok := clip(r, n)
		if !ok {
			continue
		}

		start := max(r.Start-ContextBefore, 0)
		end := min(r.End()+ContextAfter, n)

		if len(windows) > 0 {
			prev := &windows[len(windows)-1]
			if prev.End() > start {
				end = max(prev.End(), end)
				if end-prev.Start > MaxWindowLength {
					continue
				}
				prev.Length = end - prev.Start
				prev.addKeyword(r.In(prev.Start))
				continue
			}
		}

		w := Window{Start: start, Length: end - start}
		kw := r.In(start)
		if w.Length > MaxWindowLength {
			w.Length = MaxWindowLength
			kw.Length = min(kw.Length, w.Length-kw.Start)
		}
		w.Keywords = []WindowRange{kw}
		windows = append(windows, w)
	}

	if len(windows) == 0 {
		return []Window{{Start: 0, Length: min(LeadLength, n), Keywords: []WindowRange{}, Sole: true}}
	}
	if len(windows) > MaxWindows {
		windows = windows[:MaxWindows]
	}
	return windows
}

func clip(r MatchRange, n int) (MatchRange, bool) {
	if r.Start < 0 || r.Length <= 0 || r.Start >= n {
		return r, false
	}
	if r.End() > n {
		r.Length = n - r.Start
	}
	return r, true
}
