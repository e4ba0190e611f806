package snippet

import "unicode"

// Snippet is a window cut down to readable boundaries.
type Snippet struct {
	Window
	// Text is the trimmed excerpt.
	Text string `json:"text"`
	// IsStart reports whether the window touches the start of the field.
	IsStart bool `json:"isStart"`
	// IsEnd reports whether the window touches the end of the field.
	IsEnd bool `json:"isEnd"`
	// Highlights are the window keywords re-based onto Text.
	Highlights []Highlight `json:"highlights"`
}

// WhitespaceBoundary treats any Unicode space as a boundary.
func WhitespaceBoundary(r rune) bool { return unicode.IsSpace(r) }

// LiteralBoundary never reports a boundary, which leaves windows untrimmed
// except where keywords force an edge.
func LiteralBoundary(rune) bool { return false }

// Trimmer cuts windows to the nearest boundary around their keywords.
// The zero value trims on whitespace.
type Trimmer struct {
	Boundary func(rune) bool
}

// Trim converts w, a window over text, into a Snippet.
func (t Trimmer) Trim(text string, w Window) Snippet {
	return t.trim([]rune(text), w)
}

// TrimAll trims every window of text.
func (t Trimmer) TrimAll(text string, windows []Window) []Snippet {
	runes := []rune(text)
	out := make([]Snippet, 0, len(windows))
	for _, w := range windows {
		out = append(out, t.trim(runes, w))
	}
	return out
}

func (t Trimmer) trim(text []rune, w Window) Snippet {
	boundary := t.Boundary
	if boundary == nil {
		boundary = WhitespaceBoundary
	}

	n := len(text)
	lo := min(max(w.Start, 0), n)
	hi := min(max(w.End()+1, lo), n)
	extract := text[lo:hi]

	isStart := w.Start == 0
	isEnd := w.End() == n

	first, last := -1, -1
	for i, r := range extract {
		if boundary(r) {
			if first < 0 {
				first = i
			}
			last = i
		}
	}

	start := 0
	if !isStart && len(w.Keywords) > 0 && first >= 0 {
		start = min(w.Keywords[0].Start, first+1)
	}

	end := len(extract)
	switch {
	case isEnd:
	case len(w.Keywords) == 0:
		if last >= 0 {
			end = last
		} else {
			end = min(w.Length, len(extract))
		}
	case last >= 0:
		end = max(w.Keywords[len(w.Keywords)-1].End(), last)
	}
	end = min(max(end, start), len(extract))

	highlights := make([]Highlight, 0, len(w.Keywords))
	for _, k := range w.Keywords {
		highlights = append(highlights, k.Rebase(start))
	}

	return Snippet{
		Window:     w,
		Text:       string(extract[start:end]),
		IsStart:    isStart,
		IsEnd:      isEnd,
		Highlights: highlights,
	}
}

// Excerpt builds and trims the windows of text with the default Trimmer.
func Excerpt(text string, ranges []MatchRange) []Snippet {
	return Trimmer{}.TrimAll(text, BuildWindows(text, ranges))
}
