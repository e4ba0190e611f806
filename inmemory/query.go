package inmemory

import (
	"slices"
	"unicode"

	"github.com/letmevibethatforyou/searchbox"
)

type operator int

const (
	opFuzzy operator = iota
	opInclude
	opExact
	opPrefix
	opSuffix
	opInverseInclude
	opInversePrefix
	opInverseSuffix
)

type term struct {
	op      operator
	pattern []rune
}

// query is a disjunction of conjunctions. A nil query matches everything.
type query [][]term

// parseQuery tokenizes an extended search query.
func parseQuery(s string) (query, error) {
	var (
		q     query
		group []term
		sawOr bool
	)

	runes := []rune(s)
	for i := 0; i < len(runes); {
		if unicode.IsSpace(runes[i]) {
			i++
			continue
		}

		if runes[i] == '|' && (i+1 == len(runes) || unicode.IsSpace(runes[i+1])) {
			if len(group) == 0 {
				return nil, searchbox.InvalidQueryf("Empty alternative in query")
			}
			q = append(q, group)
			group = nil
			sawOr = true
			i++
			continue
		}

		t, next, err := parseTerm(runes, i)
		if err != nil {
			return nil, err
		}
		group = append(group, t)
		i = next
	}

	if len(group) == 0 {
		if sawOr {
			return nil, searchbox.InvalidQueryf("Empty alternative in query")
		}
		return q, nil
	}
	return append(q, group), nil
}

// parseTerm reads one term starting at runes[i] and returns the index just
// past it.
func parseTerm(runes []rune, i int) (term, int, error) {
	start := i
	op := opFuzzy
	switch {
	case runes[i] == '!' && i+1 < len(runes) && runes[i+1] == '^':
		op, i = opInversePrefix, i+2
	case runes[i] == '!':
		op, i = opInverseInclude, i+1
	case runes[i] == '^':
		op, i = opPrefix, i+1
	case runes[i] == '=':
		op, i = opExact, i+1
	case runes[i] == '\'':
		op, i = opInclude, i+1
	}
	prefix := string(runes[start:i])

	var body []rune
	if i < len(runes) && runes[i] == '"' {
		end := slices.Index(runes[i+1:], '"')
		if end < 0 {
			return term{}, 0, searchbox.InvalidQueryf("Unbalanced quote in query")
		}
		body = runes[i+1 : i+1+end]
		i += end + 2
		if i < len(runes) && runes[i] == '$' {
			body = append(slices.Clone(body), '$')
			i++
		}
		if i < len(runes) && !unicode.IsSpace(runes[i]) {
			return term{}, 0, searchbox.InvalidQueryf("Unexpected %q after quoted term", runes[i])
		}
	} else {
		j := i
		for j < len(runes) && !unicode.IsSpace(runes[j]) {
			j++
		}
		body = runes[i:j]
		i = j
	}

	if n := len(body); n > 1 && body[n-1] == '$' {
		switch op {
		case opFuzzy:
			op, body = opSuffix, body[:n-1]
		case opInverseInclude:
			op, body = opInverseSuffix, body[:n-1]
		}
	}

	if len(body) == 0 {
		return term{}, 0, searchbox.InvalidQueryf("Missing term after %q", prefix)
	}
	if op == opFuzzy && len(body) > MaxPatternLength {
		return term{}, 0, searchbox.InvalidQueryf("Pattern length exceeds max of %d.", MaxPatternLength)
	}

	pattern := make([]rune, len(body))
	for k, r := range body {
		pattern[k] = unicode.ToLower(r)
	}
	return term{op: op, pattern: pattern}, i, nil
}

// match reports whether text satisfies t and where the pattern occurs.
// Inverse terms never report indices.
func (t term) match(text []rune, minMatchLength int) (bool, [][2]int) {
	p := t.pattern
	n := len(p)

	switch t.op {
	case opExact:
		if slices.Equal(text, p) {
			return true, [][2]int{{0, n - 1}}
		}
		return false, nil
	case opPrefix:
		if len(text) >= n && slices.Equal(text[:n], p) {
			return true, [][2]int{{0, n - 1}}
		}
		return false, nil
	case opSuffix:
		if len(text) >= n && slices.Equal(text[len(text)-n:], p) {
			return true, [][2]int{{len(text) - n, len(text) - 1}}
		}
		return false, nil
	case opInversePrefix:
		return !(len(text) >= n && slices.Equal(text[:n], p)), nil
	case opInverseSuffix:
		return !(len(text) >= n && slices.Equal(text[len(text)-n:], p)), nil
	case opInverseInclude:
		return len(occurrences(text, p)) == 0, nil
	case opFuzzy:
		if n < minMatchLength {
			return false, nil
		}
	}

	indices := occurrences(text, p)
	return len(indices) > 0, indices
}

// occurrences returns every non-overlapping occurrence of p, left to right.
func occurrences(text, p []rune) [][2]int {
	var out [][2]int
	for i := 0; i+len(p) <= len(text); {
		if slices.Equal(text[i:i+len(p)], p) {
			out = append(out, [2]int{i, i + len(p) - 1})
			i += len(p)
			continue
		}
		i++
	}
	return out
}

// evaluate matches q against every weighted field of e. Fields where some
// alternative matches in full add their weight to the score; their indices
// come from the first such alternative.
func (q query) evaluate(e entry, cfg *searchbox.SearchConfig) (searchbox.Hit, bool) {
	hit := searchbox.Hit{Document: e.doc}
	if len(q) == 0 {
		hit.Score = 1
		return hit, true
	}

	matched := false
	for _, w := range cfg.Weights {
		text := e.folded[w.Field]
		indices, ok := q.matchField(text, cfg.MinMatchLength)
		if !ok {
			continue
		}
		matched = true
		hit.Score += w.Weight

		indices = slices.DeleteFunc(indices, func(pair [2]int) bool {
			return pair[1]-pair[0]+1 < cfg.MinMatchLength
		})
		if len(indices) > 0 {
			hit.Matches = append(hit.Matches, searchbox.FieldMatch{Key: w.Field, Indices: indices})
		}
	}
	return hit, matched
}

func (q query) matchField(text []rune, minMatchLength int) ([][2]int, bool) {
	for _, group := range q {
		var all [][2]int
		ok := true
		for _, t := range group {
			m, indices := t.match(text, minMatchLength)
			if !m {
				ok = false
				break
			}
			all = append(all, indices...)
		}
		if ok {
			return all, true
		}
	}
	return nil, false
}
