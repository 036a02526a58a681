package songtitle

import "unicode"

// featClause is one located "feat./ft./featuring ..." credit.
type featClause struct {
	// Text is the clause without surrounding brackets, e.g. "feat. A, B".
	Text string
	// start/end bound the full match in runes, including any leading
	// brackets and the trailing separator run.
	start, end int
	// tail is the separator (whitespace plus "-", "(" or "[") that follows
	// the clause and is preserved when the clause is removed.
	tail string
}

var featWords = []string{"featuring", "feat", "ft"}

// findFeatClause locates the first featuring clause in the title. The clause
// artist list runs until a closing bracket or until whitespace followed by a
// bracket or dash, so multi-word artist names survive. Returns nil when the
// title carries no clause.
func findFeatClause(title string) (*featClause, []rune) {
	r := []rune(title)

	for i := 0; i < len(r); i++ {
		j := i
		for j < len(r) && (r[j] == '(' || r[j] == '[') {
			j++
		}

		wordLen := matchFeatWord(r[j:])
		if wordLen == 0 {
			continue
		}

		k := j + wordLen
		if k < len(r) && r[k] == '.' {
			k++
		}
		if k >= len(r) || !isSpaceRune(r[k]) {
			continue
		}
		for k < len(r) && isSpaceRune(r[k]) {
			k++
		}

		p := k
		for p < len(r) && consumableFeatRune(r, p) {
			p++
		}
		if p == k {
			continue
		}
		clauseEnd := p

		qs := p
		for qs < len(r) && isSpaceRune(r[qs]) {
			qs++
		}
		qb := qs
		for qb < len(r) && (r[qb] == ')' || r[qb] == ']') {
			qb++
		}

		if qb == len(r) {
			return &featClause{Text: string(r[j:clauseEnd]), start: i, end: qb}, r
		}

		// without closing brackets the separator whitespace starts right at
		// the body end
		tailStart := qb
		if qb == qs {
			tailStart = p
		}
		t := tailStart
		for t < len(r) && isSpaceRune(r[t]) {
			t++
		}
		if t == tailStart {
			continue
		}
		u := t
		for u < len(r) && (r[u] == '-' || r[u] == '(' || r[u] == '[') {
			u++
		}
		if u == t {
			continue
		}
		return &featClause{Text: string(r[j:clauseEnd]), start: i, end: u, tail: string(r[tailStart:u])}, r
	}

	return nil, r
}

// removeFeatClause drops the clause, keeping its trailing separator.
func removeFeatClause(title string) string {
	clause, r := findFeatClause(title)
	if clause == nil {
		return title
	}
	return string(r[:clause.start]) + clause.tail + string(r[clause.end:])
}

// matchFeatWord reports the length of a featuring keyword at the start of r,
// or 0. Longer keywords win so "featuring" is not cut at "feat".
func matchFeatWord(r []rune) int {
	for _, w := range featWords {
		if len(r) < len(w) {
			continue
		}
		ok := true
		for i := 0; i < len(w); i++ {
			if unicode.ToLower(r[i]) != rune(w[i]) {
				ok = false
				break
			}
		}
		if ok {
			// the keyword takes an optional dot, except "featuring", and must
			// be followed by whitespace
			n := len(w)
			if w != "featuring" && len(r) > n && r[n] == '.' {
				n++
			}
			if len(r) > n && !isSpaceRune(r[n]) {
				continue
			}
			return len(w)
		}
	}
	return 0
}

// consumableFeatRune reports whether the rune at p can belong to the clause
// artist list: it must not be a closing bracket and must not start a
// whitespace run leading into a separator.
func consumableFeatRune(r []rune, p int) bool {
	if r[p] == ')' || r[p] == ']' {
		return false
	}
	if isSpaceRune(r[p]) {
		q := p
		for q < len(r) && isSpaceRune(r[q]) {
			q++
		}
		if q < len(r) {
			switch r[q] {
			case '-', '(', '[', ')', ']':
				return false
			}
		}
	}
	return true
}

func isSpaceRune(r rune) bool {
	return unicode.IsSpace(r)
}
