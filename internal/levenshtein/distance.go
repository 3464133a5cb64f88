// Package levenshtein computes edit distances for domain typo suggestions.
package levenshtein

// Distance computes the Levenshtein edit distance between two strings,
// counting runes rather than bytes.
func Distance(s, t string) int {
	d, _ := distance([]rune(s), []rune(t), -1)
	return d
}

// Within reports the distance between s and t if it is at most max.
// It stops as soon as every cell of a row exceeds max, so comparing a
// domain against a long provider list stays cheap.
func Within(s, t string, max int) (int, bool) {
	sr, tr := []rune(s), []rune(t)
	if diff := len(sr) - len(tr); diff > max || -diff > max {
		return 0, false
	}
	return distance(sr, tr, max)
}

// distance runs the two-row dynamic program. A negative bound disables
// the early exit.
func distance(sr, tr []rune, bound int) (int, bool) {
	if len(sr) > len(tr) {
		sr, tr = tr, sr
	}
	if len(sr) == 0 {
		return len(tr), bound < 0 || len(tr) <= bound
	}

	prev := make([]int, len(sr)+1)
	curr := make([]int, len(sr)+1)
	for i := range prev {
		prev[i] = i
	}

	for j, tc := range tr {
		curr[0] = j + 1
		rowMin := curr[0]
		for i, sc := range sr {
			sub := prev[i]
			if sc != tc {
				sub++
			}
			curr[i+1] = min(curr[i]+1, prev[i+1]+1, sub)
			rowMin = min(rowMin, curr[i+1])
		}
		if bound >= 0 && rowMin > bound {
			return 0, false
		}
		prev, curr = curr, prev
	}

	d := prev[len(sr)]
	return d, bound < 0 || d <= bound
}
