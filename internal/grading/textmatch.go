package grading

import "unicode"

// normalize lowers the response and strips punctuation, collapsing runs of
// whitespace to a single space, so "The Mitochondria!" and "mitochondria"
// compare equal.
func normalize(s string) string {
	out := make([]rune, 0, len(s))
	pending := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			pending = true
		case unicode.IsPunct(r):
		default:
			if pending && len(out) > 0 {
				out = append(out, ' ')
			}
			pending = false
			out = append(out, unicode.ToLower(r))
		}
	}
	return string(out)
}

// levenshtein returns the edit distance between two normalized answers,
// counting insertions, deletions and substitutions at unit cost. Short-word
// grading treats a small distance as a near miss worth partial credit.
func levenshtein(a, b string) int {
	ar, br := []rune(a), []rune(b)
	if len(ar) == 0 {
		return len(br)
	}
	if len(br) == 0 {
		return len(ar)
	}
	row := make([]int, len(br)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(ar); i++ {
		diag := row[0]
		row[0] = i
		for j := 1; j <= len(br); j++ {
			up := row[j]
			sub := diag
			if ar[i-1] != br[j-1] {
				sub++
			}
			row[j] = min(up+1, row[j-1]+1, sub)
			diag = up
		}
	}
	return row[len(br)]
}
