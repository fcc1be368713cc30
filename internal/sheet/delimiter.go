package sheet

import "strings"

// DetectDelimiter picks the delimiter for the whole table from its first line.
//
// Each candidate is counted on the first line only, quoted or not. A later
// candidate wins only when its count strictly exceeds the best so far, so ties
// go to the first candidate. With no candidates the default pair comma and
// semicolon is used.
func DetectDelimiter(text string, candidates ...rune) rune {
	if len(candidates) == 0 {
		candidates = []rune{',', ';'}
	}

	first := text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		first = text[:i]
	}

	best := candidates[0]
	bestCount := strings.Count(first, string(best))
	for _, c := range candidates[1:] {
		if n := strings.Count(first, string(c)); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}
