// Package similarity scores how alike two strings are on a 0-100 scale.
package similarity

import (
	"math"
	"unicode/utf8"

	"github.com/agext/levenshtein"
)

// Distance is the unit-cost Levenshtein distance between a and b, counted in runes.
func Distance(a, b string) int {
	return levenshtein.Distance(a, b, nil)
}

// Score returns round((1 - distance/maxLen) * 100). Two empty strings score 100,
// exactly one empty string scores 0. Score is symmetric.
func Score(a, b string) int {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la == 0 && lb == 0 {
		return 100
	}
	if la == 0 || lb == 0 {
		return 0
	}
	if a == b {
		return 100
	}

	longest := max(la, lb)
	ratio := 1 - float64(Distance(a, b))/float64(longest)
	return int(math.Round(ratio * 100))
}
