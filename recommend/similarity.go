package recommend

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

var punct = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)

// normalize lowercases and strips punctuation.
func normalize(s string) string {
	return strings.Join(strings.Fields(punct.ReplaceAllString(strings.ToLower(s), "")), " ")
}

// ratio is 1 - editDistance/maxLen, so identical strings score 1.
func ratio(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// windowFloor is the minimum score for a phrase found inside a longer input.
const windowFloor = 0.8

// patternScore compares the whole input with the pattern, and also every run
// of input words as long as the pattern. A run counts only when it is a near
// exact hit, so "what are the library hours" still finds "hours".
func patternScore(input string, words []string, pattern string) float64 {
	pattern = normalize(pattern)
	best := ratio(input, pattern)
	width := len(strings.Fields(pattern))
	if width == 0 || width > len(words) {
		return best
	}
	for i := 0; i+width <= len(words); i++ {
		r := ratio(strings.Join(words[i:i+width], " "), pattern)
		if r >= windowFloor && r > best {
			best = r
		}
	}
	return best
}
