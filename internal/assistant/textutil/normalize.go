package textutil

import (
	"strings"
	"unicode"
)

// Normalize lower-cases s, replaces punctuation and symbols with single
// spaces, and collapses runs of whitespace. Applying it twice yields the
// same result as applying it once.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Words returns the normalized words of s in order.
func Words(s string) []string {
	return strings.Fields(Normalize(s))
}

// WordCount returns the number of normalized words in s.
func WordCount(s string) int {
	return len(Words(s))
}

// ContainsWord reports whether the normalized text contains w as a whole
// word.
func ContainsWord(text, w string) bool {
	for _, t := range Words(text) {
		if t == w {
			return true
		}
	}
	return false
}

// ContainsPhrase reports whether the normalized text contains phrase as a
// whole-word subsequence. Single-word phrases degrade to ContainsWord.
func ContainsPhrase(text, phrase string) bool {
	p := Normalize(phrase)
	if p == "" {
		return false
	}
	t := Normalize(text)
	if t == p {
		return true
	}
	return strings.Contains(" "+t+" ", " "+p+" ")
}
