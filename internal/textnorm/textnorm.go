// Package textnorm normalizes recognized speech before it reaches the
// classifier and the slot extractor.
package textnorm

import (
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// Transcript lower-cases, strips combining marks and collapses whitespace.
// Punctuation that carries meaning for extraction ($ . , ' ") is kept.
func Transcript(text string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	result, _, err := transform.String(t, text)
	if err != nil {
		result = text
	}
	result = folder.String(result)
	result = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsSpace(r):
			return r
		case r == '$', r == '.', r == ',', r == '\'', r == '"', r == '-', r == ':':
			return r
		case r == '’':
			return '\''
		case r == '“', r == '”':
			return '"'
		}
		return ' '
	}, result)
	return strings.Join(strings.Fields(result), " ")
}

// Words returns the whitespace-separated words of text with edge punctuation trimmed.
func Words(text string) []string {
	fields := strings.Fields(text)
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,:\"'")
		if f != "" {
			words = append(words, f)
		}
	}
	return words
}

// TrimPunct removes surrounding spaces and trailing sentence punctuation.
func TrimPunct(text string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(text), ".,;:!?\"'"))
}

// Similarity scores two strings in [0,1]: 1 for equality, the length ratio
// when one contains the other, otherwise one minus the normalized edit distance.
func Similarity(a, b string) float64 {
	a = Transcript(a)
	b = Transcript(b)
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		shorter, longer := a, b
		if len(a) > len(b) {
			shorter, longer = b, a
		}
		return float64(len(shorter)) / float64(len(longer))
	}
	distance := Levenshtein(a, b)
	maxLen := math.Max(float64(len([]rune(a))), float64(len([]rune(b))))
	return math.Max(0, 1.0-float64(distance)/maxLen)
}

// Levenshtein returns the rune-wise edit distance between a and b.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
