package slots

import (
	"regexp"
	"slices"
	"strings"

	"github.com/veenjenga/Hands-and-Hope-sub001/internal/textnorm"
)

// CategoryThreshold is the minimum similarity for a fuzzy category match.
const CategoryThreshold = 0.6

var (
	thousandsSep  = regexp.MustCompile(`(\d),(\d{3})\b`)
	answerNumber  = regexp.MustCompile(`\d+(?:[.,]\d{1,2})?`)
	namePrefixes  = []string{"the name is ", "name is ", "it's called ", "its called ", "it is called ", "call it ", "it's a ", "it's an ", "it is a ", "it is an "}
	descPrefixes  = []string{"the description is ", "description is ", "it's described as ", "describe it as "}
	categoryNoise = []string{"the category is ", "category is ", "put it in ", "put it under ", "it goes in ", "it goes under ", "it's in ", "it is in ", "in ", "under ", "the "}
)

// Answer is a parsed reply to a question.
type Answer struct {
	Value   string
	Skipped bool
	OK      bool
}

// ParseAnswer interprets text as the reply to the question for f. A reply
// that cannot fill the field returns OK=false so the question is asked again.
// Only the description may be skipped.
func (e *Extractor) ParseAnswer(f Field, text string) Answer {
	t := textnorm.Transcript(text)
	if t == "" {
		return Answer{}
	}
	if IsSkip(t) {
		return Answer{Skipped: true, OK: f == FieldDescription}
	}
	switch f {
	case FieldName:
		v := cleanValue(trimPrefixes(t, namePrefixes))
		return Answer{Value: v, OK: v != ""}
	case FieldPrice:
		v, ok := ParsePrice(t)
		return Answer{Value: v, OK: ok}
	case FieldCategory:
		v, ok := e.MatchCategory(t)
		return Answer{Value: v, OK: ok}
	case FieldDescription:
		v := cleanValue(trimPrefixes(t, descPrefixes))
		return Answer{Value: v, OK: v != ""}
	case FieldImage:
		return Answer{Value: t, OK: true}
	}
	return Answer{}
}

// ParsePrice returns the first numeric token of text, digits first and then
// English number words.
func ParsePrice(text string) (string, bool) {
	t := thousandsSep.ReplaceAllString(strings.ToLower(text), "$1$2")
	if m := answerNumber.FindString(t); m != "" {
		return FormatPrice(m)
	}
	if v, ok := ParseNumberWords(t); ok {
		return formatAmount(v)
	}
	return "", false
}

// MatchCategory finds the configured category nearest to text: an exact
// match, then word containment either way, then the highest edit-distance
// similarity at or above CategoryThreshold.
func (e *Extractor) MatchCategory(text string) (string, bool) {
	t := textnorm.Transcript(text)
	t = trimPrefixes(t, categoryNoise)
	t = strings.TrimSuffix(t, " category")
	t = cleanValue(t)
	if t == "" {
		return "", false
	}
	padded := " " + t + " "

	best := ""
	for _, c := range e.categories {
		nc := textnorm.Transcript(c)
		if nc == t {
			return c, true
		}
		if strings.Contains(padded, " "+nc+" ") && len(c) > len(best) {
			best = c
		}
	}
	if best != "" {
		return best, true
	}

	if len(t) >= 3 && t != "and" {
		for _, c := range e.categories {
			if strings.Contains(" "+textnorm.Transcript(c)+" ", padded) {
				return c, true
			}
		}
	}

	score := 0.0
	for _, c := range e.categories {
		nc := textnorm.Transcript(c)
		candidates := append([]string{t}, textnorm.Words(t)...)
		for _, w := range candidates {
			if len(w) < 3 {
				continue
			}
			if s := textnorm.Similarity(w, nc); s > score {
				score, best = s, c
			}
		}
	}
	if score >= CategoryThreshold {
		return best, true
	}
	return "", false
}

// IsSkip reports whether text asks to skip the current question.
func IsSkip(text string) bool {
	t := textnorm.Transcript(text)
	switch t {
	case "pass", "none", "nothing", "no description":
		return true
	}
	return slices.Contains(textnorm.Words(t), "skip")
}

// IsDecline reports whether text declines an optional prompt.
func IsDecline(text string) bool {
	if IsSkip(text) {
		return true
	}
	switch textnorm.TrimPunct(textnorm.Transcript(text)) {
	case "no", "nope", "no thanks", "no thank you", "not now", "later", "maybe later", "no photo":
		return true
	}
	return false
}

// trimPrefixes strips lead-in phrases until none applies, so "put it in the
// toys" reduces to "toys".
func trimPrefixes(s string, prefixes []string) string {
	for {
		trimmed := false
		for _, p := range prefixes {
			if rest, ok := strings.CutPrefix(s, p); ok {
				s, trimmed = rest, true
				break
			}
		}
		if !trimmed {
			return s
		}
	}
}
