package slots

import (
	"regexp"
	"strings"

	"github.com/veenjenga/Hands-and-Hope-sub001/internal/textnorm"
)

// Value terminators. A name or category ends at a comma, a sentence end or
// the start of another anchored field.
const (
	nameStop     = `(?:,|\.\s|\.$|$|\s(?:for|at)\s\$?\d|\s\$\d|\s(?:it\s)?costs?\b|\spriced\b|\sin\s(?:the\s)?[a-z ]+?\scategory\b|\s(?:and\s)?(?:the\s)?(?:name|price|category|description)\s(?:is|should be)\b)`
	categoryStop = `(?:,|\.\s|\.$|$|\sfor\s\$?\d|\s(?:and\s)?(?:the\s)?(?:name|price|description)\s(?:is|should be)\b)`
	descStop     = `(?:,?\s(?:and\s)?(?:the\s)?(?:name|price|category)\s(?:is|should be)\b|$)`
	priceNumber  = `(\d+(?:\.\d{1,2})?)`
	priceAnchor  = `\b(?:price|prices|cost|costs|priced|for|at)(?:\s(?:is|of|to|at|about|around|only|just))*`
)

// Patterns are tried in order per field; the first match wins.
var (
	namePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(?:name|title)(?:\sis|\sshould be|\sto|:)?\s"?([^",]+?)"?` + nameStop),
		regexp.MustCompile(`\b(?:call it|it'?s called|it is called|called)\s"?([^",]+?)"?` + nameStop),
		regexp.MustCompile(`\b(?:sell|selling|list|listing)\s(?:(?:my|a|an|the|some|this|these|our)\s)?([^,]+?)` + nameStop),
	}
	pricePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\$\s?` + priceNumber + `\b`),
		regexp.MustCompile(priceAnchor + `\s` + priceNumber + `\b`),
		regexp.MustCompile(`\b` + priceNumber + `\s?(?:dollars?|bucks|usd)\b`),
	}
	priceWordsPattern = regexp.MustCompile(priceAnchor + `\s(.+)$`)
	categoryPatterns  = []*regexp.Regexp{
		regexp.MustCompile(`\bcategory(?:\sis|\sshould be|\swould be|\sof|:)?\s(?:the\s)?([^,]+?)` + categoryStop),
		regexp.MustCompile(`\b(?:in|into|under)\s(?:the\s)?([a-z][a-z ]*?)\scategory\b`),
		regexp.MustCompile(`\b(?:in|under)\s(?:the\s)?([a-z][a-z ]*?)\s(?:section|department)\b`),
	}
	descriptionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bdescription(?:\sis|\sshould be|:)?\s(.+?)` + descStop),
		regexp.MustCompile(`\b(?:described as|describe it as)\s(.+?)` + descStop),
		regexp.MustCompile(`\bit'?s in\s(.+?\scondition)\b`),
		regexp.MustCompile(`\bcondition is\s(.+?)` + descStop),
	}
	quotedPattern = regexp.MustCompile(`"([^"]+)"`)
)

const (
	fallbackMinWords = 3
	fallbackMaxWords = 5
)

// DefaultCategories is the category list used when none is configured.
func DefaultCategories() []string {
	return []string{
		"Electronics",
		"Fashion",
		"Home and Garden",
		"Sports",
		"Toys",
		"Books",
		"Beauty",
		"Automotive",
		"Health",
		"Art and Crafts",
	}
}

// Extractor pulls product fields out of free-form speech.
type Extractor struct {
	categories []string
}

// NewExtractor builds an extractor matching against categories, or the
// default list when categories is empty.
func NewExtractor(categories []string) *Extractor {
	cats := make([]string, 0, len(categories))
	for _, c := range categories {
		if c = strings.TrimSpace(c); c != "" {
			cats = append(cats, c)
		}
	}
	if len(cats) == 0 {
		cats = DefaultCategories()
	}
	return &Extractor{categories: cats}
}

// Categories returns the configured category list.
func (e *Extractor) Categories() []string {
	out := make([]string, len(e.categories))
	copy(out, e.categories)
	return out
}

// Extract returns the fields found in text. When no field is anchored the
// name falls back to the first quoted substring or the first few words.
func (e *Extractor) Extract(text string) Draft {
	return e.extract(text, true)
}

// ExtractAnchored is Extract without the name fallback.
func (e *Extractor) ExtractAnchored(text string) Draft {
	return e.extract(text, false)
}

func (e *Extractor) extract(text string, fallback bool) Draft {
	var d Draft
	t := textnorm.Transcript(text)
	if t == "" {
		return d
	}
	d.Name = firstMatch(namePatterns, t)
	d.Price = extractPrice(t)
	if c := firstMatch(categoryPatterns, t); c != "" {
		if canonical, ok := e.MatchCategory(c); ok {
			c = canonical
		}
		d.Category = c
	}
	d.Description = firstMatch(descriptionPatterns, t)
	if fallback && d.Empty() {
		d.Name = fallbackName(t)
	}
	return d
}

// Summary renders d in the anchored phrasing Extract understands. The image
// is not included.
func Summary(d Draft) string {
	var parts []string
	if d.Name != "" {
		parts = append(parts, "name is "+d.Name)
	}
	if d.Price != "" {
		parts = append(parts, "price is $"+d.Price)
	}
	if d.Category != "" {
		parts = append(parts, "category is "+d.Category)
	}
	if d.Description != "" {
		parts = append(parts, "description is "+d.Description)
	}
	return strings.Join(parts, ", ")
}

func firstMatch(patterns []*regexp.Regexp, text string) string {
	for _, p := range patterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if v := cleanValue(m[1]); v != "" {
			return v
		}
	}
	return ""
}

func extractPrice(text string) string {
	for _, p := range pricePatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if price, ok := FormatPrice(m[1]); ok {
			return price
		}
	}
	if m := priceWordsPattern.FindStringSubmatch(text); m != nil {
		if v, ok := ParseNumberWords(leadingNumberRun(m[1])); ok {
			if price, ok := formatAmount(v); ok {
				return price
			}
		}
	}
	return ""
}

// leadingNumberRun keeps the words of s up to the first word that is
// neither a number word nor a connector.
func leadingNumberRun(s string) string {
	var run []string
	for _, w := range strings.Fields(strings.ReplaceAll(s, "-", " ")) {
		_, isNumber := numberWords[w]
		if !isNumber && w != "a" && w != "and" {
			break
		}
		run = append(run, w)
	}
	return strings.Join(run, " ")
}

func fallbackName(text string) string {
	if m := quotedPattern.FindStringSubmatch(text); m != nil {
		if v := strings.Join(textnorm.Words(m[1]), " "); v != "" {
			return v
		}
	}
	words := textnorm.Words(text)
	if len(words) < fallbackMinWords {
		return ""
	}
	for len(words) > 0 && isArticle(words[0]) {
		words = words[1:]
	}
	if len(words) > fallbackMaxWords {
		words = words[:fallbackMaxWords]
	}
	return strings.Join(words, " ")
}

func cleanValue(v string) string {
	v = strings.Trim(textnorm.TrimPunct(v), `"`)
	return strings.Join(strings.Fields(v), " ")
}

func isArticle(w string) bool {
	switch w {
	case "a", "an", "the", "my", "this", "some":
		return true
	}
	return false
}
