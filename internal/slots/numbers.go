package slots

import (
	"math"
	"strconv"
	"strings"
)

// MaxPrice is the largest spoken price accepted.
const MaxPrice = 1_000_000_000

var numberWords = map[string]float64{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
	"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
	"hundred": 100, "thousand": 1000, "million": 1000000,
}

// ParseNumberWords reads the first run of English number words in text,
// e.g. "about twenty five dollars" -> 25. "a" and "and" are accepted inside
// a run ("a hundred and ten").
func ParseNumberWords(text string) (float64, bool) {
	words := strings.Fields(strings.ReplaceAll(strings.ToLower(text), "-", " "))
	total, current := 0.0, 0.0
	seen := false
	for i, w := range words {
		w = strings.Trim(w, ".,:$\"'")
		val, ok := numberWords[w]
		if !ok {
			if !seen && w == "a" && i+1 < len(words) && isMultiplier(words[i+1]) {
				continue
			}
			if seen && w == "and" {
				continue
			}
			if seen {
				break
			}
			continue
		}
		seen = true
		switch {
		case val >= 1000:
			if current == 0 {
				current = 1
			}
			total += current * val
			current = 0
		case val == 100:
			if current == 0 {
				current = 1
			}
			current *= val
		default:
			current += val
		}
	}
	return total + current, seen
}

func isMultiplier(w string) bool {
	v, ok := numberWords[w]
	return ok && v >= 100
}

// FormatPrice renders a numeric price without trailing zero cents: "25",
// "19.99". It rejects negative, non-numeric and out of range input.
func FormatPrice(raw string) (string, bool) {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "$"))
	raw = strings.ReplaceAll(raw, ",", ".")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", false
	}
	return formatAmount(v)
}

func formatAmount(v float64) (string, bool) {
	if math.IsNaN(v) || v < 0 || v > MaxPrice {
		return "", false
	}
	cents := int64(math.Round(v * 100))
	if cents%100 == 0 {
		return strconv.FormatInt(cents/100, 10), true
	}
	return strconv.FormatFloat(float64(cents)/100, 'f', 2, 64), true
}
