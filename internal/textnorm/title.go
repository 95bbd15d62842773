// Package textnorm cleans translated titles and parses loosely formatted
// marketplace fields.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxTitleWords caps the translated title length.
const MaxTitleWords = 10

// Go's \w is ASCII-only, so word runs are spelled out as letters/digits.
const wordRun = `[\p{L}\p{N}_]*`

var junkPrefixes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^прямые продажи с фабрики\s*`),
	regexp.MustCompile(`(?i)^трансграничн` + wordRun + `\s+(?:горяч` + wordRun + `\s+продаж` + wordRun + `|хит\s+продаж|товар` + wordRun + `)\s*`),
	regexp.MustCompile(`(?i)^трансграничн` + wordRun + `\s*`),
	regexp.MustCompile(`(?i)^хит\s+продаж[,.\s]*`),
	regexp.MustCompile(`(?i)^интернет-знаменитости[,.\s]*`),
	regexp.MustCompile(`(?i)^горяч` + wordRun + `\s+`),
	regexp.MustCompile(`(?i)^креативн` + wordRun + `\s+`),
	regexp.MustCompile(`(?i)^популярн` + wordRun + `\s+`),
	regexp.MustCompile(`(?i)^(?:британск|европейск|американск)` + wordRun + `\s+стандартн` + wordRun + `\s*`),
}

// CleanTitle strips marketing lead-ins, caps the word count and
// capitalises the first letter.
func CleanTitle(title string) string {
	t := strings.TrimSpace(title)

	// Prefixes stack ("горячие креативные ..."), so strip a few times.
	for pass := 0; pass < 3; pass++ {
		before := t
		for _, re := range junkPrefixes {
			t = re.ReplaceAllString(t, "")
		}
		t = strings.TrimSpace(t)
		if t == before {
			break
		}
	}

	t = strings.TrimLeft(t, ",. ")

	words := strings.Fields(t)
	if len(words) > MaxTitleWords {
		words = words[:MaxTitleWords]
	}
	t = strings.Join(words, " ")

	return capitalize(t)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
