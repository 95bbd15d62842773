package textnorm

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var punctuation = regexp.MustCompile(`[,.()\[\]{}"/\\!?;:]`)

var stopwords = toSet(
	"для", "с", "и", "в", "на", "от", "из", "по", "к", "о", "не", "без",
	"при", "до", "через", "под", "над", "хит", "мини", "все", "это", "тот",
	"эта", "как", "что", "где", "или", "его",
)

// Stems of translated marketing filler that never make a useful search term.
var junkStems = []string{
	"трансгранич", "популярн", "креативн", "интернет-знаменитост", "продаж",
	"фабрик", "оптов", "красив", "уникальн", "европейск", "британск",
	"американск", "стандартн", "интеллектуальн", "продаваем", "горяч",
	"товар", "продукт", "новых", "новый", "новая", "новое", "новые",
	"подходит", "подходящ", "применяет", "применим", "бестселлер",
	"считанн", "модн", "классическ", "второ", "изменени", "однотонн",
	"волнист", "готов", "прямые", "заводск",
}

// Keywords returns up to limit meaningful words of a translated title in
// their original order.
func Keywords(title string, limit int) []string {
	clean := punctuation.ReplaceAllString(strings.ToLower(title), " ")

	seen := make(map[string]bool)
	var out []string
	for _, w := range strings.Fields(clean) {
		if len(out) >= limit {
			break
		}
		if seen[w] || utf8.RuneCountInString(w) <= 2 || isDigits(w) || stopwords[w] || isJunk(w) {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// SearchKeyword is the short reference-market query derived from a title:
// its first two meaningful words.
func SearchKeyword(title string) string {
	return strings.Join(Keywords(title, 2), " ")
}

func isJunk(w string) bool {
	for _, stem := range junkStems {
		if strings.HasPrefix(w, stem) {
			return true
		}
	}
	return false
}

func isDigits(w string) bool {
	for _, r := range w {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return w != ""
}

func toSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
