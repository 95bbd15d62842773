package insight

import (
	"strings"

	"github.com/Wisionflow/algora/internal/textnorm"
)

// errorIndicators are substrings that betray an upstream failure message
// rather than model output.
var errorIndicators = []string{
	"error", "exception", "api key", "rate limit", "overloaded",
	"unauthorized", "invalid_request", "quota", "traceback", "ошибк",
}

// Sanitize trims model output, drops Markdown emphasis and rejects text that
// looks like a transport or auth error.
func Sanitize(text string) string {
	text = strings.TrimSpace(strings.NewReplacer("**", "", "__", "").Replace(text))
	text = strings.TrimSpace(strings.TrimPrefix(text, "Инсайт:"))
	if text == "" {
		return ""
	}
	lower := strings.ToLower(text)
	for _, ind := range errorIndicators {
		if strings.Contains(lower, ind) {
			return ""
		}
	}
	return text
}

// OptimizedKeyword picks the marketplace search phrase: the first model
// suggestion, else the first two title keywords, else fallback.
func OptimizedKeyword(title string, suggested []string, fallback string) string {
	if len(suggested) > 0 {
		return suggested[0]
	}
	extracted := textnorm.Keywords(title, 2)
	if len(extracted) > 0 {
		return strings.Join(extracted, " ")
	}
	return fallback
}
