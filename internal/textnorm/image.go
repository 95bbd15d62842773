package textnorm

import "strings"

var rejectImagePatterns = []string{
	"search", "avatar", "shop-logo", "banner", "promotion", "watermark",
	"/icon/", "default", "no-image", "placeholder",
}

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}

// alicdn serves product photos without file extensions.
var imageCDNHosts = []string{"cbu01.alicdn.com", "img.alicdn.com", "cbu-cdn"}

// ImageURLAcceptable applies cheap URL rules to a product photo link.
// It returns false and a short reason for links that are empty, not images
// or point at marketplace chrome (logos, banners, placeholders).
func ImageURLAcceptable(u string) (bool, string) {
	if strings.TrimSpace(u) == "" {
		return false, "empty_url"
	}
	lower := strings.ToLower(u)

	if !containsAny(lower, imageExtensions) && !containsAny(lower, imageCDNHosts) {
		return false, "invalid_format"
	}
	for _, p := range rejectImagePatterns {
		if strings.Contains(lower, p) {
			return false, "rejected_pattern:" + p
		}
	}
	return true, "passed"
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
