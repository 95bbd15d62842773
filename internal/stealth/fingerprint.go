package stealth

import (
	"net/http"
	"strings"
	"sync"
)

// Fingerprint is a browser identity: a user agent plus the headers that
// browser sends.
type Fingerprint struct {
	UserAgent string
	Headers   http.Header
}

// FingerprintPool hands out identities round-robin.
type FingerprintPool struct {
	mu           sync.Mutex
	fingerprints []Fingerprint
	idx          int
}

// NewFingerprintPool returns a pool of current desktop Chrome, Edge and
// Firefox identities.
func NewFingerprintPool() *FingerprintPool {
	return &FingerprintPool{fingerprints: []Fingerprint{
		{
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
			Headers:   chromeHeaders("131", `"Windows"`),
		},
		{
			UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
			Headers:   chromeHeaders("131", `"macOS"`),
		},
		{
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36 Edg/131.0.0.0",
			Headers:   chromeHeaders("131", `"Windows"`),
		},
		{
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:133.0) Gecko/20100101 Firefox/133.0",
			Headers:   firefoxHeaders(),
		},
	}}
}

// Next returns the next identity.
func (p *FingerprintPool) Next() Fingerprint {
	p.mu.Lock()
	defer p.mu.Unlock()
	f := p.fingerprints[p.idx%len(p.fingerprints)]
	p.idx++
	return f
}

// AcceptLanguage picks the language a local shopper on host would send:
// Chinese for 1688 and Alibaba hosts, Russian for Wildberries, English otherwise.
func AcceptLanguage(host string) string {
	host = strings.ToLower(host)
	switch {
	case strings.HasSuffix(host, "1688.com"), strings.HasSuffix(host, "alibaba.com"), strings.HasSuffix(host, "alicdn.com"):
		return "zh-CN,zh;q=0.9,en;q=0.6"
	case strings.HasSuffix(host, "wildberries.ru"), strings.HasSuffix(host, "wb.ru"):
		return "ru-RU,ru;q=0.9,en;q=0.6"
	default:
		return "en-US,en;q=0.9"
	}
}

func chromeHeaders(version, platform string) http.Header {
	h := http.Header{}
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	h.Set("Sec-Ch-Ua", `"Chromium";v="`+version+`", "Not_A Brand";v="24", "Google Chrome";v="`+version+`"`)
	h.Set("Sec-Ch-Ua-Mobile", "?0")
	h.Set("Sec-Ch-Ua-Platform", platform)
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "none")
	h.Set("Upgrade-Insecure-Requests", "1")
	return h
}

func firefoxHeaders() http.Header {
	h := http.Header{}
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "none")
	h.Set("Upgrade-Insecure-Requests", "1")
	return h
}
