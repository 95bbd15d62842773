package stealth

import (
	"bufio"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
)

// ProxyPool rotates requests across a fixed list of HTTP or SOCKS5 proxies.
type ProxyPool struct {
	mu         sync.Mutex
	transports []http.RoundTripper
	labels     []string
	idx        int
}

// NewProxyPool builds one transport per proxy URL. It returns nil for an
// empty list so callers can fall back to a direct connection.
func NewProxyPool(proxies []*url.URL) *ProxyPool {
	if len(proxies) == 0 {
		return nil
	}
	p := &ProxyPool{}
	for _, u := range proxies {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.Proxy = http.ProxyURL(u)
		p.transports = append(p.transports, t)
		p.labels = append(p.labels, u.Host)
	}
	return p
}

// Next returns the next transport and the proxy host it uses.
func (p *ProxyPool) Next() (http.RoundTripper, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.idx % len(p.transports)
	p.idx++
	return p.transports[i], p.labels[i]
}

// LoadProxies reads one proxy URL per line. Blank lines and lines starting
// with # are ignored; a bare host:port is taken as http.
func LoadProxies(path string) ([]*url.URL, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []*url.URL
	sc := bufio.NewScanner(f)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.Contains(line, "://") {
			line = "http://" + line
		}
		u, err := url.Parse(line)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("%s:%d: invalid proxy %q", path, n, line)
		}
		switch u.Scheme {
		case "http", "https", "socks5":
		default:
			return nil, fmt.Errorf("%s:%d: unsupported proxy scheme %q", path, n, u.Scheme)
		}
		out = append(out, u)
	}
	return out, sc.Err()
}
