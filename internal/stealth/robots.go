package stealth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// RobotsChecker fetches and caches robots.txt per origin. Origins whose
// rules cannot be fetched are treated as allowing everything.
type RobotsChecker struct {
	client *http.Client
	ttl    time.Duration
	now    func() time.Time

	mu    sync.Mutex
	cache map[string]robotsEntry
}

type robotsEntry struct {
	data    *robotstxt.RobotsData
	expires time.Time
}

// NewRobotsChecker returns a checker that refreshes rules hourly.
func NewRobotsChecker(client *http.Client) *RobotsChecker {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RobotsChecker{
		client: client,
		ttl:    time.Hour,
		now:    time.Now,
		cache:  make(map[string]robotsEntry),
	}
}

// Allowed reports whether agent may fetch rawURL.
func (r *RobotsChecker) Allowed(ctx context.Context, agent, rawURL string) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, err
	}
	data, err := r.rules(ctx, u.Scheme+"://"+u.Host)
	if err != nil {
		return true, nil
	}
	return data.TestAgent(u.RequestURI(), agent), nil
}

func (r *RobotsChecker) rules(ctx context.Context, origin string) (*robotstxt.RobotsData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.cache[origin]; ok && r.now().Before(e.expires) {
		return e.data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
	if err != nil {
		return nil, fmt.Errorf("read robots.txt: %w", err)
	}
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}
	r.cache[origin] = robotsEntry{data: data, expires: r.now().Add(r.ttl)}
	return data, nil
}
