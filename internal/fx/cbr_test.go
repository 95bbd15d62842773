package fx

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestCBR(url string, now *time.Time) *CBR {
	c := NewCBR(nil, 0, nil)
	c.url = url
	c.now = func() time.Time { return *now }
	return c
}

func TestCBRFetchesAndCaches(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"Valute":{"USD":{"Nominal":1,"Value":90.1},"CNY":{"Nominal":10,"Value":125}}}`)
	}))
	defer srv.Close()

	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	c := newTestCBR(srv.URL, &now)
	ctx := context.Background()

	if got := c.CNYToRUB(ctx); got != 12.5 {
		t.Fatalf("rate = %v, want 12.5", got)
	}
	now = now.Add(23 * time.Hour)
	c.CNYToRUB(ctx)
	if calls.Load() != 1 {
		t.Errorf("calls = %d within TTL, want 1", calls.Load())
	}
	now = now.Add(2 * time.Hour)
	c.CNYToRUB(ctx)
	if calls.Load() != 2 {
		t.Errorf("calls = %d after TTL, want 2", calls.Load())
	}
}

func TestCBRFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	now := time.Now()
	c := newTestCBR(srv.URL, &now)
	if got := c.CNYToRUB(context.Background()); got != FallbackRate {
		t.Errorf("rate = %v, want fallback %v", got, FallbackRate)
	}
}

func TestCBRKeepsStaleRateOnFailure(t *testing.T) {
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"Valute":{"CNY":{"Nominal":1,"Value":12.9}}}`)
	}))
	defer srv.Close()

	now := time.Now()
	c := newTestCBR(srv.URL, &now)
	ctx := context.Background()
	c.CNYToRUB(ctx)

	fail.Store(true)
	now = now.Add(48 * time.Hour)
	if got := c.CNYToRUB(ctx); got != 12.9 {
		t.Errorf("rate = %v, want stale 12.9", got)
	}
}

func TestFixed(t *testing.T) {
	if got := Fixed(13.2).CNYToRUB(context.Background()); got != 13.2 {
		t.Errorf("Fixed = %v", got)
	}
}
