// Package httputil holds the outbound HTTP plumbing shared by the 1688,
// Wildberries, FX, translation and publishing clients.
package httputil

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/andybalholm/brotli"
)

const (
	// DefaultTimeout bounds every outbound call unless a caller overrides it.
	DefaultTimeout = 30 * time.Second

	// MaxBodyBytes caps decoded response bodies; 1688 search pages run to a few MB.
	MaxBodyBytes = 16 << 20

	maxRetryAfter = 30 * time.Second
)

// ErrBodyTooLarge is returned by ReadBody when a decoded body exceeds MaxBodyBytes.
var ErrBodyTooLarge = errors.New("response body too large")

// StatusError reports a non-success status that survived all retries.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("server error: %d", e.Code) }

// NewHTTPClient returns a client with DefaultTimeout. A nil transport gets a
// pooled http.Transport; pass a stealth.Transport for page scraping.
func NewHTTPClient(transport http.RoundTripper) *http.Client {
	return NewHTTPClientWithTimeout(transport, DefaultTimeout)
}

// NewHTTPClientWithTimeout is NewHTTPClient with an explicit timeout.
func NewHTTPClientWithTimeout(transport http.RoundTripper, timeout time.Duration) *http.Client {
	if transport == nil {
		transport = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        50,
			MaxIdleConnsPerHost: 8,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		}
	}
	return &http.Client{Transport: transport, Timeout: timeout}
}

// Retry controls how Do repeats a request.
type Retry struct {
	Attempts int           // extra attempts after the first
	Backoff  time.Duration // multiplied by the attempt number
	On429    bool          // also retry 429, honouring Retry-After
}

// DoWithRetry retries network errors and 5xx up to maxRetries times with
// a linear 500ms backoff.
func DoWithRetry(client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	return Do(client, req, Retry{Attempts: maxRetries, Backoff: 500 * time.Millisecond})
}

// Do sends req under policy r. Statuses that are not retried are returned
// to the caller with the body open. Request bodies are rewound through
// req.GetBody; waits end early when the request context is cancelled.
func Do(client *http.Client, req *http.Request, r Retry) (*http.Response, error) {
	var lastErr error
	var wait time.Duration
	for i := 0; i <= r.Attempts; i++ {
		if i > 0 {
			if wait <= 0 {
				wait = time.Duration(i) * r.Backoff
			}
			if err := pause(req.Context(), wait); err != nil {
				return nil, err
			}
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("rewind request body: %w", err)
				}
				req.Body = body
			}
		}
		wait = 0

		resp, err := client.Do(req)
		if err != nil {
			if ctxErr := req.Context().Err(); ctxErr != nil {
				return nil, ctxErr
			}
			lastErr = err
			continue
		}
		if !r.retryable(resp.StatusCode) {
			return resp, nil
		}
		wait = RetryAfter(resp.Header, time.Now())
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		resp.Body.Close()
		lastErr = &StatusError{Code: resp.StatusCode}
	}
	return nil, fmt.Errorf("%s %s: gave up after %d attempts: %w", req.Method, req.URL.Host, r.Attempts+1, lastErr)
}

func (r Retry) retryable(code int) bool {
	if code >= 500 {
		return true
	}
	return r.On429 && code == http.StatusTooManyRequests
}

// RetryAfter parses a Retry-After header given either as seconds or as an
// HTTP date. Unparseable or past values yield zero; long waits are capped.
func RetryAfter(h http.Header, now time.Time) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	var d time.Duration
	if secs, err := strconv.Atoi(v); err == nil {
		d = time.Duration(secs) * time.Second
	} else if t, err := http.ParseTime(v); err == nil {
		d = t.Sub(now)
	}
	if d < 0 {
		return 0
	}
	return min(d, maxRetryAfter)
}

func pause(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReadBody decodes gzip, deflate or brotli bodies and reads at most
// MaxBodyBytes of the result.
func ReadBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer zr.Close()
		r = zr
	case "deflate":
		fr := flate.NewReader(resp.Body)
		defer fr.Close()
		r = fr
	case "br":
		r = brotli.NewReader(resp.Body)
	}

	body, err := io.ReadAll(io.LimitReader(r, MaxBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if len(body) > MaxBodyBytes {
		return nil, ErrBodyTooLarge
	}
	return body, nil
}
