// Package translate turns Chinese supplier titles into Russian.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Wisionflow/algora/internal/httputil"
	"golang.org/x/time/rate"
)

// DefaultEndpoint is the public Google translate endpoint.
const DefaultEndpoint = "https://translate.googleapis.com/translate_a/single"

// Translator converts text between languages. Implementations return the
// input unchanged when translation fails.
type Translator interface {
	Translate(ctx context.Context, text string) string
}

// Noop returns text as-is.
type Noop struct{}

func (Noop) Translate(_ context.Context, text string) string { return text }

// Google calls the free gtx endpoint, pacing requests through a limiter.
type Google struct {
	client   *http.Client
	limiter  *rate.Limiter
	endpoint string
	source   string
	target   string
	logger   *slog.Logger
}

// NewGoogle creates a zh-CN to ru translator issuing at most one request
// per interval.
func NewGoogle(client *http.Client, interval time.Duration, logger *slog.Logger) *Google {
	if client == nil {
		client = httputil.NewHTTPClient(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Google{
		client:   client,
		limiter:  rate.NewLimiter(limit, 1),
		endpoint: DefaultEndpoint,
		source:   "zh-CN",
		target:   "ru",
		logger:   logger,
	}
}

// WithEndpoint points the translator at another server.
func (g *Google) WithEndpoint(endpoint string) *Google {
	g.endpoint = endpoint
	return g
}

func (g *Google) Translate(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	out, err := g.translate(ctx, text)
	if err != nil || out == "" {
		if err != nil {
			g.logger.Debug("translation failed, keeping original", "err", err)
		}
		return text
	}
	return out
}

func (g *Google) translate(ctx context.Context, text string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", g.source)
	q.Set("tl", g.target)
	q.Set("dt", "t")
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translate: status %d", resp.StatusCode)
	}
	body, err := httputil.ReadBody(resp)
	if err != nil {
		return "", err
	}
	return parseSentences(body)
}

// parseSentences joins the translated segments of a gtx response, whose
// first element is a list of [translated, original, ...] tuples.
func parseSentences(body []byte) (string, error) {
	var root []json.RawMessage
	if err := json.Unmarshal(body, &root); err != nil {
		return "", fmt.Errorf("decode translation: %w", err)
	}
	if len(root) == 0 {
		return "", fmt.Errorf("empty translation")
	}
	var segments [][]any
	if err := json.Unmarshal(root[0], &segments); err != nil {
		return "", fmt.Errorf("decode segments: %w", err)
	}
	var b strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		if s, ok := seg[0].(string); ok {
			b.WriteString(s)
		}
	}
	return strings.TrimSpace(b.String()), nil
}
