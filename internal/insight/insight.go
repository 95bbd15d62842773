// Package insight asks a language model for short commentary on analyzed
// products. Every failure degrades to empty output.
package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Wisionflow/algora/internal/httputil"
	"github.com/Wisionflow/algora/internal/models"
)

const (
	DefaultEndpoint = "https://api.anthropic.com/v1/messages"
	DefaultModel    = "claude-sonnet-4-5-20250929"
	apiVersion      = "2023-06-01"
)

// Options configures a Generator.
type Options struct {
	APIKey   string
	Model    string
	Endpoint string
	Client   *http.Client
	Logger   *slog.Logger
}

// Generator calls the Anthropic Messages API.
type Generator struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
	logger   *slog.Logger

	warnOnce sync.Once
}

func New(opts Options) *Generator {
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.Client == nil {
		opts.Client = httputil.NewHTTPClientWithTimeout(nil, 30*time.Second)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Generator{
		apiKey:   opts.APIKey,
		model:    opts.Model,
		endpoint: opts.Endpoint,
		client:   opts.Client,
		logger:   opts.Logger,
	}
}

// Enabled reports whether an API key is configured.
func (g *Generator) Enabled() bool { return g.apiKey != "" }

// Insight returns a one or two sentence comment on the product, or "".
func (g *Generator) Insight(ctx context.Context, p models.AnalyzedProduct) string {
	text, err := g.complete(ctx, insightSystemPrompt, productPrompt(p), 300)
	if err != nil {
		g.logger.Error("insight generation failed", "source_url", p.Raw.SourceURL, "err", err)
		return ""
	}
	return Sanitize(text)
}

// SuggestKeywords asks for up to n marketplace search phrases.
func (g *Generator) SuggestKeywords(ctx context.Context, p models.RawProduct, n int) []string {
	if n <= 0 {
		n = 5
	}
	text, err := g.complete(ctx, keywordSystemPrompt(n), keywordPrompt(p, n), 200)
	if err != nil {
		g.logger.Warn("keyword suggestion failed", "source_url", p.SourceURL, "err", err)
		return nil
	}
	text = Sanitize(text)
	if text == "" {
		return nil
	}
	var out []string
	for _, kw := range strings.Split(text, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
		if len(out) == n {
			break
		}
	}
	return out
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (g *Generator) complete(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	if !g.Enabled() {
		g.warnOnce.Do(func() { g.logger.Warn("ANTHROPIC_API_KEY not set, skipping AI analysis") })
		return "", nil
	}
	payload, err := json.Marshal(messagesRequest{
		Model:     g.model,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header = httputil.JSONHeaders()
	req.Header.Set("x-api-key", g.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("messages api: status %d", resp.StatusCode)
	}

	body, err := httputil.ReadBody(resp)
	if err != nil {
		return "", err
	}
	var out messagesResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode messages response: %w", err)
	}
	var b strings.Builder
	for _, c := range out.Content {
		if c.Type == "text" {
			b.WriteString(c.Text)
		}
	}
	return b.String(), nil
}
