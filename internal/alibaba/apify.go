package alibaba

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Wisionflow/algora/internal/httputil"
	"github.com/Wisionflow/algora/internal/platform"
)

const (
	DefaultApifyBaseURL = "https://api.apify.com"
	DefaultApifyActor   = "devcake~1688-com-products-scraper"
	apifyTimeoutSecs    = 180
)

// ApifyStrategy runs a hosted 1688 search actor and reads its dataset.
type ApifyStrategy struct {
	client  *http.Client
	token   string
	actor   string
	baseURL string
}

func NewApifyStrategy(client *http.Client, token, actor string) *ApifyStrategy {
	if client == nil {
		client = httputil.NewHTTPClientWithTimeout(nil, (apifyTimeoutSecs+30)*time.Second)
	}
	if actor == "" {
		actor = DefaultApifyActor
	}
	return &ApifyStrategy{client: client, token: token, actor: actor, baseURL: DefaultApifyBaseURL}
}

// WithBaseURL points the strategy at another API host.
func (a *ApifyStrategy) WithBaseURL(u string) *ApifyStrategy {
	a.baseURL = u
	return a
}

func (a *ApifyStrategy) Name() string { return "apify" }

type apifyInput struct {
	Queries  []string `json:"queries"`
	MaxItems int      `json:"maxItems"`
}

func (a *ApifyStrategy) Execute(ctx context.Context, req platform.Request) (*platform.Result, error) {
	if a.token == "" {
		return nil, fmt.Errorf("apify token not set")
	}
	payload, err := json.Marshal(apifyInput{Queries: []string{req.Keyword}, MaxItems: req.Limit})
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("token", a.token)
	q.Set("timeout", fmt.Sprint(apifyTimeoutSecs))
	endpoint := fmt.Sprintf("%s/v2/acts/%s/run-sync-get-dataset-items?%s", a.baseURL, url.PathEscape(a.actor), q.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header = httputil.JSONHeaders()

	resp, err := httputil.Do(a.client, httpReq, httputil.Retry{Attempts: 1, Backoff: 2 * time.Second, On429: true})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("apify actor %s: status %d", a.actor, resp.StatusCode)
	}

	body, err := httputil.ReadBody(resp)
	if err != nil {
		return nil, err
	}
	items, err := decodeItems(body)
	if err != nil {
		return nil, fmt.Errorf("decode apify dataset: %w", err)
	}
	return &platform.Result{Items: items, Strategy: a.Name()}, nil
}

// decodeItems reads a JSON array of objects, keeping numbers as json.Number.
func decodeItems(body []byte) ([]platform.Item, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var items []platform.Item
	if err := dec.Decode(&items); err != nil {
		return nil, err
	}
	return items, nil
}
