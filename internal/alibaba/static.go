package alibaba

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/Wisionflow/algora/internal/httputil"
	"github.com/Wisionflow/algora/internal/platform"
	"golang.org/x/net/html"
)

const defaultSearchURL = "https://s.1688.com/selloffer/offer_search.htm"

// StaticPageStrategy fetches the search page HTML and extracts offers from
// embedded JSON state, falling back to the rendered offer cards.
type StaticPageStrategy struct {
	client    *http.Client
	searchURL string
}

func NewStaticPageStrategy(client *http.Client) *StaticPageStrategy {
	if client == nil {
		client = httputil.NewHTTPClient(nil)
	}
	return &StaticPageStrategy{client: client, searchURL: defaultSearchURL}
}

// WithSearchURL overrides the search page location.
func (s *StaticPageStrategy) WithSearchURL(u string) *StaticPageStrategy {
	s.searchURL = u
	return s
}

func (s *StaticPageStrategy) Name() string { return "static" }

func (s *StaticPageStrategy) Execute(ctx context.Context, req platform.Request) (*platform.Result, error) {
	q := url.Values{}
	q.Set("keywords", req.Keyword)
	q.Set("charset", "utf8")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.searchURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	for k, v := range httputil.BrowserHeaders() {
		httpReq.Header[k] = v
	}

	resp, err := httputil.DoWithRetry(s.client, httpReq, 2)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search page: status %d", resp.StatusCode)
	}

	body, err := httputil.ReadBody(resp)
	if err != nil {
		return nil, err
	}
	items, err := extractItems(string(body))
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no offers found in search page")
	}
	return &platform.Result{Items: items, Strategy: s.Name()}, nil
}

// extractItems pulls offers from a search page, preferring embedded JSON.
func extractItems(htmlContent string) ([]platform.Item, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	var items []platform.Item
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(items) > 0 {
			return
		}
		if n.Type == html.ElementNode && n.Data == "script" && n.FirstChild != nil {
			if found, err := itemsFromScript(n.FirstChild.Data); err == nil {
				items = found
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	if len(items) > 0 {
		return items, nil
	}

	return itemsFromCards(goquery.NewDocumentFromNode(doc)), nil
}

// offerKeys are the array names under which 1688 pages embed search results.
var offerKeys = []string{`"offerList":[`, `"offers":[`, `"itemList":[`}

// itemsFromScript finds the first offer array in a script body.
func itemsFromScript(content string) ([]platform.Item, error) {
	for _, key := range offerKeys {
		idx := strings.Index(content, key)
		if idx == -1 {
			continue
		}
		raw, ok := bracketed(content[idx+len(key)-1:])
		if !ok {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
		dec.UseNumber()
		var offers []map[string]any
		if err := dec.Decode(&offers); err != nil {
			continue
		}
		var items []platform.Item
		for _, o := range offers {
			if it := flattenOffer(o); it != nil {
				items = append(items, it)
			}
		}
		if len(items) > 0 {
			return items, nil
		}
	}
	return nil, fmt.Errorf("no offer array in script")
}

// bracketed returns the balanced JSON array at the start of s, skipping
// brackets inside string literals.
func bracketed(s string) (string, bool) {
	depth := 0
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '[':
			depth++
		case ch == ']':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}

// flattenOffer maps the nested page-state offer shape onto the flat field
// names that mapItem understands. Already flat records pass through.
func flattenOffer(o map[string]any) platform.Item {
	item := platform.Item{}
	for k, v := range o {
		item[k] = v
	}
	if info, ok := o["information"].(map[string]any); ok {
		setIfEmpty(item, "title", info["subject"])
		setIfEmpty(item, "detail_url", info["detailUrl"])
	}
	if trade, ok := o["tradePrice"].(map[string]any); ok {
		if offer, ok := trade["offerPrice"].(map[string]any); ok {
			setIfEmpty(item, "price", offer["valueString"])
		}
	}
	if img, ok := o["image"].(map[string]any); ok {
		setIfEmpty(item, "image_url", img["imgUrl"])
	}
	if company, ok := o["company"].(map[string]any); ok {
		setIfEmpty(item, "shop_name", company["name"])
	}
	if q, ok := o["tradeQuantity"].(map[string]any); ok {
		setIfEmpty(item, "order_count", q["number"])
	}
	if str(item, "detail_url", "detailUrl") == "" {
		if id, ok := o["offerId"]; ok {
			item["detail_url"] = fmt.Sprintf("https://detail.1688.com/offer/%v.html", id)
		}
	}
	if str(item, "title", "subject") == "" {
		return nil
	}
	return item
}

func setIfEmpty(item platform.Item, key string, v any) {
	if v == nil {
		return
	}
	if s, ok := item[key].(string); ok && s != "" {
		return
	}
	item[key] = v
}

// itemsFromCards scrapes offer cards from rendered markup.
func itemsFromCards(doc *goquery.Document) []platform.Item {
	var items []platform.Item
	doc.Find(".sm-offer-item, .offer-item, .card-container").Each(func(_ int, card *goquery.Selection) {
		link := card.Find(`a[href*="detail.1688.com"]`).First()
		href, _ := link.Attr("href")
		if href == "" {
			return
		}
		title := strings.TrimSpace(card.Find(".title").First().Text())
		if title == "" {
			title, _ = link.Attr("title")
		}
		if title == "" {
			return
		}
		img := card.Find("img").First()
		src, _ := img.Attr("src")
		if lazy, ok := img.Attr("data-lazy-src"); ok && lazy != "" {
			src = lazy
		}
		items = append(items, platform.Item{
			"title":       title,
			"detail_url":  href,
			"price":       strings.TrimSpace(card.Find(".price").First().Text()),
			"order_count": strings.TrimSpace(card.Find(".sale, .trade-num").First().Text()),
			"shop_name":   strings.TrimSpace(card.Find(".company-name, .shop-name").First().Text()),
			"image_url":   src,
		})
	})
	return items
}
