package alibaba

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Wisionflow/algora/internal/models"
	"github.com/Wisionflow/algora/internal/platform"
)

func TestMapItem(t *testing.T) {
	tests := []struct {
		name string
		item platform.Item
		ok   bool
		want models.RawProduct
	}{
		{
			name: "split price and tiers",
			item: platform.Item{
				"title":           "无线蓝牙耳机",
				"detail_url":      "//detail.1688.com/offer/1.html",
				"price_integer":   json.Number("28"),
				"price_decimal":   ".50",
				"order_count":     "5.2万",
				"shop_name":       "深圳电子",
				"repurchase_rate": "33%",
				"image_url":       "//cbu01.alicdn.com/a.jpg",
				"quantity_prices": []any{map[string]any{"price": "28.50", "quantity": "≥2个"}},
			},
			ok: true,
			want: models.RawProduct{
				Source: models.SourceLive, SourceURL: "https://detail.1688.com/offer/1.html",
				TitleCN: "无线蓝牙耳机", Category: "electronics", PriceCNY: 28.5, MinOrder: 2,
				SalesVolume: 52000, Rating: 3.3, SupplierName: "深圳电子",
				ImageURL: "https://cbu01.alicdn.com/a.jpg",
			},
		},
		{
			name: "price from first tier",
			item: platform.Item{
				"title":           "台灯",
				"detailUrl":       "https://detail.1688.com/offer/2.html",
				"shopName":        "义乌",
				"quantity_prices": []any{map[string]any{"price": "3.5-4", "quantity": "10"}},
			},
			ok: true,
			want: models.RawProduct{
				Source: models.SourceLive, SourceURL: "https://detail.1688.com/offer/2.html",
				TitleCN: "台灯", Category: "electronics", PriceCNY: 3.5, MinOrder: 10, SupplierName: "义乌",
			},
		},
		{
			name: "zero price",
			item: platform.Item{"title": "x", "detail_url": "https://detail.1688.com/offer/3.html", "price": "0"},
		},
		{
			name: "missing url",
			item: platform.Item{"title": "x", "price": 5.0},
		},
		{
			name: "missing title",
			item: platform.Item{"detail_url": "https://detail.1688.com/offer/4.html", "price": 5.0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := mapItem(tt.item, "electronics")
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && !reflectEqual(got, tt.want) {
				t.Errorf("mapItem = %+v\nwant %+v", got, tt.want)
			}
		})
	}
}

func reflectEqual(a, b models.RawProduct) bool {
	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	return string(ja) == string(jb)
}

func TestExtractItemsFromEmbeddedState(t *testing.T) {
	page := `<html><head><script>var x = 1;</script>
<script>window.data = {"offerList":[
 {"offerId":101,"information":{"subject":"LED灯 [新款]"},"tradePrice":{"offerPrice":{"valueString":"9.90"}},"image":{"imgUrl":"//img/1.jpg"},"company":{"name":"中山灯饰"},"tradeQuantity":{"number":"1200"}},
 {"information":{}}
]};</script></head><body></body></html>`

	items, err := extractItems(page)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	p, ok := mapItem(items[0], "led_lighting")
	if !ok {
		t.Fatal("flattened offer not mappable")
	}
	if p.SourceURL != "https://detail.1688.com/offer/101.html" || p.PriceCNY != 9.9 || p.SalesVolume != 1200 || p.SupplierName != "中山灯饰" {
		t.Errorf("unexpected product %+v", p)
	}
	if p.TitleCN != "LED灯 [新款]" {
		t.Errorf("title = %q", p.TitleCN)
	}
}

func TestExtractItemsFromCards(t *testing.T) {
	page := `<html><body>
<div class="sm-offer-item">
  <a href="https://detail.1688.com/offer/7.html" title="折叠风扇"><img data-lazy-src="//img/7.jpg"></a>
  <div class="price">¥12.80</div><div class="sale">成交3.1万笔</div><div class="company-name">宁波电器</div>
</div>
<div class="sm-offer-item"><span class="title">no link</span></div>
</body></html>`

	items, err := extractItems(page)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	p, ok := mapItem(items[0], "home")
	if !ok {
		t.Fatal("card not mappable")
	}
	if p.TitleCN != "折叠风扇" || p.PriceCNY != 12.8 || p.SalesVolume != 31000 || p.ImageURL != "https://img/7.jpg" {
		t.Errorf("unexpected product %+v", p)
	}
}

func TestApifyStrategy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.Contains(r.URL.Path, "/v2/acts/devcake~1688-com-products-scraper/run-sync-get-dataset-items") {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.URL.Query().Get("token") != "tok" {
			t.Errorf("token missing: %s", r.URL.RawQuery)
		}
		body, _ := io.ReadAll(r.Body)
		var in apifyInput
		if err := json.Unmarshal(body, &in); err != nil || in.Queries[0] != "LED灯 新款" || in.MaxItems != 5 {
			t.Errorf("unexpected input %s", body)
		}
		w.Write([]byte(`[{"title":"灯","detail_url":"https://detail.1688.com/offer/9.html","price_integer":3,"price_decimal":".2"}]`))
	}))
	defer srv.Close()

	s := NewApifyStrategy(srv.Client(), "tok", "").WithBaseURL(srv.URL)
	r, err := s.Execute(context.Background(), platform.Request{Keyword: Keyword("led_lighting"), Limit: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Items) != 1 || r.Strategy != "apify" {
		t.Fatalf("result = %+v", r)
	}
	if p, ok := mapItem(r.Items[0], "led_lighting"); !ok || p.PriceCNY != 3.2 {
		t.Errorf("mapped = %+v", p)
	}
}

func TestApifyStrategyErrors(t *testing.T) {
	if _, err := NewApifyStrategy(nil, "", "").Execute(context.Background(), platform.Request{}); err == nil {
		t.Error("expected error without token")
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	}))
	defer srv.Close()
	s := NewApifyStrategy(srv.Client(), "tok", "a~b").WithBaseURL(srv.URL)
	if _, err := s.Execute(context.Background(), platform.Request{Keyword: "x", Limit: 1}); err == nil {
		t.Error("expected error on 402")
	}
}

type stubStrategy struct {
	name  string
	items []platform.Item
	err   error
	delay time.Duration
	calls int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Execute(ctx context.Context, _ platform.Request) (*platform.Result, error) {
	s.calls++
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return &platform.Result{Items: s.items, Strategy: s.name}, nil
}

type mapTranslator map[string]string

func (m mapTranslator) Translate(_ context.Context, text string) string {
	if out, ok := m[text]; ok {
		return out
	}
	return text
}

func TestCollectorLocalizesAndFallsBack(t *testing.T) {
	items := []platform.Item{
		{"title": "无线蓝牙耳机", "detail_url": "https://detail.1688.com/offer/1.html", "price": "28.5"},
		{"title": "无价格", "detail_url": "https://detail.1688.com/offer/2.html"},
		{"title": "无线蓝牙耳机", "detail_url": "https://detail.1688.com/offer/1.html", "price": "29"},
	}
	failing := &stubStrategy{name: "static", err: errors.New("captcha")}
	slow := &stubStrategy{name: "headless", items: items}

	c := NewCollectorWithStrategies(Options{
		Translator: mapTranslator{"无线蓝牙耳机": "Трансграничные беспроводные наушники bluetooth"},
	}, []platform.Strategy{failing}, []platform.Strategy{slow})

	got := c.Collect(context.Background(), "electronics", 10)
	if len(got) != 1 {
		t.Fatalf("got %d products, want 1", len(got))
	}
	p := got[0]
	if p.TitleRU != "Беспроводные наушники bluetooth" || p.WBKeyword != "беспроводные наушники" {
		t.Errorf("localization = %q / %q", p.TitleRU, p.WBKeyword)
	}
	if p.PriceCNY != 28.5 || p.CollectedAt.IsZero() {
		t.Errorf("unexpected product %+v", p)
	}
	if failing.calls != 1 || slow.calls != 1 {
		t.Errorf("calls fast=%d slow=%d", failing.calls, slow.calls)
	}
}

func TestCollectorRaceTakesFirstNonEmpty(t *testing.T) {
	empty := &stubStrategy{name: "static"}
	apify := &stubStrategy{name: "apify", delay: 20 * time.Millisecond, items: []platform.Item{
		{"title": "灯", "detail_url": "https://detail.1688.com/offer/5.html", "price": 4.0},
	}}
	slow := &stubStrategy{name: "headless"}

	c := NewCollectorWithStrategies(Options{}, []platform.Strategy{empty, apify}, []platform.Strategy{slow})
	got := c.Collect(context.Background(), "led_lighting", 3)
	if len(got) != 1 {
		t.Fatalf("got %d products", len(got))
	}
	if slow.calls != 0 {
		t.Error("slow strategy consulted although the race produced items")
	}
}

func TestCollectorAllStrategiesEmpty(t *testing.T) {
	c := NewCollectorWithStrategies(Options{RaceTimeout: 50 * time.Millisecond},
		[]platform.Strategy{&stubStrategy{name: "static", delay: time.Second}}, nil)
	if got := c.Collect(context.Background(), "toys", 3); len(got) != 0 {
		t.Errorf("got %d products, want none", len(got))
	}
}

func TestKeyword(t *testing.T) {
	if Keyword("pet") != "宠物用品 爆款 智能" {
		t.Error("pet keyword")
	}
	if Keyword("纸巾") != "纸巾" {
		t.Error("unknown category should be searched verbatim")
	}
}
