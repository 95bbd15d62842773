package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/Wisionflow/algora/internal/models"
	"github.com/Wisionflow/algora/internal/store"
	"github.com/gofiber/fiber/v2"
)

func seededStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()
	s, err := store.Open(ctx, store.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	now := time.Now().UTC()
	for i, url := range []string{"https://detail.1688.com/offer/1.html", "https://detail.1688.com/offer/2.html"} {
		a := models.AnalyzedProduct{
			Raw:        models.RawProduct{Source: "demo", SourceURL: url, TitleRU: "Товар", Category: "home", PriceCNY: 10, CollectedAt: now},
			TotalScore: float64(5 + i),
			AnalyzedAt: now,
		}
		if err := s.SaveRaw(ctx, a.Raw); err != nil {
			t.Fatal(err)
		}
		if err := s.SaveAnalyzed(ctx, a); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.RecordPublished(ctx, models.Post{
		SourceURL: "https://detail.1688.com/offer/2.html", Platform: "telegram", PostType: "product", Text: "hi",
	}); err != nil {
		t.Fatal(err)
	}
	return s
}

func get(t *testing.T, app *fiber.App, path string, header map[string]string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("test request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode %s: %v (%s)", path, err, body)
	}
	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	app := New(seededStore(t), Options{})
	code, body := get(t, app, "/healthz", nil)
	if code != fiber.StatusOK || body["status"] != "ok" {
		t.Errorf("healthz = %d %v", code, body)
	}
}

func TestTopProductsOrdered(t *testing.T) {
	app := New(seededStore(t), Options{})
	code, body := get(t, app, "/api/v1/products/top?limit=5", nil)
	if code != fiber.StatusOK {
		t.Fatalf("status = %d %v", code, body)
	}
	products := body["products"].([]any)
	if len(products) != 2 {
		t.Fatalf("products = %d", len(products))
	}
	first := products[0].(map[string]any)
	if first["total_score"].(float64) != 6 {
		t.Errorf("first product score = %v", first["total_score"])
	}
}

func TestTopProductsRejectsBadLimit(t *testing.T) {
	app := New(seededStore(t), Options{})
	code, body := get(t, app, "/api/v1/products/top?limit=0", nil)
	if code != fiber.StatusBadRequest || body["error"] == nil {
		t.Errorf("bad limit = %d %v", code, body)
	}
}

func TestProductLookup(t *testing.T) {
	app := New(seededStore(t), Options{})
	q := url.QueryEscape("https://detail.1688.com/offer/1.html")
	code, _ := get(t, app, "/api/v1/products/lookup?url="+q, nil)
	if code != fiber.StatusOK {
		t.Errorf("lookup status = %d", code)
	}
	code, body := get(t, app, "/api/v1/products/lookup?url=missing", nil)
	if code != fiber.StatusNotFound || body["error"] != "product not found" {
		t.Errorf("missing lookup = %d %v", code, body)
	}
}

func TestPublishedAndStats(t *testing.T) {
	app := New(seededStore(t), Options{})
	code, body := get(t, app, "/api/v1/published?platform=telegram", nil)
	if code != fiber.StatusOK || body["count"].(float64) != 1 {
		t.Errorf("published = %d %v", code, body)
	}
	_, body = get(t, app, "/api/v1/stats", nil)
	if body["collected"].(float64) != 2 || body["published"].(float64) != 1 {
		t.Errorf("stats = %v", body)
	}
}

func TestAPIKeyRequired(t *testing.T) {
	app := New(seededStore(t), Options{APIKey: "s3cret"})
	if code, _ := get(t, app, "/api/v1/stats", nil); code != fiber.StatusUnauthorized {
		t.Errorf("no key status = %d", code)
	}
	if code, _ := get(t, app, "/api/v1/stats", map[string]string{"X-API-Key": "s3cret"}); code != fiber.StatusOK {
		t.Errorf("with key status = %d", code)
	}
	if code, _ := get(t, app, "/healthz", nil); code != fiber.StatusOK {
		t.Errorf("healthz should not need a key, got %d", code)
	}
}

func TestRateLimit(t *testing.T) {
	app := New(seededStore(t), Options{RequestsPerMinute: 2})
	for i := range 2 {
		if code, _ := get(t, app, "/api/v1/stats", nil); code != fiber.StatusOK {
			t.Fatalf("request %d status = %d", i, code)
		}
	}
	req := httptest.NewRequest("GET", "/api/v1/stats", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusTooManyRequests {
		t.Errorf("third request status = %d", resp.StatusCode)
	}
}
