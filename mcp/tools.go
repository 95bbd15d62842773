package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Wisionflow/algora/internal/fx"
	"github.com/Wisionflow/algora/internal/models"
	"github.com/Wisionflow/algora/internal/pipeline"
	"github.com/Wisionflow/algora/internal/platform"
	"github.com/Wisionflow/algora/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Store is the read side of the product store used by the tools.
type Store interface {
	TopProducts(ctx context.Context, q store.TopQuery) ([]models.AnalyzedProduct, error)
	ListPublished(ctx context.Context, platform string, limit int) ([]models.Post, error)
}

// Tools carries the dependencies the tool handlers call into.
type Tools struct {
	Source   string // default collector source
	Market   pipeline.MarketClient
	Rates    fx.RateProvider
	Analyzer *pipeline.Pipeline
	Store    Store
	Logger   *slog.Logger
}

func (t *Tools) register(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("collect_products",
		mcp.WithDescription("Collect candidate products from 1688 (falls back to the cache file and demo set)"),
		mcp.WithString("category", mcp.Description("Category, e.g. electronics, home, led_lighting (default: all)")),
		mcp.WithString("source", mcp.Description("Primary source: live, cache or demo")),
		mcp.WithNumber("limit", mcp.Description("Maximum products (default: 10)")),
	), t.handleCollect)

	s.AddTool(mcp.NewTool("market_snapshot",
		mcp.WithDescription("Look up Wildberries average price and competitor count for a search query"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search phrase, usually the Russian product title")),
		mcp.WithString("keyword", mcp.Description("Preferred short keyword")),
	), t.handleMarket)

	s.AddTool(mcp.NewTool("analyze_product",
		mcp.WithDescription("Estimate landed cost, margin and score for one product"),
		mcp.WithString("title", mcp.Required(), mcp.Description("Russian product title")),
		mcp.WithNumber("price_cny", mcp.Required(), mcp.Description("Unit price in CNY")),
		mcp.WithString("category", mcp.Description("Category")),
		mcp.WithNumber("sales", mcp.Description("Monthly sales volume")),
		mcp.WithNumber("rating", mcp.Description("Supplier rating 0-5")),
		mcp.WithNumber("supplier_years", mcp.Description("Years the supplier has traded")),
		mcp.WithString("url", mcp.Description("Product page URL")),
	), t.handleAnalyze)

	s.AddTool(mcp.NewTool("top_products",
		mcp.WithDescription("List the best-scored analyzed products"),
		mcp.WithNumber("days", mcp.Description("Only products analyzed in the last N days (default: 7, 0 = all)")),
		mcp.WithString("category", mcp.Description("Category filter")),
		mcp.WithNumber("limit", mcp.Description("Maximum products (default: 10)")),
	), t.handleTop)

	s.AddTool(mcp.NewTool("published_posts",
		mcp.WithDescription("List posts already published, newest first"),
		mcp.WithString("platform", mcp.Description("telegram or vk (default: all)")),
		mcp.WithNumber("limit", mcp.Description("Maximum posts (default: 20)")),
	), t.handlePublished)
}

func (t *Tools) handleCollect(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source := req.GetString("source", t.Source)
	limit := req.GetInt("limit", 10)
	if limit < 1 || limit > 100 {
		return mcp.NewToolResultError("limit must be between 1 and 100"), nil
	}
	products := platform.ChainFor(source, t.Logger).Collect(ctx, req.GetString("category", ""), limit)
	return jsonResult(products)
}

func (t *Tools) handleMarket(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	snap := t.Market.Fetch(ctx, query, req.GetString("keyword", ""))
	if snap.IsEmpty() {
		return mcp.NewToolResultText(`{"found":false}`), nil
	}
	return jsonResult(snap)
}

func (t *Tools) handleAnalyze(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := req.GetString("title", "")
	price := req.GetFloat("price_cny", 0)
	if title == "" || price <= 0 {
		return mcp.NewToolResultError("title and a positive price_cny are required"), nil
	}
	raw := models.RawProduct{
		Source:        "manual",
		SourceURL:     req.GetString("url", "manual://"+title),
		TitleRU:       title,
		Category:      req.GetString("category", ""),
		PriceCNY:      price,
		MinOrder:      1,
		SalesVolume:   req.GetInt("sales", 0),
		Rating:        req.GetFloat("rating", 0),
		SupplierYears: req.GetInt("supplier_years", 0),
		CollectedAt:   time.Now().UTC(),
	}
	a := t.Analyzer.Analyze(ctx, raw, t.Rates.CNYToRUB(ctx))
	return jsonResult(a)
}

func (t *Tools) handleTop(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	days := req.GetInt("days", 7)
	q := store.TopQuery{Category: req.GetString("category", ""), Limit: req.GetInt("limit", 10)}
	if days > 0 {
		q.Since = time.Now().Add(-time.Duration(days) * 24 * time.Hour)
	}
	products, err := t.Store.TopProducts(ctx, q)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("top products: %v", err)), nil
	}
	return jsonResult(products)
}

func (t *Tools) handlePublished(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	posts, err := t.Store.ListPublished(ctx, req.GetString("platform", ""), req.GetInt("limit", 20))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("published posts: %v", err)), nil
	}
	return jsonResult(posts)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}
