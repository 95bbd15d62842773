// Package api serves a read-only JSON view of the product store and the
// publish ledger.
package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	"github.com/Wisionflow/algora/internal/models"
	"github.com/Wisionflow/algora/internal/store"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// Store is the read side the API needs.
type Store interface {
	Ping(ctx context.Context) error
	TopProducts(ctx context.Context, q store.TopQuery) ([]models.AnalyzedProduct, error)
	GetAnalyzed(ctx context.Context, sourceURL string) (models.AnalyzedProduct, error)
	ListPublished(ctx context.Context, platform string, limit int) ([]models.Post, error)
	CountRaw(ctx context.Context) (int, error)
	CountPublished(ctx context.Context) (int, error)
}

// Options configures New.
type Options struct {
	// APIKey, when set, is required in the X-API-Key header on /api routes.
	APIKey string
	// RequestsPerMinute caps each client IP; 0 means 60.
	RequestsPerMinute int
	Logger            *slog.Logger
	Now               func() time.Time
}

type handler struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// New builds the fiber app.
func New(s Store, opts Options) *fiber.App {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	rpm := opts.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}
	h := &handler{store: s, logger: logger, now: now}

	app := fiber.New(fiber.Config{
		AppName:               "algora",
		DisableStartupMessage: true,
		ErrorHandler:          h.errorHandler,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(h.accessLog)

	app.Get("/healthz", h.health)

	v1 := app.Group("/api/v1",
		limiter.New(limiter.Config{Max: rpm, Expiration: time.Minute}),
		requireKey(opts.APIKey),
	)
	v1.Get("/products/top", h.topProducts)
	v1.Get("/products/lookup", h.product)
	v1.Get("/published", h.published)
	v1.Get("/stats", h.stats)
	return app
}

func requireKey(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if key == "" {
			return c.Next()
		}
		got := c.Get("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid api key")
		}
		return c.Next()
	}
}

func (h *handler) accessLog(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	h.logger.Debug("api request",
		"method", c.Method(), "path", c.Path(), "status", c.Response().StatusCode(),
		"request_id", c.GetRespHeader(fiber.HeaderXRequestID), "took", time.Since(start))
	return err
}

// errorHandler returns {"error": msg}. Internal errors are logged and
// reported generically.
func (h *handler) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "internal error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	} else {
		h.logger.Error("api handler failed", "path", c.Path(), "err", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}

func (h *handler) health(c *fiber.Ctx) error {
	if err := h.store.Ping(c.UserContext()); err != nil {
		h.logger.Warn("health check failed", "err", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *handler) topProducts(c *fiber.Ctx) error {
	days := c.QueryInt("days", 7)
	limit := c.QueryInt("limit", 10)
	if days < 0 || limit < 1 || limit > 100 {
		return fiber.NewError(fiber.StatusBadRequest, "days must be >= 0 and limit in 1..100")
	}
	q := store.TopQuery{Category: c.Query("category"), Limit: limit}
	if days > 0 {
		q.Since = h.now().Add(-time.Duration(days) * 24 * time.Hour)
	}
	products, err := h.store.TopProducts(c.UserContext(), q)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"count": len(products), "products": products})
}

func (h *handler) product(c *fiber.Ctx) error {
	u := c.Query("url")
	if u == "" {
		return fiber.NewError(fiber.StatusBadRequest, "url is required")
	}
	p, err := h.store.GetAnalyzed(c.UserContext(), u)
	if errors.Is(err, store.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "product not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(p)
}

func (h *handler) published(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 200 {
		return fiber.NewError(fiber.StatusBadRequest, "limit must be in 1..200")
	}
	posts, err := h.store.ListPublished(c.UserContext(), c.Query("platform"), limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"count": len(posts), "posts": posts})
}

func (h *handler) stats(c *fiber.Ctx) error {
	ctx := c.UserContext()
	raw, err := h.store.CountRaw(ctx)
	if err != nil {
		return err
	}
	published, err := h.store.CountPublished(ctx)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"collected": raw, "published": published})
}
