package alibaba

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"github.com/Wisionflow/algora/internal/platform"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// HeadlessBrowserStrategy renders the search page with rod so that offers
// injected by JavaScript are present before extraction.
type HeadlessBrowserStrategy struct {
	launcherURL string // optional remote launcher URL
	searchURL   string
}

func NewHeadlessBrowserStrategy() *HeadlessBrowserStrategy {
	return &HeadlessBrowserStrategy{
		launcherURL: os.Getenv("ROD_LAUNCHER_URL"),
		searchURL:   defaultSearchURL,
	}
}

func (h *HeadlessBrowserStrategy) Name() string { return "headless" }

func (h *HeadlessBrowserStrategy) Execute(ctx context.Context, req platform.Request) (*platform.Result, error) {
	q := url.Values{}
	q.Set("keywords", req.Keyword)
	q.Set("charset", "utf8")

	page, cleanup, err := h.openPage(ctx, h.searchURL+"?"+q.Encode())
	if err != nil {
		return nil, err
	}
	defer cleanup()

	timedPage := page.Timeout(20 * time.Second)
	if err := timedPage.WaitStable(time.Second); err == nil {
		_ = timedPage.WaitDOMStable(2*time.Second, 0.1)
	}

	htmlContent, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("get page HTML: %w", err)
	}
	items, err := extractItems(htmlContent)
	if err != nil {
		return nil, fmt.Errorf("headless extraction failed: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no offers in rendered page")
	}
	return &platform.Result{Items: items, Strategy: h.Name()}, nil
}

func (h *HeadlessBrowserStrategy) openPage(ctx context.Context, pageURL string) (*rod.Page, func(), error) {
	var l *launcher.Launcher
	if h.launcherURL != "" {
		l = launcher.MustNewManaged(h.launcherURL)
	} else {
		l = launcher.New().Headless(true).Logger(io.Discard)
	}
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, nil, fmt.Errorf("connect browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: pageURL})
	if err != nil {
		browser.Close()
		return nil, nil, fmt.Errorf("open page: %w", err)
	}
	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  1920,
		Height: 1080,
	})
	if err != nil {
		browser.Close()
		return nil, nil, fmt.Errorf("set viewport: %w", err)
	}

	cleanup := func() {
		page.Close()
		browser.Close()
		l.Cleanup()
	}
	return page, cleanup, nil
}
