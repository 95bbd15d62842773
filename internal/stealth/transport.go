package stealth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"
)

// ErrDisallowed is returned for URLs the target's robots.txt forbids.
var ErrDisallowed = errors.New("stealth: disallowed by robots.txt")

// Transport is an http.RoundTripper applying, in order: browser identity,
// robots check, rate limit, human pause, proxy selection.
type Transport struct {
	Base        http.RoundTripper
	Robots      *RobotsChecker
	Identities  *FingerprintPool
	Proxies     *ProxyPool
	Delay       *HumanDelay
	RateLimiter *rate.Limiter
	Logger      *slog.Logger
}

// Options configures NewTransport.
type Options struct {
	RespectRobots bool
	Profile       DelayProfile
	RatePerSecond float64
	RateBurst     int
	ProxyFile     string
	Logger        *slog.Logger
}

// NewTransport assembles a Transport from opts. A proxy file that cannot be
// read is an error; an empty one means direct connections.
func NewTransport(opts Options) (*Transport, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	t := &Transport{
		Base:       http.DefaultTransport,
		Identities: NewFingerprintPool(),
		Delay:      NewHumanDelay(opts.Profile),
		Logger:     logger,
	}
	if opts.RespectRobots {
		t.Robots = NewRobotsChecker(nil)
	}
	if opts.RatePerSecond > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		t.RateLimiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}
	if opts.ProxyFile != "" {
		proxies, err := LoadProxies(opts.ProxyFile)
		if err != nil {
			return nil, fmt.Errorf("load proxies: %w", err)
		}
		t.Proxies = NewProxyPool(proxies)
		logger.Info("proxy rotation enabled", "proxies", len(proxies))
	}
	return t, nil
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	req = req.Clone(ctx)

	agent := req.Header.Get("User-Agent")
	if t.Identities != nil {
		fp := t.Identities.Next()
		agent = fp.UserAgent
		req.Header.Set("User-Agent", agent)
		for k, vals := range fp.Headers {
			if req.Header.Get(k) == "" {
				req.Header[k] = vals
			}
		}
	}
	if req.Header.Get("Accept-Language") == "" {
		req.Header.Set("Accept-Language", AcceptLanguage(req.URL.Hostname()))
	}

	if t.Robots != nil {
		ok, err := t.Robots.Allowed(ctx, agent, req.URL.String())
		if err == nil && !ok {
			return nil, fmt.Errorf("%w: %s", ErrDisallowed, req.URL.Path)
		}
	}
	if t.RateLimiter != nil {
		if err := t.RateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}
	if t.Delay != nil {
		if err := t.Delay.Wait(ctx); err != nil {
			return nil, fmt.Errorf("delay: %w", err)
		}
	}

	base := t.Base
	if t.Proxies != nil {
		var host string
		base, host = t.Proxies.Next()
		if t.Logger != nil {
			t.Logger.Debug("routing via proxy", "proxy", host, "url", req.URL.Host)
		}
	}
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}
