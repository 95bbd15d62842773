// Package mcp exposes collection, market lookup, scoring and the product
// store as MCP tools over stdio or streamable HTTP.
package mcp

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/server"
)

const (
	serverName    = "algora"
	serverVersion = "1.0.0"
)

// NewServer builds an MCP server with every tool registered.
func NewServer(t *Tools) *server.MCPServer {
	s := server.NewMCPServer(serverName, serverVersion, server.WithToolCapabilities(true))
	t.register(s)
	return s
}

// Serve runs the MCP server on stdio.
func Serve(t *Tools) error {
	return server.ServeStdio(NewServer(t))
}

// Handler returns the HTTP mux: /healthz plus /mcp behind optional bearer auth.
func Handler(t *Tools, apiKey string) http.Handler {
	streamable := server.NewStreamableHTTPServer(NewServer(t), server.WithStateLess(true))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	var h http.Handler = streamable
	if apiKey != "" {
		h = bearerAuth(apiKey, streamable)
	}
	mux.Handle("/mcp", h)
	return mux
}

// ServeHTTP listens on addr until ctx is cancelled, then drains for up to
// ten seconds.
func ServeHTTP(ctx context.Context, addr, apiKey string, t *Tools, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &http.Server{
		Addr:         addr,
		Handler:      Handler(t, apiKey),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.Info("mcp http server listening", "addr", addr, "auth", apiKey != "")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func bearerAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			w.Header().Set("WWW-Authenticate", `Bearer realm="mcp"`)
			http.Error(w, `{"error":"missing Authorization header"}`, http.StatusUnauthorized)
			return
		}
		token, found := strings.CutPrefix(auth, "Bearer ")
		if !found || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			w.Header().Set("WWW-Authenticate", `Bearer realm="mcp", error="invalid_token"`)
			http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
