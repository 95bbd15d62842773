// Package platform defines the collector abstraction shared by every product
// source and the fallback chain that ties them together.
package platform

import (
	"context"
	"fmt"

	"github.com/Wisionflow/algora/internal/models"
)

// Collector is a source of candidate products. Implementations degrade to an
// empty slice on any upstream failure and never return duplicate or unusable
// records.
type Collector interface {
	Name() string
	Collect(ctx context.Context, category string, limit int) []models.RawProduct
}

// Item is one upstream record before mapping. Field names and value types
// vary between strategies; mapping tolerates missing and mistyped keys.
type Item map[string]any

// Request is what a live strategy is asked to fetch.
type Request struct {
	Category string
	Keyword  string // upstream search phrase
	Limit    int
}

// Result is a strategy's raw output.
type Result struct {
	Items    []Item
	Strategy string
}

// Strategy is one way of getting raw items out of the live marketplace.
type Strategy interface {
	Name() string
	Execute(ctx context.Context, req Request) (*Result, error)
}

// ProgressFunc is a callback for reporting progress messages.
type ProgressFunc func(msg string)

type progressKey struct{}

// WithProgress returns a context carrying the given progress callback.
func WithProgress(ctx context.Context, fn ProgressFunc) context.Context {
	return context.WithValue(ctx, progressKey{}, fn)
}

// ReportProgress formats and sends a message to the callback in ctx, if any.
func ReportProgress(ctx context.Context, format string, args ...any) {
	if fn, ok := ctx.Value(progressKey{}).(ProgressFunc); ok && fn != nil {
		fn(fmt.Sprintf(format, args...))
	}
}
