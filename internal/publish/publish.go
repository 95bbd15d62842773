// Package publish composes posts and sends them to social channels.
package publish

import (
	"context"
	"errors"
	"log/slog"
)

// ErrNotConfigured is returned by a publisher missing credentials.
var ErrNotConfigured = errors.New("publish: platform not configured")

// Publisher delivers a message and returns the platform's message id.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, msg Message) (string, error)
}

// DryRun logs messages instead of sending them.
type DryRun struct {
	Platform string
	Logger   *slog.Logger
}

func (d DryRun) Name() string { return d.Platform }

func (d DryRun) Publish(_ context.Context, msg Message) (string, error) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("dry run: post not sent", "platform", d.Platform, "image", msg.ImageURL, "chars", len([]rune(msg.Text)))
	return "", nil
}
