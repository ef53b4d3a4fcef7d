package leadstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	BackendWebhook  = "webhook"
	BackendPostgres = "postgres"
)

// Options selects and configures a lead store backend.
type Options struct {
	Backend     string
	URL         string
	DatabaseURL string
	Timeout     time.Duration
}

// Open builds the configured store. The returned func releases its resources.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (Store, func(), error) {
	switch opts.Backend {
	case BackendWebhook:
		return NewWebhookStore(opts.URL, opts.Timeout, logger), func() {}, nil
	case BackendPostgres:
		ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
		s, err := NewPostgresStore(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown lead store %q", opts.Backend)
	}
}
