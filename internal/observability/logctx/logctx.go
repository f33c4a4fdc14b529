// Package logctx carries a request-scoped logger through context. The HTTP
// middleware seeds it with request and trace identifiers; services pull it
// back out so every line of a checkout flow shares the same correlation
// fields.
package logctx

import (
	"context"

	"github.com/storefront-labs/checkout/internal/observability"
)

type ctxKey struct{}

// With returns a context holding logger. A nil logger leaves ctx unchanged.
func With(ctx context.Context, logger observability.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, logger)
}

// From returns the logger stored on ctx, or nil when none was attached.
func From(ctx context.Context) observability.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(ctxKey{}).(observability.Logger)
	return logger
}

// FromOr is From with a fallback, for callers that always need a logger.
func FromOr(ctx context.Context, fallback observability.Logger) observability.Logger {
	if logger := From(ctx); logger != nil {
		return logger
	}
	return fallback
}
