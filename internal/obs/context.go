package obs

import (
	"context"

	"github.com/rs/zerolog"
)

type routePatternKey struct{}

// WithRoutePattern stores the matched chi pattern so middleware running
// outside the router can label by route.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, routePatternKey{}, pattern)
}

// RoutePatternFromContext returns the stored route pattern or "".
func RoutePatternFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(routePatternKey{}).(string)
	return v
}

// ContextLogger returns the request-scoped logger attached by RequestLogger,
// or fallback when ctx carries none.
func ContextLogger(ctx context.Context, fallback zerolog.Logger) zerolog.Logger {
	if ctx == nil {
		return fallback
	}
	l := zerolog.Ctx(ctx)
	if l == nil || l.GetLevel() == zerolog.Disabled {
		return fallback
	}
	return *l
}
