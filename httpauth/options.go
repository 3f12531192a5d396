package httpauth

import (
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/ggoodman/accesstoken-go/httpauth"

// Option configures a Guard.
type Option func(*config)

type config struct {
	logger        *slog.Logger
	realm         string
	defaultScopes []string
	metrics       *Metrics
	tracer        trace.Tracer
}

func newConfig(opts []Option) *config {
	c := &config{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer: otel.GetTracerProvider().Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithLogger sets the slog logger used by the guard. If not provided, logs are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRealm sets the realm advertised in WWW-Authenticate challenges. When
// unset, the realm of an auth.SecurityDescriptor authenticator is used, then
// auth.DefaultRealm.
func WithRealm(realm string) Option {
	return func(c *config) { c.realm = realm }
}

// WithDefaultScopes sets the scopes required by Require when called without
// any, and by Middleware.
func WithDefaultScopes(scopes ...string) Option {
	return func(c *config) { c.defaultScopes = append([]string(nil), scopes...) }
}

// WithMetrics records every authentication outcome in m.
func WithMetrics(m *Metrics) Option {
	return func(c *config) { c.metrics = m }
}

// WithTracerProvider overrides the global OpenTelemetry tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *config) { c.tracer = tp.Tracer(tracerName) }
}
