package flatbridge

import (
	"github.com/rs/zerolog"

	"github.com/dracory/flatbridge/api/api_connection_ping"
	"github.com/dracory/flatbridge/shared/metrics"
)

// Option configures an App.
type Option func(*App)

// WithLogger replaces the global zerolog logger for request logging.
func WithLogger(l zerolog.Logger) Option {
	return func(a *App) { a.logger = l }
}

// WithMetrics shares a metrics registry with the caller.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithPingOpener replaces how the connection test opens a store.
func WithPingOpener(open api_connection_ping.Opener) Option {
	return func(a *App) { a.opener = open }
}
