// Package flatbridge serves the HTTP boundary between flat files and a
// columnar store: table catalog, ad-hoc queries, file intake, ingest and
// download. The console in package console is its client.
package flatbridge

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dracory/flatbridge/api/api_connection_ping"
	"github.com/dracory/flatbridge/api/api_file_download"
	"github.com/dracory/flatbridge/api/api_file_ingest"
	"github.com/dracory/flatbridge/api/api_file_upload"
	"github.com/dracory/flatbridge/api/api_query"
	"github.com/dracory/flatbridge/api/api_query_preview"
	"github.com/dracory/flatbridge/api/api_table_schema"
	"github.com/dracory/flatbridge/api/api_tables_list"
	"github.com/dracory/flatbridge/shared/auth"
	"github.com/dracory/flatbridge/shared/constants"
	"github.com/dracory/flatbridge/shared/driver"
	"github.com/dracory/flatbridge/shared/metrics"
	"github.com/dracory/flatbridge/shared/store"
	"github.com/dracory/flatbridge/shared/types"
	"github.com/dracory/flatbridge/shared/web"
)

// App wires the store, token verifier and handlers into one http.Handler
type App struct {
	config  types.Config
	store   *store.Store
	tokens  *auth.Tokens
	drivers *driver.Registry
	metrics *metrics.Metrics
	logger  zerolog.Logger
	opener  api_connection_ping.Opener
}

// New creates an App over an open store. The configuration should be
// loaded with LoadConfig.
func New(cfg types.Config, st *store.Store, options ...Option) *App {
	if len(cfg.EnabledDrivers) == 0 {
		cfg.EnabledDrivers = []string{constants.DriverClickHouse}
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = constants.DefaultMaxUploadMB
	}

	a := &App{
		config:  cfg,
		store:   st,
		tokens:  auth.New(cfg.SecretKey, cfg.AccessTokenExpire),
		drivers: driver.NewRegistry(cfg.EnabledDrivers),
		logger:  log.Logger,
	}
	for _, option := range options {
		option(a)
	}
	if a.metrics == nil {
		a.metrics = metrics.New()
	}
	return a
}

// Tokens returns the verifier used for /api requests, for issuing tokens.
func (a *App) Tokens() *auth.Tokens {
	return a.tokens
}

// Handler returns the router serving the api, health and metrics endpoints
func (a *App) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestLogger(a.logger, a.metrics))
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)

	r.Get(constants.RouteHealthz, handleHealthz)
	r.Get(constants.RouteReadyz, a.handleReadyz)
	r.Method(http.MethodGet, constants.RouteMetrics, a.metrics.Handler())

	maxBytes := a.config.MaxUploadBytes()

	r.Group(func(r chi.Router) {
		r.Use(RequireBearer(a.tokens))

		r.Get(constants.RouteTables, api_tables_list.New(a.store).Handle)
		r.Get(constants.RouteSchema, api_table_schema.New(a.store).Handle)
		r.Post(constants.RouteQuery, api_query.New(a.store, constants.MaxQueryRows).Handle)
		r.Post(constants.RoutePreview, api_query_preview.New(a.store, constants.PreviewLimit).Handle)
		r.Post(constants.RoutePing, api_connection_ping.New(a.drivers, a.opener, 5*time.Second).Handle)

		r.Post(constants.RouteFileUpload, api_file_upload.New(maxBytes, a.config.PreviewLimit).Handle)
		r.Post(constants.RouteFileIngest, api_file_ingest.New(a.store, maxBytes, a.metrics).Handle)
		r.Get(constants.RouteFileDownload, api_file_download.New(a.store, a.metrics).Handle)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		web.WriteError(w, r, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		web.WriteError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	web.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReadyz pings the store to confirm the service can answer queries.
func (a *App) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{"store": "ok"}
	status := http.StatusOK
	if err := a.store.Ping(ctx); err != nil {
		checks["store"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	web.WriteJSON(w, status, checks)
}
