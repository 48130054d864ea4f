package api_connection_ping

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dracory/flatbridge/shared/driver"
	"github.com/dracory/flatbridge/shared/store"
	"github.com/dracory/flatbridge/shared/types"
	"github.com/dracory/flatbridge/shared/web"
)

// Opener opens a store for a driver and DSN
type Opener func(driver, dsn string) (*store.Store, error)

// ConnectionPing checks that a set of connection parameters reaches a store.
// The connection is closed again; nothing is kept.
type ConnectionPing struct {
	drivers *driver.Registry
	open    Opener
	timeout time.Duration
}

// New creates a new ConnectionPing handler. open nil means store.Open.
func New(drivers *driver.Registry, open Opener, timeout time.Duration) *ConnectionPing {
	if open == nil {
		open = store.Open
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ConnectionPing{drivers: drivers, open: open, timeout: timeout}
}

// Handle answers POST /api/clickhouse/ping with an api envelope
func (h *ConnectionPing) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		web.WriteError(w, r, http.StatusMethodNotAllowed, "ping must be POST")
		return
	}

	var req types.PingRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, r, web.StatusFor(err), err.Error())
		return
	}
	req = driver.WithDefaults(req)

	if err := h.drivers.Validate(req.Driver); err != nil {
		web.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	dsn, err := driver.DSN(req)
	if err != nil {
		web.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	s, err := h.open(req.Driver, dsn)
	if err != nil {
		web.WriteError(w, r, http.StatusBadGateway, fmt.Sprintf("connection failed: %v", err))
		return
	}
	defer s.Close()

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	if _, _, err := s.Query(ctx, "SELECT 1", 1); err != nil {
		log.Ctx(r.Context()).Warn().Err(err).Str("host", req.Host).Msg("ping failed")
		web.WriteError(w, r, http.StatusBadGateway, fmt.Sprintf("connection failed: %v", err))
		return
	}

	web.WriteSuccessWithData(w, r, "connected", map[string]any{
		"driver":   store.NormalizeDriver(req.Driver),
		"host":     req.Host,
		"port":     req.Port,
		"database": req.Database,
	})
}
