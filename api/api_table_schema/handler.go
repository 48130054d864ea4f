package api_table_schema

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/dracory/flatbridge/shared/store"
	"github.com/dracory/flatbridge/shared/types"
	"github.com/dracory/flatbridge/shared/web"
)

// Describer is the slice of the store this handler needs
type Describer interface {
	Describe(ctx context.Context, table string) ([]types.Column, error)
}

// TableSchema answers GET /api/clickhouse/schema/{table}
type TableSchema struct {
	store Describer
}

// New creates a new TableSchema handler
func New(store Describer) *TableSchema {
	return &TableSchema{store: store}
}

// Handle responds with {"columns": [{"name", "type"}]} in declared order.
// Unknown or unquotable table names are 404.
func (h *TableSchema) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		web.WriteError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	table := chi.URLParam(r, "table")
	if table == "" {
		web.WriteError(w, r, http.StatusBadRequest, "table name is required")
		return
	}

	columns, err := h.store.Describe(r.Context(), table)
	switch {
	case errors.Is(err, store.ErrTableNotFound), errors.Is(err, store.ErrInvalidIdentifier):
		web.WriteError(w, r, http.StatusNotFound, fmt.Sprintf("table %q not found", table))
		return
	case err != nil:
		log.Ctx(r.Context()).Error().Err(err).Str("table", table).Msg("describe table")
		web.WriteError(w, r, http.StatusInternalServerError, fmt.Sprintf("error getting table schema: %v", err))
		return
	}

	web.WriteJSON(w, http.StatusOK, types.SchemaResponse{Columns: columns})
}
