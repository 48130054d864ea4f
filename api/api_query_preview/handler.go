package api_query_preview

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/dracory/flatbridge/shared/store"
	"github.com/dracory/flatbridge/shared/types"
	"github.com/dracory/flatbridge/shared/web"
)

// Joiner is the slice of the store this handler needs
type Joiner interface {
	SelectJoined(ctx context.Context, tables, columns []string, joins []types.JoinCondition, limit int) ([]string, [][]any, error)
}

// QueryPreview shows the first rows of a projection over one table or
// several joined tables. Unlike the query endpoint no statement text is
// accepted; the select is built from checked identifiers.
type QueryPreview struct {
	store Joiner
	limit int
}

// New creates a new QueryPreview handler returning at most limit rows.
func New(store Joiner, limit int) *QueryPreview {
	return &QueryPreview{store: store, limit: limit}
}

// Handle answers POST /api/clickhouse/preview with {"data": [...], "count": n}.
func (h *QueryPreview) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		web.WriteError(w, r, http.StatusMethodNotAllowed, "preview must be POST")
		return
	}

	var req types.PreviewRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, r, web.StatusFor(err), err.Error())
		return
	}
	if len(req.Tables) == 0 {
		web.WriteError(w, r, http.StatusBadRequest, "tables is required")
		return
	}
	if len(req.Columns) == 0 {
		web.WriteError(w, r, http.StatusBadRequest, "columns is required")
		return
	}

	_, rows, err := h.store.SelectJoined(r.Context(), req.Tables, req.Columns, req.JoinConditions, h.limit)
	switch {
	case errors.Is(err, store.ErrTableNotFound):
		web.WriteError(w, r, http.StatusNotFound, err.Error())
		return
	case err != nil:
		log.Ctx(r.Context()).Warn().Err(err).Strs("tables", req.Tables).Msg("preview failed")
		web.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	web.WriteJSON(w, http.StatusOK, types.PreviewResponse{Data: rows, Count: len(rows)})
}
