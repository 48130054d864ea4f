package api_query

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dracory/flatbridge/shared/constants"
	"github.com/dracory/flatbridge/shared/types"
	"github.com/dracory/flatbridge/shared/web"
)

// Runner is the slice of the store this handler needs
type Runner interface {
	Query(ctx context.Context, text string, limit int) ([]string, [][]any, error)
}

// Query runs ad-hoc statements verbatim. Parsing and validation are the
// store's job.
type Query struct {
	store   Runner
	maxRows int
}

// New creates a new Query handler returning at most maxRows rows.
func New(store Runner, maxRows int) *Query {
	return &Query{store: store, maxRows: maxRows}
}

// Handle responds with {"data": [[cell, ...], ...]}. Rows are positional;
// the caller pairs them with its own column list. A result longer than
// maxRows is cut, flagged with "truncated" and the X-Result-Truncated header.
func (h *Query) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		web.WriteError(w, r, http.StatusMethodNotAllowed, "query must be POST")
		return
	}

	var req types.QueryRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, r, web.StatusFor(err), err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		web.WriteError(w, r, http.StatusBadRequest, "query is required")
		return
	}

	limit := h.maxRows
	if limit > 0 {
		// one extra row tells a full result from a cut one
		limit++
	}
	_, rows, err := h.store.Query(r.Context(), req.Query, limit)
	if err != nil {
		log.Ctx(r.Context()).Warn().Err(err).Msg("query failed")
		web.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	resp := types.QueryResponse{Data: rows}
	if h.maxRows > 0 && len(rows) > h.maxRows {
		resp.Data, resp.Truncated = rows[:h.maxRows], true
		w.Header().Set(constants.HeaderTruncated, "true")
		log.Ctx(r.Context()).Warn().Int("max_rows", h.maxRows).Msg("query result truncated")
	}
	web.WriteJSON(w, http.StatusOK, resp)
}
