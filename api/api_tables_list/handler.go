package api_tables_list

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/dracory/flatbridge/shared/types"
	"github.com/dracory/flatbridge/shared/web"
)

// Lister is the slice of the store this handler needs
type Lister interface {
	ListTables(ctx context.Context) ([]string, error)
}

// TablesList lists the tables of the connected store
type TablesList struct {
	store Lister
}

// New creates a new TablesList handler
func New(store Lister) *TablesList {
	return &TablesList{store: store}
}

// Handle responds with {"tables": [...]}
func (h *TablesList) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		web.WriteError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	tables, err := h.store.ListTables(r.Context())
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("list tables")
		web.WriteError(w, r, http.StatusInternalServerError, fmt.Sprintf("error listing tables: %v", err))
		return
	}

	web.WriteJSON(w, http.StatusOK, types.TablesResponse{Tables: tables})
}
