package api_file_download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/dracory/flatbridge/shared/constants"
	"github.com/dracory/flatbridge/shared/flatfile"
	"github.com/dracory/flatbridge/shared/metrics"
	"github.com/dracory/flatbridge/shared/store"
	"github.com/dracory/flatbridge/shared/web"
)

// Selector is the slice of the store this handler needs
type Selector interface {
	TableExists(ctx context.Context, table string) (bool, error)
	Select(ctx context.Context, table string, columns []string) ([]string, [][]any, error)
}

// FileDownload renders a table, or a projection of it, as a CSV or XLSX blob
type FileDownload struct {
	store   Selector
	metrics *metrics.Metrics
}

// New creates a new FileDownload handler. m may be nil.
func New(store Selector, m *metrics.Metrics) *FileDownload {
	return &FileDownload{store: store, metrics: m}
}

// Handle answers GET /api/flatfile/download/{table}?format=csv|xlsx&columns=a,b.
// An empty table yields a header-only file.
func (h *FileDownload) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		web.WriteError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	table := chi.URLParam(r, "table")
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = constants.FormatCSV
	}
	if format != constants.FormatCSV && format != constants.FormatXLSX {
		web.WriteError(w, r, http.StatusBadRequest, "Unsupported format")
		return
	}
	columns := splitColumns(r.URL.Query().Get("columns"))

	logger := log.Ctx(r.Context()).With().
		Str("subject", web.Subject(r.Context())).
		Str("table", table).
		Str("format", format).
		Logger()

	exists, err := h.store.TableExists(r.Context(), table)
	switch {
	case errors.Is(err, store.ErrInvalidIdentifier), err == nil && !exists:
		web.WriteError(w, r, http.StatusNotFound, fmt.Sprintf("Table '%s' not found", table))
		return
	case err != nil:
		logger.Error().Err(err).Msg("check table for download")
		h.metrics.TransferFailed(metrics.DirectionExport)
		web.WriteError(w, r, http.StatusInternalServerError, fmt.Sprintf("Error checking table: %v", err))
		return
	}

	header, rows, err := h.store.Select(r.Context(), table, columns)
	switch {
	case errors.Is(err, store.ErrTableNotFound), errors.Is(err, store.ErrInvalidIdentifier):
		web.WriteError(w, r, http.StatusNotFound, fmt.Sprintf("Table '%s' not found", table))
		return
	case errors.Is(err, store.ErrUnknownColumn):
		web.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		logger.Error().Err(err).Msg("select for download")
		h.metrics.TransferFailed(metrics.DirectionExport)
		web.WriteError(w, r, http.StatusInternalServerError, fmt.Sprintf("Error executing query: %v", err))
		return
	}

	var buf bytes.Buffer
	contentType := constants.ContentTypeCSV
	if format == constants.FormatXLSX {
		contentType = constants.ContentTypeXLSX
		err = flatfile.WriteXLSX(&buf, table, header, rows)
	} else {
		err = flatfile.WriteCSV(&buf, header, rows)
	}
	if err != nil {
		logger.Error().Err(err).Msg("render download")
		h.metrics.TransferFailed(metrics.DirectionExport)
		web.WriteError(w, r, http.StatusInternalServerError, fmt.Sprintf("Error creating file: %v", err))
		return
	}

	h.metrics.TransferRows(metrics.DirectionExport, format, len(rows))
	logger.Info().Int("rows", len(rows)).Int("bytes", buf.Len()).Msg("download")

	filename := table + "." + format
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func splitColumns(raw string) []string {
	var out []string
	for _, c := range strings.Split(raw, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
