package api_file_ingest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dracory/flatbridge/shared/constants"
	"github.com/dracory/flatbridge/shared/flatfile"
	"github.com/dracory/flatbridge/shared/metrics"
	"github.com/dracory/flatbridge/shared/store"
	"github.com/dracory/flatbridge/shared/types"
	"github.com/dracory/flatbridge/shared/web"
)

// Writer is the slice of the store this handler needs
type Writer interface {
	CreateTable(ctx context.Context, table string, columns []string, kinds []flatfile.Kind) error
	InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int, error)
}

// FileIngest loads the chosen columns of an uploaded file into a table,
// creating the table when it does not exist. There is no rollback.
type FileIngest struct {
	store    Writer
	maxBytes int64
	metrics  *metrics.Metrics
}

// New creates a new FileIngest handler. m may be nil.
func New(store Writer, maxBytes int64, m *metrics.Metrics) *FileIngest {
	return &FileIngest{store: store, maxBytes: maxBytes, metrics: m}
}

// Handle expects a multipart body with "file" and a "request" JSON field
// {columns, delimiter, table_name}; responds with {status, rows_processed, columns}.
func (h *FileIngest) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		web.WriteError(w, r, http.StatusMethodNotAllowed, "ingest must be POST")
		return
	}

	name, data, err := web.ReadFormFile(w, r, constants.FieldFile, h.maxBytes)
	if err != nil {
		web.WriteError(w, r, web.StatusFor(err), err.Error())
		return
	}

	req, err := parseRequest(r.FormValue(constants.FieldRequest))
	if err != nil {
		web.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	logger := log.Ctx(r.Context()).With().
		Str("subject", web.Subject(r.Context())).
		Str("file", name).
		Str("table", req.TableName).
		Logger()

	table, err := flatfile.Read(name, data, req.Delimiter)
	if err != nil {
		web.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Columns) > 0 {
		if table, err = table.Project(req.Columns); err != nil {
			web.WriteError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}

	columns := make([]string, len(table.Header))
	for i, c := range table.Header {
		columns[i] = flatfile.SanitizeName(c)
		if !store.ValidIdentifier(columns[i]) {
			web.WriteError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid column name %q", c))
			return
		}
	}
	kinds := flatfile.InferKinds(table)

	rows := make([][]any, table.Len())
	for i, rec := range table.Rows {
		row := make([]any, len(rec))
		for c, cell := range rec {
			row[c] = kinds[c].Value(cell)
		}
		rows[i] = row
	}

	if err := h.store.CreateTable(r.Context(), req.TableName, columns, kinds); err != nil {
		h.fail(w, r, logger, err, "create table")
		return
	}
	n, err := h.store.InsertRows(r.Context(), req.TableName, columns, rows)
	if err != nil {
		h.fail(w, r, logger, err, "insert rows")
		return
	}

	format, _ := flatfile.FormatOf(name)
	h.metrics.TransferRows(metrics.DirectionIngest, format, n)
	logger.Info().Int("rows", n).Msg("ingested")

	web.WriteJSON(w, http.StatusOK, types.IngestResponse{
		Status:        "success",
		RowsProcessed: n,
		Columns:       columns,
	})
}

func (h *FileIngest) fail(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, err error, step string) {
	logger.Error().Err(err).Msg(step)
	h.metrics.TransferFailed(metrics.DirectionIngest)
	status := http.StatusInternalServerError
	if errors.Is(err, store.ErrInvalidIdentifier) {
		status = http.StatusBadRequest
	}
	web.WriteError(w, r, status, fmt.Sprintf("%s: %v", step, err))
}

func parseRequest(raw string) (types.IngestRequest, error) {
	var req types.IngestRequest
	if strings.TrimSpace(raw) == "" {
		return req, errors.New("request is required")
	}
	if err := sonic.UnmarshalString(raw, &req); err != nil {
		return req, fmt.Errorf("invalid request: %w", err)
	}
	req.TableName = strings.TrimSpace(req.TableName)
	if req.TableName == "" {
		return req, errors.New("table_name is required")
	}
	if !store.ValidIdentifier(req.TableName) {
		return req, fmt.Errorf("invalid table name %q", req.TableName)
	}
	if req.Delimiter == "" {
		req.Delimiter = constants.DefaultDelimiter
	}
	return req, nil
}
