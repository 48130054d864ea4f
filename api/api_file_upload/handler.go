package api_file_upload

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/dracory/flatbridge/shared/constants"
	"github.com/dracory/flatbridge/shared/flatfile"
	"github.com/dracory/flatbridge/shared/types"
	"github.com/dracory/flatbridge/shared/web"
)

// FileUpload parses an uploaded file and reports its columns and row count.
// Nothing is written to the store.
type FileUpload struct {
	maxBytes     int64
	previewLimit int
}

// New creates a new FileUpload handler
func New(maxBytes int64, previewLimit int) *FileUpload {
	return &FileUpload{maxBytes: maxBytes, previewLimit: previewLimit}
}

// Handle responds with {"message", "columns", "rowCount", "preview"}
func (h *FileUpload) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		web.WriteError(w, r, http.StatusMethodNotAllowed, "upload must be POST")
		return
	}

	name, data, err := web.ReadFormFile(w, r, constants.FieldFile, h.maxBytes)
	if err != nil {
		web.WriteError(w, r, web.StatusFor(err), err.Error())
		return
	}

	table, err := flatfile.Read(name, data, r.FormValue(constants.FieldDelimiter))
	if err != nil {
		log.Ctx(r.Context()).Warn().Err(err).Str("file", name).Msg("parse upload")
		web.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	preview := table.Rows
	if h.previewLimit >= 0 && len(preview) > h.previewLimit {
		preview = preview[:h.previewLimit]
	}

	msg := fmt.Sprintf("File %s uploaded successfully", name)
	if dest := r.FormValue(constants.FieldTableName); dest != "" {
		msg = fmt.Sprintf("File %s parsed for table %s", name, dest)
	}

	web.WriteJSON(w, http.StatusOK, types.UploadResponse{
		Message:  msg,
		Columns:  table.Header,
		RowCount: table.Len(),
		Preview:  preview,
	})
}
