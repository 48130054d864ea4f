package api_file_upload_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dracory/flatbridge/api/api_file_upload"
)

func uploadRequest(t *testing.T, filename, content string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/flatfile/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

type uploadResponse struct {
	Message  string     `json:"message"`
	Columns  []string   `json:"columns"`
	RowCount int        `json:"rowCount"`
	Preview  [][]string `json:"preview"`
}

func TestFileUpload_Handle(t *testing.T) {
	t.Run("columns and row count", func(t *testing.T) {
		h := api_file_upload.New(1<<20, 2)
		w := httptest.NewRecorder()
		h.Handle(w, uploadRequest(t, "orders.csv", "id,total\n1,10\n2,20\n3,30\n", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var response uploadResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, []string{"id", "total"}, response.Columns)
		assert.Equal(t, 3, response.RowCount)
		assert.Equal(t, [][]string{{"1", "10"}, {"2", "20"}}, response.Preview)
		assert.Contains(t, response.Message, "orders.csv")
	})

	t.Run("table name echoed", func(t *testing.T) {
		h := api_file_upload.New(1<<20, 100)
		w := httptest.NewRecorder()
		h.Handle(w, uploadRequest(t, "orders.csv", "id\n1\n", map[string]string{"table_name": "orders"}))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "table orders")
	})

	t.Run("missing file", func(t *testing.T) {
		h := api_file_upload.New(1<<20, 100)
		w := httptest.NewRecorder()
		h.Handle(w, uploadRequest(t, "", "", map[string]string{"table_name": "orders"}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unsupported format", func(t *testing.T) {
		h := api_file_upload.New(1<<20, 100)
		w := httptest.NewRecorder()
		h.Handle(w, uploadRequest(t, "orders.pdf", "%PDF", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "unsupported file format")
	})

	t.Run("too large", func(t *testing.T) {
		h := api_file_upload.New(64, 100)
		w := httptest.NewRecorder()
		h.Handle(w, uploadRequest(t, "big.csv", string(bytes.Repeat([]byte("a,b\n"), 1000)), nil))

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}
