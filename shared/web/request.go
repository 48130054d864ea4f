package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
)

// ErrTooLarge is returned when a request body exceeds its bound.
var ErrTooLarge = errors.New("request body too large")

// maxJSONBody bounds plain JSON request bodies.
const maxJSONBody = 1 << 20

// DecodeJSON reads a bounded JSON body into v.
func DecodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody+1))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxJSONBody {
		return ErrTooLarge
	}
	if err := sonic.Unmarshal(body, v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// ReadFormFile parses a multipart request bounded by maxBytes and returns
// the named file's name and contents.
func ReadFormFile(w http.ResponseWriter, r *http.Request, field string, maxBytes int64) (string, []byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return "", nil, ErrTooLarge
		}
		return "", nil, fmt.Errorf("parse multipart form: %w", err)
	}

	f, hdr, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil, fmt.Errorf("%s is required", field)
		}
		return "", nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	return hdr.Filename, data, nil
}

// StatusFor maps request parsing errors onto a status code.
func StatusFor(err error) int {
	if errors.Is(err, ErrTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}
