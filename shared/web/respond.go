// Package web holds response helpers shared by the api handler packages.
package web

import (
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/dracory/api"
	"github.com/rs/zerolog/log"
)

// WriteJSON writes v as a bare JSON body with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	body, err := sonic.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("encode response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// WriteError writes an error envelope with an explicit status code.
// Clients treat any non-2xx status as failure, so the code must never be 200.
func WriteError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	api.RespondWithStatusCode(w, r, api.Error(msg), status)
}

// WriteSuccessWithData writes a success envelope with message and data.
func WriteSuccessWithData(w http.ResponseWriter, r *http.Request, msg string, data map[string]any) {
	api.Respond(w, r, api.SuccessWithData(msg, data))
}
