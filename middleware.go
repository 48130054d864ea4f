package flatbridge

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dracory/flatbridge/shared/auth"
	"github.com/dracory/flatbridge/shared/metrics"
	"github.com/dracory/flatbridge/shared/web"
)

// RequestLogger adds a request scoped logger carrying the request id to the
// context, then logs and counts the request once it is served.
func RequestLogger(logger zerolog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get("X-Request-Id")
			if reqID == "" {
				reqID = uuid.NewString()
			}
			l := logger.With().Str("request_id", reqID).Logger()
			ctx := l.WithContext(r.Context())

			ww := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			ww.Header().Set("X-Request-Id", reqID)
			next.ServeHTTP(ww, r.WithContext(ctx))

			dur := time.Since(start)
			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			m.ObserveRequest(route, ww.status, dur)

			l.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.status).
				Dur("latency_ms", dur).
				Str("remote", r.RemoteAddr).
				Msg("request")
		})
	}
}

// RequireBearer rejects requests without a valid bearer token. Handlers read
// the token subject with web.Subject.
func RequireBearer(tokens *auth.Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := auth.FromRequest(r)
			if err == nil {
				var sub string
				if sub, err = tokens.Verify(raw); err == nil {
					next.ServeHTTP(w, r.WithContext(web.WithSubject(r.Context(), sub)))
					return
				}
			}

			zerolog.Ctx(r.Context()).Debug().Err(err).Msg("rejected bearer token")
			w.Header().Set("WWW-Authenticate", "Bearer")
			msg := auth.ErrInvalidToken.Error()
			if errors.Is(err, auth.ErrMissingToken) {
				msg = err.Error()
			}
			web.WriteError(w, r, http.StatusUnauthorized, msg)
		})
	}
}

// securityHeaders sets the basic secure headers on every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
