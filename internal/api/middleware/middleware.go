package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/core"
)

// LoggingMiddleware attaches a request logger to the context and logs every
// handled request. Client errors are logged as warnings, server errors as errors.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		lc := log.With().
			Str("correlation_id", core.CorrelationID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path)
		if actor, ok := core.ActorFromContext(r.Context()); ok {
			lc = lc.Str("actor", actor.ID).Str("role", actor.Role)
		}
		l := lc.Logger()

		ww := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(ww, r.WithContext(l.WithContext(r.Context())))

		if r.URL.Path == "/healthz" && ww.statusCode < 400 {
			return
		}

		var ev *zerolog.Event
		switch {
		case ww.statusCode >= 500:
			ev = l.Error()
		case ww.statusCode >= 400:
			ev = l.Warn()
		default:
			ev = l.Info()
		}
		ev.Int("status", ww.statusCode).
			Int("bytes", ww.written).
			Str("remote", r.RemoteAddr).
			Dur("duration", time.Since(start)).
			Msg("request.handled")
	})
}

// RecoverMiddleware turns a panicking handler into a 500 response.
func RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Str("correlation_id", core.CorrelationID(r.Context())).
					Str("path", r.URL.Path).
					Interface("panic", err).
					Bytes("stack", debug.Stack()).
					Msg("panic.recovered")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"internal server error","correlation_id":"` +
					core.CorrelationID(r.Context()) + `"}`))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	statusCode int
	written    int
}

func (w *statusWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.written += n
	return n, err
}
