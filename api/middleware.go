package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RequestIDHeader is the header carrying the request id.
const RequestIDHeader = "X-Request-ID"

// RequestID returns the request id stored in ctx, or "".
func RequestID(ctx context.Context) string { return middleware.GetReqID(ctx) }

// requestID reuses the incoming X-Request-ID or generates a uuid, stores it
// with chi's RequestID, and attaches a logger with that id to the request
// context.
func requestID(next http.Handler) http.Handler {
	withLogger := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := middleware.GetReqID(r.Context())
		w.Header().Set(RequestIDHeader, id)
		logger := log.With().Str("request_id", id).Logger()
		next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context())))
	})
	stored := middleware.RequestID(withLogger)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		r.Header.Set(RequestIDHeader, id)
		stored.ServeHTTP(w, r)
	})
}

// panicEntry is the chi log entry of a request, it logs a recovered panic.
type panicEntry struct {
	r         *http.Request
	recovered bool
}

func (e *panicEntry) Write(status, bytes int, header http.Header, elapsed time.Duration, extra any) {}

func (e *panicEntry) Panic(v any, stack []byte) {
	e.recovered = true
	zerolog.Ctx(e.r.Context()).Error().
		Str("method", e.r.Method).
		Str("path", e.r.URL.Path).
		Interface("panic", v).
		Bytes("stack", stack).
		Msg("panic recovered")
}

// panicWriter replaces the bare 500 written by chi's Recoverer with the error
// envelope, unless the handler already wrote a response.
type panicWriter struct {
	http.ResponseWriter
	r     *http.Request
	entry *panicEntry
	wrote bool
}

func (w *panicWriter) WriteHeader(status int) {
	if w.wrote {
		if !w.entry.recovered {
			w.ResponseWriter.WriteHeader(status)
		}
		return
	}
	w.wrote = true
	if w.entry.recovered {
		writeError(w.ResponseWriter, w.r, http.StatusInternalServerError, CodeInternal, "internal server error")
		return
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *panicWriter) Write(b []byte) (int, error) {
	w.wrote = true
	return w.ResponseWriter.Write(b)
}

// recoverer turns a panic into a 500 error response, see middleware.Recoverer.
func recoverer(next http.Handler) http.Handler {
	recovering := middleware.Recoverer(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entry := &panicEntry{r: r}
		r = middleware.WithLogEntry(r, entry)
		recovering.ServeHTTP(&panicWriter{ResponseWriter: w, r: r, entry: entry}, r)
	})
}

// routePattern is the chi pattern that matched r, or "unmatched".
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// accessLog logs every request once completed, and records its metrics.
func accessLog(m *metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := routePattern(r)
			m.observe(r.Method, route, status, duration)

			logger := zerolog.Ctx(r.Context())
			event := logger.Info()
			switch {
			case status >= 500:
				event = logger.Error()
			case status >= 400:
				event = logger.Warn()
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("route", route).
				Int("status", status).
				Int64("duration_ms", duration.Milliseconds()).
				Int("response_size", ww.BytesWritten()).
				Str("ip", r.RemoteAddr).
				Msg("request completed")
		})
	}
}

// cors allows the configured origins, "*" allows any.
func cors(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case origin == "":
			case allowed[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			case allowed["*"]:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			}
			if origin != "" && r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h := w.Header()
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Accept, Content-Type, "+RequestIDHeader)
				h.Set("Access-Control-Max-Age", fmt.Sprint(12*60*60))
				w.WriteHeader(http.StatusNoContent)
				return
			}
			w.Header().Set("Access-Control-Expose-Headers", RequestIDHeader)
			next.ServeHTTP(w, r)
		})
	}
}

// timeout bounds the request context.
func timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
