package api

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/apexview/apexview/internal/contextx"
	"github.com/apexview/apexview/internal/observability"
)

// Middleware wraps an http.Handler with additional behaviour.
type Middleware func(http.Handler) http.Handler

// Chain applies the given middlewares so that the first one listed is the
// outermost wrapper.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// statusRecorder captures the status code written by downstream handlers.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Recovery converts a handler panic into a 500 response instead of crashing
// the process.
func Recovery(logger *observability.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if logger != nil {
						logger.WithTrace(r.Context()).Error("handler panic",
							slog.String("path", r.URL.Path),
							slog.Any("panic", rec))
					}
					writeError(w, r, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequestID ensures every request carries a request ID: an incoming
// X-Request-Id header is honoured, otherwise one is generated. The ID is
// stored in the context and echoed on the response.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-Id")
			if id == "" {
				id = newRequestID()
			}
			w.Header().Set("X-Request-Id", id)
			next.ServeHTTP(w, r.WithContext(contextx.WithRequestID(r.Context(), id)))
		})
	}
}

func newRequestID() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf[:])
}

// Tracing opens a server span for each request.
func Tracing() Middleware {
	tracer := observability.Tracer()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracer.Start(r.Context(), r.Method+" "+routePattern(r),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.target", r.URL.Path),
				))
			defer span.End()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccessLog logs each completed request, records HTTP metrics, and sets the
// X-Process-Time header with the handling duration in seconds.
func AccessLog(logger *observability.Logger, metrics *observability.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(&processTimeWriter{statusRecorder: rec, start: start}, r)

			elapsed := time.Since(start)
			route := routePattern(r)
			metrics.HTTPRequest(route, strconv.Itoa(rec.status), elapsed)
			if logger != nil {
				logger.WithTrace(r.Context()).Info("request",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Int("status", rec.status),
					slog.Duration("elapsed", elapsed),
					slog.String("request_id", contextx.RequestIDFromContext(r.Context())))
			}
		})
	}
}

// processTimeWriter injects the X-Process-Time header just before the first
// byte of the response is committed.
type processTimeWriter struct {
	*statusRecorder
	start time.Time
	wrote bool
}

func (w *processTimeWriter) WriteHeader(code int) {
	if !w.wrote {
		w.wrote = true
		w.Header().Set("X-Process-Time", fmt.Sprintf("%.4f", time.Since(w.start).Seconds()))
	}
	w.statusRecorder.WriteHeader(code)
}

func (w *processTimeWriter) Write(b []byte) (int, error) {
	if !w.wrote {
		w.WriteHeader(http.StatusOK)
	}
	return w.statusRecorder.Write(b)
}

// CORS answers preflight requests and sets the allow-origin headers. An
// origins list containing "*" allows any origin.
func CORS(origins []string) Middleware {
	allowAll := len(origins) == 0
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				if allowAll {
					w.Header().Set("Access-Control-Allow-Origin", "*")
				} else if _, ok := allowed[origin]; ok {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Vary", "Origin")
				}
			}
			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "*")
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// routePattern returns the matched mux pattern without the method prefix, or
// the raw path when the request matched no pattern.
func routePattern(r *http.Request) string {
	if p := r.Pattern; p != "" {
		if _, after, found := strings.Cut(p, " "); found {
			return after
		}
		return p
	}
	return r.URL.Path
}
