package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/camden-git/portfoliobackend/auth"
	"github.com/camden-git/portfoliobackend/logging"
	"github.com/camden-git/portfoliobackend/metrics"
)

const RequestIDHeader = "X-Request-Id"

// RequestLogger assigns a request id (reusing a valid incoming X-Request-Id),
// stores it in the logging context and logs each completed request.
func RequestLogger(log *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
			if _, err := uuid.Parse(requestID); err != nil {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			ctx := log.WithRequestID(r.Context(), requestID)
			ctx = log.WithFields(ctx, map[string]any{"method": r.Method, "path": r.URL.Path})

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			done := log.WithFields(ctx, map[string]any{
				"status":      status,
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
			})
			if status >= http.StatusInternalServerError {
				log.Warn(done, "request completed with server error", nil)
				return
			}
			log.Info(done, "request completed")
		})
	}
}

// Recoverer renders panics as the JSON 500 envelope.
func Recoverer(log *logging.Logger, exposeDetails bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				err := fmt.Errorf("panic: %v", rec)
				log.Error(r.Context(), "recovered from panic", err)
				detail := ""
				if exposeDetails {
					detail = err.Error()
				}
				WriteAPIError(w, http.StatusInternalServerError, "Internal server error", detail)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Metrics records every request under its chi route pattern.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.ObserveRequest(route, r.Method, status, time.Since(start))
		})
	}
}

// AllowAnyOrigin puts Access-Control-Allow-Origin: * on every response and
// answers OPTIONS requests that the CORS handler did not treat as preflight.
func AllowAnyOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		if r.Method == http.MethodOptions {
			h.Set("Access-Control-Allow-Methods", strings.Join(allowedMethods, ", "))
			h.Set("Access-Control-Allow-Headers", strings.Join(allowedHeaders, ", "))
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isWriteMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

// RequireWriteAuth rejects mutating requests without a credential the
// authenticator accepts. It runs before routing, so unknown paths are
// rejected the same way.
func RequireWriteAuth(authenticator auth.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isWriteMethod(r.Method) {
				credential := auth.CredentialFromHeader(r.Header.Get("Authorization"))
				if authenticator == nil || !authenticator.Authorize(credential) {
					unauthorized := errUnauthorized()
					WriteAPIError(w, unauthorized.Status, unauthorized.Message, "")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
