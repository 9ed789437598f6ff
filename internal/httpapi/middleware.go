package httpapi

import (
	"crypto/subtle"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now().UTC()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Printf("%s %s status=%d from=%s request_id=%s dur=%s",
			r.Method, r.URL.Path, rec.status, r.RemoteAddr, r.Header.Get(requestIDHeader), time.Since(start))
	})
}

// requestIDMiddleware keeps a caller-supplied request id or assigns a new
// one, and echoes it on the response.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// requireAdminKey rejects requests whose X-API-Key does not match token.
// With no token configured the endpoint is closed to everyone.
func requireAdminKey(token string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token == "" {
			writeError(w, r, http.StatusForbidden, "admin_disabled", "admin endpoints are disabled")
			return
		}
		key := strings.TrimSpace(r.Header.Get("X-API-Key"))
		if subtle.ConstantTimeCompare([]byte(key), []byte(token)) != 1 {
			writeError(w, r, http.StatusUnauthorized, "unauthorized", "missing or invalid X-API-Key")
			return
		}
		next.ServeHTTP(w, r)
	})
}
