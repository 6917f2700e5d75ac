package middleware

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"school-directory/models"
	"school-directory/utils"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const RequestIDHeader = "X-Request-ID"

type ctxKey struct{}

// RequestID tags each request with an id, reusing the caller's when present.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Logger returns a request scoped entry carrying the request id.
func Logger(r *http.Request) *log.Entry {
	return log.WithField("request_id", RequestIDFrom(r.Context()))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// AccessLog logs one line per request once it has been served.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		Logger(r).WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start),
		}).Info("request served")
	})
}

// Recover turns a handler panic into a 500 JSON response.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				Logger(r).WithField("panic", v).Errorf("handler panicked\n%s", debug.Stack())
				utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
