package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

// requestID tags every request with a correlation ID, honoring one supplied
// by the caller.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response code for access logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// redactPath hides the secret half of a bot token in /bot{token}/... paths.
func redactPath(path string) string {
	if !strings.HasPrefix(path, "/bot") {
		return path
	}
	colon := strings.IndexByte(path, ':')
	if colon < 0 {
		return path
	}
	slash := strings.IndexByte(path[colon:], '/')
	if slash < 0 {
		return path[:colon+1] + "..."
	}
	return path[:colon+1] + "..." + path[colon+slash:]
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		if s.metrics != nil {
			s.metrics.Request(rec.status)
		}
		s.logger.Debug("request",
			"method", r.Method,
			"path", redactPath(r.URL.Path),
			"status", rec.status,
			"duration", time.Since(start),
			"request_id", w.Header().Get(requestIDHeader),
		)
	})
}
