package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/quizlive/pkg/metrics"
)

// MetricsMiddleware records request count, latency and failures under
// endpoint. Relay requests are labelled per action, so client polling and
// host drains are counted apart.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		label := endpointLabel(endpoint, r)
		durationMs := float64(time.Since(start).Microseconds()) / 1000
		metrics.RecordHTTPRequest(label, r.Method, strconv.Itoa(rec.status), durationMs)
		if rec.status >= http.StatusBadRequest {
			metrics.RecordErrorByEndpoint(label, r.Method, errorKind(rec.status))
		}
	}
}

// endpointLabel keeps label cardinality bounded: only known actions are
// appended.
func endpointLabel(endpoint string, r *http.Request) string {
	if endpoint != "api" {
		return endpoint
	}
	action := r.URL.Query().Get("action")
	if _, ok := actionMethods[action]; !ok {
		return endpoint
	}
	return endpoint + "." + action
}

func errorKind(status int) string {
	switch {
	case status >= http.StatusInternalServerError:
		return "server_error"
	case status == http.StatusUnauthorized:
		return "unauthorized"
	case status == http.StatusNotFound:
		return "not_found"
	case status == http.StatusConflict:
		return "rejected"
	case status == http.StatusRequestEntityTooLarge:
		return "too_large"
	default:
		return "client_error"
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
