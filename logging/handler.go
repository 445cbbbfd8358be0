package logging

import (
	"net/http"
	"time"
)

// statusRecorder keeps the status code and the number of body bytes
// written through it.
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int64
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}

	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}

	n, err := r.ResponseWriter.Write(p)
	r.size += int64(n)
	return n, err
}

// Unwrap allows http.ResponseController to reach the original writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

type accessLogHandler struct {
	next http.Handler
}

// NewHandler wraps a handler, and logs every request served by it to the
// access log.
func NewHandler(next http.Handler) http.Handler {
	return &accessLogHandler{next: next}
}

func (h *accessLogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w}
	h.next.ServeHTTP(rec, r)

	status := rec.status
	if status == 0 {
		status = http.StatusOK
	}

	LogAccess(&AccessEntry{
		Request:      r,
		StatusCode:   status,
		ResponseSize: rec.size,
		Duration:     time.Since(start),
		RequestTime:  start,
	})
}
