package request

import "net/http"

// ClientWriter wraps a http.ResponseWriter and records the status code so
// middleware can report it after the handler has run.
type ClientWriter struct {
	http.ResponseWriter

	statusCode int
}

// NewClientWriter wraps w.
func NewClientWriter(w http.ResponseWriter) *ClientWriter {
	return &ClientWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// WriteHeader records the status code and forwards it.
func (w *ClientWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// StatusCode returns the recorded status code. Defaults to 200 when the
// handler never called WriteHeader.
func (w *ClientWriter) StatusCode() int {
	return w.statusCode
}
