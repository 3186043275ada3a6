package logging

import (
	"bufio"
	"net"
	"net/http"

	"github.com/pkg/errors"
)

// ResponseLogger defines an interface that a response writer can implement
// to support response logging.
type ResponseLogger interface {
	http.ResponseWriter
	Size() int
	StatusCode() int
	Fields() map[string]any
	WithFields(map[string]any)
}

// NewResponseLogger wraps the given response writer with methods to capture
// the status code, the size of the response and extra fields to log.
func NewResponseLogger(w http.ResponseWriter) ResponseLogger {
	if rw, ok := w.(ResponseLogger); ok {
		return rw
	}
	return &rwDefault{w, 200, 0, nil}
}

type rwDefault struct {
	http.ResponseWriter
	code   int
	size   int
	fields map[string]any
}

func (r *rwDefault) Header() http.Header {
	return r.ResponseWriter.Header()
}

func (r *rwDefault) Write(p []byte) (n int, err error) {
	n, err = r.ResponseWriter.Write(p)
	r.size += n
	return
}

func (r *rwDefault) WriteHeader(code int) {
	r.ResponseWriter.WriteHeader(code)
	r.code = code
}

func (r *rwDefault) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *rwDefault) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hj, ok := r.ResponseWriter.(http.Hijacker); ok {
		return hj.Hijack()
	}
	return nil, nil, errors.Errorf("%T is not a http.Hijacker", r.ResponseWriter)
}

func (r *rwDefault) Size() int {
	return r.size
}

func (r *rwDefault) StatusCode() int {
	return r.code
}

func (r *rwDefault) Fields() map[string]any {
	return r.fields
}

func (r *rwDefault) WithFields(fields map[string]any) {
	if r.fields == nil {
		r.fields = make(map[string]any, len(fields))
	}
	for k, v := range fields {
		r.fields[k] = v
	}
}
