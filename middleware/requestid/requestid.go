// Package requestid provides HTTP request ID functionality
package requestid

import (
	"context"
	"net/http"

	"github.com/rs/xid"

	"go.step.sm/crypto/randutil"
)

const (
	// requestIDHeader is the header name used for propagating request IDs.
	// It has precedence over the trace header and is always set in the
	// response.
	requestIDHeader = "X-Request-Id"

	// defaultTraceHeader is the fallback header a request ID is read from
	// when the X-Request-Id request header is not set.
	defaultTraceHeader = "X-Trace-Id"
)

type Handler struct {
	traceHeader string
}

// New creates a new request ID [Handler]. The trace header is used as a
// fallback source of request IDs, and is set on the request when a new ID
// is generated.
func New(traceHeader string) *Handler {
	if traceHeader == "" {
		traceHeader = defaultTraceHeader
	}

	return &Handler{traceHeader: traceHeader}
}

// Middleware wraps an [http.Handler] with request ID extraction from the
// X-Request-Id header, or from the trace header if not set. If both are not
// set, a new request ID is generated. In all cases, the request ID is added
// to the request context and reflected in the response.
func (h *Handler) Middleware(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, req *http.Request) {
		requestID := req.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = req.Header.Get(h.traceHeader)
		}

		if requestID == "" {
			requestID = newRequestID()
			req.Header.Set(h.traceHeader, requestID)
		}

		w.Header().Set(requestIDHeader, requestID)

		ctx := NewContext(req.Context(), requestID)
		next.ServeHTTP(w, req.WithContext(ctx))
	}
	return http.HandlerFunc(fn)
}

// newRequestID generates a new random UUIDv4 request ID. If UUIDv4
// generation fails, it'll fallback to generating a random ID using
// github.com/rs/xid.
func newRequestID() string {
	requestID, err := randutil.UUIDv4()
	if err != nil {
		requestID = xid.New().String()
	}

	return requestID
}

type contextKey struct{}

// NewContext returns a new context with the given request ID added to the
// context.
func NewContext(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKey{}, requestID)
}

// FromContext returns the request ID from the context if it exists and
// is not the empty value.
func FromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(contextKey{}).(string)
	return v, ok && v != ""
}
