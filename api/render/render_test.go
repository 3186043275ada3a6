package render

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/czertainly/cmp-validator/errs"
	"github.com/czertainly/cmp-validator/logging"
)

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := logging.NewResponseLogger(rec)

	JSON(rw, map[string]interface{}{"foo": "bar"})

	assert.Equal(t, http.StatusOK, rec.Result().StatusCode)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "{\"foo\":\"bar\"}\n", rec.Body.String())

	assert.Empty(t, rw.Fields())
}

func TestJSONPanics(t *testing.T) {
	assert.Panics(t, func() {
		JSON(httptest.NewRecorder(), make(chan struct{}))
	})
}

func TestError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"not found", errs.NotFound("verdict %s not found", "abc"), 404,
			`{"status":404,"message":"` + errs.NotFoundDefaultMsg + `"}`},
		{"bad request", errs.BadRequest("unknown stage %s", "x"), 400,
			`{"status":400,"message":"The request could not be completed: unknown stage x."}`},
		{"wrapped", errors.Wrap(errs.RequestEntityTooLarge(1), "reading"), 413,
			`{"status":413,"message":"` + errs.RequestEntityTooLargeDefaultMsg + `"}`},
		{"untyped", errors.New("boom"), 500,
			`{"status":500,"message":"` + errs.InternalServerErrorDefaultMsg + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			rw := logging.NewResponseLogger(rec)
			Error(rw, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			assert.Same(t, tt.err, rw.Fields()["error"])
		})
	}
}
