// Package render implements functionality related to response rendering.
package render

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/czertainly/cmp-validator/api/log"
	"github.com/czertainly/cmp-validator/errs"
)

// JSON writes the passed value into the http.ResponseWriter.
func JSON(w http.ResponseWriter, v interface{}) {
	JSONStatus(w, v, http.StatusOK)
}

// JSONStatus writes the given value into the http.ResponseWriter and the
// given status is written as the status code of the response.
func JSONStatus(w http.ResponseWriter, v interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error(w, err)

		return
	}

	log.EnabledResponse(w, v)
}

// Error encodes the JSON representation of err to w. Errors that are not
// *errs.Error are rendered as internal server errors.
func Error(w http.ResponseWriter, err error) {
	var e *errs.Error
	if !errors.As(err, &e) {
		e = errs.InternalServerErr(err).(*errs.Error)
	}

	log.Error(w, err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode())
	if err := json.NewEncoder(w).Encode(e); err != nil {
		log.Error(w, err)
	}
}
