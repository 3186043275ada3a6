// Package errs implements the HTTP errors returned by the validation
// service. CMP validation failures are not errors at this level, they are
// rendered as verdicts.
package errs

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"

	"github.com/czertainly/cmp-validator/api/log"
)

// StatusCoder interface is used by errors that returns the HTTP response code.
type StatusCoder interface {
	StatusCode() int
}

// Option modifies the Error type.
type Option func(e *Error)

// withDefaultMessage returns an Option that modifies the error by overwriting the
// message only if it is empty.
func withDefaultMessage(format string, args ...interface{}) Option {
	return func(e *Error) {
		if e.Msg != "" {
			return
		}
		e.Msg = fmt.Sprintf(format, args...)
	}
}

// WithMessage returns an Option that overwrites the message of the error.
func WithMessage(format string, args ...interface{}) Option {
	return func(e *Error) {
		e.Msg = fmt.Sprintf(format, args...)
	}
}

// Error represents the API errors.
type Error struct {
	Status int
	Err    error
	Msg    string
}

// ErrorResponse represents an error in JSON format.
type ErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// Cause implements the errors.Causer interface and returns the original error.
func (e *Error) Cause() error {
	return e.Err
}

// Unwrap returns the original error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Error implements the error interface and returns the error string.
func (e *Error) Error() string {
	if e.Err == nil {
		return http.StatusText(e.Status)
	}
	return e.Err.Error()
}

// StatusCode implements the StatusCoder interface and returns the HTTP response
// code.
func (e *Error) StatusCode() int {
	return e.Status
}

// MarshalJSON implements json.Marshaller interface for the Error struct.
func (e *Error) MarshalJSON() ([]byte, error) {
	var msg string
	if e.Msg != "" {
		msg = e.Msg
	} else {
		msg = http.StatusText(e.Status)
	}
	return json.Marshal(&ErrorResponse{Status: e.Status, Message: msg})
}

// UnmarshalJSON implements json.Unmarshaler interface for the Error struct.
func (e *Error) UnmarshalJSON(data []byte) error {
	var er ErrorResponse
	if err := json.Unmarshal(data, &er); err != nil {
		return err
	}
	e.Status = er.Status
	e.Msg = er.Message
	e.Err = errors.New(er.Message)
	return nil
}

// Format implements the fmt.Formatter interface.
func (e *Error) Format(f fmt.State, c rune) {
	var fe fmt.Formatter
	if errors.As(e.Err, &fe) {
		fe.Format(f, c)
		return
	}
	fmt.Fprint(f, e.Error())
}

var (
	seeLogs = "Please see the validator logs for more info."
	// BadRequestDefaultMsg 400 default msg
	BadRequestDefaultMsg = "The request could not be completed; malformed or missing data. " + seeLogs
	// NotFoundDefaultMsg 404 default msg
	NotFoundDefaultMsg = "The requested resource could not be found. " + seeLogs
	// RequestEntityTooLargeDefaultMsg 413 default msg
	RequestEntityTooLargeDefaultMsg = "The request body exceeds the maximum message size."
	// InternalServerErrorDefaultMsg 500 default msg
	InternalServerErrorDefaultMsg = "The validator encountered an Internal Server Error. " + seeLogs
)

// BadRequestPrefix is the prefix added to the bad request messages.
var BadRequestPrefix = "The request could not be completed: "

func formatMessage(status int, msg string) string {
	if status == http.StatusBadRequest {
		return BadRequestPrefix + msg + "."
	}
	return msg
}

// newError creates a new http error with the given status and message.
func newError(status int, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	return &Error{
		Status: status,
		Msg:    formatMessage(status, msg),
		Err:    errors.New(msg),
	}
}

// wrapError creates a new http error with the given error and message.
func wrapError(status int, err error, format string, args ...interface{}) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	msg := fmt.Sprintf(format, args...)
	var ste log.StackTracedError
	if !errors.As(err, &ste) {
		err = errors.Wrap(err, msg)
	}
	return &Error{
		Status: status,
		Msg:    formatMessage(status, msg),
		Err:    err,
	}
}

// NewErr returns a new Error. If the given error implements the StatusCoder
// interface we will ignore the given status.
func NewErr(status int, err error, opts ...Option) error {
	var e *Error
	if !errors.As(err, &e) {
		var sc StatusCoder
		if errors.As(err, &sc) {
			e = &Error{Status: sc.StatusCode(), Err: err}
		} else {
			e = &Error{Status: status, Err: err}
		}
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// BadRequest creates a 400 error with the given format and arguments.
func BadRequest(format string, args ...interface{}) error {
	return newError(http.StatusBadRequest, format, args...)
}

// BadRequestErr returns an 400 error with the given error.
func BadRequestErr(err error, format string, args ...interface{}) error {
	return wrapError(http.StatusBadRequest, err, format, args...)
}

// NotFound creates a 404 error with the given format and arguments.
func NotFound(format string, args ...interface{}) error {
	return NotFoundErr(fmt.Errorf(format, args...))
}

// NotFoundErr returns an 404 error with the given error.
func NotFoundErr(err error, opts ...Option) error {
	opts = append(opts, withDefaultMessage(NotFoundDefaultMsg))
	return NewErr(http.StatusNotFound, err, opts...)
}

// RequestEntityTooLarge returns a 413 error for a body over limit bytes.
func RequestEntityTooLarge(limit int64) error {
	return NewErr(http.StatusRequestEntityTooLarge, errors.Errorf("request body exceeds %d bytes", limit),
		withDefaultMessage(RequestEntityTooLargeDefaultMsg))
}

// InternalServerErr returns a 500 error with the given error.
func InternalServerErr(err error, opts ...Option) error {
	opts = append(opts, withDefaultMessage(InternalServerErrorDefaultMsg))
	return NewErr(http.StatusInternalServerError, err, opts...)
}
