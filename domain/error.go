package domain

import (
	stderr "errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ErrRecordNotFound keeps usecases independent of the ORM's own sentinel.
var ErrRecordNotFound = errors.New("record not found")

// ErrDuplicateRecord is returned by repositories when a write hits a unique index.
var ErrDuplicateRecord = errors.New("duplicate record")

/****************************
*      Common errors        *
****************************/
var (
	ErrNotFound = DetailedError{
		IDField:         "NOT_FOUND",
		StatusDescField: http.StatusText(http.StatusNotFound),
		ErrorField:      "The requested resource could not be found",
		StatusCodeField: http.StatusNotFound,
	}

	ErrUnauthorized = DetailedError{
		IDField:         "UNAUTHORIZED",
		StatusDescField: http.StatusText(http.StatusUnauthorized),
		ErrorField:      "Unauthenticated.",
		StatusCodeField: http.StatusUnauthorized,
	}

	ErrForbidden = DetailedError{
		IDField:         "FORBIDDEN",
		StatusDescField: http.StatusText(http.StatusForbidden),
		ErrorField:      "This action is unauthorized.",
		StatusCodeField: http.StatusForbidden,
	}

	ErrValidation = DetailedError{
		IDField:         "VALIDATION_FAILED",
		StatusDescField: http.StatusText(http.StatusUnprocessableEntity),
		ErrorField:      "The given data was invalid.",
		StatusCodeField: http.StatusUnprocessableEntity,
	}

	ErrProtectedEntity = DetailedError{
		IDField:         "PROTECTED_ENTITY",
		StatusDescField: http.StatusText(http.StatusConflict),
		ErrorField:      "The resource is protected and cannot be modified",
		StatusCodeField: http.StatusConflict,
	}

	ErrBadRequest = DetailedError{
		IDField:         "BAD_REQUEST",
		StatusDescField: http.StatusText(http.StatusBadRequest),
		ErrorField:      "The request was malformed or contained invalid parameters",
		StatusCodeField: http.StatusBadRequest,
	}

	ErrTooManyRequests = DetailedError{
		IDField:         "TOO_MANY_REQUESTS",
		StatusDescField: http.StatusText(http.StatusTooManyRequests),
		ErrorField:      "Too many requests, please try again later",
		StatusCodeField: http.StatusTooManyRequests,
	}

	ErrInternalServerError = DetailedError{
		IDField:         "INTERNAL_SERVER_ERROR",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "An internal server error occurred, please contact the system administrator",
		StatusCodeField: http.StatusInternalServerError,
	}
)

// NewValidationError builds a field keyed validation error. The first field
// (in key order) provides the top level message.
func NewValidationError(fields map[string]string) *DetailedError {
	e := ErrValidation.WithError(ErrValidation.ErrorField)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		e = e.WithDetail(k, fields[k])
	}
	if len(keys) > 0 {
		e.ErrorField = fields[keys[0]]
	}
	return e
}

// FieldError is a shorthand for a single field validation error.
func FieldError(field, message string) *DetailedError {
	return NewValidationError(map[string]string{field: message})
}

type DetailedError struct {
	// Machine readable error identifier, e.g. ROLE_NOT_FOUND.
	IDField string `json:"id,omitempty"`

	// HTTP status code.
	StatusCodeField int `json:"code,omitempty"`

	// HTTP status text.
	StatusDescField string `json:"status,omitempty"`

	// Request ID the error was produced under.
	RIDField string `json:"request,omitempty"`

	// Human readable reason, e.g. "Role with ID 12 does not exist".
	ReasonField string `json:"reason,omitempty"`

	// Debug information, never rendered to clients.
	DebugField string `json:"-"`

	// The error's message.
	ErrorField string `json:"message"`

	// Field errors for validation failures, or any extra context.
	DetailsField map[string]interface{} `json:"details,omitempty"`

	err error
}

func (e DetailedError) Error() string {
	return e.ErrorField
}

func (e DetailedError) Unwrap() error {
	return e.err
}

// StackTrace returns the wrapped error's stack trace when it carries one.
func (e *DetailedError) StackTrace() (trace errors.StackTrace) {
	if st := stackTracer(nil); stderr.As(e.err, &st) {
		trace = st.StackTrace()
	}
	return
}

func (e DetailedError) WithWrap(err error) *DetailedError {
	if err != nil {
		if st := stackTracer(nil); !stderr.As(err, &st) {
			err = errors.WithStack(err)
		}
	}
	e.err = err
	e.DetailsField = copyDetails(e.DetailsField)
	return &e
}

func (e DetailedError) WithReason(reason string) *DetailedError {
	e.ReasonField = reason
	e.DetailsField = copyDetails(e.DetailsField)
	return &e
}

func (e DetailedError) WithReasonf(reason string, args ...interface{}) *DetailedError {
	return e.WithReason(fmt.Sprintf(reason, args...))
}

func (e DetailedError) WithError(message string) *DetailedError {
	e.ErrorField = message
	e.DetailsField = copyDetails(e.DetailsField)
	return &e
}

func (e DetailedError) WithErrorf(message string, args ...interface{}) *DetailedError {
	return e.WithError(fmt.Sprintf(message, args...))
}

func (e DetailedError) WithDebug(debug string) *DetailedError {
	e.DebugField = debug
	e.DetailsField = copyDetails(e.DetailsField)
	return &e
}

func (e DetailedError) WithRequestID(rid string) *DetailedError {
	e.RIDField = rid
	e.DetailsField = copyDetails(e.DetailsField)
	return &e
}

func (e DetailedError) WithDetail(key string, detail interface{}) *DetailedError {
	e.DetailsField = copyDetails(e.DetailsField)
	if e.DetailsField == nil {
		e.DetailsField = map[string]interface{}{}
	}
	e.DetailsField[key] = detail
	return &e
}

// Is compares identity fields so that a decorated copy still matches its
// catalogue entry through errors.Is.
func (e DetailedError) Is(err error) bool {
	switch te := err.(type) {
	case DetailedError:
		return e.IDField == te.IDField && e.StatusCodeField == te.StatusCodeField
	case *DetailedError:
		return te != nil && e.IDField == te.IDField && e.StatusCodeField == te.StatusCodeField
	default:
		return false
	}
}

func (e DetailedError) ID() string                      { return e.IDField }
func (e DetailedError) StatusCode() int                 { return e.StatusCodeField }
func (e DetailedError) Status() string                  { return e.StatusDescField }
func (e DetailedError) RequestID() string               { return e.RIDField }
func (e DetailedError) Reason() string                  { return e.ReasonField }
func (e DetailedError) Debug() string                   { return e.DebugField }
func (e DetailedError) Details() map[string]interface{} { return e.DetailsField }

// FieldErrors returns the string valued details, the shape validation errors use.
func (e DetailedError) FieldErrors() map[string]string {
	out := make(map[string]string, len(e.DetailsField))
	for k, v := range e.DetailsField {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

func (e DetailedError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "id=%s\n", e.IDField)
			_, _ = fmt.Fprintf(s, "rid=%s\n", e.RIDField)
			_, _ = fmt.Fprintf(s, "error=%s\n", e.ErrorField)
			_, _ = fmt.Fprintf(s, "reason=%s\n", e.ReasonField)
			_, _ = fmt.Fprintf(s, "details=%+v\n", e.DetailsField)
			_, _ = fmt.Fprintf(s, "debug=%s\n", e.DebugField)
			e.StackTrace().Format(s, verb)
			return
		}
		fallthrough
	case 's':
		_, _ = io.WriteString(s, e.ErrorField)
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.ErrorField)
	}
}

// AsDetailedError unwraps err into a DetailedError. Anything else becomes an
// internal server error wrapping err.
func AsDetailedError(err error) *DetailedError {
	if err == nil {
		return nil
	}
	var de *DetailedError
	if stderr.As(err, &de) {
		return de
	}
	var dv DetailedError
	if stderr.As(err, &dv) {
		return &dv
	}
	if stderr.Is(err, ErrRecordNotFound) {
		return ErrNotFound.WithWrap(err)
	}
	return ErrInternalServerError.WithWrap(err).WithDebug(err.Error())
}

// JoinQuoted renders names as `a`, `b`, `c`.
func JoinQuoted(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "`" + n + "`"
	}
	return strings.Join(quoted, ", ")
}

func copyDetails(in map[string]interface{}) map[string]interface{} {
	if in == nil {
		return nil
	}
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}
