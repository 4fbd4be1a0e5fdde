package errs

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"tweetapi/logger"
)

// Application error codes. They describe the kind of failure independently of
// the transport, and are mapped to http status codes by ReturnError.
const (
	EINVALID      = "invalid"
	EUNAUTHORIZED = "unauthorized"
	EFORBIDDEN    = "forbidden"
	ENOTFOUND     = "not_found"
	EINTERNAL     = "internal"
)

// NonFieldErrors is the field name used for validation errors that don't belong
// to a single input field, like a failed login.
const NonFieldErrors = "non_field_errors"

// Errors that are returned by the crud services in more than one place.
var (
	IdInvalid     = Errorf(EINVALID, "The ID is invalid.")
	UserIdInvalid = Errorf(EINVALID, "A valid user ID is required.")
	TokenInvalid  = Errorf(EINVALID, "The session token is invalid.")
)

// Error represents an application error. Code is one of the constants above,
// Message is a human-readable text that is safe to display to a client.
// Fields holds field-scoped validation failures. If it's not empty, the error
// is rendered as a map of field names to messages instead of a detail message.
type Error struct {
	Code    string
	Message string
	Fields  []FieldError
}

// FieldError is a validation failure scoped to a single input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface. Its text only ends up in logs.
func (e *Error) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("app error: code=%s fields=%v", e.Code, e.Fields)
	}
	return fmt.Sprintf("app error: code=%s message=%s", e.Code, e.Message)
}

// Errorf is a helper function to return an Error with a given code and formatted message.
func Errorf(code string, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Invalid returns an EINVALID error holding the given field errors.
func Invalid(fields ...FieldError) *Error {
	return &Error{
		Code:    EINVALID,
		Message: "Invalid input.",
		Fields:  fields,
	}
}

// Field is a shorthand for creating a FieldError.
func Field(field, message string) FieldError {
	return FieldError{Field: field, Message: message}
}

// Join merges the field errors of EINVALID errors into a single one.
// A field that an earlier error already reports is skipped in later ones.
// Nil errors are ignored, and the first error that can't be merged is returned as is.
func Join(list ...error) error {
	var fields []FieldError
	seen := map[string]bool{}
	for _, err := range list {
		if err == nil {
			continue
		}
		errFields := ErrorFields(err)
		if ErrorCode(err) != EINVALID || len(errFields) == 0 {
			return err
		}
		reported := map[string]bool{}
		for _, f := range errFields {
			if seen[f.Field] {
				continue
			}
			reported[f.Field] = true
			fields = append(fields, f)
		}
		for field := range reported {
			seen[field] = true
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return Invalid(fields...)
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EINTERNAL.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return "Internal error.".
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}

// ErrorFields unwraps an application error and returns its field errors, if any.
func ErrorFields(err error) []FieldError {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

// codes maps application error codes to http status codes.
var codes = map[string]int{
	EINVALID:      http.StatusBadRequest,
	EUNAUTHORIZED: http.StatusUnauthorized,
	EFORBIDDEN:    http.StatusForbidden,
	ENOTFOUND:     http.StatusNotFound,
	EINTERNAL:     http.StatusInternalServerError,
}

// StatusCode returns the http status code for an application error code.
func StatusCode(code string) int {
	if v, ok := codes[code]; ok {
		return v
	}
	return http.StatusInternalServerError
}

// ReturnError writes an error to the response as json. Internal errors are logged
// and their message is masked.
func ReturnError(w http.ResponseWriter, r *http.Request, err error) {
	code := ErrorCode(err)
	if code == EINTERNAL {
		LogError(r, err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(StatusCode(code))

	var body interface{}
	if fields := ErrorFields(err); len(fields) > 0 {
		body = fieldMap(fields)
	} else {
		body = map[string]string{"detail": ErrorMessage(err)}
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		LogError(r, err)
	}
}

// fieldMap groups field errors by field name, keeping their order within a field.
func fieldMap(fields []FieldError) map[string][]string {
	m := make(map[string][]string, len(fields))
	for _, f := range fields {
		m[f.Field] = append(m[f.Field], f.Message)
	}
	return m
}

// LogError logs an error through the request's logger, along with the request's method and path.
func LogError(r *http.Request, err error) {
	logger.FromContext(r.Context()).WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	}).WithError(err).Error("request error")
}
