package errors

import (
	"fmt"
	"net/http"
)

// APIError is the error envelope of the study store. The server renders it as
// {"error":{...}} and the remote client decodes the same shape back.
type APIError struct {
	Status  int         `json:"-"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches on status and code so callers can compare against a template
// such as errors.Is(err, apperrors.NotFound("subject_not_found", "")).
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.Status == t.Status && (t.Code == "" || e.Code == t.Code)
}

func New(status int, code, message string) *APIError {
	return &APIError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

func Internal(message string) *APIError {
	if message == "" {
		message = "internal server error"
	}
	return New(http.StatusInternalServerError, "internal_error", message)
}

func BadRequest(code, message string) *APIError {
	return New(http.StatusBadRequest, code, message)
}

// Invalid is a 400 carrying per-field reasons in Details.
func Invalid(message string, fields map[string]string) *APIError {
	err := New(http.StatusBadRequest, "invalid_input", message)
	if len(fields) > 0 {
		err.Details = map[string]interface{}{"fields": fields}
	}
	return err
}

func Unauthorized(message string) *APIError {
	if message == "" {
		message = "unauthorized"
	}
	return New(http.StatusUnauthorized, "unauthorized", message)
}

func NotFound(code, message string) *APIError {
	return New(http.StatusNotFound, code, message)
}

func Conflict(code, message string, details interface{}) *APIError {
	err := New(http.StatusConflict, code, message)
	err.Details = details
	return err
}

// Unavailable reports a store the client could not reach or that answered
// with something other than the error envelope.
func Unavailable(message string) *APIError {
	if message == "" {
		message = "store unavailable"
	}
	return New(http.StatusServiceUnavailable, "unavailable", message)
}
