package httpx

import (
	"net/http"
	"time"
)

// ErrorBody is the uniform error envelope returned by every endpoint.
// Code is a stable machine-readable identifier; Message is for humans.
type ErrorBody struct {
	Timestamp   time.Time         `json:"timestamp"`
	Status      int               `json:"status"`
	Error       string            `json:"error"`
	Message     string            `json:"message"`
	Code        string            `json:"code"`
	Path        string            `json:"path"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
}

// WriteError writes the standard error envelope with the given status,
// code and message.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	WriteJSON(w, status, ErrorBody{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Code:      code,
		Path:      r.URL.Path,
	})
}

// WriteValidationError writes a 400 envelope carrying per-field messages.
func WriteValidationError(w http.ResponseWriter, r *http.Request, fields map[string]string) {
	WriteJSON(w, http.StatusBadRequest, ErrorBody{
		Timestamp:   time.Now().UTC(),
		Status:      http.StatusBadRequest,
		Error:       http.StatusText(http.StatusBadRequest),
		Message:     "Validation failed",
		Code:        "VALIDATION_FAILED",
		Path:        r.URL.Path,
		FieldErrors: fields,
	})
}
