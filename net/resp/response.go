// Package resp writes JSON API responses in a uniform envelope.
package resp

import (
	"encoding/json"
	"net/http"

	"github.com/ncobase/jobqueue/ecode"
)

// Exception represents the response structure.
type Exception struct {
	Status  int    `json:"status,omitempty"`  // HTTP status
	Code    int    `json:"code,omitempty"`    // Business code
	Message string `json:"message,omitempty"` // Message
	Errors  any    `json:"errors,omitempty"`  // Validation errors
	Data    any    `json:"data,omitempty"`    // Response data
}

// Success writes a 200 response.
func Success(w http.ResponseWriter, data ...any) {
	WithStatusCode(w, http.StatusOK, data...)
}

// WithStatusCode writes a success response with a custom status code. A
// single string argument is rendered as {"message": ...}.
func WithStatusCode(w http.ResponseWriter, statusCode int, data ...any) {
	if statusCode < 200 || statusCode >= 400 {
		Fail(w, &Exception{Status: statusCode, Code: ecode.RequestErr})
		return
	}

	var body any = map[string]any{"message": "ok"}
	if len(data) > 0 && data[0] != nil {
		if msg, ok := data[0].(string); ok {
			body = map[string]any{"message": msg}
		} else {
			body = data[0]
		}
	}
	writeJSON(w, statusCode, body)
}

// Fail writes a failure response. A nil exception is reported as an internal
// server error.
func Fail(w http.ResponseWriter, r *Exception) {
	if r == nil {
		r = InternalServer("")
	}
	status, body := buildFailureResponse(r)
	writeJSON(w, status, body)
}

func buildFailureResponse(r *Exception) (int, *Exception) {
	status := http.StatusBadRequest
	code := ecode.RequestErr

	if r.Code != 0 {
		code = r.Code
		status = ecode.ToHTTPStatus(code)
	}
	if r.Status != 0 {
		status = r.Status
	}

	message := r.Message
	if message == "" {
		message = ecode.Text(code)
	}

	return status, &Exception{
		Code:    code,
		Message: message,
		Errors:  r.Errors,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, "Failed to encode JSON response", http.StatusInternalServerError)
	}
}
