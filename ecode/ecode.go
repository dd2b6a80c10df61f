// Package ecode defines the business error codes returned by the job API and
// their HTTP status mapping.
package ecode

import (
	"fmt"
	"net/http"
	"sync"
)

// Common codes.
const (
	OK                 = 0
	RequestErr         = -400
	ParamErr           = -401
	NotFound           = -404
	Conflict           = -409
	ServerErr          = -500
	ServiceUnavailable = -503
)

// Job codes.
const (
	JobNotCancellable = -1001
	JobNotRetryable   = -1002
)

var (
	mu       sync.RWMutex
	messages = map[int]string{
		OK:                 "ok",
		RequestErr:         "Invalid request",
		ParamErr:           "Invalid parameters",
		NotFound:           "Resource not found",
		Conflict:           "Resource conflict",
		ServerErr:          "Internal server error",
		ServiceUnavailable: "Service unavailable",
		JobNotCancellable:  "Job cannot be cancelled",
		JobNotRetryable:    "Job cannot be retried",
	}
	statuses = map[int]int{
		OK:                 http.StatusOK,
		RequestErr:         http.StatusBadRequest,
		ParamErr:           http.StatusBadRequest,
		NotFound:           http.StatusNotFound,
		Conflict:           http.StatusConflict,
		ServerErr:          http.StatusInternalServerError,
		ServiceUnavailable: http.StatusServiceUnavailable,
		JobNotCancellable:  http.StatusBadRequest,
		JobNotRetryable:    http.StatusBadRequest,
	}
)

// Register adds or replaces the message and HTTP status for a code.
func Register(code int, message string, status int) {
	mu.Lock()
	defer mu.Unlock()
	messages[code] = message
	statuses[code] = status
}

// Text returns the message registered for code.
func Text(code int) string {
	mu.RLock()
	defer mu.RUnlock()
	if msg, ok := messages[code]; ok {
		return msg
	}
	return fmt.Sprintf("unknown error code %d", code)
}

// ToHTTPStatus maps a business code onto an HTTP status, defaulting to 500.
func ToHTTPStatus(code int) int {
	mu.RLock()
	defer mu.RUnlock()
	if status, ok := statuses[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
