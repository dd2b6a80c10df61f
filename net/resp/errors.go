package resp

import (
	"net/http"

	"github.com/ncobase/jobqueue/ecode"
)

func newException(status, code int, message string, errs ...any) *Exception {
	if message == "" {
		message = ecode.Text(code)
	}
	e := &Exception{Status: status, Code: code, Message: message}
	if len(errs) > 0 {
		e.Errors = errs[0]
	}
	return e
}

// BadRequest bad request
func BadRequest(message string, errs ...any) *Exception {
	return newException(http.StatusBadRequest, ecode.RequestErr, message, errs...)
}

// NotFound not found
func NotFound(message string) *Exception {
	return newException(http.StatusNotFound, ecode.NotFound, message)
}

// InternalServer internal server error
func InternalServer(message string) *Exception {
	return newException(http.StatusInternalServerError, ecode.ServerErr, message)
}

// ServiceUnavailable service unavailable
func ServiceUnavailable(message string) *Exception {
	return newException(http.StatusServiceUnavailable, ecode.ServiceUnavailable, message)
}

// FromCode builds an exception from a business code using its mapped status.
func FromCode(code int, message string) *Exception {
	return newException(ecode.ToHTTPStatus(code), code, message)
}
