package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yanqian/fortune-master/pkg/errors"
)

// HTTPError captures the metadata required to serialize an error response consistently.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// NewHTTPError is a helper to build an HTTPError instance.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return &HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "something went wrong",
		Err:     err,
	}
}

// fromDomainError maps an AppError code onto a status. The body carries only
// the user facing message; the cause stays in the logs.
func fromDomainError(err error) *HTTPError {
	status := http.StatusInternalServerError
	code := "internal_error"
	message := "something went wrong"
	switch {
	case apperrors.IsCode(err, apperrors.CodeInvalidInput):
		status, code, message = http.StatusBadRequest, apperrors.CodeInvalidInput, apperrors.Message(err)
	case apperrors.IsCode(err, apperrors.CodeNotFound):
		status, code, message = http.StatusNotFound, apperrors.CodeNotFound, apperrors.Message(err)
	case apperrors.IsCode(err, apperrors.CodeConflict):
		status, code, message = http.StatusConflict, apperrors.CodeConflict, apperrors.Message(err)
	case apperrors.IsCode(err, apperrors.CodeLLM):
		status, code, message = http.StatusBadGateway, apperrors.CodeLLM, apperrors.Message(err)
	}
	return NewHTTPError(status, code, message, err)
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}
