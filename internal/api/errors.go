// errors.go - Structured error handling for API responses
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// APIError is the JSON error body every endpoint returns: {message, error, details?}.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes shared with the client's error taxonomy.
const (
	CodeMissingData = "MISSING_DATA"
	CodeSyncError   = "SYNC_ERROR"
	CodeUploadError = "UPLOAD_ERROR"
	CodeBadRequest  = "BAD_REQUEST"
	CodeNotFound    = "NOT_FOUND"
	CodeInternal    = "INTERNAL_ERROR"
)

// Error constructors for consistent error handling

func newError(status int, code, message string, cause error) *APIError {
	err := &APIError{Status: status, Code: code, Message: message}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewMissingDataError creates a 400 error for absent request fields
func NewMissingDataError(message string) *APIError {
	return newError(http.StatusBadRequest, CodeMissingData, message, nil)
}

// NewSyncError creates a 500 error for a failed sync write
func NewSyncError(cause error) *APIError {
	return newError(http.StatusInternalServerError, CodeSyncError, "Failed to sync data", cause)
}

// NewUploadError creates a 500 error for a failed upload write
func NewUploadError(cause error) *APIError {
	return newError(http.StatusInternalServerError, CodeUploadError, "Failed to store uploaded file", cause)
}

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	return newError(http.StatusBadRequest, CodeBadRequest, message, cause)
}

// NewNotFoundError creates a 404 Not Found error. The message keeps the
// "File not found" wording clients key their re-upload prompt on.
func NewNotFoundError(resource string, id string) *APIError {
	return newError(http.StatusNotFound, CodeNotFound, fmt.Sprintf("%s not found: %s", resource, id), nil)
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	return newError(http.StatusInternalServerError, CodeInternal, message, cause)
}

// NewErrorHandler returns an Echo error handler that renders every error as
// an APIError. Details of unexpected errors are included only when showDetails is set.
// Usage: e.HTTPErrorHandler = api.NewErrorHandler(cfg.Advanced.ShowErrorDetails)
func NewErrorHandler(showDetails bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var (
			apiErr  *APIError
			httpErr *echo.HTTPError
		)
		switch {
		case errors.As(err, &apiErr):
		case errors.As(err, &httpErr):
			apiErr = &APIError{
				Status:  httpErr.Code,
				Code:    "HTTP_ERROR",
				Message: fmt.Sprintf("%v", httpErr.Message),
			}
		default:
			apiErr = &APIError{
				Status:  http.StatusInternalServerError,
				Code:    "UNKNOWN_ERROR",
				Message: "An unexpected error occurred",
			}
			if showDetails {
				apiErr.Details = err.Error()
			}
		}

		if c.Request().Method == http.MethodHead {
			c.NoContent(apiErr.Status)
			return
		}
		c.JSON(apiErr.Status, apiErr)
	}
}
