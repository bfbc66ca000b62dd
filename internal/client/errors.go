package client

import (
	"errors"
	"fmt"

	"github.com/kmmelissat/analisis-al-instante-sub001/internal/models"
)

// ErrMissingData reports a request issued without its required fields.
var ErrMissingData = errors.New("required data is missing")

// ResponseError is returned when the backend answers with a non-2xx status.
type ResponseError struct {
	Op      string
	Status  int
	Code    string // the "error" field of the body, e.g. MISSING_DATA
	Message string
	Details string
}

func (e *ResponseError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: server returned %d (%s): %s", e.Op, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: server returned %d: %s", e.Op, e.Status, e.Message)
}

// NetworkError is returned when no response was received.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: no response: %v", e.Op, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// SetupError is returned when the request could not be built or encoded.
type SetupError struct {
	Op  string
	Err error
}

func (e *SetupError) Error() string { return fmt.Sprintf("%s: request setup failed: %v", e.Op, e.Err) }
func (e *SetupError) Unwrap() error { return e.Err }

// ClassifyAnalysisError normalizes a failure of the analysis request.
func ClassifyAnalysisError(err error) *models.OperationError {
	return Classify(err, models.ErrorKindAnalysis)
}

// ClassifySyncError normalizes a failure of the sync-storage request.
func ClassifySyncError(err error) *models.OperationError {
	return Classify(err, models.ErrorKindSync)
}

// ClassifyUploadError normalizes a failure of the upload request.
func ClassifyUploadError(err error) *models.OperationError {
	return Classify(err, models.ErrorKindUpload)
}

// Classify maps err onto the error taxonomy. Missing-data failures keep their
// own kind; everything else gets fallback.
func Classify(err error, fallback models.ErrorKind) *models.OperationError {
	if err == nil {
		return nil
	}

	var opErr *models.OperationError
	if errors.As(err, &opErr) {
		return opErr.Clone()
	}

	if errors.Is(err, ErrMissingData) {
		return &models.OperationError{
			Message: err.Error(),
			Kind:    models.ErrorKindMissingData,
			Cause:   models.CauseSetup,
		}
	}

	var respErr *ResponseError
	if errors.As(err, &respErr) {
		kind := fallback
		if respErr.Code == string(models.ErrorKindMissingData) {
			kind = models.ErrorKindMissingData
		}
		msg := respErr.Message
		if msg == "" {
			msg = fmt.Sprintf("request failed with status %d", respErr.Status)
		}
		return &models.OperationError{
			Message: msg,
			Kind:    kind,
			Details: respErr.Details,
			Cause:   models.CauseServer,
			Status:  respErr.Status,
		}
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return &models.OperationError{
			Message: "no response received from server",
			Kind:    fallback,
			Details: netErr.Err.Error(),
			Cause:   models.CauseNetwork,
		}
	}

	var setupErr *SetupError
	if errors.As(err, &setupErr) {
		return &models.OperationError{
			Message: setupErr.Err.Error(),
			Kind:    fallback,
			Cause:   models.CauseSetup,
		}
	}

	return &models.OperationError{
		Message: err.Error(),
		Kind:    fallback,
		Cause:   models.CauseSetup,
	}
}
