package models

import (
	"fmt"
	"strings"
)

// ErrorKind is the taxonomy of failures surfaced through state.
type ErrorKind string

const (
	ErrorKindMissingData ErrorKind = "MISSING_DATA"
	ErrorKindAnalysis    ErrorKind = "ANALYSIS_ERROR"
	ErrorKindSync        ErrorKind = "SYNC_ERROR"
	ErrorKindUpload      ErrorKind = "UPLOAD_ERROR"
)

// FailureCause refines an error for presentation.
type FailureCause string

const (
	CauseServer  FailureCause = "server"  // backend answered with an error status
	CauseNetwork FailureCause = "network" // no response received
	CauseSetup   FailureCause = "setup"   // request could not be issued
)

// fileNotFoundMarker triggers the re-upload prompt.
const fileNotFoundMarker = "File not found"

// OperationError is the normalized error shape stored in state.
type OperationError struct {
	Message string       `json:"message"`
	Kind    ErrorKind    `json:"kind"`
	Details string       `json:"details,omitempty"`
	Cause   FailureCause `json:"cause,omitempty"`
	Status  int          `json:"status,omitempty"`
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NeedsReupload reports whether the server no longer has the file.
func (e *OperationError) NeedsReupload() bool {
	return strings.Contains(e.Message, fileNotFoundMarker) || strings.Contains(e.Details, fileNotFoundMarker)
}

// UserMessage renders the error for display.
func (e *OperationError) UserMessage() string {
	var msg string
	switch e.Cause {
	case CauseServer:
		msg = fmt.Sprintf("Server error (%d): %s", e.Status, e.Message)
	case CauseNetwork:
		msg = "Network error: no response from the analysis server. Check your connection and try again."
	case CauseSetup:
		msg = "Request setup error: " + e.Message
	default:
		msg = e.Message
	}
	if e.NeedsReupload() {
		msg += " The uploaded file is no longer available on the server; please upload it again."
	}
	return msg
}

// Clone returns a copy of e, or nil.
func (e *OperationError) Clone() *OperationError {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}
