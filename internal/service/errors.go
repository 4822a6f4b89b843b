package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/sleepwatch/internal/store"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check for them with errors.Is; the API layer maps them to HTTP
// status codes.
var (
	// ErrReportNotFound indicates that the requested report does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrReportNotFound = errors.New("sleep report not found")

	// ErrNothingToReanalyze indicates the report did not fail or kept no
	// observations to score again.
	// API layer should map this to HTTP 409 Conflict.
	ErrNothingToReanalyze = errors.New("report has no retained session to re-analyze")

	// ErrReanalysisInProgress indicates a re-analysis of the report is already
	// queued or running.
	// API layer should map this to HTTP 409 Conflict.
	ErrReanalysisInProgress = errors.New("re-analysis already in progress")

	// ErrAnalysisUnavailable indicates no scoring credential is configured.
	// API layer should map this to HTTP 503 Service Unavailable.
	ErrAnalysisUnavailable = errors.New("sleep analysis is not configured")

	// ErrAnalysisFailed indicates the scoring service produced no usable scores.
	ErrAnalysisFailed = errors.New("sleep analysis produced no scores")
)

// ReportServiceError wraps errors from the report service with context.
type ReportServiceError struct {
	// Operation is the operation that failed (e.g., "record_session", "reanalyze")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ReportServiceError.
func (e *ReportServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("report service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("report service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ReportServiceError) Unwrap() error {
	return e.Err
}

// NewReportServiceError creates a new ReportServiceError.
// Known sentinel errors are returned directly without wrapping.
func NewReportServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrReportNotFound), store.IsNotFoundError(err):
		return ErrReportNotFound
	case errors.Is(err, ErrNothingToReanalyze):
		return ErrNothingToReanalyze
	case errors.Is(err, ErrReanalysisInProgress):
		return ErrReanalysisInProgress
	case errors.Is(err, ErrAnalysisUnavailable):
		return ErrAnalysisUnavailable
	}

	return &ReportServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
