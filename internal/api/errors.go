package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/sleepwatch/internal/api/shared"
	"github.com/phrazzld/sleepwatch/internal/domain"
	"github.com/phrazzld/sleepwatch/internal/schedule"
	"github.com/phrazzld/sleepwatch/internal/service"
	"github.com/phrazzld/sleepwatch/internal/store"
	"github.com/phrazzld/sleepwatch/internal/task"
	"github.com/phrazzld/sleepwatch/internal/tracking"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, service.ErrReportNotFound),
		store.IsNotFoundError(err):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, service.ErrNothingToReanalyze),
		errors.Is(err, service.ErrReanalysisInProgress),
		errors.Is(err, tracking.ErrTrackingDisabled):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, schedule.ErrInvalidTimeOfDay),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Temporarily unavailable
	case errors.Is(err, service.ErrAnalysisUnavailable),
		errors.Is(err, tracking.ErrNotRunning),
		errors.Is(err, task.ErrQueueFull),
		errors.Is(err, task.ErrQueueClosed),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, service.ErrReportNotFound),
		errors.Is(err, store.ErrReportNotFound):
		return "Report not found"

	case errors.Is(err, service.ErrNothingToReanalyze):
		return "Report has no retained session to re-analyze"

	case errors.Is(err, service.ErrReanalysisInProgress):
		return "Re-analysis already in progress"

	case errors.Is(err, service.ErrAnalysisUnavailable):
		return "Sleep analysis is not configured"

	case errors.Is(err, tracking.ErrTrackingDisabled):
		return "Tracking is disabled"

	case errors.Is(err, tracking.ErrNotRunning):
		return "Tracking controller is not running"

	case errors.Is(err, task.ErrQueueFull),
		errors.Is(err, task.ErrQueueClosed):
		return "Analysis queue unavailable, try again later"

	case errors.Is(err, schedule.ErrInvalidTimeOfDay):
		return "Invalid time of day, expected HH:MM"

	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID format"

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"

	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError maps err to a status code and safe message, logs the
// redacted details and writes the error response. fallbackMessage replaces
// the generic message for unmapped errors when non-empty.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallbackMessage string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallbackMessage != "" {
		message = fallbackMessage
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}

// HandleValidationError writes a 400 response describing the first failed
// field without echoing the submitted value.
func HandleValidationError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
	}
	if errors.Is(err, domain.ErrValidation) {
		return "Invalid request data"
	}
	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "datetime":
		return "expected HH:MM"
	case "min", "gte":
		return "too small"
	case "max", "lte":
		return "too large"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
