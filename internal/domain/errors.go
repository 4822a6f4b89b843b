package domain

import (
	"errors"
	"fmt"
)

// ErrValidation marks any entity that fails its invariants. The more
// specific errors below wrap it.
var ErrValidation = errors.New("validation failed")

var (
	ErrInvalidID           = errors.New("invalid ID")
	ErrInvalidReportStatus = fmt.Errorf("%w: unknown report status", ErrValidation)
	ErrInvalidTimeRange    = fmt.Errorf("%w: session ends before it starts", ErrValidation)
	ErrInvalidScore        = fmt.Errorf("%w: quality score outside 0-100", ErrValidation)
)
