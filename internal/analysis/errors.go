package analysis

import "errors"

// Common errors returned by the analysis package
var (
	// ErrEmptyResponse is returned when the scorer answers with no text
	ErrEmptyResponse = errors.New("scorer returned an empty response")

	// ErrNoValidScores is returned when a response contains no usable time slot
	ErrNoValidScores = errors.New("response contained no valid quality scores")

	// ErrInvalidConfig is returned when the analyzer or a scorer is misconfigured
	ErrInvalidConfig = errors.New("invalid analysis configuration")

	// ErrTransientFailure is returned for temporary errors that might resolve on retry
	ErrTransientFailure = errors.New("transient error during sleep analysis")

	// ErrInvalidResponse is returned when the scorer response cannot be used
	ErrInvalidResponse = errors.New("invalid response from scorer")

	// ErrContentBlocked is returned when the model refuses the request on safety grounds
	ErrContentBlocked = errors.New("content blocked by scorer safety filters")
)
