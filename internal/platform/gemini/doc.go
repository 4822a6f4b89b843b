// Package gemini provides an implementation of the analysis.Scorer interface
// that uses Google's Gemini API to score a night of motion observations.
//
// This package is an infrastructure adapter in the hexagonal architecture,
// connecting the sleep analysis core to Google's external Gemini AI service
// without exposing the details of the external service to the core
// application.
//
// Key components:
//
// 1. Scorer:
//   - Implements the analysis.Scorer interface
//   - Requests a JSON response constrained by a typed response schema
//   - Returns the raw response text for the analysis package to parse
//
// 2. Error Handling:
//   - Implements retry logic with exponential backoff for transient errors
//   - Categorizes API errors into transient and permanent failures
//   - Handles content filtering and safety measures
//
// The package depends on Google's google.golang.org/genai client library for
// communicating with the Gemini API.
package gemini
