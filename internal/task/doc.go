// Package task runs background work off the caller's goroutine.
// Finished sleep sessions are analyzed here so the tracking loop never waits
// on the scoring service and a new session can start while the previous one
// is still being scored.
package task
