// Package api exposes the tracking controller and sleep reports over HTTP.
//
// Handlers decode and validate requests with the shared helpers, call into
// the controller or the report service, and map their sentinel errors to
// status codes through HandleAPIError so internal details never reach the
// client.
package api
