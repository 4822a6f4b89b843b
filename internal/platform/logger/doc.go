// Package logger builds the service's JSON slog logger and carries
// request-scoped loggers through contexts.
package logger
