package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/sleepwatch/internal/domain"
)

// ReportStore defines the interface for sleep report persistence.
type ReportStore interface {
	// Save inserts the report or replaces the stored report with the same ID,
	// including its per-slot scores.
	// Returns validation errors from the domain report if data is invalid.
	Save(ctx context.Context, report *domain.SleepReport) error

	// GetByID retrieves a report by its unique ID.
	// Returns ErrReportNotFound if the report does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.SleepReport, error)

	// Latest returns the report of the most recently ended session.
	// Returns ErrReportNotFound if the store is empty.
	Latest(ctx context.Context) (*domain.SleepReport, error)

	// List returns reports ordered from the most recently ended session,
	// paginated by limit and offset. Returns an empty slice when none match.
	List(ctx context.Context, limit, offset int) ([]*domain.SleepReport, error)
}
