package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session is the drained log of one window occurrence, handed to analysis.
type Session struct {
	StartedAt    time.Time           `json:"started_at"`
	EndedAt      time.Time           `json:"ended_at"`
	Observations []SensorObservation `json:"observations"`
}

// ReportStatus represents the outcome of analyzing a session
type ReportStatus string

// Possible report status values
const (
	// ReportStatusCompleted means the scoring service returned usable scores.
	ReportStatusCompleted ReportStatus = "completed"

	// ReportStatusFailed means analysis was attempted or impossible and
	// produced no scores.
	ReportStatusFailed ReportStatus = "failed"

	// ReportStatusSkipped means the session held no observations.
	ReportStatusSkipped ReportStatus = "skipped"
)

// SleepReport is the persisted result of one window occurrence.
// Observations are only kept for failed reports so they can be re-analyzed.
type SleepReport struct {
	ID               uuid.UUID           `json:"id"`
	StartedAt        time.Time           `json:"started_at"`
	EndedAt          time.Time           `json:"ended_at"`
	ObservationCount int                 `json:"observation_count"`
	Status           ReportStatus        `json:"status"`
	Scores           QualityScoreMap     `json:"scores,omitempty"`
	Observations     []SensorObservation `json:"observations,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// NewSleepReport builds a report from a finished session and its scores.
// A nil scores map marks the report failed, unless the session was empty.
// When retain is true a failed report keeps the session's observations.
func NewSleepReport(session Session, scores QualityScoreMap, retain bool) (*SleepReport, error) {
	now := time.Now().UTC()
	report := &SleepReport{
		ID:               uuid.New(),
		StartedAt:        session.StartedAt,
		EndedAt:          session.EndedAt,
		ObservationCount: len(session.Observations),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	switch {
	case len(session.Observations) == 0:
		report.Status = ReportStatusSkipped
	case scores == nil:
		report.Status = ReportStatusFailed
		if retain {
			report.Observations = session.Observations
		}
	default:
		report.Status = ReportStatusCompleted
		report.Scores = scores
	}

	if err := report.Validate(); err != nil {
		return nil, err
	}
	return report, nil
}

// Complete records scores from a successful re-analysis and drops the
// retained observations.
func (r *SleepReport) Complete(scores QualityScoreMap) error {
	if err := scores.Validate(); err != nil {
		return err
	}
	r.Status = ReportStatusCompleted
	r.Scores = scores
	r.Observations = nil
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// Reanalyzable reports whether the report still carries observations that
// could be scored again.
func (r *SleepReport) Reanalyzable() bool {
	return r.Status == ReportStatusFailed && len(r.Observations) > 0
}

// Session rebuilds the session a failed report was created from.
func (r *SleepReport) Session() Session {
	return Session{
		StartedAt:    r.StartedAt,
		EndedAt:      r.EndedAt,
		Observations: r.Observations,
	}
}

// Validate checks if the SleepReport has valid data.
func (r *SleepReport) Validate() error {
	if r.ID == uuid.Nil {
		return fmt.Errorf("%w: report ID cannot be empty", ErrInvalidID)
	}
	if !isValidReportStatus(r.Status) {
		return fmt.Errorf("%w: %q", ErrInvalidReportStatus, r.Status)
	}
	if r.EndedAt.Before(r.StartedAt) {
		return ErrInvalidTimeRange
	}
	if r.ObservationCount < 0 {
		return fmt.Errorf("%w: negative observation count", ErrValidation)
	}
	return r.Scores.Validate()
}

func isValidReportStatus(status ReportStatus) bool {
	switch status {
	case ReportStatusCompleted, ReportStatusFailed, ReportStatusSkipped:
		return true
	}
	return false
}
