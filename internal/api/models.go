package api

import (
	"fmt"

	"github.com/phrazzld/sleepwatch/internal/domain"
	"github.com/phrazzld/sleepwatch/internal/events"
)

// WindowRequest replaces the nightly bed and wake times.
type WindowRequest struct {
	BedTime  string `json:"bed_time"  validate:"required,datetime=15:04"`
	WakeTime string `json:"wake_time" validate:"required,datetime=15:04"`
}

// TrackingRequest turns tracking on or off.
type TrackingRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// DeviceRequest reports device condition changes. Absent fields are left
// unchanged.
type DeviceRequest struct {
	Charging *bool `json:"charging,omitempty"`
	InUse    *bool `json:"in_use,omitempty"`
}

// Validate requires at least one field.
func (r DeviceRequest) Validate() error {
	if r.Charging == nil && r.InUse == nil {
		return fmt.Errorf("%w: charging or in_use is required", domain.ErrValidation)
	}
	return nil
}

// ReportResponse is a sleep report as returned by the API. Retained
// observations are summarized by count only.
type ReportResponse struct {
	domain.SleepReport
	AverageScore         float64 `json:"average_score"`
	RetainedObservations int     `json:"retained_observations"`
	Reanalyzable         bool    `json:"reanalyzable"`
}

// NewReportResponse builds the API view of report.
func NewReportResponse(report *domain.SleepReport) ReportResponse {
	resp := ReportResponse{
		SleepReport:          *report,
		AverageScore:         report.Scores.Average(),
		RetainedObservations: len(report.Observations),
		Reanalyzable:         report.Reanalyzable(),
	}
	resp.Observations = nil
	return resp
}

// ReportListResponse is one page of reports, newest first.
type ReportListResponse struct {
	Reports []ReportResponse `json:"reports"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

// ReanalyzeResponse acknowledges a queued re-analysis.
type ReanalyzeResponse struct {
	ReportID string `json:"report_id"`
	Status   string `json:"status"`
}

// EventListResponse lists recent events, newest first.
type EventListResponse struct {
	Events []*events.Event `json:"events"`
}
