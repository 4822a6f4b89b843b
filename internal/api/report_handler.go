package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/sleepwatch/internal/api/shared"
	"github.com/phrazzld/sleepwatch/internal/platform/sqlite"
	"github.com/phrazzld/sleepwatch/internal/service"
)

// Pagination defaults for report listings
const (
	DefaultReportLimit = 20
)

// ReportHandler serves sleep reports.
type ReportHandler struct {
	reports service.ReportService
	logger  *slog.Logger
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reports service.ReportService, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{
		reports: reports,
		logger:  logger.With("component", "report_handler"),
	}
}

// ListReports handles GET /api/reports?limit=&offset=.
func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	limit, err := getQueryInt(r, "limit", DefaultReportLimit, 1, sqlite.MaxListLimit)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	offset, err := getQueryInt(r, "offset", 0, 0, 1<<30)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	reports, err := h.reports.ListReports(r.Context(), limit, offset)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list reports")
		return
	}

	resp := ReportListResponse{
		Reports: make([]ReportResponse, 0, len(reports)),
		Limit:   limit,
		Offset:  offset,
	}
	for _, report := range reports {
		resp.Reports = append(resp.Reports, NewReportResponse(report))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// LatestReport handles GET /api/reports/latest.
func (h *ReportHandler) LatestReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.reports.LatestReport(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to retrieve report")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, NewReportResponse(report))
}

// GetReport handles GET /api/reports/{id}.
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	report, err := h.reports.GetReport(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to retrieve report")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, NewReportResponse(report))
}

// Reanalyze handles POST /api/reports/{id}/reanalyze. The work is queued
// and the response is 202 Accepted.
func (h *ReportHandler) Reanalyze(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.reports.ScheduleReanalysis(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "Failed to schedule re-analysis")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusAccepted, ReanalyzeResponse{
		ReportID: id.String(),
		Status:   "queued",
	})
}
