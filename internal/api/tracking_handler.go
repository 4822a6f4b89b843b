package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/phrazzld/sleepwatch/internal/api/shared"
	"github.com/phrazzld/sleepwatch/internal/platform/logger"
	"github.com/phrazzld/sleepwatch/internal/tracking"
)

// TrackingController is the part of the controller the API drives.
type TrackingController interface {
	Status(ctx context.Context) (tracking.Status, error)
	SetWindow(ctx context.Context, bedTime, wakeTime string) error
	SetEnabled(ctx context.Context, enabled bool) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	SetCharging(charging bool)
	SetInUse(inUse bool)
}

// TrackingHandler handles configuration, device-state and manual tracking
// requests.
type TrackingHandler struct {
	controller TrackingController
	logger     *slog.Logger
}

// NewTrackingHandler creates a new TrackingHandler
func NewTrackingHandler(controller TrackingController, logger *slog.Logger) *TrackingHandler {
	return &TrackingHandler{
		controller: controller,
		logger:     logger.With("component", "tracking_handler"),
	}
}

// GetStatus handles GET /api/status.
func (h *TrackingHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	h.respondWithStatus(w, r)
}

// UpdateWindow handles PUT /api/window.
func (h *TrackingHandler) UpdateWindow(w http.ResponseWriter, r *http.Request) {
	var req WindowRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleValidationError(w, r, err)
		return
	}

	if err := h.controller.SetWindow(r.Context(), req.BedTime, req.WakeTime); err != nil {
		HandleAPIError(w, r, err, "Failed to update sleep window")
		return
	}

	h.log(r).Info("sleep window updated via API", "bed_time", req.BedTime, "wake_time", req.WakeTime)
	h.respondWithStatus(w, r)
}

// UpdateTracking handles PUT /api/tracking.
func (h *TrackingHandler) UpdateTracking(w http.ResponseWriter, r *http.Request) {
	var req TrackingRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleValidationError(w, r, err)
		return
	}

	if err := h.controller.SetEnabled(r.Context(), *req.Enabled); err != nil {
		HandleAPIError(w, r, err, "Failed to update tracking")
		return
	}
	h.respondWithStatus(w, r)
}

// StartTracking handles POST /api/tracking/start.
func (h *TrackingHandler) StartTracking(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.Start(r.Context()); err != nil {
		HandleAPIError(w, r, err, "Failed to start tracking")
		return
	}
	h.respondWithStatus(w, r)
}

// StopTracking handles POST /api/tracking/stop.
func (h *TrackingHandler) StopTracking(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.Stop(r.Context()); err != nil {
		HandleAPIError(w, r, err, "Failed to stop tracking")
		return
	}
	h.respondWithStatus(w, r)
}

// UpdateDevice handles PUT /api/device.
func (h *TrackingHandler) UpdateDevice(w http.ResponseWriter, r *http.Request) {
	var req DeviceRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleValidationError(w, r, err)
		return
	}

	if req.Charging != nil {
		h.controller.SetCharging(*req.Charging)
	}
	if req.InUse != nil {
		h.controller.SetInUse(*req.InUse)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TrackingHandler) respondWithStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.controller.Status(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to read tracking status")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, status)
}

func (h *TrackingHandler) log(r *http.Request) *slog.Logger {
	return logger.FromContextOrDefault(r.Context(), h.logger)
}
