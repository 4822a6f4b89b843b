package api

import (
	"net/http"

	"github.com/phrazzld/sleepwatch/internal/api/shared"
	"github.com/phrazzld/sleepwatch/internal/events"
)

// Event listing bounds
const (
	DefaultEventLimit = 50
	MaxEventLimit     = 500
)

// EventHistory exposes recently emitted events.
type EventHistory interface {
	Recent(limit int, eventType string) []*events.Event
}

// EventsHandler serves the recent event history.
type EventsHandler struct {
	history EventHistory
}

// NewEventsHandler creates a new EventsHandler
func NewEventsHandler(history EventHistory) *EventsHandler {
	return &EventsHandler{history: history}
}

// ListEvents handles GET /api/events?limit=&type=.
func (h *EventsHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit, err := getQueryInt(r, "limit", DefaultEventLimit, 1, MaxEventLimit)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	recent := h.history.Recent(limit, r.URL.Query().Get("type"))
	if recent == nil {
		recent = []*events.Event{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, EventListResponse{Events: recent})
}
