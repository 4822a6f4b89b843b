package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/sleepwatch/internal/api"
	apiMiddleware "github.com/phrazzld/sleepwatch/internal/api/middleware"
	"github.com/phrazzld/sleepwatch/internal/service"
)

// newRouter creates the HTTP router with all routes and middleware.
func newRouter(
	logger *slog.Logger,
	controller api.TrackingController,
	reports service.ReportService,
	history api.EventHistory,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(logger))

	trackingHandler := api.NewTrackingHandler(controller, logger)
	reportHandler := api.NewReportHandler(reports, logger)
	eventsHandler := api.NewEventsHandler(history)

	r.Route("/api", func(r chi.Router) {
		// Tracking and configuration
		r.Get("/status", trackingHandler.GetStatus)
		r.Put("/window", trackingHandler.UpdateWindow)
		r.Put("/tracking", trackingHandler.UpdateTracking)
		r.Post("/tracking/start", trackingHandler.StartTracking)
		r.Post("/tracking/stop", trackingHandler.StopTracking)
		r.Put("/device", trackingHandler.UpdateDevice)

		// Reports
		r.Get("/reports", reportHandler.ListReports)
		r.Get("/reports/latest", reportHandler.LatestReport)
		r.Get("/reports/{id}", reportHandler.GetReport)
		r.Post("/reports/{id}/reanalyze", reportHandler.Reanalyze)

		r.Get("/events", eventsHandler.ListEvents)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
