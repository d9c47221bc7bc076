package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/firecad/internal/cad"
	"github.com/nerrad567/firecad/internal/firesafety"
)

// healthCheckTimeout bounds each dependency check in /health.
const healthCheckTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/capabilities", s.handleCapabilities)

		if s.metrics != nil {
			r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
		}

		// Drawing uploads carry their own, larger, body limit.
		r.Route("/analyses", func(r chi.Router) {
			r.Post("/", s.handleCreateAnalysis)
			r.Get("/", s.handleListAnalyses)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetAnalysis)
				r.Delete("/", s.handleDeleteAnalysis)
				r.Get("/devices.xlsx", s.handleAnalysisDevicesXLSX)
			})
		})

		r.Get("/inventory", s.handleInventory)

		r.Group(func(r chi.Router) {
			r.Use(s.bodySizeLimitMiddleware)
			r.Post("/crosscheck", s.handleCrossCheck)
			r.Post("/classify", s.handleClassify)
		})
	})

	return r
}

// handleHealth reports server status and each dependency check.
// Any failing check turns the response into 503 degraded.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	checks := make(map[string]string, len(s.checks))

	for name, checker := range s.checks {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := checker.HealthCheck(ctx)
		cancel()
		if err != nil {
			checks[name] = err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	writeJSON(w, code, map[string]any{
		"status":  status,
		"version": s.version,
		"checks":  checks,
	})
}

// CapabilitiesResponse lists what this build can analyse.
type CapabilitiesResponse struct {
	Formats           []cad.FormatInfo        `json:"formats"`
	DeviceTypes       []firesafety.DeviceType `json:"device_types"`
	CuratedFireLayers []string                `json:"curated_fire_layers"`
	Archive           bool                    `json:"archive"`
}

func (s *Server) handleCapabilities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, CapabilitiesResponse{
		Formats:           s.formats.Formats(),
		DeviceTypes:       firesafety.DeviceTypes(),
		CuratedFireLayers: firesafety.CuratedFireLayers(),
		Archive:           s.archive != nil,
	})
}
