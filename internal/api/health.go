package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hackgods/clinic-booking/internal/app"
)

type HealthHandler struct {
	checks  map[string]app.Pinger
	env     string
	version string
}

func NewHealthHandler(checks map[string]app.Pinger, env, version string) *HealthHandler {
	return &HealthHandler{
		checks:  checks,
		env:     env,
		version: version,
	}
}

type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Env     string `json:"env,omitempty"`
}

type ReadinessResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version,omitempty"`
	Env          string            `json:"env,omitempty"`
	Dependencies map[string]string `json:"dependencies"`
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	resp := LivenessResponse{
		Status:  "ok",
		Version: h.version,
		Env:     h.env,
	}
	writeJSON(w, http.StatusOK, resp)
}

// Readiness pings every dependency of the booking store. Any failure makes
// the service unready since bookings cannot be loaded without it.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	deps := make(map[string]string, len(names))
	status := "ok"

	for _, name := range names {
		checkCtx, checkCancel := context.WithTimeout(ctx, time.Second)
		err := h.checks[name].Ping(checkCtx)
		checkCancel()

		if err != nil {
			log.Warn().Err(err).Str("dependency", name).Msg("readiness check failed")
			deps[name] = "down"
			status = "error"
			continue
		}
		deps[name] = "ok"
	}

	resp := ReadinessResponse{
		Status:       status,
		Version:      h.version,
		Env:          h.env,
		Dependencies: deps,
	}

	httpStatus := http.StatusOK
	if status == "error" {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, resp)
}
