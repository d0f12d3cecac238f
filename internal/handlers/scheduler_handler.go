package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/interfaces"
)

// SchedulerHandler exposes scheduler job introspection and control.
// Enable/disable choices are persisted to kv storage so they survive
// restarts.
type SchedulerHandler struct {
	scheduler interfaces.SchedulerService
	kv        interfaces.KVStorage
	logger    arbor.ILogger
}

// NewSchedulerHandler creates a new scheduler handler
func NewSchedulerHandler(scheduler interfaces.SchedulerService, kv interfaces.KVStorage, logger arbor.ILogger) *SchedulerHandler {
	return &SchedulerHandler{
		scheduler: scheduler,
		kv:        kv,
		logger:    logger,
	}
}

// SchedulerJobDisabledKey is the kv key holding the persisted disabled
// flag for a scheduler job
func SchedulerJobDisabledKey(name string) string {
	return "scheduler.job." + name + ".disabled"
}

// ListJobsHandler handles GET /api/scheduler/jobs
func (h *SchedulerHandler) ListJobsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	WriteJSON(w, http.StatusOK, h.scheduler.GetAllJobStatuses())
}

// JobActionHandler handles GET /api/scheduler/jobs/{name} and
// POST /api/scheduler/jobs/{name}/{trigger|enable|disable}
func (h *SchedulerHandler) JobActionHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/scheduler/jobs/")
	parts := strings.SplitN(rest, "/", 2)

	name := parts[0]
	if name == "" {
		WriteError(w, http.StatusBadRequest, "Missing job name")
		return
	}

	if len(parts) == 1 {
		if !RequireMethod(w, r, "GET") {
			return
		}
		status, err := h.scheduler.GetJobStatus(name)
		if err != nil {
			WriteError(w, http.StatusNotFound, "Job not found")
			return
		}
		WriteJSON(w, http.StatusOK, status)
		return
	}

	if !RequireMethod(w, r, "POST") {
		return
	}

	if _, err := h.scheduler.GetJobStatus(name); err != nil {
		WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	switch parts[1] {
	case "trigger":
		if err := h.scheduler.TriggerJob(name); err != nil {
			WriteError(w, http.StatusConflict, err.Error())
			return
		}
		h.logger.Info().Str("job_name", name).Msg("Job triggered via API")
		WriteSuccess(w, "Job triggered")

	case "enable":
		if err := h.scheduler.EnableJob(name); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		h.persistDisabled(r.Context(), name, false)
		WriteSuccess(w, "Job enabled")

	case "disable":
		if err := h.scheduler.DisableJob(name); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		h.persistDisabled(r.Context(), name, true)
		WriteSuccess(w, "Job disabled")

	default:
		WriteError(w, http.StatusNotFound, "Unknown job action")
	}
}

// persistDisabled stores the disabled flag; a storage error is logged
// but never fails the request, the in-memory state already changed
func (h *SchedulerHandler) persistDisabled(ctx context.Context, name string, disabled bool) {
	if h.kv == nil {
		return
	}
	value := "false"
	if disabled {
		value = "true"
	}
	if err := h.kv.Set(ctx, SchedulerJobDisabledKey(name), value); err != nil {
		h.logger.Warn().Err(err).Str("job_name", name).Msg("Failed to persist job state")
	}
}
