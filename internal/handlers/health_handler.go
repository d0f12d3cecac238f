package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
)

// HealthHandler reports service health
type HealthHandler struct {
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(storage interfaces.StorageManager, logger arbor.ILogger) *HealthHandler {
	return &HealthHandler{
		storage: storage,
		logger:  logger,
	}
}

// HealthHandler handles GET /api/health
func (h *HealthHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	taskCount, err := h.storage.TaskStorage().CountTasks(r.Context())
	if err != nil {
		WriteError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": common.GetVersion(),
		"tasks":   taskCount,
	})
}
