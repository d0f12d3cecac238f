package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
	"github.com/ternarybob/venari/internal/services/scraper"
)

// TaskHandler handles HTTP requests for scrape tasks
type TaskHandler struct {
	scraperService *scraper.Service
	taskStorage    interfaces.TaskStorage
	logger         arbor.ILogger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(scraperService *scraper.Service, taskStorage interfaces.TaskStorage, logger arbor.ILogger) *TaskHandler {
	return &TaskHandler{
		scraperService: scraperService,
		taskStorage:    taskStorage,
		logger:         logger,
	}
}

// submitTaskRequest is the POST /api/tasks body
type submitTaskRequest struct {
	Owner    string `json:"owner"`
	Query    string `json:"query"`
	Location string `json:"location"`
	Limit    int    `json:"limit"`
}

// SubmitTaskHandler handles POST /api/tasks
func (h *TaskHandler) SubmitTaskHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req submitTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		WriteError(w, http.StatusBadRequest, "query is required")
		return
	}

	params := models.SearchParams{
		Query:    req.Query,
		Location: req.Location,
		Limit:    req.Limit,
	}

	task, err := h.scraperService.Submit(r.Context(), req.Owner, params)
	if err != nil {
		h.logger.Warn().Err(err).Str("query", req.Query).Msg("Task submission failed")
		// The failed task row is still returned so the caller can see
		// the captured error
		WriteJSON(w, http.StatusBadGateway, task)
		return
	}

	WriteJSON(w, http.StatusCreated, task)
}

// ListTasksHandler handles GET /api/tasks
func (h *TaskHandler) ListTasksHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	tasks, err := h.taskStorage.ListTasks(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list tasks")
		WriteError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"tasks": tasks,
		"count": len(tasks),
	})
}

// GetTaskHandler handles GET /api/tasks/{id}
func (h *TaskHandler) GetTaskHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/tasks/")
	if id == "" || strings.Contains(id, "/") {
		WriteError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	task, err := h.taskStorage.GetTask(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusNotFound, "task not found")
		return
	}

	WriteJSON(w, http.StatusOK, task)
}
