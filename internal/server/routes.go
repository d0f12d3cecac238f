package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Tasks (scrape orchestration)
	mux.HandleFunc("/api/tasks", s.handleTasksRoute)
	mux.HandleFunc("/api/tasks/", s.app.TaskHandler.GetTaskHandler) // GET /{id}

	// API routes - Webhooks (provider completion callbacks)
	mux.HandleFunc("/api/webhooks/scraper", s.app.WebhookHandler.ScraperWebhookHandler)

	// API routes - Scheduler (job introspection and control)
	mux.HandleFunc("/api/scheduler/jobs", s.app.SchedulerHandler.ListJobsHandler)
	mux.HandleFunc("/api/scheduler/jobs/", s.app.SchedulerHandler.JobActionHandler)

	// API routes - System
	mux.HandleFunc("/api/health", s.app.HealthHandler.HealthHandler)

	return mux
}

// handleTasksRoute dispatches /api/tasks by method
func (s *Server) handleTasksRoute(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.app.TaskHandler.SubmitTaskHandler(w, r)
	case http.MethodGet:
		s.app.TaskHandler.ListTasksHandler(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
