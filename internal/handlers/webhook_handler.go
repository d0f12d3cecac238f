package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/services/scraper"
)

// WebhookHandler receives provider completion callbacks
type WebhookHandler struct {
	scraperService *scraper.Service
	config         *common.ScraperConfig
	logger         arbor.ILogger
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(scraperService *scraper.Service, config *common.ScraperConfig, logger arbor.ILogger) *WebhookHandler {
	return &WebhookHandler{
		scraperService: scraperService,
		config:         config,
		logger:         logger,
	}
}

// ScraperWebhookHandler handles POST /api/webhooks/scraper.
// When a shared secret is configured, requests without the matching
// header are rejected before the body is read.
func (h *WebhookHandler) ScraperWebhookHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	if h.config.WebhookSecret != "" {
		provided := r.Header.Get("X-Webhook-Secret")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(h.config.WebhookSecret)) != 1 {
			h.logger.Warn().
				Str("remote", r.RemoteAddr).
				Msg("Webhook rejected: bad secret")
			WriteError(w, http.StatusUnauthorized, "invalid webhook secret")
			return
		}
	}

	var payload interfaces.WebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid webhook payload")
		return
	}
	if payload.RequestID == "" {
		WriteError(w, http.StatusBadRequest, "request_id is required")
		return
	}

	if err := h.scraperService.HandleWebhook(r.Context(), &payload); err != nil {
		h.logger.Error().
			Err(err).
			Str("request_id", payload.RequestID).
			Msg("Webhook processing failed")
		WriteError(w, http.StatusInternalServerError, "webhook processing failed")
		return
	}

	WriteSuccess(w, "webhook accepted")
}
