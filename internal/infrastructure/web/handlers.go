package web

import (
	"encoding/json"
	"net/http"

	"housingRadar/internal/application"

	"github.com/rs/zerolog/log"
)

type Handlers struct {
	service *application.BriefingService
}

func NewHandlers(service *application.BriefingService) *Handlers {
	return &Handlers{service: service}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// Dashboard renders the HTML page with news cards and the strategy table.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	briefing, err := h.service.Briefing(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to build briefing")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusBadGateway)
		renderErrorPage(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTmpl.Execute(w, briefing); err != nil {
		log.Error().Err(err).Msg("failed to render dashboard")
	}
}

// GetBriefing returns the briefing as JSON.
func (h *Handlers) GetBriefing(w http.ResponseWriter, r *http.Request) {
	briefing, err := h.service.Briefing(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to build briefing")
		respondError(w, http.StatusBadGateway, "failed to build briefing")
		return
	}

	respondJSON(w, http.StatusOK, briefing)
}

// Refresh clears the caches and rebuilds — the 強制刷新 button.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	briefing, err := h.service.Refresh(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to refresh briefing")
		respondError(w, http.StatusBadGateway, "failed to refresh briefing")
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"status": "refreshed",
		"cards":  len(briefing.Cards),
	})
}

func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
