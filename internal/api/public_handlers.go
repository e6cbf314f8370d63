package api

import (
	"context"
	"net/http"
	"time"

	"agentdesk.io/agentdesk/internal/store"
	"agentdesk.io/agentdesk/internal/web"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// PublicBot is the branding subset of an agent that embeds may read.
type PublicBot struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	PrimaryColor string `json:"primaryColor"`
}

func (h *APIHandler) PublicBotHandler(w http.ResponseWriter, r *http.Request) {
	agent, err := h.pipeline.ResolveAgent(r.Context(), chi.URLParam(r, "botID"), store.ChannelWidget)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PublicBot{ID: agent.ID, Name: agent.Name, PrimaryColor: agent.PrimaryColor})
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadyHandler reports whether the database answers.
func (h *APIHandler) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		h.logger.Warn("readiness check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *APIHandler) WidgetLoaderHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Write(web.WidgetLoader)
}
