package api

import (
	"errors"
	"io"
	"net/http"

	"agentdesk.io/agentdesk/internal/core"
	"agentdesk.io/agentdesk/internal/store"
	"github.com/go-chi/chi/v5"
)

func (h *APIHandler) ListBotsHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	bots, err := h.agents.List(r.Context(), user.ID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bots)
}

func (h *APIHandler) CreateBotHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	var req core.AgentInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	bot, err := h.agents.Create(r.Context(), user.ID, req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, bot)
}

type BotDetailsResponse struct {
	*store.Agent
	WebhookURL string `json:"webhookUrl,omitempty"`
}

func (h *APIHandler) GetBotHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	bot, err := h.agents.Get(r.Context(), user.ID, chi.URLParam(r, "botID"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BotDetailsResponse{Agent: bot, WebhookURL: h.agents.WebhookURL(bot.ID)})
}

func (h *APIHandler) UpdateBotHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	var req core.AgentInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	bot, err := h.agents.Update(r.Context(), user.ID, chi.URLParam(r, "botID"), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bot)
}

func (h *APIHandler) DeleteBotHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	if err := h.agents.Delete(r.Context(), user.ID, chi.URLParam(r, "botID")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) ListKnowledgeHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	snippets, err := h.knowledge.List(r.Context(), user.ID, chi.URLParam(r, "botID"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snippets)
}

func (h *APIHandler) AddKnowledgeHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	var req core.SnippetInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	snippet, err := h.knowledge.Add(r.Context(), user.ID, chi.URLParam(r, "botID"), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, snippet)
}

func (h *APIHandler) UpdateKnowledgeHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	var req core.SnippetInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	snippet, err := h.knowledge.Update(r.Context(), user.ID, chi.URLParam(r, "botID"), chi.URLParam(r, "snippetID"), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snippet)
}

func (h *APIHandler) DeleteKnowledgeHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	if err := h.knowledge.Delete(r.Context(), user.ID, chi.URLParam(r, "botID"), chi.URLParam(r, "snippetID")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadDocumentHandler accepts a multipart form with a "file" part and an
// optional "title" field.
func (h *APIHandler) UploadDocumentHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+(1<<20))

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "A file is required")
		return
	}
	defer file.Close()

	if header.Size > h.maxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read file")
		return
	}

	snippet, err := h.knowledge.Upload(r.Context(), user.ID, chi.URLParam(r, "botID"), header.Filename, r.FormValue("title"), data)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, snippet)
}

func (h *APIHandler) ListConversationsHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	conversations, err := h.conversations.List(r.Context(), user.ID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conversations)
}

func (h *APIHandler) GetConversationHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	detail, err := h.conversations.Get(r.Context(), user.ID, chi.URLParam(r, "conversationID"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}
