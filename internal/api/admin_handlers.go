package api

import (
	"net/http"

	"agentdesk.io/agentdesk/internal/core"
	"github.com/go-chi/chi/v5"
)

func (h *APIHandler) AdminStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.Stats(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *APIHandler) AdminBotsHandler(w http.ResponseWriter, r *http.Request) {
	bots, err := h.admin.Bots(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bots)
}

func (h *APIHandler) AdminConversationsHandler(w http.ResponseWriter, r *http.Request) {
	conversations, err := h.admin.Conversations(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conversations)
}

func (h *APIHandler) AdminFailuresHandler(w http.ResponseWriter, r *http.Request) {
	failures, err := h.admin.Failures(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, failures)
}

func (h *APIHandler) AdminListUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.ListUsers(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *APIHandler) AdminCreateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req core.NewUser
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.accounts.CreateUser(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *APIHandler) AdminGetUserHandler(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *APIHandler) AdminUpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	actor := userFromContext(r.Context())
	var req core.UserPatch
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	user, err := h.accounts.UpdateUser(r.Context(), actor.ID, chi.URLParam(r, "userID"), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *APIHandler) AdminDeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	actor := userFromContext(r.Context())
	if err := h.accounts.DeleteUser(r.Context(), actor.ID, chi.URLParam(r, "userID")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
