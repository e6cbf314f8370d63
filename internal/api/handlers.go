package api

import (
	"context"
	"net/http"
	"time"

	"agentdesk.io/agentdesk/internal/core"
	"agentdesk.io/agentdesk/internal/store"
	"go.uber.org/zap"
)

// MessageSender delivers a reply to a Telegram chat.
type MessageSender interface {
	SendMessage(ctx context.Context, token string, chatID int64, text string) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type APIHandler struct {
	pipeline      *core.Pipeline
	accounts      *core.AccountService
	agents        *core.AgentService
	knowledge     *core.KnowledgeService
	conversations *core.ConversationService
	admin         *core.AdminService
	telegram      MessageSender
	failures      core.FailureRecorder
	db            Pinger
	logger        *zap.Logger

	maxUploadBytes int64
	sessionTTL     time.Duration
	secureCookies  bool
}

type Options struct {
	Pipeline      *core.Pipeline
	Accounts      *core.AccountService
	Agents        *core.AgentService
	Knowledge     *core.KnowledgeService
	Conversations *core.ConversationService
	Admin         *core.AdminService
	Telegram      MessageSender
	Failures      core.FailureRecorder
	DB            Pinger
	Logger        *zap.Logger

	MaxUploadBytes int64
	SessionTTL     time.Duration
	SecureCookies  bool
}

func NewAPIHandler(o Options) *APIHandler {
	return &APIHandler{
		pipeline:       o.Pipeline,
		accounts:       o.Accounts,
		agents:         o.Agents,
		knowledge:      o.Knowledge,
		conversations:  o.Conversations,
		admin:          o.Admin,
		telegram:       o.Telegram,
		failures:       o.Failures,
		db:             o.DB,
		logger:         o.Logger,
		maxUploadBytes: o.MaxUploadBytes,
		sessionTTL:     o.SessionTTL,
		secureCookies:  o.SecureCookies,
	}
}

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User  *store.User `json:"user"`
	Token string      `json:"token"`
}

func (h *APIHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *APIHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, token, err := h.accounts.Signup(r.Context(), core.NewUser{Email: req.Email, Password: req.Password, Name: req.Name})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusCreated, authResponse{User: user, Token: token})
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, token, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if statusFor(err) == http.StatusUnauthorized {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.writeServiceError(w, r, err)
		return
	}

	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, authResponse{User: user, Token: token})
}

func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userFromContext(r.Context()))
}
