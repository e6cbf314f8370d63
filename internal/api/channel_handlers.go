package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"agentdesk.io/agentdesk/internal/core"
	"agentdesk.io/agentdesk/internal/store"
	"agentdesk.io/agentdesk/internal/telegram"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ChatRequest struct {
	BotID    string             `json:"botId"`
	ChatID   string             `json:"chatId"`
	Messages []core.ChatMessage `json:"messages"`
}

// ChatHandler serves the embedded widget. The reply is written as a single
// data-stream text frame: 0:<json string>\n.
func (h *APIHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	token := req.ChatID
	if token == "" {
		token = uuid.NewString()
	}
	w.Header().Set("X-Chat-Id", token)

	reply, err := h.pipeline.Run(r.Context(), req.BotID, core.Inbound{
		Channel:      store.ChannelWidget,
		SessionToken: token,
		Messages:     req.Messages,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := writeTextFrame(w, reply.Message.Content); err != nil {
		h.logger.Warn("failed to write chat frame", zap.Error(err))
		return
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func writeTextFrame(w http.ResponseWriter, text string) error {
	if _, err := fmt.Fprint(w, "0:"); err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(text)
}

func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprint(w, text)
}

// TelegramWebhookHandler processes one Bot API update. Once the agent is
// resolved it always answers 200 OK so Telegram does not redeliver;
// processing failures go to the failure recorder instead.
func (h *APIHandler) TelegramWebhookHandler(w http.ResponseWriter, r *http.Request) {
	botID := r.URL.Query().Get("botId")
	if botID == "" {
		writeText(w, http.StatusBadRequest, "Missing botId")
		return
	}

	ctx := r.Context()
	agent, err := h.pipeline.ResolveAgent(ctx, botID, store.ChannelTelegram)
	if err != nil {
		if errors.Is(err, core.ErrAgentNotFound) {
			writeText(w, http.StatusNotFound, "Bot not found or not configured for Telegram")
			return
		}
		h.logger.Error("telegram webhook: resolve agent", zap.String("agent_id", botID), zap.Error(err))
		writeText(w, http.StatusInternalServerError, "Internal Error")
		return
	}

	var update telegram.Update
	if err := decodeJSON(w, r, &update); err != nil {
		h.failures.Record(ctx, store.ChannelTelegram, agent.ID, fmt.Errorf("decode update: %w", err))
		writeText(w, http.StatusOK, "OK")
		return
	}
	if update.Message == nil || update.Message.Chat == nil || update.Message.Text == "" {
		writeText(w, http.StatusOK, "OK")
		return
	}

	chatID := update.Message.Chat.ID
	reply, err := h.pipeline.Converse(ctx, agent, core.Inbound{
		Channel:      store.ChannelTelegram,
		SessionToken: strconv.FormatInt(chatID, 10),
		Messages:     []core.ChatMessage{{Role: string(core.RoleUser), Content: update.Message.Text}},
	})
	if err != nil {
		h.failures.Record(ctx, store.ChannelTelegram, agent.ID, err)
		writeText(w, http.StatusOK, "OK")
		return
	}

	if err := h.telegram.SendMessage(ctx, *agent.TelegramToken, chatID, reply.Message.Content); err != nil {
		h.failures.Record(ctx, store.ChannelTelegram, agent.ID, fmt.Errorf("sendMessage: %w", err))
	}
	writeText(w, http.StatusOK, "OK")
}
