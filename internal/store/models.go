package store

import "time"

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"

	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"

	ChannelWidget   = "widget"
	ChannelTelegram = "telegram"

	DefaultPrimaryColor = "#3b82f6"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // Do not expose this in JSON responses
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Agent is a configured chatbot owned by a user.
type Agent struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	Name          string    `json:"name"`
	Instruction   string    `json:"systemPrompt"`
	PrimaryColor  string    `json:"primaryColor"`
	TelegramToken *string   `json:"telegramBotToken,omitempty"` // Nullable
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (a *Agent) HasTelegram() bool {
	return a.TelegramToken != nil && *a.TelegramToken != ""
}

type KnowledgeSnippet struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"botId"`
	Title     string    `json:"title"`
	Body      string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Session is one conversation thread, keyed by (agent, token).
type Session struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"botId"`
	Token     string    `json:"chatId"`
	Channel   string    `json:"channel"`
	CreatedAt time.Time `json:"createdAt"`
}

type Message struct {
	ID        string    `json:"id"` // UUIDv7, sorts by creation
	SessionID string    `json:"conversationId"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type WebhookFailure struct {
	ID        string    `json:"id"`
	Channel   string    `json:"channel"`
	AgentID   string    `json:"botId"`
	Error     string    `json:"error"`
	CreatedAt time.Time `json:"createdAt"`
}

type UserSummary struct {
	User
	BotCount int64 `json:"botCount"`
}

type AgentOverview struct {
	Agent
	OwnerEmail        string `json:"ownerEmail"`
	OwnerName         string `json:"ownerName"`
	TelegramEnabled   bool   `json:"telegramEnabled"`
	ConversationCount int64  `json:"conversationCount"`
	DocumentCount     int64  `json:"documentCount"`
}

type ConversationOverview struct {
	Session
	AgentName    string `json:"botName"`
	OwnerEmail   string `json:"ownerEmail"`
	MessageCount int64  `json:"messageCount"`
}

type Stats struct {
	TotalUsers         int64         `json:"totalUsers"`
	TotalBots          int64         `json:"totalBots"`
	TotalConversations int64         `json:"totalConversations"`
	TotalMessages      int64         `json:"totalMessages"`
	TotalDocuments     int64         `json:"totalDocuments"`
	RecentUsers        []UserSummary `json:"recentUsers"`
}
