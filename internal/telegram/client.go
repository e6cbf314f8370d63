// Package telegram adapts the Bot API client to per-agent tokens and
// per-call contexts.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const DefaultBaseURL = "https://api.telegram.org"

// Update is a Bot API update as posted to the webhook.
type Update = tgbotapi.Update

// Client talks to the Bot API. The bot token is supplied per call since
// every agent carries its own.
type Client struct {
	endpoint string
	client   *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		endpoint: strings.TrimRight(baseURL, "/") + "/bot%s/%s",
		client:   &http.Client{Timeout: timeout},
	}
}

// bot builds a BotAPI bound to one token and one request context. Built
// directly rather than through NewBotAPI, which calls getMe first.
func (c *Client) bot(ctx context.Context, token string) *tgbotapi.BotAPI {
	b := &tgbotapi.BotAPI{
		Token:  token,
		Client: contextClient{ctx: ctx, client: c.client},
	}
	b.SetAPIEndpoint(c.endpoint)
	return b
}

func (c *Client) SendMessage(ctx context.Context, token string, chatID int64, text string) error {
	if _, err := c.bot(ctx, token).Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("telegram sendMessage: %w", redact(err, token))
	}
	return nil
}

// SetWebhook points the bot's updates at url.
func (c *Client) SetWebhook(ctx context.Context, token, url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("telegram setWebhook: invalid url: %w", err)
	}
	wh.AllowedUpdates = []string{"message"}
	if _, err := c.bot(ctx, token).Request(wh); err != nil {
		return fmt.Errorf("telegram setWebhook: %w", redact(err, token))
	}
	return nil
}

// contextClient attaches the caller's context to every request the
// library builds.
type contextClient struct {
	ctx    context.Context
	client *http.Client
}

func (c contextClient) Do(req *http.Request) (*http.Response, error) {
	return c.client.Do(req.WithContext(c.ctx))
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

// redact strips the bot token from err's text. Transport errors quote the
// request URL, which embeds the token.
func redact(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), token, "<token>"), err: err}
}
