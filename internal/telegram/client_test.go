package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// botAPIServer records the form of every call and answers with body.
func botAPIServer(t *testing.T, status int, body string) (*httptest.Server, func() (string, url.Values)) {
	t.Helper()
	var gotPath string
	var gotForm url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, func() (string, url.Values) { return gotPath, gotForm }
}

func TestSendMessage(t *testing.T) {
	srv, got := botAPIServer(t, http.StatusOK, `{"ok":true,"result":{"message_id":1,"chat":{"id":42}}}`)

	c := NewClient(srv.URL, time.Second)
	require.NoError(t, c.SendMessage(context.Background(), "123:abc", 42, "Hello"))

	path, form := got()
	assert.Equal(t, "/bot123:abc/sendMessage", path)
	assert.Equal(t, "42", form.Get("chat_id"))
	assert.Equal(t, "Hello", form.Get("text"))
}

func TestSendMessageAPIError(t *testing.T) {
	srv, _ := botAPIServer(t, http.StatusBadRequest, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)

	err := NewClient(srv.URL, time.Second).SendMessage(context.Background(), "123:abc", 1, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")

	var apiErr *tgbotapi.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 400, apiErr.Code)
}

func TestSetWebhook(t *testing.T) {
	srv, got := botAPIServer(t, http.StatusOK, `{"ok":true,"result":true}`)

	require.NoError(t, NewClient(srv.URL, time.Second).SetWebhook(context.Background(), "tok", "https://x/api/webhooks/telegram?botId=b"))

	path, form := got()
	assert.Equal(t, "/bottok/setWebhook", path)
	assert.Equal(t, "https://x/api/webhooks/telegram?botId=b", form.Get("url"))
	assert.JSONEq(t, `["message"]`, form.Get("allowed_updates"))
}

func TestCallsHonourContext(t *testing.T) {
	srv, _ := botAPIServer(t, http.StatusOK, `{"ok":true,"result":{}}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewClient(srv.URL, time.Second).SendMessage(ctx, "tok", 1, "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestErrorsDoNotLeakToken(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 200*time.Millisecond)
	err := c.SendMessage(context.Background(), "secret-token", 1, "x")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-token")
}
