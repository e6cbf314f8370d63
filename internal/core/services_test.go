package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"agentdesk.io/agentdesk/internal/auth"
	"agentdesk.io/agentdesk/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRegistrar struct {
	calls []string
	err   error
}

func (f *fakeRegistrar) SetWebhook(ctx context.Context, token, url string) error {
	f.calls = append(f.calls, token+" "+url)
	return f.err
}

func strPtr(s string) *string { return &s }

func newAccounts(s *store.Store) *AccountService {
	return NewAccountService(s, auth.NewTokenIssuer("secret", time.Hour), zap.NewNop())
}

func TestSignupLoginAuthenticate(t *testing.T) {
	s := newTestStore(t)
	accounts := newAccounts(s)
	ctx := context.Background()

	u, token, err := accounts.Signup(ctx, NewUser{Email: " Ann@Example.com ", Password: "password1", Name: "Ann", Role: store.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.Equal(t, store.RoleUser, u.Role, "signup never grants admin")
	assert.NotEmpty(t, token)

	_, _, err = accounts.Login(ctx, "ann@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, token, err = accounts.Login(ctx, "ANN@example.com", "password1")
	require.NoError(t, err)

	me, err := accounts.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, me.ID)

	_, err = accounts.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSignupValidationAndConflict(t *testing.T) {
	s := newTestStore(t)
	accounts := newAccounts(s)
	ctx := context.Background()

	_, _, err := accounts.Signup(ctx, NewUser{Email: "nope", Password: "password1"})
	assert.ErrorIs(t, err, ErrValidation)
	_, _, err = accounts.Signup(ctx, NewUser{Email: "a@b.c", Password: "short"})
	assert.ErrorIs(t, err, ErrValidation)

	_, _, err = accounts.Signup(ctx, NewUser{Email: "a@b.c", Password: "password1"})
	require.NoError(t, err)
	_, _, err = accounts.Signup(ctx, NewUser{Email: "a@b.c", Password: "password1"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestAdminCannotDemoteOrDeleteSelf(t *testing.T) {
	s := newTestStore(t)
	accounts := newAccounts(s)
	ctx := context.Background()

	admin, err := accounts.CreateUser(ctx, NewUser{Email: "root@x.io", Password: "password1", Role: store.RoleAdmin})
	require.NoError(t, err)
	other, err := accounts.CreateUser(ctx, NewUser{Email: "u@x.io", Password: "password1"})
	require.NoError(t, err)

	_, err = accounts.UpdateUser(ctx, admin.ID, admin.ID, UserPatch{Role: strPtr(store.RoleUser)})
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, accounts.DeleteUser(ctx, admin.ID, admin.ID), ErrValidation)

	updated, err := accounts.UpdateUser(ctx, admin.ID, other.ID, UserPatch{Name: strPtr("Renamed"), Role: strPtr(store.RoleAdmin)})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.True(t, updated.IsAdmin())

	require.NoError(t, accounts.DeleteUser(ctx, admin.ID, other.ID))
	assert.ErrorIs(t, accounts.DeleteUser(ctx, admin.ID, other.ID), ErrNotFound)
}

func TestAgentServiceRegistersWebhookOnTokenChange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := &store.User{Email: "o@x.io", PasswordHash: "x"}
	require.NoError(t, s.CreateUser(ctx, u))

	reg := &fakeRegistrar{}
	agents := NewAgentService(s, reg, "https://desk.example.com/", zap.NewNop())

	a, err := agents.Create(ctx, u.ID, AgentInput{Name: strPtr("Shop")})
	require.NoError(t, err)
	assert.Equal(t, store.DefaultPrimaryColor, a.PrimaryColor)
	assert.Empty(t, reg.calls)

	_, err = agents.Update(ctx, u.ID, a.ID, AgentInput{TelegramBotToken: strPtr("123:abc")})
	require.NoError(t, err)
	require.Len(t, reg.calls, 1)
	assert.Equal(t, "123:abc https://desk.example.com/api/webhooks/telegram?botId="+a.ID, reg.calls[0])

	_, err = agents.Update(ctx, u.ID, a.ID, AgentInput{Name: strPtr("Shop 2")})
	require.NoError(t, err)
	assert.Len(t, reg.calls, 1, "unchanged token is not re-registered")
}

func TestAgentServiceRegistrationFailureKeepsUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := &store.User{Email: "o@x.io", PasswordHash: "x"}
	require.NoError(t, s.CreateUser(ctx, u))
	agents := NewAgentService(s, &fakeRegistrar{err: errors.New("telegram down")}, "https://desk.example.com", zap.NewNop())

	a, err := agents.Create(ctx, u.ID, AgentInput{Name: strPtr("Shop"), TelegramBotToken: strPtr("t")})
	require.NoError(t, err)
	assert.True(t, a.HasTelegram())
}

func TestAgentServiceValidationAndOwnership(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := &store.User{Email: "o@x.io", PasswordHash: "x"}
	require.NoError(t, s.CreateUser(ctx, u))
	agents := NewAgentService(s, nil, "", zap.NewNop())

	_, err := agents.Create(ctx, u.ID, AgentInput{})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = agents.Create(ctx, u.ID, AgentInput{Name: strPtr("x"), PrimaryColor: strPtr("blue")})
	assert.ErrorIs(t, err, ErrValidation)

	a, err := agents.Create(ctx, u.ID, AgentInput{Name: strPtr("x")})
	require.NoError(t, err)
	_, err = agents.Get(ctx, "intruder", a.ID)
	assert.ErrorIs(t, err, ErrAgentNotFound)
	assert.ErrorIs(t, agents.Delete(ctx, "intruder", a.ID), ErrAgentNotFound)
	assert.NoError(t, agents.Delete(ctx, u.ID, a.ID))
}

func TestKnowledgeUploadFailureCreatesNothing(t *testing.T) {
	s := newTestStore(t)
	a := seedShop(t, s)
	knowledge := NewKnowledgeService(s, s, zap.NewNop())
	ctx := context.Background()

	_, err := knowledge.Upload(ctx, a.UserID, a.ID, "broken.pdf", "", []byte("not a pdf"))
	assert.ErrorIs(t, err, ErrDocumentExtraction)
	_, err = knowledge.Upload(ctx, a.UserID, a.ID, "deck.pptx", "", []byte("x"))
	assert.ErrorIs(t, err, ErrDocumentExtraction)

	snippets, err := s.ListSnippets(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, snippets, 1, "only the seeded snippet remains")
}

func TestKnowledgeUploadAndCrud(t *testing.T) {
	s := newTestStore(t)
	a := seedShop(t, s)
	knowledge := NewKnowledgeService(s, s, zap.NewNop())
	ctx := context.Background()

	k, err := knowledge.Upload(ctx, a.UserID, a.ID, "faq.md", "", []byte("# FAQ\n\nReturns within **30 days**."))
	require.NoError(t, err)
	assert.Equal(t, "faq.md", k.Title)
	assert.Contains(t, k.Body, "Returns within 30 days.")

	_, err = knowledge.List(ctx, "intruder", a.ID)
	assert.ErrorIs(t, err, ErrAgentNotFound)

	updated, err := knowledge.Update(ctx, a.UserID, a.ID, k.ID, SnippetInput{Content: strPtr("Returns within 14 days.")})
	require.NoError(t, err)
	assert.Equal(t, "Returns within 14 days.", updated.Body)

	require.NoError(t, knowledge.Delete(ctx, a.UserID, a.ID, k.ID))
	assert.ErrorIs(t, knowledge.Delete(ctx, a.UserID, a.ID, k.ID), ErrNotFound)
}
