package core

import (
	"context"
	"fmt"
	"strings"

	"agentdesk.io/agentdesk/internal/auth"
	"agentdesk.io/agentdesk/internal/store"
	"go.uber.org/zap"
)

const minPasswordLength = 8

type UserStore interface {
	CreateUser(ctx context.Context, u *store.User) error
	GetUserByID(ctx context.Context, id string) (*store.User, error)
	GetUserByEmail(ctx context.Context, email string) (*store.User, error)
	ListUsers(ctx context.Context, limit int) ([]store.UserSummary, error)
	UpdateUser(ctx context.Context, u *store.User) (bool, error)
	DeleteUser(ctx context.Context, id string) (bool, error)
}

type TokenIssuer interface {
	GenerateJWT(userID string) (string, error)
	ValidateJWT(token string) (string, error)
}

// AccountService owns sign-up, login, session resolution and the admin
// user management operations.
type AccountService struct {
	users  UserStore
	tokens TokenIssuer
	logger *zap.Logger
}

func NewAccountService(users UserStore, tokens TokenIssuer, logger *zap.Logger) *AccountService {
	return &AccountService{users: users, tokens: tokens, logger: logger}
}

type NewUser struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// UserPatch carries optional admin edits; nil fields are left unchanged.
type UserPatch struct {
	Name     *string `json:"name"`
	Role     *string `json:"role"`
	Password *string `json:"password"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validRole(role string) bool {
	return role == store.RoleUser || role == store.RoleAdmin
}

// CreateUser validates and stores a new account. Role defaults to USER.
func (s *AccountService) CreateUser(ctx context.Context, in NewUser) (*store.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrValidation)
	}
	if len(in.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	role := in.Role
	if role == "" {
		role = store.RoleUser
	}
	if !validRole(role) {
		return nil, fmt.Errorf("%w: role must be USER or ADMIN", ErrValidation)
	}

	existing, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: user with this email already exists", ErrConflict)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = "User"
	}
	u := &store.User{Email: email, Name: name, PasswordHash: hash, Role: role}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("user created", zap.String("user_id", u.ID), zap.String("role", u.Role))
	return u, nil
}

// Signup creates a regular user and issues a session token.
func (s *AccountService) Signup(ctx context.Context, in NewUser) (*store.User, string, error) {
	in.Role = store.RoleUser
	u, err := s.CreateUser(ctx, in)
	if err != nil {
		return nil, "", err
	}
	token, err := s.tokens.GenerateJWT(u.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}
	return u, token, nil
}

func (s *AccountService) Login(ctx context.Context, email, password string) (*store.User, string, error) {
	u, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, "", err
	}
	if u == nil || !auth.CheckPasswordHash(password, u.PasswordHash) {
		return nil, "", fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}
	token, err := s.tokens.GenerateJWT(u.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}
	return u, token, nil
}

// Authenticate resolves a session token to the current user row, so role
// changes apply to existing sessions immediately.
func (s *AccountService) Authenticate(ctx context.Context, token string) (*store.User, error) {
	userID, err := s.tokens.ValidateJWT(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("%w: user no longer exists", ErrUnauthorized)
	}
	return u, nil
}

func (s *AccountService) ListUsers(ctx context.Context) ([]store.UserSummary, error) {
	return s.users.ListUsers(ctx, 0)
}

func (s *AccountService) GetUser(ctx context.Context, id string) (*store.User, error) {
	u, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("%w: user", ErrNotFound)
	}
	return u, nil
}

// UpdateUser applies an admin edit. An admin may not demote themselves.
func (s *AccountService) UpdateUser(ctx context.Context, actorID, id string, patch UserPatch) (*store.User, error) {
	if patch.Role != nil {
		if !validRole(*patch.Role) {
			return nil, fmt.Errorf("%w: role must be USER or ADMIN", ErrValidation)
		}
		if id == actorID && *patch.Role != store.RoleAdmin {
			return nil, fmt.Errorf("%w: cannot change your own admin role", ErrValidation)
		}
	}

	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		u.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Role != nil {
		u.Role = *patch.Role
	}
	if patch.Password != nil {
		if len(*patch.Password) < minPasswordLength {
			return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
		}
		hash, err := auth.HashPassword(*patch.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		u.PasswordHash = hash
	}

	ok, err := s.users.UpdateUser(ctx, u)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: user", ErrNotFound)
	}
	return u, nil
}

// DeleteUser removes a user and, by cascade, their agents. An admin may
// not delete themselves.
func (s *AccountService) DeleteUser(ctx context.Context, actorID, id string) error {
	if id == actorID {
		return fmt.Errorf("%w: cannot delete your own account", ErrValidation)
	}
	ok, err := s.users.DeleteUser(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: user", ErrNotFound)
	}
	s.logger.Info("user deleted", zap.String("user_id", id), zap.String("actor_id", actorID))
	return nil
}

// SetRole is used by operator tooling to promote or demote by email.
func (s *AccountService) SetRole(ctx context.Context, email, role string) (*store.User, error) {
	if !validRole(role) {
		return nil, fmt.Errorf("%w: role must be USER or ADMIN", ErrValidation)
	}
	u, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, email)
	}
	u.Role = role
	if _, err := s.users.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
