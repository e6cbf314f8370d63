package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const userColumns = "id, email, name, password_hash, role, created_at"

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *User) error {
	u.ID = uuid.NewString()
	u.CreatedAt = now()
	if u.Role == "" {
		u.Role = RoleUser
	}
	_, err := s.exec(ctx,
		"INSERT INTO users (id, email, name, password_hash, role, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		u.ID, u.Email, u.Name, u.PasswordHash, u.Role, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*User, error) {
	u, err := scanUser(s.queryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(s.queryRow(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query user by email: %w", err)
	}
	return u, nil
}

// ListUsers returns users newest first with their bot counts. limit <= 0
// means no limit.
func (s *Store) ListUsers(ctx context.Context, limit int) ([]UserSummary, error) {
	q := `SELECT u.id, u.email, u.name, u.password_hash, u.role, u.created_at,
        (SELECT COUNT(*) FROM agents a WHERE a.user_id = u.id)
        FROM users u ORDER BY u.created_at DESC, u.id DESC`
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []UserSummary{}
	for rows.Next() {
		var us UserSummary
		if err := rows.Scan(&us.ID, &us.Email, &us.Name, &us.PasswordHash, &us.Role, &us.CreatedAt, &us.BotCount); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, us)
	}
	return users, rows.Err()
}

// UpdateUser writes email, name, role and password hash. It returns false
// when no such user exists.
func (s *Store) UpdateUser(ctx context.Context, u *User) (bool, error) {
	res, err := s.exec(ctx,
		"UPDATE users SET email = ?, name = ?, role = ?, password_hash = ? WHERE id = ?",
		u.Email, u.Name, u.Role, u.PasswordHash, u.ID)
	if err != nil {
		return false, fmt.Errorf("failed to update user: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

// DeleteUser removes a user; their agents and everything beneath go with it.
func (s *Store) DeleteUser(ctx context.Context, id string) (bool, error) {
	res, err := s.exec(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}
