package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

func (r *Repository) CreateUser(ctx context.Context, user User) error {
	res, err := r.runner().exec(ctx, `
		INSERT INTO users (id, email, display_name, password_hash)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (email) DO NOTHING
	`, user.ID, normalizeEmail(user.Email), user.DisplayName, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrEmailTaken
	}
	return nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return r.getUser(ctx, `WHERE email = ?`, normalizeEmail(email))
}

func (r *Repository) GetUserByID(ctx context.Context, id string) (User, error) {
	return r.getUser(ctx, `WHERE id = ?`, id)
}

func (r *Repository) getUser(ctx context.Context, where string, arg string) (User, error) {
	var (
		user    User
		created dbTime
	)
	err := r.runner().queryRow(ctx, `
		SELECT id, email, display_name, password_hash, created_at
		FROM users `+where, arg).Scan(&user.ID, &user.Email, &user.DisplayName, &user.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("lookup user: %w", err)
	}
	user.CreatedAt = created.Time
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
