// Package session maps opaque bearer tokens to user ids.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cadence/api/internal/auth"
)

// ErrNotFound is returned by backends for unknown, revoked or expired tokens.
var ErrNotFound = errors.New("session not found or expired")

// Backend stores sessions keyed by token hash.
type Backend interface {
	Save(ctx context.Context, tokenHash, userID string, ttl time.Duration) error
	Lookup(ctx context.Context, tokenHash string) (string, error)
	Revoke(ctx context.Context, tokenHash string) error
	Ping(ctx context.Context) error
}

// Manager issues and resolves tokens. Raw tokens never reach the backend.
type Manager struct {
	backend Backend
	ttl     time.Duration
}

func NewManager(backend Backend, ttl time.Duration) *Manager {
	return &Manager{backend: backend, ttl: ttl}
}

func (m *Manager) Issue(ctx context.Context, userID string) (string, error) {
	token, err := auth.GenerateToken()
	if err != nil {
		return "", err
	}
	if err := m.backend.Save(ctx, auth.HashToken(token), userID, m.ttl); err != nil {
		return "", fmt.Errorf("issue session: %w", err)
	}
	return token, nil
}

// Lookup returns the user id for token, or ok=false when the token is unknown.
func (m *Manager) Lookup(ctx context.Context, token string) (userID string, ok bool, err error) {
	userID, err = m.backend.Lookup(ctx, auth.HashToken(token))
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return userID, true, nil
}

func (m *Manager) Revoke(ctx context.Context, token string) error {
	return m.backend.Revoke(ctx, auth.HashToken(token))
}

func (m *Manager) Ping(ctx context.Context) error {
	return m.backend.Ping(ctx)
}
