package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndLookupUser(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	err := repo.CreateUser(ctx, User{ID: "u-1", Email: " Ana@Example.com ", DisplayName: "Ana", PasswordHash: "hash"})
	require.NoError(t, err)

	byEmail, err := repo.GetUserByEmail(ctx, "ana@example.COM")
	require.NoError(t, err)
	assert.Equal(t, "u-1", byEmail.ID)
	assert.Equal(t, "ana@example.com", byEmail.Email)
	assert.Equal(t, "hash", byEmail.PasswordHash)
	assert.False(t, byEmail.CreatedAt.IsZero())

	byID, err := repo.GetUserByID(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", byID.DisplayName)

	err = repo.CreateUser(ctx, User{ID: "u-2", Email: "ana@example.com", DisplayName: "Other", PasswordHash: "x"})
	require.ErrorIs(t, err, ErrEmailTaken)

	_, err = repo.GetUserByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, ErrUserNotFound)
}
