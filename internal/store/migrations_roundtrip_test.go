package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMigrationsRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	db := repo.DB()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// pass 1 ran inside newTestRepository; applying again is a no-op
	require.NoError(t, ApplyMigrations(ctx, db, repo.Dialect()))

	require.NoError(t, RollbackMigrations(ctx, db, repo.Dialect()))

	_, err := db.ExecContext(ctx, `SELECT COUNT(*) FROM weekly_updates`)
	require.Error(t, err, "weekly_updates should be gone after down migrations")

	require.NoError(t, ApplyMigrations(ctx, db, repo.Dialect()))
	require.Equal(t, 0, countRows(t, repo, `SELECT COUNT(*) FROM weekly_updates`))
}
