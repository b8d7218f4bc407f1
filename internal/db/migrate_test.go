package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/clans/internal/db/migrations"
	"github.com/udisondev/clans/internal/testutil"
)

func TestMigrate_Idempotent(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	ctx := context.Background()
	d := &DB{pool: pool}

	require.NoError(t, d.Migrate(ctx))

	applied, err := migrations.Up(ctx, pool)
	require.NoError(t, err)
	assert.Empty(t, applied, "schema already current")

	var tables int
	err = pool.QueryRow(ctx,
		`SELECT count(*) FROM information_schema.tables WHERE table_name IN ('clans', 'clan_players')`,
	).Scan(&tables)
	require.NoError(t, err)
	assert.Equal(t, 2, tables)
}
