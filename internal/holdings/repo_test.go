package holdings

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/provenly/backend/pkg/db/models"
)

func setupHoldingsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS holdings (
  id TEXT PRIMARY KEY,
  actor_id TEXT NOT NULL,
  item_tag TEXT NOT NULL,
  acquired_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	require.NoError(t, db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_holdings_actor_item ON holdings (actor_id, item_tag);`,
	).Error)
	return db
}

func TestRepositoryRecordAbsorbsRepeatHolder(t *testing.T) {
	db := setupHoldingsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	actorID := uuid.New()

	require.NoError(t, repo.Record(ctx, &models.Holding{ActorID: actorID, ItemTag: "A1"}))

	// The same actor receiving the same item again must not surface the
	// unique index to the caller.
	require.NoError(t, repo.Record(ctx, &models.Holding{ActorID: actorID, ItemTag: "A1"}))
	require.NoError(t, repo.Record(ctx, &models.Holding{ActorID: actorID, ItemTag: "A2"}))

	rows, err := repo.ListByActor(ctx, actorID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "A1", rows[0].ItemTag)
	assert.Equal(t, "A2", rows[1].ItemTag)
}

func TestRepositoryListByActorScopesAndOrders(t *testing.T) {
	db := setupHoldingsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	actorID, otherID := uuid.New(), uuid.New()
	base := time.Now().UTC()

	require.NoError(t, repo.Record(ctx, &models.Holding{ActorID: actorID, ItemTag: "B2", AcquiredAt: base.Add(time.Second)}))
	require.NoError(t, repo.Record(ctx, &models.Holding{ActorID: actorID, ItemTag: "B1", AcquiredAt: base}))
	require.NoError(t, repo.Record(ctx, &models.Holding{ActorID: otherID, ItemTag: "B1", AcquiredAt: base}))

	rows, err := repo.ListByActor(ctx, actorID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "B1", rows[0].ItemTag)
	assert.Equal(t, "B2", rows[1].ItemTag)

	rows, err = repo.ListByActor(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, rows)
}
