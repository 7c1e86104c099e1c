package notifications

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
	"github.com/provenly/backend/pkg/enums"
)

func setupNotificationsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY,
  actor_id TEXT NOT NULL,
  type TEXT NOT NULL,
  title TEXT NOT NULL,
  message TEXT NOT NULL,
  link TEXT,
  read_at DATETIME,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func TestRepositoryCreateAndList(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	actorID := uuid.New()

	for i, title := range []string{"Custody received", "Access granted"} {
		err := repo.Create(ctx, &models.Notification{
			ActorID:   actorID,
			Type:      enums.NotificationTypeCustody,
			Title:     title,
			Message:   "message body",
			CreatedAt: time.Now().UTC().Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}
	require.NoError(t, repo.Create(ctx, &models.Notification{
		ActorID: uuid.New(),
		Type:    enums.NotificationTypeAccess,
		Title:   "Someone else's",
		Message: "message body",
	}))

	rows, err := repo.ListByActor(ctx, actorID, 10, false)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Access granted", rows[0].Title)
	assert.Equal(t, "Custody received", rows[1].Title)
}

func TestRepositoryMarkRead(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	actorID := uuid.New()

	notification := &models.Notification{
		ActorID: actorID,
		Type:    enums.NotificationTypeAccess,
		Title:   "Access granted",
		Message: "message body",
	}
	require.NoError(t, repo.Create(ctx, notification))

	result, err := repo.MarkRead(ctx, actorID, notification.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.True(t, result.Updated)

	// Second mark finds the row but updates nothing.
	result, err = repo.MarkRead(ctx, actorID, notification.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.False(t, result.Updated)

	// Another actor cannot mark it.
	result, err = repo.MarkRead(ctx, uuid.New(), notification.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, result.Found)

	unread, err := repo.ListByActor(ctx, actorID, 10, true)
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestRepositoryMarkAllRead(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	actorID := uuid.New()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &models.Notification{
			ActorID: actorID,
			Type:    enums.NotificationTypeCustody,
			Title:   "Custody received",
			Message: "message body",
		}))
	}

	updated, err := repo.MarkAllRead(ctx, actorID, time.Now().UTC())
	require.NoError(t, err)
	assert.EqualValues(t, 3, updated)

	updated, err = repo.MarkAllRead(ctx, actorID, time.Now().UTC())
	require.NoError(t, err)
	assert.Zero(t, updated)
}
