package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/provenly/backend/pkg/db/models"
	"github.com/provenly/backend/pkg/pagination"
)

// Repository exposes persistence helpers for actor notifications.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, notification *models.Notification) error
	ListByActor(ctx context.Context, actorID uuid.UUID, limit int, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, actorID, notificationID uuid.UUID, now time.Time) (markResult, error)
	MarkAllRead(ctx context.Context, actorID uuid.UUID, now time.Time) (int64, error)
}

type markResult struct {
	Found   bool
	Updated bool
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a notifications repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, notification *models.Notification) error {
	if notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *repositoryImpl) ListByActor(ctx context.Context, actorID uuid.UUID, limit int, unreadOnly bool) ([]models.Notification, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("actor_id = ?", actorID)
	if unreadOnly {
		query = query.Where("read_at IS NULL")
	}

	var notifications []models.Notification
	err := query.
		Order("created_at DESC, id DESC").
		Limit(pagination.NormalizeLimit(limit)).
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *repositoryImpl) MarkRead(ctx context.Context, actorID, notificationID uuid.UUID, now time.Time) (markResult, error) {
	update := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND actor_id = ? AND read_at IS NULL", notificationID, actorID).
		Update("read_at", now)
	if update.Error != nil {
		return markResult{}, update.Error
	}
	if update.RowsAffected > 0 {
		return markResult{Found: true, Updated: true}, nil
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND actor_id = ?", notificationID, actorID).
		Count(&count).Error
	if err != nil {
		return markResult{}, err
	}
	return markResult{Found: count > 0}, nil
}

func (r *repositoryImpl) MarkAllRead(ctx context.Context, actorID uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("actor_id = ? AND read_at IS NULL", actorID).
		Update("read_at", now)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
