package history

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/provenly/backend/pkg/db/models"
)

// Repository manages persistence for checkpoint rows. Rows are insert-only;
// there is no update or delete.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, checkpoint *models.Checkpoint) error
	NextSeq(ctx context.Context, itemTag string) (int, error)
	ListByTag(ctx context.Context, itemTag string, afterSeq, limit int) ([]models.Checkpoint, error)
	CountByTag(ctx context.Context, itemTag string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a checkpoint repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, checkpoint *models.Checkpoint) error {
	if checkpoint.ID == uuid.Nil {
		checkpoint.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(checkpoint).Error
}

// NextSeq returns the next per-item sequence number. Callers must hold the
// item row lock so two appends cannot compute the same value.
func (r *repository) NextSeq(ctx context.Context, itemTag string) (int, error) {
	var maxSeq int
	err := r.db.WithContext(ctx).
		Model(&models.Checkpoint{}).
		Where("item_tag = ?", itemTag).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&maxSeq).Error
	if err != nil {
		return 0, err
	}
	return maxSeq + 1, nil
}

// ListByTag pages through an item's history in append order; afterSeq is the
// exclusive cursor from the previous page, 0 for the start.
func (r *repository) ListByTag(ctx context.Context, itemTag string, afterSeq, limit int) ([]models.Checkpoint, error) {
	query := r.db.WithContext(ctx).
		Where("item_tag = ?", itemTag).
		Order("seq ASC")
	if afterSeq > 0 {
		query = query.Where("seq > ?", afterSeq)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []models.Checkpoint
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CountByTag(ctx context.Context, itemTag string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Checkpoint{}).
		Where("item_tag = ?", itemTag).
		Count(&count).Error
	return count, err
}
