package holdings

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/provenly/backend/pkg/db/models"
)

// Repository manages the actor→item reverse index.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Record(ctx context.Context, holding *models.Holding) error
	ListByActor(ctx context.Context, actorID uuid.UUID) ([]models.Holding, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a holdings repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Record appends one reverse-index row. An item returning to an actor who has
// held it before is a no-op insert; the existing row already says "has ever
// held" and that never changes.
func (r *repository) Record(ctx context.Context, holding *models.Holding) error {
	if holding.ID == uuid.Nil {
		holding.ID = uuid.New()
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "actor_id"}, {Name: "item_tag"}},
			DoNothing: true,
		}).
		Create(holding).Error
}

func (r *repository) ListByActor(ctx context.Context, actorID uuid.UUID) ([]models.Holding, error) {
	var rows []models.Holding
	if err := r.db.WithContext(ctx).
		Where("actor_id = ?", actorID).
		Order("acquired_at ASC").
		Order("item_tag ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
