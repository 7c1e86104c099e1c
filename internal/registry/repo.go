package registry

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/provenly/backend/pkg/db/models"
	"github.com/provenly/backend/pkg/enums"
)

// Repository manages persistence for item records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, item *models.Item) error
	FindByTag(ctx context.Context, tag string) (*models.Item, error)
	FindByTagForUpdate(ctx context.Context, tag string) (*models.Item, error)
	UpdateStatus(ctx context.Context, tag string, status enums.ItemStatus) error
	UpdateCustodian(ctx context.Context, tag string, custodianID uuid.UUID) error
	Deactivate(ctx context.Context, tag string) error
	List(ctx context.Context, afterTag string, limit int) ([]models.Item, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an item repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, item *models.Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) FindByTag(ctx context.Context, tag string) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).
		Where("tag = ?", tag).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByTagForUpdate loads the item row with a write lock so concurrent
// mutations on the same item serialize. SQLite has a single writer and needs
// no row lock.
func (r *repository) FindByTagForUpdate(ctx context.Context, tag string) (*models.Item, error) {
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var item models.Item
	if err := query.Where("tag = ?", tag).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) UpdateStatus(ctx context.Context, tag string, status enums.ItemStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("tag = ?", tag).
		Update("status", status).Error
}

func (r *repository) UpdateCustodian(ctx context.Context, tag string, custodianID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("tag = ?", tag).
		Update("custodian_id", custodianID).Error
}

func (r *repository) Deactivate(ctx context.Context, tag string) error {
	return r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("tag = ?", tag).
		Update("active", false).Error
}

// List pages through the registry in tag order; afterTag is the exclusive
// cursor from the previous page.
func (r *repository) List(ctx context.Context, afterTag string, limit int) ([]models.Item, error) {
	query := r.db.WithContext(ctx).Order("tag ASC").Limit(limit)
	if afterTag != "" {
		query = query.Where("tag > ?", afterTag)
	}
	var items []models.Item
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
