package access

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/provenly/backend/pkg/db/models"
	"github.com/provenly/backend/pkg/enums"
)

// Repository manages persistence for the participant set.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Find(ctx context.Context, actorID uuid.UUID) (*models.Participant, error)
	FindAdmin(ctx context.Context) (*models.Participant, error)
	Create(ctx context.Context, participant *models.Participant) error
	UpdateRole(ctx context.Context, actorID uuid.UUID, role enums.ParticipantRole) error
	Delete(ctx context.Context, actorID uuid.UUID) error
	List(ctx context.Context) ([]models.Participant, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a participant repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Find(ctx context.Context, actorID uuid.UUID) (*models.Participant, error) {
	var participant models.Participant
	if err := r.db.WithContext(ctx).
		Where("actor_id = ?", actorID).
		First(&participant).Error; err != nil {
		return nil, err
	}
	return &participant, nil
}

func (r *repository) FindAdmin(ctx context.Context) (*models.Participant, error) {
	var participant models.Participant
	if err := r.db.WithContext(ctx).
		Where("role = ?", enums.ParticipantRoleAdmin).
		First(&participant).Error; err != nil {
		return nil, err
	}
	return &participant, nil
}

func (r *repository) Create(ctx context.Context, participant *models.Participant) error {
	return r.db.WithContext(ctx).Create(participant).Error
}

func (r *repository) UpdateRole(ctx context.Context, actorID uuid.UUID, role enums.ParticipantRole) error {
	return r.db.WithContext(ctx).
		Model(&models.Participant{}).
		Where("actor_id = ?", actorID).
		Update("role", role).Error
}

func (r *repository) Delete(ctx context.Context, actorID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("actor_id = ?", actorID).
		Delete(&models.Participant{}).Error
}

func (r *repository) List(ctx context.Context) ([]models.Participant, error) {
	var participants []models.Participant
	if err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&participants).Error; err != nil {
		return nil, err
	}
	return participants, nil
}
