package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/provenly/backend/pkg/enums"
)

// Item is the registry record for a tracked entity. The tag is assigned by the
// registrant at creation and never changes; the denormalized status mirrors the
// most recent checkpoint at all times.
type Item struct {
	Tag         string           `gorm:"column:tag;primaryKey"`
	Description string           `gorm:"column:description;not null"`
	CreatorID   uuid.UUID        `gorm:"column:creator_id;type:uuid;not null"`
	CustodianID uuid.UUID        `gorm:"column:custodian_id;type:uuid;not null"`
	Status      enums.ItemStatus `gorm:"column:status;not null"`
	Active      bool             `gorm:"column:active;not null;default:true"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
