package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/provenly/backend/pkg/enums"
)

// Notification is an inbox entry for an actor, produced by the event
// consumers when something they care about happens on the ledger.
type Notification struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	ActorID   uuid.UUID              `gorm:"column:actor_id;type:uuid;not null;index:idx_notifications_actor"`
	Type      enums.NotificationType `gorm:"column:type;not null"`
	Title     string                 `gorm:"column:title;not null"`
	Message   string                 `gorm:"column:message;not null"`
	Link      *string                `gorm:"column:link"`
	ReadAt    *time.Time             `gorm:"column:read_at"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
}
