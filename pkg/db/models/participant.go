package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/provenly/backend/pkg/enums"
)

// Participant is an identity permitted to perform privileged ledger
// operations. Exactly one row carries the admin role at any time.
type Participant struct {
	ActorID   uuid.UUID             `gorm:"column:actor_id;type:uuid;primaryKey"`
	Role      enums.ParticipantRole `gorm:"column:role;not null"`
	GrantedBy *uuid.UUID            `gorm:"column:granted_by;type:uuid"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
