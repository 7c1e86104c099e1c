package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/provenly/backend/pkg/enums"
)

// Checkpoint is one immutable history entry for an item. Rows are only ever
// inserted; Seq is the per-item insertion order starting at 1.
type Checkpoint struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	ItemTag    string           `gorm:"column:item_tag;not null;index:idx_checkpoints_item_seq,unique,priority:1"`
	Seq        int              `gorm:"column:seq;not null;index:idx_checkpoints_item_seq,unique,priority:2"`
	Status     enums.ItemStatus `gorm:"column:status;not null"`
	Location   string           `gorm:"column:location"`
	Note       string           `gorm:"column:note"`
	ActorID    uuid.UUID        `gorm:"column:actor_id;type:uuid;not null"`
	RecordedAt time.Time        `gorm:"column:recorded_at;autoCreateTime"`
}
