package models

import (
	"time"

	"github.com/google/uuid"
)

// Holding is one append-only reverse-index row linking an actor to an item it
// created or received custody of. Rows accumulate across transfers; the index
// answers "has ever held", not "currently holds".
type Holding struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ActorID    uuid.UUID `gorm:"column:actor_id;type:uuid;not null;uniqueIndex:ux_holdings_actor_item,priority:1"`
	ItemTag    string    `gorm:"column:item_tag;not null;uniqueIndex:ux_holdings_actor_item,priority:2"`
	AcquiredAt time.Time `gorm:"column:acquired_at;autoCreateTime"`
}
