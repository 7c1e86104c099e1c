package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/provenly/backend/pkg/enums"
)

// ItemRegisteredEvent is emitted when a new item enters the registry.
type ItemRegisteredEvent struct {
	Tag         string           `json:"tag"`
	Description string           `json:"description,omitempty"`
	CreatorID   uuid.UUID        `json:"creator_id"`
	CustodianID uuid.UUID        `json:"custodian_id"`
	Status      enums.ItemStatus `json:"status"`
	Seq         int              `json:"seq"`
}

// ItemStatusUpdatedEvent carries a checkpoint appended to an item history.
type ItemStatusUpdatedEvent struct {
	Tag        string           `json:"tag"`
	Seq        int              `json:"seq"`
	Status     enums.ItemStatus `json:"status"`
	Location   string           `json:"location,omitempty"`
	Note       string           `json:"note,omitempty"`
	ActorID    uuid.UUID        `json:"actor_id"`
	RecordedAt time.Time        `json:"recorded_at"`
}

// ItemDeactivatedEvent marks an item retired from active tracking.
type ItemDeactivatedEvent struct {
	Tag           string    `json:"tag"`
	ActorID       uuid.UUID `json:"actor_id"`
	DeactivatedAt time.Time `json:"deactivated_at"`
}

// CustodyTransferredEvent records an item changing hands.
type CustodyTransferredEvent struct {
	Tag             string           `json:"tag"`
	Seq             int              `json:"seq"`
	FromCustodianID uuid.UUID        `json:"from_custodian_id"`
	ToCustodianID   uuid.UUID        `json:"to_custodian_id"`
	Status          enums.ItemStatus `json:"status"`
	Location        string           `json:"location,omitempty"`
	TransferredAt   time.Time        `json:"transferred_at"`
}

// ParticipantAuthorizedEvent is emitted when the administrator grants access.
type ParticipantAuthorizedEvent struct {
	ActorID   uuid.UUID             `json:"actor_id"`
	Role      enums.ParticipantRole `json:"role"`
	GrantedBy uuid.UUID             `json:"granted_by"`
	GrantedAt time.Time             `json:"granted_at"`
}

// ParticipantRevokedEvent is emitted when access is withdrawn.
type ParticipantRevokedEvent struct {
	ActorID   uuid.UUID `json:"actor_id"`
	RevokedBy uuid.UUID `json:"revoked_by"`
	RevokedAt time.Time `json:"revoked_at"`
}

// AdministrationTransferredEvent reports the admin role moving to a new actor.
type AdministrationTransferredEvent struct {
	FromActorID   uuid.UUID `json:"from_actor_id"`
	ToActorID     uuid.UUID `json:"to_actor_id"`
	TransferredAt time.Time `json:"transferred_at"`
}
