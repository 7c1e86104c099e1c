package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/provenly/backend/pkg/db"
	"github.com/provenly/backend/pkg/db/models"
	"github.com/provenly/backend/pkg/enums"
	pkgerrors "github.com/provenly/backend/pkg/errors"
	"github.com/provenly/backend/pkg/outbox"
	"github.com/provenly/backend/pkg/outbox/payloads"
)

const (
	registrationLocation = "registry"
	registrationNote     = "item registered"
	transferNote         = "custody transferred"
)

// CheckpointStore is the slice of the history repository the registry needs
// inside its transactions.
type CheckpointStore interface {
	Create(ctx context.Context, checkpoint *models.Checkpoint) error
	NextSeq(ctx context.Context, itemTag string) (int, error)
}

// HoldingStore is the slice of the holdings repository the registry needs
// inside its transactions.
type HoldingStore interface {
	Record(ctx context.Context, holding *models.Holding) error
}

type accessGuard interface {
	IsAuthorized(ctx context.Context, actorID uuid.UUID) (bool, error)
	IsAdministrator(ctx context.Context, actorID uuid.UUID) (bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxRecorder interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes item registry operations.
type Service interface {
	Register(ctx context.Context, input RegisterItemInput) (*ItemDTO, error)
	GetItem(ctx context.Context, tag string) (*ItemDTO, error)
	List(ctx context.Context, afterTag string, limit int) ([]ItemDTO, error)
	TransferCustody(ctx context.Context, tag string, newCustodianID, actorID uuid.UUID) (*ItemDTO, error)
	Deactivate(ctx context.Context, tag string, actorID uuid.UUID) error
}

// ServiceParams carries the registry service dependencies.
type ServiceParams struct {
	Items       Repository
	Checkpoints func(tx *gorm.DB) CheckpointStore
	Holdings    func(tx *gorm.DB) HoldingStore
	Guard       accessGuard
	Tx          txRunner
	Recorder    outboxRecorder
}

type service struct {
	items       Repository
	checkpoints func(tx *gorm.DB) CheckpointStore
	holdings    func(tx *gorm.DB) HoldingStore
	guard       accessGuard
	tx          txRunner
	rec         outboxRecorder
}

// NewService wires the registry service.
func NewService(params ServiceParams) (Service, error) {
	if params.Items == nil {
		return nil, fmt.Errorf("item repository required")
	}
	if params.Checkpoints == nil {
		return nil, fmt.Errorf("checkpoint store required")
	}
	if params.Holdings == nil {
		return nil, fmt.Errorf("holding store required")
	}
	if params.Guard == nil {
		return nil, fmt.Errorf("access guard required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Recorder == nil {
		return nil, fmt.Errorf("outbox recorder required")
	}
	return &service{
		items:       params.Items,
		checkpoints: params.Checkpoints,
		holdings:    params.Holdings,
		guard:       params.Guard,
		tx:          params.Tx,
		rec:         params.Recorder,
	}, nil
}

// RegisterItemInput captures the data a new item requires.
type RegisterItemInput struct {
	Tag         string
	Description string
	ActorID     uuid.UUID
}

// ItemDTO is the API-facing current-state snapshot of an item.
type ItemDTO struct {
	Tag         string           `json:"tag"`
	Description string           `json:"description"`
	CreatorID   uuid.UUID        `json:"creator_id"`
	CustodianID uuid.UUID        `json:"custodian_id"`
	Status      enums.ItemStatus `json:"status"`
	Active      bool             `json:"active"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// FromModel converts an item row into its DTO.
func FromModel(item *models.Item) *ItemDTO {
	return &ItemDTO{
		Tag:         item.Tag,
		Description: item.Description,
		CreatorID:   item.CreatorID,
		CustodianID: item.CustodianID,
		Status:      item.Status,
		Active:      item.Active,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

// Register creates the item and, in the same transaction, its first
// checkpoint, the creator's holding row, and the observable events. An item is
// never visible without history.
func (s *service) Register(ctx context.Context, input RegisterItemInput) (*ItemDTO, error) {
	tag := strings.TrimSpace(input.Tag)
	if tag == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidIdentifier, "item tag is required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidIdentifier, "actor identity is required")
	}
	if err := s.requireAuthorized(ctx, input.ActorID); err != nil {
		return nil, err
	}

	item := &models.Item{
		Tag:         tag,
		Description: input.Description,
		CreatorID:   input.ActorID,
		CustodianID: input.ActorID,
		Status:      enums.ItemStatusCreated,
		Active:      true,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.items.WithTx(tx).Create(ctx, item); err != nil {
			if dbpkg.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeAlreadyExists, fmt.Sprintf("item %q already registered", tag))
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create item")
		}

		checkpoint := &models.Checkpoint{
			ItemTag:  tag,
			Seq:      1,
			Status:   enums.ItemStatusCreated,
			Location: registrationLocation,
			Note:     registrationNote,
			ActorID:  input.ActorID,
		}
		if err := s.checkpoints(tx).Create(ctx, checkpoint); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append registration checkpoint")
		}

		if err := s.holdings(tx).Record(ctx, &models.Holding{
			ActorID: input.ActorID,
			ItemTag: tag,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record holding")
		}

		actor := &outbox.ActorRef{ActorID: input.ActorID}
		if err := s.rec.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventItemRegistered,
			AggregateType: enums.AggregateItem,
			AggregateID:   tag,
			Actor:         actor,
			Data: payloads.ItemRegisteredEvent{
				Tag:         tag,
				Description: input.Description,
				CreatorID:   input.ActorID,
				CustodianID: input.ActorID,
				Status:      enums.ItemStatusCreated,
				Seq:         1,
			},
		}); err != nil {
			return err
		}
		return s.rec.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventItemStatusUpdated,
			AggregateType: enums.AggregateItem,
			AggregateID:   tag,
			Actor:         actor,
			Data: payloads.ItemStatusUpdatedEvent{
				Tag:        tag,
				Seq:        1,
				Status:     enums.ItemStatusCreated,
				Location:   registrationLocation,
				Note:       registrationNote,
				ActorID:    input.ActorID,
				RecordedAt: checkpointTime(checkpoint.RecordedAt),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return FromModel(item), nil
}

// GetItem returns the current-state snapshot. Deactivated items are returned
// with active=false rather than hidden; history stays readable forever.
func (s *service) GetItem(ctx context.Context, tag string) (*ItemDTO, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidIdentifier, "item tag is required")
	}
	item, err := s.items.FindByTag(ctx, tag)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("item %q not found", tag))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}
	return FromModel(item), nil
}

func (s *service) List(ctx context.Context, afterTag string, limit int) ([]ItemDTO, error) {
	items, err := s.items.List(ctx, afterTag, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list items")
	}
	out := make([]ItemDTO, 0, len(items))
	for i := range items {
		out = append(out, *FromModel(&items[i]))
	}
	return out, nil
}

// TransferCustody hands the item to a new custodian. Only the current
// custodian may transfer; the change is recorded as a checkpoint with the
// status left unchanged.
func (s *service) TransferCustody(ctx context.Context, tag string, newCustodianID, actorID uuid.UUID) (*ItemDTO, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidIdentifier, "item tag is required")
	}
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidIdentifier, "actor identity is required")
	}
	if newCustodianID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidIdentifier, "new custodian identity is required")
	}

	var dto *ItemDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		items := s.items.WithTx(tx)
		item, err := items.FindByTagForUpdate(ctx, tag)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("item %q not found", tag))
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
		}
		if !item.Active {
			return pkgerrors.New(pkgerrors.CodeInactive, "item is deactivated")
		}
		if item.CustodianID != actorID {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "caller is not the current custodian")
		}
		if item.CustodianID == newCustodianID {
			return pkgerrors.New(pkgerrors.CodeNoChange, "actor is already the custodian")
		}

		checkpoints := s.checkpoints(tx)
		seq, err := checkpoints.NextSeq(ctx, tag)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "compute checkpoint sequence")
		}
		checkpoint := &models.Checkpoint{
			ItemTag: tag,
			Seq:     seq,
			Status:  item.Status,
			Note:    transferNote,
			ActorID: actorID,
		}
		if err := checkpoints.Create(ctx, checkpoint); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append transfer checkpoint")
		}

		if err := items.UpdateCustodian(ctx, tag, newCustodianID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update custodian")
		}
		if err := s.holdings(tx).Record(ctx, &models.Holding{
			ActorID: newCustodianID,
			ItemTag: tag,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record holding")
		}

		if err := s.rec.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventItemCustodyTransferred,
			AggregateType: enums.AggregateItem,
			AggregateID:   tag,
			Actor:         &outbox.ActorRef{ActorID: actorID},
			Data: payloads.CustodyTransferredEvent{
				Tag:             tag,
				Seq:             seq,
				FromCustodianID: actorID,
				ToCustodianID:   newCustodianID,
				Status:          item.Status,
				TransferredAt:   checkpointTime(checkpoint.RecordedAt),
			},
		}); err != nil {
			return err
		}

		item.CustodianID = newCustodianID
		dto = FromModel(item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// Deactivate retires the item from further mutation. Only the creator or the
// administrator may deactivate; the flag is terminal.
func (s *service) Deactivate(ctx context.Context, tag string, actorID uuid.UUID) error {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return pkgerrors.New(pkgerrors.CodeInvalidIdentifier, "item tag is required")
	}
	if actorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeInvalidIdentifier, "actor identity is required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		items := s.items.WithTx(tx)
		item, err := items.FindByTagForUpdate(ctx, tag)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("item %q not found", tag))
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
		}
		if item.CreatorID != actorID {
			isAdmin, err := s.guard.IsAdministrator(ctx, actorID)
			if err != nil {
				return err
			}
			if !isAdmin {
				return pkgerrors.New(pkgerrors.CodeUnauthorized, "caller is neither creator nor administrator")
			}
		}
		if !item.Active {
			return pkgerrors.New(pkgerrors.CodeAlreadyInactive, "item is already deactivated")
		}

		if err := items.Deactivate(ctx, tag); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate item")
		}

		return s.rec.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventItemDeactivated,
			AggregateType: enums.AggregateItem,
			AggregateID:   tag,
			Actor:         &outbox.ActorRef{ActorID: actorID},
			Data: payloads.ItemDeactivatedEvent{
				Tag:           tag,
				ActorID:       actorID,
				DeactivatedAt: time.Now().UTC(),
			},
		})
	})
}

func (s *service) requireAuthorized(ctx context.Context, actorID uuid.UUID) error {
	ok, err := s.guard.IsAuthorized(ctx, actorID)
	if err != nil {
		return err
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "actor is not an authorized participant")
	}
	return nil
}

func checkpointTime(recorded time.Time) time.Time {
	if recorded.IsZero() {
		return time.Now().UTC()
	}
	return recorded
}
