package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/provenly/backend/pkg/db/models"
	"github.com/provenly/backend/pkg/enums"
	pkgerrors "github.com/provenly/backend/pkg/errors"
	"github.com/provenly/backend/pkg/outbox"
	"github.com/provenly/backend/pkg/outbox/payloads"
)

// ItemStore is the slice of the item repository the ledger needs: lock the
// row, read it, and keep its denormalized status in sync with the history.
type ItemStore interface {
	FindByTag(ctx context.Context, tag string) (*models.Item, error)
	FindByTagForUpdate(ctx context.Context, tag string) (*models.Item, error)
	UpdateStatus(ctx context.Context, tag string, status enums.ItemStatus) error
}

type accessGuard interface {
	IsAuthorized(ctx context.Context, actorID uuid.UUID) (bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxRecorder interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes the append-only checkpoint ledger.
type Service interface {
	AppendCheckpoint(ctx context.Context, input AppendCheckpointInput) (*CheckpointDTO, error)
	GetHistory(ctx context.Context, tag string, afterSeq, limit int) ([]CheckpointDTO, error)
}

// ServiceParams carries the history service dependencies.
type ServiceParams struct {
	Checkpoints Repository
	Items       func(tx *gorm.DB) ItemStore
	Guard       accessGuard
	Tx          txRunner
	Recorder    outboxRecorder
}

type service struct {
	repo  Repository
	items func(tx *gorm.DB) ItemStore
	guard accessGuard
	tx    txRunner
	rec   outboxRecorder
}

// NewService wires the history ledger service.
func NewService(params ServiceParams) (Service, error) {
	if params.Checkpoints == nil {
		return nil, fmt.Errorf("checkpoint repository required")
	}
	if params.Items == nil {
		return nil, fmt.Errorf("item store required")
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
		repo:  params.Checkpoints,
		items: params.Items,
		guard: params.Guard,
		tx:    params.Tx,
		rec:   params.Recorder,
	}, nil
}

// AppendCheckpointInput captures one status transition.
type AppendCheckpointInput struct {
	Tag      string
	Status   enums.ItemStatus
	Location string
	Note     string
	ActorID  uuid.UUID
}

// CheckpointDTO is the API-facing view of one history entry.
type CheckpointDTO struct {
	Seq        int              `json:"seq"`
	Status     enums.ItemStatus `json:"status"`
	Location   string           `json:"location,omitempty"`
	Note       string           `json:"note,omitempty"`
	ActorID    uuid.UUID        `json:"actor_id"`
	RecordedAt time.Time        `json:"recorded_at"`
}

func fromModel(c *models.Checkpoint) *CheckpointDTO {
	return &CheckpointDTO{
		Seq:        c.Seq,
		Status:     c.Status,
		Location:   c.Location,
		Note:       c.Note,
		ActorID:    c.ActorID,
		RecordedAt: c.RecordedAt,
	}
}

// AppendCheckpoint records a status transition and moves the item's
// denormalized status forward in the same transaction. Repeating the current
// status is rejected as NoChange so duplicate submissions stay visible.
func (s *service) AppendCheckpoint(ctx context.Context, input AppendCheckpointInput) (*CheckpointDTO, error) {
	tag := strings.TrimSpace(input.Tag)
	if tag == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidIdentifier, "item tag is required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidIdentifier, "actor identity is required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid status %q", input.Status))
	}

	ok, err := s.guard.IsAuthorized(ctx, input.ActorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor is not an authorized participant")
	}

	var dto *CheckpointDTO
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		item, err := s.items(tx).FindByTagForUpdate(ctx, tag)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("item %q not found", tag))
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
		}
		if !item.Active {
			return pkgerrors.New(pkgerrors.CodeInactive, "item is deactivated")
		}
		if item.Status == input.Status {
			return pkgerrors.New(pkgerrors.CodeNoChange, fmt.Sprintf("item already has status %q", input.Status))
		}

		repo := s.repo.WithTx(tx)
		seq, err := repo.NextSeq(ctx, tag)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "compute checkpoint sequence")
		}
		checkpoint := &models.Checkpoint{
			ItemTag:  tag,
			Seq:      seq,
			Status:   input.Status,
			Location: input.Location,
			Note:     input.Note,
			ActorID:  input.ActorID,
		}
		if err := repo.Create(ctx, checkpoint); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append checkpoint")
		}
		if err := s.items(tx).UpdateStatus(ctx, tag, input.Status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update item status")
		}

		recordedAt := checkpoint.RecordedAt
		if recordedAt.IsZero() {
			recordedAt = time.Now().UTC()
		}
		if err := s.rec.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventItemStatusUpdated,
			AggregateType: enums.AggregateItem,
			AggregateID:   tag,
			Actor:         &outbox.ActorRef{ActorID: input.ActorID},
			Data: payloads.ItemStatusUpdatedEvent{
				Tag:        tag,
				Seq:        seq,
				Status:     input.Status,
				Location:   input.Location,
				Note:       input.Note,
				ActorID:    input.ActorID,
				RecordedAt: recordedAt,
			},
		}); err != nil {
			return err
		}

		dto = fromModel(checkpoint)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// GetHistory returns the ordered checkpoint sequence for an item. Deactivated
// items remain fully readable; afterSeq/limit page through long histories.
func (s *service) GetHistory(ctx context.Context, tag string, afterSeq, limit int) ([]CheckpointDTO, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidIdentifier, "item tag is required")
	}

	if _, err := s.items(nil).FindByTag(ctx, tag); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("item %q not found", tag))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}

	rows, err := s.repo.ListByTag(ctx, tag, afterSeq, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list checkpoints")
	}
	out := make([]CheckpointDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *fromModel(&rows[i]))
	}
	return out, nil
}
