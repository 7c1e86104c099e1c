package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/provenly/backend/pkg/db/models"
	"github.com/provenly/backend/pkg/enums"
	pkgerrors "github.com/provenly/backend/pkg/errors"
)

// Service exposes the notification inbox for an actor.
type Service interface {
	List(ctx context.Context, params ListParams) ([]NotificationDTO, error)
	MarkRead(ctx context.Context, actorID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, actorID uuid.UUID) (int64, error)
}

type service struct {
	repo Repository
}

// NewService wires a notifications service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	return &service{repo: repo}, nil
}

// ListParams scope a notification listing to one actor.
type ListParams struct {
	ActorID    uuid.UUID
	Limit      int
	UnreadOnly bool
}

// NotificationDTO is the API shape of one inbox entry.
type NotificationDTO struct {
	ID        uuid.UUID              `json:"id"`
	Type      enums.NotificationType `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Link      *string                `json:"link,omitempty"`
	ReadAt    *time.Time             `json:"read_at,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

func notificationFromModel(model models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:        model.ID,
		Type:      model.Type,
		Title:     model.Title,
		Message:   model.Message,
		Link:      model.Link,
		ReadAt:    model.ReadAt,
		CreatedAt: model.CreatedAt,
	}
}

func (s *service) List(ctx context.Context, params ListParams) ([]NotificationDTO, error) {
	if params.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidIdentifier, "actor identity is required")
	}
	rows, err := s.repo.ListByActor(ctx, params.ActorID, params.Limit, params.UnreadOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	out := make([]NotificationDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, notificationFromModel(row))
	}
	return out, nil
}

// MarkRead flags one notification as read. Re-marking an already read
// notification is a no-op, not an error.
func (s *service) MarkRead(ctx context.Context, actorID, notificationID uuid.UUID) error {
	if actorID == uuid.Nil || notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeInvalidIdentifier, "actor and notification ids are required")
	}
	result, err := s.repo.MarkRead(ctx, actorID, notificationID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, actorID uuid.UUID) (int64, error) {
	if actorID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeInvalidIdentifier, "actor identity is required")
	}
	updated, err := s.repo.MarkAllRead(ctx, actorID, time.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return updated, nil
}
