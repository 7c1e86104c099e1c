package holdings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/provenly/backend/pkg/errors"
)

// Service exposes the actor→item reverse index. Writes happen inside registry
// transactions via the repository; this surface is read-only.
type Service interface {
	ItemsOf(ctx context.Context, actorID uuid.UUID) ([]HoldingDTO, error)
}

type service struct {
	repo Repository
}

// NewService wires a holdings service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("holdings repository required")
	}
	return &service{repo: repo}, nil
}

// HoldingDTO is one "has ever held" association.
type HoldingDTO struct {
	ItemTag    string    `json:"item_tag"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// ItemsOf returns every item the actor has ever created or received custody
// of, in acquisition order. Unknown actors yield an empty slice, not an error.
func (s *service) ItemsOf(ctx context.Context, actorID uuid.UUID) ([]HoldingDTO, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidIdentifier, "actor identity is required")
	}
	rows, err := s.repo.ListByActor(ctx, actorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list holdings")
	}
	out := make([]HoldingDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, HoldingDTO{ItemTag: row.ItemTag, AcquiredAt: row.AcquiredAt})
	}
	return out, nil
}
