package access

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/provenly/backend/pkg/db/models"
	"github.com/provenly/backend/pkg/enums"
	pkgerrors "github.com/provenly/backend/pkg/errors"
	"github.com/provenly/backend/pkg/outbox"
	"github.com/provenly/backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxRecorder interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service governs the participant set: who may touch the ledger at all.
type Service interface {
	Authorize(ctx context.Context, callerID, actorID uuid.UUID) (*ParticipantDTO, error)
	Revoke(ctx context.Context, callerID, actorID uuid.UUID) error
	TransferAdministration(ctx context.Context, callerID, newAdminID uuid.UUID) error
	IsAuthorized(ctx context.Context, actorID uuid.UUID) (bool, error)
	IsAdministrator(ctx context.Context, actorID uuid.UUID) (bool, error)
	RoleOf(ctx context.Context, actorID uuid.UUID) (enums.ParticipantRole, error)
	List(ctx context.Context) ([]ParticipantDTO, error)
	EnsureAdministrator(ctx context.Context, actorID uuid.UUID) error
}

type service struct {
	repo Repository
	tx   txRunner
	rec  outboxRecorder
}

// NewService wires the access-control service.
func NewService(repo Repository, tx txRunner, rec outboxRecorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("participant repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if rec == nil {
		return nil, fmt.Errorf("outbox recorder required")
	}
	return &service{repo: repo, tx: tx, rec: rec}, nil
}

// ParticipantDTO is the API-facing view of a participant row.
type ParticipantDTO struct {
	ActorID   uuid.UUID             `json:"actor_id"`
	Role      enums.ParticipantRole `json:"role"`
	GrantedBy *uuid.UUID            `json:"granted_by,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
}

func fromModel(p *models.Participant) *ParticipantDTO {
	return &ParticipantDTO{
		ActorID:   p.ActorID,
		Role:      p.Role,
		GrantedBy: p.GrantedBy,
		CreatedAt: p.CreatedAt,
	}
}

func (s *service) requireAdmin(ctx context.Context, callerID uuid.UUID) error {
	if callerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeInvalidIdentifier, "caller identity is required")
	}
	caller, err := s.repo.Find(ctx, callerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "administrator role required")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load caller participant")
	}
	if caller.Role != enums.ParticipantRoleAdmin {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "administrator role required")
	}
	return nil
}

// Authorize adds an actor to the authorized set. Re-authorizing an actor that
// already participates is a no-op success, not a failure.
func (s *service) Authorize(ctx context.Context, callerID, actorID uuid.UUID) (*ParticipantDTO, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidIdentifier, "actor identity is required")
	}
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}

	existing, err := s.repo.Find(ctx, actorID)
	if err == nil {
		return fromModel(existing), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load participant")
	}

	grantedBy := callerID
	participant := &models.Participant{
		ActorID:   actorID,
		Role:      enums.ParticipantRoleMember,
		GrantedBy: &grantedBy,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, participant); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create participant")
		}
		return s.rec.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventParticipantAuthorized,
			AggregateType: enums.AggregateParticipant,
			AggregateID:   actorID.String(),
			Actor:         &outbox.ActorRef{ActorID: callerID, Role: string(enums.ParticipantRoleAdmin)},
			Data: payloads.ParticipantAuthorizedEvent{
				ActorID:   actorID,
				Role:      enums.ParticipantRoleMember,
				GrantedBy: callerID,
				GrantedAt: time.Now().UTC(),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return fromModel(participant), nil
}

// Revoke removes an actor from the authorized set. Unknown actors fail with
// NotFound; the administrator cannot be revoked, only transferred.
func (s *service) Revoke(ctx context.Context, callerID, actorID uuid.UUID) error {
	if actorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeInvalidIdentifier, "actor identity is required")
	}
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return err
	}

	participant, err := s.repo.Find(ctx, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "participant not authorized")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load participant")
	}
	if participant.Role == enums.ParticipantRoleAdmin {
		return pkgerrors.New(pkgerrors.CodeValidation, "administrator cannot be revoked")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Delete(ctx, actorID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete participant")
		}
		return s.rec.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventParticipantRevoked,
			AggregateType: enums.AggregateParticipant,
			AggregateID:   actorID.String(),
			Actor:         &outbox.ActorRef{ActorID: callerID, Role: string(enums.ParticipantRoleAdmin)},
			Data: payloads.ParticipantRevokedEvent{
				ActorID:   actorID,
				RevokedBy: callerID,
				RevokedAt: time.Now().UTC(),
			},
		})
	})
}

// TransferAdministration reassigns the admin role. The outgoing administrator
// stays on as a member so their historical grants remain attributable.
func (s *service) TransferAdministration(ctx context.Context, callerID, newAdminID uuid.UUID) error {
	if newAdminID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeInvalidIdentifier, "new administrator identity is required")
	}
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return err
	}
	if newAdminID == callerID {
		return pkgerrors.New(pkgerrors.CodeNoChange, "actor is already the administrator")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if err := repo.UpdateRole(ctx, callerID, enums.ParticipantRoleMember); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "demote outgoing administrator")
		}

		_, err := repo.Find(ctx, newAdminID)
		switch {
		case err == nil:
			if err := repo.UpdateRole(ctx, newAdminID, enums.ParticipantRoleAdmin); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "promote new administrator")
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			grantedBy := callerID
			if err := repo.Create(ctx, &models.Participant{
				ActorID:   newAdminID,
				Role:      enums.ParticipantRoleAdmin,
				GrantedBy: &grantedBy,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create new administrator")
			}
		default:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load new administrator")
		}

		return s.rec.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventAdministrationTransfer,
			AggregateType: enums.AggregateAdministration,
			AggregateID:   newAdminID.String(),
			Actor:         &outbox.ActorRef{ActorID: callerID, Role: string(enums.ParticipantRoleAdmin)},
			Data: payloads.AdministrationTransferredEvent{
				FromActorID:   callerID,
				ToActorID:     newAdminID,
				TransferredAt: time.Now().UTC(),
			},
		})
	})
}

// IsAuthorized reports whether the actor may perform privileged ledger
// operations: true for the administrator and for any member.
func (s *service) IsAuthorized(ctx context.Context, actorID uuid.UUID) (bool, error) {
	if actorID == uuid.Nil {
		return false, nil
	}
	_, err := s.repo.Find(ctx, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load participant")
	}
	return true, nil
}

// IsAdministrator reports whether the actor currently holds the admin role.
func (s *service) IsAdministrator(ctx context.Context, actorID uuid.UUID) (bool, error) {
	if actorID == uuid.Nil {
		return false, nil
	}
	participant, err := s.repo.Find(ctx, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load participant")
	}
	return participant.Role == enums.ParticipantRoleAdmin, nil
}

// RoleOf returns the participant role for the actor, or NotFound.
func (s *service) RoleOf(ctx context.Context, actorID uuid.UUID) (enums.ParticipantRole, error) {
	if actorID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeInvalidIdentifier, "actor identity is required")
	}
	participant, err := s.repo.Find(ctx, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkgerrors.New(pkgerrors.CodeNotFound, "participant not authorized")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load participant")
	}
	return participant.Role, nil
}

func (s *service) List(ctx context.Context) ([]ParticipantDTO, error) {
	participants, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list participants")
	}
	out := make([]ParticipantDTO, 0, len(participants))
	for i := range participants {
		out = append(out, *fromModel(&participants[i]))
	}
	return out, nil
}

// EnsureAdministrator seeds the admin row on boot when no administrator
// exists yet. It never reassigns an existing administrator.
func (s *service) EnsureAdministrator(ctx context.Context, actorID uuid.UUID) error {
	if actorID == uuid.Nil {
		return nil
	}
	_, err := s.repo.FindAdmin(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load administrator")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, &models.Participant{
			ActorID: actorID,
			Role:    enums.ParticipantRoleAdmin,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "seed administrator")
		}
		return nil
	})
}
