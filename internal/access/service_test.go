package access

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/provenly/backend/pkg/db/models"
	"github.com/provenly/backend/pkg/enums"
	pkgerrors "github.com/provenly/backend/pkg/errors"
	"github.com/provenly/backend/pkg/outbox"
)

type fakeRepository struct {
	participants map[uuid.UUID]*models.Participant
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{participants: make(map[uuid.UUID]*models.Participant)}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Find(ctx context.Context, actorID uuid.UUID) (*models.Participant, error) {
	if p, ok := f.participants[actorID]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) FindAdmin(ctx context.Context) (*models.Participant, error) {
	for _, p := range f.participants {
		if p.Role == enums.ParticipantRoleAdmin {
			copied := *p
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) Create(ctx context.Context, participant *models.Participant) error {
	copied := *participant
	f.participants[participant.ActorID] = &copied
	return nil
}

func (f *fakeRepository) UpdateRole(ctx context.Context, actorID uuid.UUID, role enums.ParticipantRole) error {
	if p, ok := f.participants[actorID]; ok {
		p.Role = role
	}
	return nil
}

func (f *fakeRepository) Delete(ctx context.Context, actorID uuid.UUID) error {
	delete(f.participants, actorID)
	return nil
}

func (f *fakeRepository) List(ctx context.Context) ([]models.Participant, error) {
	out := []models.Participant{}
	for _, p := range f.participants {
		out = append(out, *p)
	}
	return out, nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeRecorder struct {
	events []outbox.DomainEvent
}

func (f *fakeRecorder) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

func newTestService(t *testing.T) (Service, *fakeRepository, *fakeRecorder, uuid.UUID) {
	t.Helper()
	repo := newFakeRepository()
	rec := &fakeRecorder{}
	svc, err := NewService(repo, fakeTxRunner{}, rec)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	adminID := uuid.New()
	if err := svc.EnsureAdministrator(context.Background(), adminID); err != nil {
		t.Fatalf("seed administrator: %v", err)
	}
	return svc, repo, rec, adminID
}

func TestService_AuthorizeAndRevoke(t *testing.T) {
	svc, _, rec, adminID := newTestService(t)
	ctx := context.Background()
	memberID := uuid.New()

	dto, err := svc.Authorize(ctx, adminID, memberID)
	if err != nil {
		t.Fatalf("Authorize error: %v", err)
	}
	if dto.Role != enums.ParticipantRoleMember {
		t.Fatalf("expected member role, got %s", dto.Role)
	}
	if dto.GrantedBy == nil || *dto.GrantedBy != adminID {
		t.Fatalf("expected granted_by to record admin")
	}
	if len(rec.events) != 1 || rec.events[0].EventType != enums.EventParticipantAuthorized {
		t.Fatalf("expected one participant_authorized event, got %+v", rec.events)
	}

	ok, err := svc.IsAuthorized(ctx, memberID)
	if err != nil || !ok {
		t.Fatalf("expected member to be authorized, ok=%v err=%v", ok, err)
	}

	// re-authorizing is a no-op success and emits nothing new
	if _, err := svc.Authorize(ctx, adminID, memberID); err != nil {
		t.Fatalf("idempotent authorize failed: %v", err)
	}
	if len(rec.events) != 1 {
		t.Fatalf("idempotent authorize must not emit, got %d events", len(rec.events))
	}

	if err := svc.Revoke(ctx, adminID, memberID); err != nil {
		t.Fatalf("Revoke error: %v", err)
	}
	if len(rec.events) != 2 || rec.events[1].EventType != enums.EventParticipantRevoked {
		t.Fatalf("expected participant_revoked event")
	}
	ok, err = svc.IsAuthorized(ctx, memberID)
	if err != nil || ok {
		t.Fatalf("expected member to be revoked, ok=%v err=%v", ok, err)
	}
}

func TestService_RevokeUnknownActor(t *testing.T) {
	svc, _, _, adminID := newTestService(t)

	err := svc.Revoke(context.Background(), adminID, uuid.New())
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestService_RevokeAdministratorRejected(t *testing.T) {
	svc, _, _, adminID := newTestService(t)

	err := svc.Revoke(context.Background(), adminID, adminID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestService_NonAdminCannotAuthorize(t *testing.T) {
	svc, _, _, adminID := newTestService(t)
	ctx := context.Background()

	memberID := uuid.New()
	if _, err := svc.Authorize(ctx, adminID, memberID); err != nil {
		t.Fatalf("Authorize error: %v", err)
	}

	_, err := svc.Authorize(ctx, memberID, uuid.New())
	if !pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected UNAUTHORIZED for member caller, got %v", err)
	}

	_, err = svc.Authorize(ctx, uuid.New(), uuid.New())
	if !pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected UNAUTHORIZED for unknown caller, got %v", err)
	}
}

func TestService_TransferAdministration(t *testing.T) {
	svc, repo, rec, adminID := newTestService(t)
	ctx := context.Background()
	newAdminID := uuid.New()

	if err := svc.TransferAdministration(ctx, adminID, newAdminID); err != nil {
		t.Fatalf("TransferAdministration error: %v", err)
	}

	role, err := svc.RoleOf(ctx, newAdminID)
	if err != nil || role != enums.ParticipantRoleAdmin {
		t.Fatalf("expected new admin role, got %s err=%v", role, err)
	}
	role, err = svc.RoleOf(ctx, adminID)
	if err != nil || role != enums.ParticipantRoleMember {
		t.Fatalf("expected outgoing admin demoted to member, got %s err=%v", role, err)
	}
	if admin, err := repo.FindAdmin(ctx); err != nil || admin.ActorID != newAdminID {
		t.Fatalf("expected exactly the new admin row, got %+v err=%v", admin, err)
	}

	last := rec.events[len(rec.events)-1]
	if last.EventType != enums.EventAdministrationTransfer {
		t.Fatalf("expected administration_transferred event, got %s", last.EventType)
	}

	// old admin can no longer administer
	err = svc.TransferAdministration(ctx, adminID, uuid.New())
	if !pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected UNAUTHORIZED for demoted admin, got %v", err)
	}
}

func TestService_TransferAdministrationValidation(t *testing.T) {
	svc, _, _, adminID := newTestService(t)
	ctx := context.Background()

	err := svc.TransferAdministration(ctx, adminID, uuid.Nil)
	if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidIdentifier) {
		t.Fatalf("expected INVALID_IDENTIFIER, got %v", err)
	}

	err = svc.TransferAdministration(ctx, adminID, adminID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeNoChange) {
		t.Fatalf("expected NO_CHANGE, got %v", err)
	}
}

func TestService_EnsureAdministratorIsIdempotent(t *testing.T) {
	svc, repo, _, adminID := newTestService(t)
	ctx := context.Background()

	otherID := uuid.New()
	if err := svc.EnsureAdministrator(ctx, otherID); err != nil {
		t.Fatalf("EnsureAdministrator error: %v", err)
	}
	admin, err := repo.FindAdmin(ctx)
	if err != nil || admin.ActorID != adminID {
		t.Fatalf("existing administrator must not be replaced, got %+v", admin)
	}
}
