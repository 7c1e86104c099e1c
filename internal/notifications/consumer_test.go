package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/provenly/backend/pkg/db/models"
	"github.com/provenly/backend/pkg/enums"
	"github.com/provenly/backend/pkg/logger"
	"github.com/provenly/backend/pkg/outbox"
	"github.com/provenly/backend/pkg/outbox/idempotency"
	"github.com/provenly/backend/pkg/outbox/payloads"
)

type fakeIdempotencyStore struct {
	keys map[string]string
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{keys: map[string]string{}}
}

func (f *fakeIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := f.keys[key]
	if !ok {
		return "", goredis.Nil
	}
	return value, nil
}

func (f *fakeIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := f.keys[key]; ok {
		return false, nil
	}
	f.keys[key] = fmt.Sprint(value)
	return true, nil
}

func (f *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("test:idempotency:%s:%s", scope, id)
}

func (f *fakeIdempotencyStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.keys, key)
	}
	return nil
}

func newTestConsumer(t *testing.T, repo Repository) *Consumer {
	t.Helper()
	manager, err := idempotency.NewManager(newFakeIdempotencyStore(), time.Hour)
	if err != nil {
		t.Fatalf("build idempotency manager: %v", err)
	}
	logg := logger.New(logger.Options{ServiceName: "notifications-test"})
	return &Consumer{
		repo:        repo,
		idempotency: manager,
		logg:        logg,
	}
}

func eventMessage(t *testing.T, eventType enums.OutboxEventType, eventID uuid.UUID, payload any) *pubsub.Message {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	envelope, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID.String(),
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return &pubsub.Message{
		ID:         eventID.String(),
		Data:       envelope,
		Attributes: map[string]string{"event_type": string(eventType)},
	}
}

func TestConsumerCreatesCustodyNotification(t *testing.T) {
	repo := &fakeRepository{}
	consumer := newTestConsumer(t, repo)

	custodian := uuid.New()
	msg := eventMessage(t, enums.EventItemCustodyTransferred, uuid.New(), payloads.CustodyTransferredEvent{
		Tag:           "CRATE-010",
		ToCustodianID: custodian,
		Status:        enums.ItemStatusInTransit,
		TransferredAt: time.Now().UTC(),
	})

	result := consumer.process(context.Background(), msg)
	if !result.ack || result.nack {
		t.Fatalf("expected ack, got %+v", result)
	}

	rows, err := repo.ListByActor(context.Background(), custodian, 10, false)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(rows))
	}
	if rows[0].Type != enums.NotificationTypeCustody {
		t.Fatalf("unexpected notification type %q", rows[0].Type)
	}
}

func TestConsumerDeduplicatesRedeliveries(t *testing.T) {
	repo := &fakeRepository{}
	consumer := newTestConsumer(t, repo)

	actorID := uuid.New()
	eventID := uuid.New()
	msg := eventMessage(t, enums.EventParticipantAuthorized, eventID, payloads.ParticipantAuthorizedEvent{
		ActorID:   actorID,
		Role:      enums.ParticipantRoleMember,
		GrantedBy: uuid.New(),
		GrantedAt: time.Now().UTC(),
	})

	for i := 0; i < 2; i++ {
		result := consumer.process(context.Background(), msg)
		if !result.ack {
			t.Fatalf("delivery %d: expected ack, got %+v", i, result)
		}
	}

	rows, err := repo.ListByActor(context.Background(), actorID, 10, false)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected deduplicated single notification, got %d", len(rows))
	}
}

func TestConsumerSkipsUnrelatedEvents(t *testing.T) {
	repo := &fakeRepository{}
	consumer := newTestConsumer(t, repo)

	msg := eventMessage(t, enums.EventItemRegistered, uuid.New(), payloads.ItemRegisteredEvent{
		Tag:       "CRATE-011",
		CreatorID: uuid.New(),
	})

	result := consumer.process(context.Background(), msg)
	if !result.ack {
		t.Fatalf("expected ack for skipped event, got %+v", result)
	}
	if len(repo.rows) != 0 {
		t.Fatalf("expected no notifications, got %d", len(repo.rows))
	}
}

func TestConsumerNacksOnCreateFailure(t *testing.T) {
	repo := &failingRepository{}
	consumer := newTestConsumer(t, repo)

	msg := eventMessage(t, enums.EventParticipantRevoked, uuid.New(), payloads.ParticipantRevokedEvent{
		ActorID:   uuid.New(),
		RevokedBy: uuid.New(),
		RevokedAt: time.Now().UTC(),
	})

	result := consumer.process(context.Background(), msg)
	if !result.nack {
		t.Fatalf("expected nack on persistence failure, got %+v", result)
	}
}

type failingRepository struct {
	fakeRepository
}

func (f *failingRepository) Create(ctx context.Context, notification *models.Notification) error {
	return fmt.Errorf("database unavailable")
}
