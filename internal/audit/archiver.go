package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/provenly/backend/pkg/logger"
	"github.com/provenly/backend/pkg/outbox"
)

const archiverConsumerName = "ledger-audit"

const (
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 250 * time.Millisecond
	defaultMaximumBackoff = 2 * time.Second
)

type tableInserter interface {
	InsertRows(ctx context.Context, table string, rows []any) error
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// RetryPolicy controls how many times BigQuery inserts are retried.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaximumBackoff time.Duration
}

// Archiver copies every published ledger event into the BigQuery audit table.
// Unlike the outbox rows, archived rows keep the full envelope forever.
type Archiver struct {
	client       tableInserter
	table        string
	manager      idempotencyChecker
	subscription *pubsub.Subscriber
	retry        RetryPolicy
	logg         *logger.Logger
}

// NewArchiver builds an audit archiver over one subscription.
func NewArchiver(client tableInserter, table string, subscription *pubsub.Subscriber, manager idempotencyChecker, retry RetryPolicy, logg *logger.Logger) (*Archiver, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery client required")
	}
	if strings.TrimSpace(table) == "" {
		return nil, fmt.Errorf("bigquery table name required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("event subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}

	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = defaultMaxAttempts
	}
	if retry.InitialBackoff <= 0 {
		retry.InitialBackoff = defaultInitialBackoff
	}
	if retry.MaximumBackoff <= 0 {
		retry.MaximumBackoff = defaultMaximumBackoff
	}
	if retry.MaximumBackoff < retry.InitialBackoff {
		retry.MaximumBackoff = retry.InitialBackoff
	}

	return &Archiver{
		client:       client,
		table:        strings.TrimSpace(table),
		manager:      manager,
		subscription: subscription,
		retry:        retry,
		logg:         logg,
	}, nil
}

// Run starts the archiver loop until the context is canceled.
func (a *Archiver) Run(ctx context.Context) error {
	return a.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if err := a.process(ctx, msg); err != nil {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

func (a *Archiver) process(ctx context.Context, msg *pubsub.Message) error {
	logCtx := a.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": msg.Attributes["event_type"],
	})

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		// Malformed messages would never parse on redelivery either.
		a.logg.Error(logCtx, "failed to decode envelope", err)
		return nil
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		a.logg.Error(logCtx, "invalid event id", err)
		return nil
	}

	already, err := a.manager.CheckAndMarkProcessed(ctx, archiverConsumerName, eventID)
	if err != nil {
		a.logg.Error(logCtx, "idempotency check failed", err)
		return err
	}
	if already {
		a.logg.Info(logCtx, "event already archived")
		return nil
	}

	row := buildRow(msg, envelope)
	if err := a.insertWithRetry(ctx, []any{row}); err != nil {
		a.logg.Error(logCtx, "failed to archive event", err)
		_ = a.manager.Delete(ctx, archiverConsumerName, eventID)
		return err
	}

	a.logg.Info(logCtx, "event archived")
	return nil
}

// AuditEventRow is the BigQuery schema for one archived event.
type AuditEventRow struct {
	EventID       string             `bigquery:"event_id"`
	EventType     string             `bigquery:"event_type"`
	AggregateType string             `bigquery:"aggregate_type"`
	AggregateID   string             `bigquery:"aggregate_id"`
	ActorID       *string            `bigquery:"actor_id"`
	ActorRole     *string            `bigquery:"actor_role"`
	OccurredAt    time.Time          `bigquery:"occurred_at"`
	ArchivedAt    time.Time          `bigquery:"archived_at"`
	Payload       cbigquery.NullJSON `bigquery:"payload"`
}

func buildRow(msg *pubsub.Message, envelope outbox.PayloadEnvelope) *AuditEventRow {
	payloadJSON := cbigquery.NullJSON{}
	if len(envelope.Data) > 0 {
		payloadJSON.Valid = true
		payloadJSON.JSONVal = string(envelope.Data)
	}

	row := &AuditEventRow{
		EventID:       envelope.EventID,
		EventType:     msg.Attributes["event_type"],
		AggregateType: msg.Attributes["aggregate_type"],
		AggregateID:   msg.Attributes["aggregate_id"],
		OccurredAt:    envelope.OccurredAt,
		ArchivedAt:    time.Now().UTC(),
		Payload:       payloadJSON,
	}
	if envelope.Actor != nil {
		actorID := envelope.Actor.ActorID.String()
		row.ActorID = &actorID
		if envelope.Actor.Role != "" {
			role := envelope.Actor.Role
			row.ActorRole = &role
		}
	}
	return row
}

func (a *Archiver) insertWithRetry(ctx context.Context, rows []any) error {
	attempts := 0
	backoff := a.retry.InitialBackoff

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := a.client.InsertRows(ctx, a.table, rows)
		if err == nil {
			return nil
		}

		attempts++
		if attempts >= a.retry.MaxAttempts || !isRetryableInsertError(err) {
			return fmt.Errorf("insert %s rows: %w", a.table, err)
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		timer.Stop()

		backoff = min(backoff*2, a.retry.MaximumBackoff)
	}
}

func isRetryableInsertError(err error) bool {
	if err == nil {
		return false
	}

	var multi *cbigquery.MultiError
	if errors.As(err, &multi) {
		if multi == nil || len(*multi) == 0 {
			return false
		}
		for _, inner := range *multi {
			if !isRetryableInsertError(inner) {
				return false
			}
		}
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests,
			http.StatusRequestTimeout,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		default:
			return false
		}
	}

	var statusErr interface{ GRPCStatus() *status.Status }
	if errors.As(err, &statusErr) {
		if st := statusErr.GRPCStatus(); st != nil {
			switch st.Code() {
			case codes.Aborted,
				codes.DeadlineExceeded,
				codes.Internal,
				codes.ResourceExhausted,
				codes.Unavailable:
				return true
			}
		}
	}

	return false
}
