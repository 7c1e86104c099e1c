package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateItem           OutboxAggregateType = "item"
	AggregateParticipant    OutboxAggregateType = "participant"
	AggregateAdministration OutboxAggregateType = "administration"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateItem,
	AggregateParticipant,
	AggregateAdministration,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventItemRegistered         OutboxEventType = "item_registered"
	EventItemStatusUpdated      OutboxEventType = "item_status_updated"
	EventItemDeactivated        OutboxEventType = "item_deactivated"
	EventItemCustodyTransferred OutboxEventType = "item_custody_transferred"
	EventParticipantAuthorized  OutboxEventType = "participant_authorized"
	EventParticipantRevoked     OutboxEventType = "participant_revoked"
	EventAdministrationTransfer OutboxEventType = "administration_transferred"
)

var validOutboxEventTypes = []OutboxEventType{
	EventItemRegistered,
	EventItemStatusUpdated,
	EventItemDeactivated,
	EventItemCustodyTransferred,
	EventParticipantAuthorized,
	EventParticipantRevoked,
	EventAdministrationTransfer,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}

// OutboxDLQErrorReason categorizes why an event landed in the dead letter queue.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

var validOutboxDLQErrorReasons = []OutboxDLQErrorReason{
	OutboxDLQReasonMaxAttempts,
	OutboxDLQReasonNonRetryable,
}

// IsValid reports whether the value matches a known DLQ error reason.
func (r OutboxDLQErrorReason) IsValid() bool {
	for _, candidate := range validOutboxDLQErrorReasons {
		if candidate == r {
			return true
		}
	}
	return false
}
