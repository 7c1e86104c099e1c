package enums

import "fmt"

// ItemStatus maps to the item_status enum in Postgres.
type ItemStatus string

const (
	ItemStatusCreated   ItemStatus = "created"
	ItemStatusInTransit ItemStatus = "in_transit"
	ItemStatusStored    ItemStatus = "stored"
	ItemStatusDelivered ItemStatus = "delivered"
	ItemStatusDamaged   ItemStatus = "damaged"
	ItemStatusRecalled  ItemStatus = "recalled"
)

var validItemStatuses = []ItemStatus{
	ItemStatusCreated,
	ItemStatusInTransit,
	ItemStatusStored,
	ItemStatusDelivered,
	ItemStatusDamaged,
	ItemStatusRecalled,
}

// String implements fmt.Stringer.
func (s ItemStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ItemStatus.
func (s ItemStatus) IsValid() bool {
	for _, candidate := range validItemStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseItemStatus converts raw input into an ItemStatus.
func ParseItemStatus(value string) (ItemStatus, error) {
	for _, candidate := range validItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item status %q", value)
}
