package enums

import "testing"

func TestItemStatusIsValid(t *testing.T) {
	for _, status := range validItemStatuses {
		if !status.IsValid() {
			t.Fatalf("expected %q to be valid", status)
		}
	}
	if ItemStatus("melted").IsValid() {
		t.Fatal("expected unknown status to be invalid")
	}
}

func TestParseItemStatus(t *testing.T) {
	status, err := ParseItemStatus("in_transit")
	if err != nil {
		t.Fatalf("ParseItemStatus error: %v", err)
	}
	if status != ItemStatusInTransit {
		t.Fatalf("unexpected status %q", status)
	}

	if _, err := ParseItemStatus("IN_TRANSIT"); err == nil {
		t.Fatal("expected case-sensitive parse to fail")
	}
}

func TestParseParticipantRole(t *testing.T) {
	role, err := ParseParticipantRole("admin")
	if err != nil {
		t.Fatalf("ParseParticipantRole error: %v", err)
	}
	if role != ParticipantRoleAdmin {
		t.Fatalf("unexpected role %q", role)
	}
	if _, err := ParseParticipantRole("owner"); err == nil {
		t.Fatal("expected unknown role to fail")
	}
}
