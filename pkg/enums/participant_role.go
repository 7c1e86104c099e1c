package enums

import "fmt"

// ParticipantRole maps to the participant_role enum in Postgres.
type ParticipantRole string

const (
	ParticipantRoleAdmin  ParticipantRole = "admin"
	ParticipantRoleMember ParticipantRole = "member"
)

var validParticipantRoles = []ParticipantRole{
	ParticipantRoleAdmin,
	ParticipantRoleMember,
}

// String implements fmt.Stringer.
func (r ParticipantRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ParticipantRole.
func (r ParticipantRole) IsValid() bool {
	for _, candidate := range validParticipantRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseParticipantRole converts raw input into a ParticipantRole.
func ParseParticipantRole(value string) (ParticipantRole, error) {
	for _, candidate := range validParticipantRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid participant role %q", value)
}
