package db

import "strings"

// IsUniqueViolation reports whether the provided error references a unique
// constraint violation. Postgres embeds the constraint name in its message
// but sqlite reports only the column list, so the generic phrasing of both
// drivers is always checked, constraint name or not.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" && strings.Contains(msg, constraintName) {
		return true
	}
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
