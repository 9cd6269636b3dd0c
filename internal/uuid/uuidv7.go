// Package uuid generates and validates the time-ordered identifiers used as
// primary keys across the Budgeteer schema.
package uuid

import (
	googleuuid "github.com/google/uuid"
)

// New generates a new UUIDv7 based on the current timestamp.
// UUIDv7 is time-ordered and suitable for use as database primary keys.
func New() string {
	return googleuuid.Must(googleuuid.NewV7()).String()
}

// Valid reports whether s is a canonical, hyphenated UUID string.
func Valid(s string) bool {
	if len(s) != 36 {
		return false
	}
	return googleuuid.Validate(s) == nil
}
