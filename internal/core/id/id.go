// Package id generates UUIDv7 identifiers for stock movements and audit entries.
// Documents and lines keep numeric keys; everything appended by the engine
// itself (movements, audit rows) is keyed by a time-ordered UUID.
package id

import (
	"github.com/google/uuid"
)

type ID = uuid.UUID

// New returns a time-ordered UUIDv7, falling back to v4 if the clock source fails.
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return v
}

func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// MustParse panics on malformed input. Tests and constants only.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

func IsNil(v ID) bool {
	return v == uuid.Nil
}
