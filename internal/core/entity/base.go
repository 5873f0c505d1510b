// Package entity provides the contracts shared by catalog records.
package entity

import "context"

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants without database access.
type Validatable interface {
	// Validate returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// Keyed is a catalog record identified by a natural key
// (tax code, product reference, series code, company id).
type Keyed[K comparable] interface {
	Validatable
	Key() K
}
