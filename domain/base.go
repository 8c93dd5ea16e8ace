// Package domain holds the persistent entities of the order saga core:
// Order, OrderItem, SagaExecution, StepExecution, OrderEvent, RetryAttempt,
// and the ErrorInfo value object.
package domain

import "time"

// Base carries the fields every entity in this module embeds: an
// optimistic-lock Version, audit timestamps, and an explicit isNew flag.
//
// isNew lets a gateway decide INSERT vs UPDATE without relying on id
// nullability — ids here are pre-generated opaque strings (see the clock
// package), not database-assigned sequences, so a zero id is not a valid
// "not yet persisted" signal.
type Base struct {
	ID        string    `json:"id"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	isNew bool
}

// NewBase builds a Base for a freshly constructed, not-yet-persisted entity.
func NewBase(id string, now time.Time) Base {
	return Base{
		ID:        id,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
		isNew:     true,
	}
}

// GetID implements the identity accessor shared by every entity.
func (b *Base) GetID() string { return b.ID }

// GetVersion returns the optimistic-lock version.
func (b *Base) GetVersion() int64 { return b.Version }

// IsNew reports whether this entity has never been persisted.
func (b *Base) IsNew() bool { return b.isNew }

// MarkPersisted flips isNew to false. Call after the first successful
// INSERT; a no-op on subsequent calls.
func (b *Base) MarkPersisted() { b.isNew = false }

// Touch bumps the version and updated-at timestamp ahead of a write. Callers
// persist the pre-touch version as the optimistic-concurrency predicate and
// the post-touch version as the new row state.
func (b *Base) Touch(now time.Time) {
	b.Version++
	b.UpdatedAt = now
}
