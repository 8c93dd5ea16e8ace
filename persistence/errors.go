package persistence

import "errors"

// ErrExecutionInProgress is returned by InsertExecution when the order
// already has an execution in IN_PROGRESS status.
var ErrExecutionInProgress = errors.New("persistence: order already has an in-progress execution")

// ErrVersionConflict is returned by TransitionExecution when fromStatus no
// longer matches the persisted row — another worker already moved it.
var ErrVersionConflict = errors.New("persistence: version conflict on execution transition")

// ErrNotFound is returned when a lookup by id finds no row.
var ErrNotFound = errors.New("persistence: not found")
