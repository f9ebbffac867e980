// Package storage defines the persistence contract for the student collection.
package storage

import (
	"context"
	"errors"

	"github.com/scholarflow/scholarflow/internal/student"
)

// ErrNotFound indicates a mutation referenced a student id absent from the
// collection.
var ErrNotFound = errors.New("student not found")

// Store persists the whole student collection as one unit. Every mutation
// is a whole-collection read-modify-write with last-writer-wins semantics;
// there is no per-record locking. Implementations serialize calls within
// one process, but concurrent processes race undefined.
type Store interface {
	// GetAll returns the full collection. A missing or unreadable slot
	// reads as an empty collection rather than an error.
	GetAll(ctx context.Context) ([]student.Student, error)
	// Save upserts one student: replace-by-id when present, else append.
	Save(ctx context.Context, s student.Student) error
	// Delete removes the student with the given id. Deleting an absent id
	// is a no-op; the student's payments vanish with the record.
	Delete(ctx context.Context, id string) error
	// ReplaceAll overwrites the entire collection. Restore uses this; it is
	// a destructive replacement, never a merge.
	ReplaceAll(ctx context.Context, students []student.Student) error
}
