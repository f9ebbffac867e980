// Package memory provides an in-memory student store for tests and
// ephemeral runs.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/scholarflow/scholarflow/internal/student"
	"github.com/scholarflow/scholarflow/internal/student/storage"
)

// Store keeps the student collection in process memory.
type Store struct {
	mu       sync.Mutex
	students []student.Student
}

var _ storage.Store = (*Store)(nil)

// New returns an empty in-memory store.
func New() *Store {
	return &Store{students: []student.Student{}}
}

// GetAll returns a copy of the collection in insertion order.
func (s *Store) GetAll(ctx context.Context) ([]student.Student, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]student.Student, len(s.students))
	copy(out, s.students)
	return out, nil
}

// Save upserts one student by id.
func (s *Store) Save(ctx context.Context, record student.Student) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("student id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.students {
		if s.students[i].ID == record.ID {
			s.students[i] = record
			return nil
		}
	}
	s.students = append(s.students, record)
	return nil
}

// Delete removes the student with the given id, if present.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.students[:0]
	for _, record := range s.students {
		if record.ID != id {
			kept = append(kept, record)
		}
	}
	s.students = kept
	return nil
}

// ReplaceAll overwrites the entire collection.
func (s *Store) ReplaceAll(ctx context.Context, students []student.Student) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.students = make([]student.Student, len(students))
	copy(s.students, students)
	return nil
}
