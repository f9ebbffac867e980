// Package sqlite provides a SQLite-backed student store.
//
// The whole collection lives in one row of the slots table, serialized as a
// JSON array under a versioned slot name. A payload schema change means a
// new slot name and an empty collection, not a migration of the payload.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/scholarflow/scholarflow/internal/platform/storage/sqlitemigrate"
	"github.com/scholarflow/scholarflow/internal/student"
	"github.com/scholarflow/scholarflow/internal/student/storage"
	"github.com/scholarflow/scholarflow/internal/student/storage/sqlite/migrations"
)

// SlotName is the versioned slot holding the student collection.
const SlotName = "scholarflow_data_v2"

// Store persists the student collection in a local SQLite file.
type Store struct {
	sqlDB *sql.DB
	log   *zap.Logger

	// mu serializes read-modify-write cycles within this process. Two
	// separate processes still race last-writer-wins, which the
	// single-writer assumption leaves unguarded.
	mu sync.Mutex
}

var _ storage.Store = (*Store)(nil)

// Open opens the student store at path, creating parent directories and
// applying embedded migrations.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, log: logger}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// GetAll returns the full collection. A missing slot or a payload that no
// longer parses reads as an empty collection: invalid persisted content must
// never take the tool down.
func (s *Store) GetAll(ctx context.Context) ([]student.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAll(ctx)
}

// Save upserts one student by id and writes the whole collection back.
func (s *Store) Save(ctx context.Context, record student.Student) error {
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("student id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	students, err := s.readAll(ctx)
	if err != nil {
		return err
	}
	replaced := false
	for i := range students {
		if students[i].ID == record.ID {
			students[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		students = append(students, record)
	}
	return s.writeAll(ctx, students)
}

// Delete removes the student with the given id, if present.
func (s *Store) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("student id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	students, err := s.readAll(ctx)
	if err != nil {
		return err
	}
	kept := students[:0]
	for _, record := range students {
		if record.ID != id {
			kept = append(kept, record)
		}
	}
	return s.writeAll(ctx, kept)
}

// ReplaceAll overwrites the entire slot with the given collection.
func (s *Store) ReplaceAll(ctx context.Context, students []student.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeAll(ctx, students)
}

func (s *Store) readAll(ctx context.Context) ([]student.Student, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	var payload string
	row := s.sqlDB.QueryRowContext(ctx, "SELECT payload FROM slots WHERE name = ?", SlotName)
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return []student.Student{}, nil
		}
		return nil, fmt.Errorf("read slot %s: %w", SlotName, err)
	}

	var students []student.Student
	if err := json.Unmarshal([]byte(payload), &students); err != nil {
		s.log.Warn("slot payload is corrupt, treating as empty collection",
			zap.String("slot", SlotName),
			zap.Error(err))
		return []student.Student{}, nil
	}
	if students == nil {
		students = []student.Student{}
	}
	return students, nil
}

func (s *Store) writeAll(ctx context.Context, students []student.Student) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if students == nil {
		students = []student.Student{}
	}

	payload, err := json.Marshal(students)
	if err != nil {
		return fmt.Errorf("marshal collection: %w", err)
	}
	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO slots (name, payload, updated_at) VALUES (?, ?, ?)
ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		SlotName,
		string(payload),
		time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("write slot %s: %w", SlotName, err)
	}
	return nil
}
