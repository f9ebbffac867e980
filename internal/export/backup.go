// Package export serializes the student collection to portable files and
// validates external files back into the store.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	perrors "github.com/scholarflow/scholarflow/internal/platform/errors"
	"github.com/scholarflow/scholarflow/internal/student"
	"github.com/scholarflow/scholarflow/internal/student/storage"
)

// WriteBackup serializes the whole collection verbatim as an indented JSON
// array, structurally identical to the persisted slot payload.
func WriteBackup(w io.Writer, students []student.Student) error {
	if students == nil {
		students = []student.Student{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(students); err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	return nil
}

// ParseBackup parses and validates an external backup file. The top-level
// value must be an array, and every record must carry a non-empty id and
// name; anything else is rejected wholesale.
func ParseBackup(r io.Reader) ([]student.Student, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, perrors.Wrap(perrors.CodeBackupUnreadable, "read backup file", err)
	}

	var probe any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, perrors.Wrap(perrors.CodeBackupUnreadable, "backup is not valid JSON", err)
	}
	if _, ok := probe.([]any); !ok {
		return nil, perrors.New(perrors.CodeBackupNotArray, "backup top-level value must be an array")
	}

	var students []student.Student
	if err := json.Unmarshal(raw, &students); err != nil {
		return nil, perrors.Wrap(perrors.CodeBackupRecordInvalid, "backup records do not match the student shape", err)
	}
	for i, record := range students {
		if strings.TrimSpace(record.ID) == "" || strings.TrimSpace(record.Name) == "" {
			return nil, perrors.WithMetadata(
				perrors.CodeBackupRecordInvalid,
				fmt.Sprintf("backup record %d is missing id or name", i),
				map[string]string{"index": fmt.Sprintf("%d", i)},
			)
		}
	}
	return students, nil
}

// Restore parses an external backup and, only on full validation success,
// replaces the entire store contents with it. Any failure leaves the store
// untouched.
func Restore(ctx context.Context, store storage.Store, r io.Reader) error {
	students, err := ParseBackup(r)
	if err != nil {
		return err
	}
	if err := store.ReplaceAll(ctx, students); err != nil {
		return fmt.Errorf("replace store contents: %w", err)
	}
	return nil
}
