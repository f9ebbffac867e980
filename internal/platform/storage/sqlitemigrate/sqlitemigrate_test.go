package sqlitemigrate

import (
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	sqlDB, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "migrate.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return sqlDB
}

func TestApplyMigrationsRunsInOrderAndOnce(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"0001_create.sql": {Data: []byte(`-- +migrate Up
CREATE TABLE demo (id INTEGER PRIMARY KEY, label TEXT);
-- +migrate Down
DROP TABLE demo;
`)},
		"0002_seed.sql": {Data: []byte(`-- +migrate Up
INSERT INTO demo (label) VALUES ('one');
`)},
	}

	sqlDB := openTestDB(t)
	if err := ApplyMigrations(sqlDB, fsys); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	// A second run must not re-execute the seed insert.
	if err := ApplyMigrations(sqlDB, fsys); err != nil {
		t.Fatalf("re-apply migrations: %v", err)
	}

	var count int
	if err := sqlDB.QueryRow("SELECT COUNT(*) FROM demo").Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 seeded row, got %d", count)
	}

	var recorded int
	if err := sqlDB.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&recorded); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if recorded != 2 {
		t.Fatalf("expected 2 recorded migrations, got %d", recorded)
	}
}

func TestApplyMigrationsRequiresDB(t *testing.T) {
	t.Parallel()

	if err := ApplyMigrations(nil, fstest.MapFS{}); err == nil {
		t.Fatal("expected error for nil db")
	}
}

func TestExtractUpMigration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "no markers returns everything",
			content: "CREATE TABLE x (id INTEGER);",
			want:    "CREATE TABLE x (id INTEGER);",
		},
		{
			name: "up and down sections",
			content: `-- +migrate Up
CREATE TABLE x (id INTEGER);
-- +migrate Down
DROP TABLE x;`,
			want: "\nCREATE TABLE x (id INTEGER);\n",
		},
		{
			name: "up only",
			content: `-- +migrate Up
CREATE TABLE x (id INTEGER);`,
			want: "\nCREATE TABLE x (id INTEGER);",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ExtractUpMigration(tt.content); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}
