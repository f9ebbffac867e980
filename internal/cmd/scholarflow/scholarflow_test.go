package scholarflow

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/scholarflow/scholarflow/internal/insight"
)

func runCLI(t *testing.T, cfg Config, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := Run(context.Background(), cfg, args, &out, &errOut)
	return out.String(), errOut.String(), err
}

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{DBPath: filepath.Join(t.TempDir(), "scholarflow.db")}
}

func TestRunRequiresSubcommand(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	_, errOut, err := runCLI(t, cfg)
	if err == nil {
		t.Fatal("expected error for missing subcommand")
	}
	if !strings.Contains(errOut, "Usage: scholarflow") {
		t.Fatalf("expected usage output, got %q", errOut)
	}
}

func TestRunRejectsUnknownSubcommand(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	_, _, err := runCLI(t, cfg, "frobnicate")
	if err == nil || !strings.Contains(err.Error(), "unknown subcommand") {
		t.Fatalf("expected unknown subcommand error, got %v", err)
	}
}

func TestAddThenListShowsStudent(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	out, _, err := runCLI(t, cfg,
		"add", "-name", "Amina Yusuf", "-course", "Mathematics",
		"-frequency", "Monthly", "-fee", "500", "-due", "2026-10-01")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(out, "Enrolled Amina Yusuf") {
		t.Fatalf("add output = %q", out)
	}
	if !strings.Contains(out, "2026-10-01") {
		t.Fatalf("expected requested due date in output, got %q", out)
	}

	out, _, err = runCLI(t, cfg, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "Amina Yusuf") || !strings.Contains(out, "Mathematics") {
		t.Fatalf("list output missing student, got %q", out)
	}
}

func TestListEmptyCollection(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	out, _, err := runCLI(t, cfg, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "No students enrolled.") {
		t.Fatalf("list output = %q", out)
	}
}

func TestAddRejectsMissingName(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	_, _, err := runCLI(t, cfg, "add", "-course", "Physics")
	if err == nil {
		t.Fatal("expected validation error for missing name")
	}
}

func TestPayRecordsPaymentAndStats(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	out, _, err := runCLI(t, cfg,
		"add", "-name", "Ben Okoro", "-fee", "250", "-due", "2026-09-15")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	id := extractID(t, out)

	out, _, err = runCLI(t, cfg,
		"pay", "-id", id, "-amount", "250", "-due", "2026-10-15", "-notes", "september")
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if !strings.Contains(out, "Recorded 250.00 for Ben Okoro") {
		t.Fatalf("pay output = %q", out)
	}
	if !strings.Contains(out, "2026-10-15") {
		t.Fatalf("expected advanced due date in output, got %q", out)
	}

	out, _, err = runCLI(t, cfg, "stats")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.Contains(out, "Students:        1") {
		t.Fatalf("stats output = %q", out)
	}
	if !strings.Contains(out, "Total collected: 250.00") {
		t.Fatalf("stats output = %q", out)
	}
}

func TestPayUnknownStudent(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	_, _, err := runCLI(t, cfg, "pay", "-id", "missing", "-amount", "100", "-due", "2026-10-01")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestRemoveRequiresConfirmation(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	out, _, err := runCLI(t, cfg, "add", "-name", "Amina", "-due", "2026-10-01")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	id := extractID(t, out)

	if _, _, err := runCLI(t, cfg, "remove", "-id", id); err == nil {
		t.Fatal("expected refusal without -yes")
	}
	if out, _, err := runCLI(t, cfg, "list"); err != nil || !strings.Contains(out, "Amina") {
		t.Fatalf("student must survive unconfirmed remove, got %q (%v)", out, err)
	}

	if _, _, err := runCLI(t, cfg, "remove", "-id", id, "-yes"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if out, _, err := runCLI(t, cfg, "list"); err != nil || !strings.Contains(out, "No students enrolled.") {
		t.Fatalf("expected empty list after remove, got %q (%v)", out, err)
	}
}

func TestEditChangesOnlyProvidedFields(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	out, _, err := runCLI(t, cfg,
		"add", "-name", "Amina", "-course", "Mathematics", "-fee", "500", "-due", "2026-10-01")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	id := extractID(t, out)

	if _, _, err := runCLI(t, cfg, "edit", "-id", id, "-course", "Physics"); err != nil {
		t.Fatalf("edit: %v", err)
	}

	out, _, err = runCLI(t, cfg, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "Physics") {
		t.Fatalf("expected updated course, got %q", out)
	}
	if !strings.Contains(out, "Amina") || !strings.Contains(out, "500.00") {
		t.Fatalf("untouched fields must survive the edit, got %q", out)
	}
}

func TestBackupAndRestoreRoundTrip(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	if _, _, err := runCLI(t, cfg, "add", "-name", "Amina", "-fee", "500", "-due", "2026-10-01"); err != nil {
		t.Fatalf("add: %v", err)
	}

	backupPath := filepath.Join(t.TempDir(), "backup.json")
	if _, _, err := runCLI(t, cfg, "backup", "-o", backupPath); err != nil {
		t.Fatalf("backup: %v", err)
	}

	restored := testConfig(t)
	if _, _, err := runCLI(t, restored, "restore", "-i", backupPath); err == nil {
		t.Fatal("expected refusal without -yes")
	}
	if _, _, err := runCLI(t, restored, "restore", "-i", backupPath, "-yes"); err != nil {
		t.Fatalf("restore: %v", err)
	}

	out, _, err := runCLI(t, restored, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "Amina") {
		t.Fatalf("expected restored student, got %q", out)
	}
}

func TestRestoreRejectsInvalidBackup(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	badPath := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(badPath, []byte(`{"id":"x"}`), 0o600); err != nil {
		t.Fatalf("write bad backup: %v", err)
	}
	if _, _, err := runCLI(t, cfg, "restore", "-i", badPath, "-yes"); err == nil {
		t.Fatal("expected rejection of non-array backup")
	}
}

func TestExportCSVWritesFile(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	if _, _, err := runCLI(t, cfg, "add", "-name", "Amina", "-fee", "500", "-due", "2026-10-01"); err != nil {
		t.Fatalf("add: %v", err)
	}

	csvPath := filepath.Join(t.TempDir(), "students.csv")
	if _, _, err := runCLI(t, cfg, "export-csv", "-o", csvPath); err != nil {
		t.Fatalf("export-csv: %v", err)
	}

	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if !strings.HasPrefix(string(data), "ID,Name,Father Name,") {
		t.Fatalf("csv missing header, got %q", data)
	}
	if !strings.Contains(string(data), "Amina") {
		t.Fatalf("csv missing student row, got %q", data)
	}
}

func TestExportCSVEmptyCollection(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	out, errOut, err := runCLI(t, cfg, "export-csv")
	if err != nil {
		t.Fatalf("export-csv: %v", err)
	}
	if out != "" {
		t.Fatalf("expected no csv output for empty collection, got %q", out)
	}
	if !strings.Contains(errOut, "No students to export.") {
		t.Fatalf("expected notice on stderr, got %q", errOut)
	}
}

func TestInsightWithoutKey(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	out, _, err := runCLI(t, cfg, "insight")
	if err != nil {
		t.Fatalf("insight: %v", err)
	}
	if !strings.Contains(out, insight.MsgKeyMissing) {
		t.Fatalf("insight output = %q, want key-missing message", out)
	}
}

func TestInsightWithConfiguredEndpoint(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"Collections look healthy."}]}}]}`)
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.GeminiAPIKey = "test-key"
	cfg.GeminiEndpoint = srv.URL
	out, _, err := runCLI(t, cfg, "insight")
	if err != nil {
		t.Fatalf("insight: %v", err)
	}
	if !strings.Contains(out, "Collections look healthy.") {
		t.Fatalf("insight output = %q", out)
	}
}

// extractID pulls the generated id out of "Enrolled <name> (<id>), ..." output.
func extractID(t *testing.T, out string) string {
	t.Helper()
	start := strings.Index(out, "(")
	end := strings.Index(out, ")")
	if start < 0 || end <= start {
		t.Fatalf("no id in output %q", out)
	}
	return out[start+1 : end]
}
