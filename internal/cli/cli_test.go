package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ALT-F4-LLC/docketd/internal/output"
)

// resetFlags restores every flag to its default and gives each command a
// fresh context so runs don't leak state into each other.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	cmd.SetContext(context.Background())
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// runCLI executes the root command with args and returns stdout, stderr and
// the exit code.
func runCLI(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	code := Execute()
	return stdout.String(), stderr.String(), code
}

type envelope struct {
	OK             bool                `json:"ok"`
	Data           json.RawMessage     `json:"data"`
	Error          string              `json:"error"`
	Code           output.ErrorCode    `json:"code"`
	Fields         map[string][]string `json:"fields"`
	CurrentVersion int                 `json:"current_version"`
}

func decodeEnvelope(t *testing.T, s string) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal([]byte(s), &env); err != nil {
		t.Fatalf("unmarshal envelope %q: %v", s, err)
	}
	return env
}

// setupStore points DOCKET_PATH at a fresh directory and initializes it.
func setupStore(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DOCKET_PATH", dir)
	t.Setenv("NO_COLOR", "1")

	if _, stderr, code := runCLI(t, "init", "--json"); code != 0 {
		t.Fatalf("init exit code = %d, stderr = %s", code, stderr)
	}
	return dir
}

func writeCSV(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "issues.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing csv: %v", err)
	}
	return path
}

func TestCommandsRequireInit(t *testing.T) {
	t.Setenv("DOCKET_PATH", t.TempDir())
	t.Setenv("NO_COLOR", "1")

	stdout, _, code := runCLI(t, "list", "--json")
	if code != output.ExitNotFound {
		t.Fatalf("exit code = %d, want %d", code, output.ExitNotFound)
	}
	env := decodeEnvelope(t, stdout)
	if !strings.Contains(env.Error, "docketd init") {
		t.Errorf("error = %q, want hint to run init", env.Error)
	}
}

func TestInitIsIdempotent(t *testing.T) {
	setupStore(t)

	stdout, _, code := runCLI(t, "init", "--json")
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	var res initResult
	if err := json.Unmarshal(decodeEnvelope(t, stdout).Data, &res); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if res.Created {
		t.Error("created = true on second init, want false")
	}
	if res.SchemaVersion != 1 {
		t.Errorf("schema_version = %d, want 1", res.SchemaVersion)
	}
}

func TestImportListAndShow(t *testing.T) {
	dir := setupStore(t)
	path := writeCSV(t, dir, "title,description,status,assignee\n"+
		"Login broken,Cannot sign in,open,7\n"+
		",no title,open,\n"+
		"Slow search,,in_progress,\n")

	stdout, _, code := runCLI(t, "import", path, "--json")
	if code != 0 {
		t.Fatalf("import exit code = %d, want 0", code)
	}
	var res struct {
		TotalRows int `json:"total_rows"`
		Created   int `json:"created"`
		Failed    int `json:"failed"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, stdout).Data, &res); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if res.TotalRows != 3 || res.Created != 2 || res.Failed != 1 {
		t.Errorf("result = %+v, want 3 total, 2 created, 1 failed", res)
	}

	stdout, _, code = runCLI(t, "list", "--json", "--status", "open")
	if code != 0 {
		t.Fatalf("list exit code = %d, want 0", code)
	}
	var list struct {
		Issues []struct {
			ID    int    `json:"id"`
			Title string `json:"title"`
		} `json:"issues"`
		Total int `json:"total"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, stdout).Data, &list); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if list.Total != 1 || list.Issues[0].Title != "Login broken" {
		t.Errorf("list = %+v, want only the open issue", list)
	}

	stdout, _, code = runCLI(t, "show", "#1")
	if code != 0 {
		t.Fatalf("show exit code = %d, want 0", code)
	}
	for _, want := range []string{"#1", "Login broken", "user 7"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected %q in show output, got:\n%s", want, stdout)
		}
	}
}

func TestImportRejectsNonCSV(t *testing.T) {
	dir := setupStore(t)
	path := filepath.Join(dir, "issues.txt")
	if err := os.WriteFile(path, []byte("title\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, code := runCLI(t, "import", path, "--json")
	if code != output.ExitValidation {
		t.Errorf("exit code = %d, want %d", code, output.ExitValidation)
	}
}

func TestImportMissingColumns(t *testing.T) {
	dir := setupStore(t)
	path := writeCSV(t, dir, "title,status\nA,open\n")

	stdout, _, code := runCLI(t, "import", path, "--json")
	if code != output.ExitValidation {
		t.Fatalf("exit code = %d, want %d", code, output.ExitValidation)
	}
	env := decodeEnvelope(t, stdout)
	if len(env.Fields["file"]) == 0 {
		t.Errorf("fields = %v, want a file error", env.Fields)
	}
}

func TestUpdateConflict(t *testing.T) {
	dir := setupStore(t)
	path := writeCSV(t, dir, "title,description,status,assignee\nTarget,,open,\n")
	if _, _, code := runCLI(t, "import", path, "--json"); code != 0 {
		t.Fatalf("import exit code = %d", code)
	}

	stdout, _, code := runCLI(t, "update", "1", "--version", "1", "--status", "in_progress", "--json")
	if code != 0 {
		t.Fatalf("first update exit code = %d, stdout = %s", code, stdout)
	}
	var issue struct {
		Version int    `json:"version"`
		Status  string `json:"status"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, stdout).Data, &issue); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if issue.Version != 2 || issue.Status != "in_progress" {
		t.Errorf("issue = %+v, want version 2 in_progress", issue)
	}

	stdout, _, code = runCLI(t, "update", "1", "--version", "1", "--status", "resolved", "--json")
	if code != output.ExitConflict {
		t.Fatalf("stale update exit code = %d, want %d", code, output.ExitConflict)
	}
	env := decodeEnvelope(t, stdout)
	if env.Code != output.ErrConflict || env.CurrentVersion != 2 {
		t.Errorf("envelope = %+v, want CONFLICT with current_version 2", env)
	}
}

func TestUpdateRequiresVersion(t *testing.T) {
	dir := setupStore(t)
	path := writeCSV(t, dir, "title,description,status,assignee\nTarget,,open,\n")
	if _, _, code := runCLI(t, "import", path, "--json"); code != 0 {
		t.Fatalf("import exit code = %d", code)
	}

	stdout, _, code := runCLI(t, "update", "1", "--title", "New", "--json")
	if code != output.ExitValidation {
		t.Fatalf("exit code = %d, want %d", code, output.ExitValidation)
	}
	if env := decodeEnvelope(t, stdout); len(env.Fields["version"]) == 0 {
		t.Errorf("fields = %v, want a version error", env.Fields)
	}
}

func TestShowMissingIssue(t *testing.T) {
	setupStore(t)

	_, stderr, code := runCLI(t, "show", "42")
	if code != output.ExitNotFound {
		t.Fatalf("exit code = %d, want %d", code, output.ExitNotFound)
	}
	if !strings.Contains(stderr, "issue #42 not found") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestStatusCommentLabelAndReports(t *testing.T) {
	dir := setupStore(t)
	path := writeCSV(t, dir, "title,description,status,assignee\n"+
		"A,,open,3\n"+
		"B,,open,3\n"+
		"C,,open,5\n")
	if _, _, code := runCLI(t, "import", path, "--json"); code != 0 {
		t.Fatalf("import exit code = %d", code)
	}

	if _, _, code := runCLI(t, "status", "resolved", "1", "2", "99", "--json"); code != output.ExitValidation {
		t.Errorf("status with missing issue exit code = %d, want %d", code, output.ExitValidation)
	}
	if _, _, code := runCLI(t, "status", "resolved", "1", "2", "--json"); code != 0 {
		t.Fatalf("status exit code = %d, want 0", code)
	}

	if _, _, code := runCLI(t, "comment", "1", "fixed in main", "--author", "3", "--json"); code != 0 {
		t.Fatalf("comment exit code = %d, want 0", code)
	}
	if _, _, code := runCLI(t, "label", "1", "bug", "backend", "--json"); code != 0 {
		t.Fatalf("label exit code = %d, want 0", code)
	}

	stdout, _, code := runCLI(t, "report", "assignees", "--json")
	if code != 0 {
		t.Fatalf("report assignees exit code = %d", code)
	}
	var counts []struct {
		Assignee   int64 `json:"assignee"`
		IssueCount int   `json:"issue_count"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, stdout).Data, &counts); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(counts) != 2 || counts[0].Assignee != 3 || counts[0].IssueCount != 2 {
		t.Errorf("counts = %+v, want user 3 first with 2 issues", counts)
	}

	stdout, _, code = runCLI(t, "report", "latency", "--json")
	if code != 0 {
		t.Fatalf("report latency exit code = %d", code)
	}
	var latency struct {
		Samples int `json:"sample_size"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, stdout).Data, &latency); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if latency.Samples != 2 {
		t.Errorf("sample_size = %d, want 2", latency.Samples)
	}

	stdout, _, code = runCLI(t, "timeline", "1")
	if code != 0 {
		t.Fatalf("timeline exit code = %d", code)
	}
	for _, want := range []string{"Issue created", "user 3 commented: fixed in main", "Labels: backend, bug"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected %q in timeline, got:\n%s", want, stdout)
		}
	}

	stdout, _, code = runCLI(t, "labels")
	if code != 0 {
		t.Fatalf("labels exit code = %d", code)
	}
	if !strings.Contains(stdout, "backend") || !strings.Contains(stdout, "bug") {
		t.Errorf("labels output = %q", stdout)
	}
}

func TestResetRequiresYesInJSONMode(t *testing.T) {
	dir := setupStore(t)
	path := writeCSV(t, dir, "title,description,status,assignee\nA,,open,\n")
	if _, _, code := runCLI(t, "import", path, "--json"); code != 0 {
		t.Fatalf("import exit code = %d", code)
	}

	if _, _, code := runCLI(t, "reset", "--json"); code != output.ExitValidation {
		t.Errorf("reset without --yes exit code = %d, want %d", code, output.ExitValidation)
	}

	stdout, _, code := runCLI(t, "reset", "--yes", "--json")
	if code != 0 {
		t.Fatalf("reset exit code = %d", code)
	}
	var res struct {
		Deleted int `json:"deleted"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, stdout).Data, &res); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if res.Deleted != 1 {
		t.Errorf("deleted = %d, want 1", res.Deleted)
	}
}

func TestConfigReportsEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DOCKET_PATH", dir)
	t.Setenv("DOCKET_RATE_LIMIT", "0")
	t.Setenv("NO_COLOR", "1")

	stdout, _, code := runCLI(t, "config", "--json")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	var info configInfo
	if err := json.Unmarshal(decodeEnvelope(t, stdout).Data, &info); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if info.DBPath != filepath.Join(dir, "issues.db") || info.DBFound {
		t.Errorf("info = %+v, want missing db under %s", info, dir)
	}
	if !info.PathSet || info.RateLimit != 0 {
		t.Errorf("info = %+v, want path_set and rate limit 0", info)
	}
}

func TestInvalidConfigIsValidationError(t *testing.T) {
	t.Setenv("DOCKET_PATH", t.TempDir())
	t.Setenv("DOCKET_LOG_FORMAT", "xml")
	t.Setenv("NO_COLOR", "1")

	if _, _, code := runCLI(t, "version", "--json"); code != output.ExitValidation {
		t.Errorf("exit code = %d, want %d", code, output.ExitValidation)
	}
}

func TestVersion(t *testing.T) {
	t.Setenv("DOCKET_PATH", t.TempDir())
	t.Setenv("NO_COLOR", "1")

	stdout, _, code := runCLI(t, "version")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(stdout, "docketd version dev") {
		t.Errorf("stdout = %q", stdout)
	}
}
