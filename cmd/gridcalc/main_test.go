package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunPrintsTable(t *testing.T) {
	code, out, errOut := runCLI(t, "-rows", "2", "-cols", "2", "A1=3", "B1==A1*2", "A2=4", "B2==SUM(A1:A2)")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, errOut)
	}
	want := strings.Join([]string{
		"\tA\tB",
		"1\t3\t6",
		"2\t4\t7",
		"",
	}, "\n")
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestRunReportsCellErrors(t *testing.T) {
	code, out, _ := runCLI(t, "-rows", "1", "-cols", "2", "A1=hello", "B1==A1/0+")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(out, "#ERROR") || !strings.Contains(out, "B1: ") {
		t.Errorf("expected B1 to be reported as failed, got:\n%s", out)
	}
}

func TestRunStructuralCommands(t *testing.T) {
	code, out, errOut := runCLI(t, "-rows", "3", "-cols", "1", "A1=1", "A2=3", "A3=2", "sort-desc:A", "insert-row:1")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, errOut)
	}
	want := strings.Join([]string{
		"\tA",
		"1\t",
		"2\t3",
		"3\t2",
		"4\t1",
		"",
	}, "\n")
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestRunBadCommandContinues(t *testing.T) {
	code, out, errOut := runCLI(t, "-rows", "1", "-cols", "1", "bogus", "remove-row:x", "A1=5")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(errOut, "bogus") || !strings.Contains(errOut, "remove-row:x") {
		t.Errorf("expected both bad commands on stderr, got:\n%s", errOut)
	}
	if !strings.Contains(out, "1\t5") {
		t.Errorf("expected A1=5 to apply, got:\n%s", out)
	}
}

func TestRunSavesAndLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.yaml")
	if code, _, errOut := runCLI(t, "-rows", "1", "-cols", "2", "-out", path, "A1=2", "B1==A1^2"); code != 0 {
		t.Fatalf("save exit code = %d, stderr:\n%s", code, errOut)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected %s to exist: %v", path, err)
	}

	code, out, errOut := runCLI(t, "-in", path)
	if code != 0 {
		t.Fatalf("load exit code = %d, stderr:\n%s", code, errOut)
	}
	if !strings.Contains(out, "1\t2\t4.0") {
		t.Errorf("expected the loaded formula result, got:\n%s", out)
	}
}

func TestRunLoadFailure(t *testing.T) {
	code, _, _ := runCLI(t, "-in", filepath.Join(t.TempDir(), "missing.json"))
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}

func TestRunBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("denseThreshold: 0.1\nsparseThreshold: 0.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if code, _, _ := runCLI(t, "-config", path); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}
