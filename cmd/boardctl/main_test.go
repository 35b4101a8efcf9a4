package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

const demoProject = `name: demo
components:
  - name: R1
    value: 10k
  - name: LOGO
    schematic_only: true
netsignals:
  - name: GND
`

func setupWorkspace(t *testing.T) string {
	t.Helper()
	logger = zap.NewNop()
	ws := t.TempDir()
	projectFile = filepath.Join(ws, "project.yaml")
	dataDir = filepath.Join(ws, "data")
	if err := os.WriteFile(projectFile, []byte(demoProject), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BOARDCORE_STORAGE_DRIVER", "sqlite")
	t.Setenv("BOARDCORE_SQLITE_PATH", filepath.Join(ws, "snapshots.db"))
	t.Cleanup(func() {
		projectFile, dataDir = "project.yaml", ""
	})
	return ws
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, reset := range []func() error{
		func() error { return newCmd.Flags().Set("name", "") },
		func() error { return copyCmd.Flags().Set("name", "") },
		func() error { return checkCmd.Flags().Set("strict", "false") },
	} {
		if err := reset(); err != nil {
			t.Fatal(err)
		}
	}
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--project", projectFile, "--data", dataDir}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestNewAndInfo(t *testing.T) {
	ws := setupWorkspace(t)
	out, err := execute(t, "new", "main", "--name", "Main")
	if err != nil {
		t.Fatalf("new: %v\n%s", err, out)
	}
	if !strings.Contains(out, `created board "Main"`) {
		t.Fatalf("unexpected output: %s", out)
	}
	if _, err := os.Stat(filepath.Join(ws, "data", "demo", "boards", "main", "board.json")); err != nil {
		t.Fatalf("board file not written: %v", err)
	}
	if out, err := execute(t, "new", "main"); err == nil {
		t.Fatalf("expected existing board to be refused:\n%s", out)
	}

	out, err = execute(t, "info", "main")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	for _, want := range []string{"board:        Main", "devices:      0", "polygons:     1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("info output lacks %q:\n%s", want, out)
		}
	}
}

func TestCheckReportsUnplacedComponents(t *testing.T) {
	setupWorkspace(t)
	if _, err := execute(t, "new", "main", "--name", "Main"); err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err := execute(t, "check", "main")
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	if !strings.Contains(out, "[warn] Unplaced Component: R1 (Board: Main)") || strings.Contains(out, "LOGO") {
		t.Fatalf("unexpected erc output:\n%s", out)
	}
	if !strings.HasSuffix(out, "ok\n") {
		t.Fatalf("expected ok:\n%s", out)
	}
	if _, err := execute(t, "check", "main", "--strict"); err == nil {
		t.Fatalf("strict check must fail on warnings")
	}
	// check leaves the board in place
	if _, err := execute(t, "info", "main"); err != nil {
		t.Fatalf("board gone after check: %v", err)
	}
}

func TestCopyCreatesIndependentBoard(t *testing.T) {
	setupWorkspace(t)
	if _, err := execute(t, "new", "main", "--name", "Main"); err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err := execute(t, "copy", "main", "alt", "--name", "Alt")
	if err != nil {
		t.Fatalf("copy: %v\n%s", err, out)
	}
	out, err = execute(t, "info", "alt")
	if err != nil {
		t.Fatalf("info alt: %v", err)
	}
	if !strings.Contains(out, "board:        Alt") || !strings.Contains(out, "polygons:     1") {
		t.Fatalf("unexpected copy:\n%s", out)
	}
	if _, err := execute(t, "copy", "main", "second"); err != nil {
		t.Fatalf("second copy: %v", err)
	}
	if _, err := execute(t, "copy", "nope", "other"); err == nil {
		t.Fatalf("expected error for missing source board")
	}
}

func TestCheckpointAndRestore(t *testing.T) {
	setupWorkspace(t)
	out, err := execute(t, "new", "main", "--name", "Main")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if out, err = execute(t, "checkpoint", "main"); err != nil {
		t.Fatalf("checkpoint: %v\n%s", err, out)
	}
	fields := strings.Fields(out)
	if len(fields) < 2 || fields[0] != "checkpoint" {
		t.Fatalf("unexpected checkpoint output: %s", out)
	}
	id := fields[1]

	out, err = execute(t, "checkpoints")
	if err != nil {
		t.Fatalf("checkpoints: %v", err)
	}
	if !strings.HasPrefix(out, id+"\tMain\t") {
		t.Fatalf("checkpoint not listed:\n%s", out)
	}

	if out, err = execute(t, "restore", id, "restored"); err != nil {
		t.Fatalf("restore: %v\n%s", err, out)
	}
	out, err = execute(t, "info", "restored")
	if err != nil {
		t.Fatalf("info restored: %v", err)
	}
	if !strings.Contains(out, "uuid:         "+id) {
		t.Fatalf("restored board lost its identity:\n%s", out)
	}
	if _, err := execute(t, "restore", id, "restored"); err == nil {
		t.Fatalf("restore must not overwrite an existing board")
	}
}
