package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileLogger_AppendsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ccptracker.log")
	log := NewFileLogger(path)

	log.Debug("first")
	log.Error("second")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), data)
	}
	if !strings.HasSuffix(lines[0], "DEBUG: first") {
		t.Errorf("unexpected first line %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "ERROR: second") {
		t.Errorf("unexpected second line %q", lines[1])
	}
}

func TestFileLogger_UnwritablePathIsSilent(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	// The parent is a regular file, so the directory cannot be created.
	NewFileLogger(filepath.Join(blocker, "logs", "x.log")).Debug("ignored")
}
