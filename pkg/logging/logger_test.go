package logging

import (
	"os"
	"strings"
	"testing"
)

// The log directory and session id are process-wide, so everything that
// touches them lives in one test with a redirected home.
func TestLogger(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	logger, err := NewLogger("scanner")
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer logger.Close()

	if logger.SessionID() == "" {
		t.Error("expected a session id")
	}
	if logger.LogPath() == "" {
		t.Fatal("expected a log path")
	}

	logger.Infof("scanned %d files", 3)
	logger.Warnf("skipped %s", "bad.jsonl")

	second, err := NewLogger("traces")
	if err != nil {
		t.Fatalf("second NewLogger failed: %v", err)
	}
	defer second.Close()
	if second.SessionID() != logger.SessionID() {
		t.Error("components must share one session id")
	}
	if second.LogPath() != logger.LogPath() {
		t.Error("components must share one session log file")
	}
	second.Errorf("boom")

	raw, err := os.ReadFile(logger.LogPath())
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(raw)
	for _, want := range []string{
		"[scanner] [INFO] scanned 3 files",
		"[scanner] [WARN] skipped bad.jsonl",
		"[traces] [ERROR] boom",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("log missing %q in:\n%s", want, content)
		}
	}

	if err := logger.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close should be a no-op: %v", err)
	}
}
