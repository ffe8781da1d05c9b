package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, closer, err := New(Config{Level: "debug", File: path, MaxSizeMB: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l.Sugar().Infow("premium estimated", "premium", 1234.5)
	closer()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "premium estimated") {
		t.Fatalf("expected log entry in file, got %q", string(data))
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, _, err := New(Config{Level: "loud"}); err == nil {
		t.Fatal("expected error for invalid level")
	}
}

func TestNewDevelopment(t *testing.T) {
	l, closer, err := New(Config{Development: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closer()
	if !l.Core().Enabled(0) {
		t.Fatal("expected info level enabled by default")
	}
}
