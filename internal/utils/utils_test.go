package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConvertBytesToHumanReadable(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0 B"},
		{-5, "0 B"},
		{999, "999 B"},
		{1000, "1.0 kB"},
		{2500000, "2.5 MB"},
	}
	for _, tt := range tests {
		if got := ConvertBytesToHumanReadable(tt.in); got != tt.want {
			t.Errorf("ConvertBytesToHumanReadable(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncateString(t *testing.T) {
	if got := TruncateString("short", 10); got != "short" {
		t.Errorf("got %q, want short", got)
	}
	if got := TruncateString("a-very-long-file-name.zip", 10); got != "a-very-..." {
		t.Errorf("got %q, want a-very-...", got)
	}
	if got := TruncateString("ファイル名がとても長い", 6); got != "ファイ..." {
		t.Errorf("got %q, want rune-safe truncation", got)
	}
}

func TestConfigureDebug_WritesToFile(t *testing.T) {
	dir := t.TempDir()
	SetVerbose(false)
	if err := ConfigureDebug(dir); err != nil {
		t.Fatalf("ConfigureDebug: %v", err)
	}
	t.Cleanup(func() { _ = ConfigureDebug("") })

	Debug("hello %s", "log")
	SyncDebug()

	path := DebugLogPath()
	if filepath.Dir(path) != dir {
		t.Fatalf("log path %q not inside %q", path, dir)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "hello log") {
		t.Errorf("log file missing message, got %q", data)
	}
}

func TestCleanupLogs(t *testing.T) {
	dir := t.TempDir()
	names := []string{
		"debug-20240101-000000.log",
		"debug-20240102-000000.log",
		"debug-20240103-000000.log",
		"other.txt",
	}
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	CleanupLogs(dir, 2)

	if _, err := os.Stat(filepath.Join(dir, names[0])); !os.IsNotExist(err) {
		t.Errorf("oldest log should be removed, stat err: %v", err)
	}
	for _, n := range names[1:] {
		if _, err := os.Stat(filepath.Join(dir, n)); err != nil {
			t.Errorf("%s should remain: %v", n, err)
		}
	}
}
