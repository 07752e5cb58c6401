package common

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetupSlog_file(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	p := filepath.Join(t.TempDir(), "logs", "ortomap.log")
	closer, err := SetupSlog(SlogOptions{Level: slog.LevelInfo, Format: "json", File: p, MaxSizeMB: 1})
	if err != nil {
		t.Fatal(err)
	}
	slog.Debug("hidden")
	slog.Info("Hello", "d", "test")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	if !strings.Contains(s, `"msg":"Hello"`) || !strings.Contains(s, `"d":"test"`) {
		t.Errorf("log got=%s", s)
	}
	if strings.Contains(s, "hidden") {
		t.Error("debug record written at info level")
	}
}

func TestSetupSlog_badFormat(t *testing.T) {
	if _, err := SetupSlog(SlogOptions{Format: "xml"}); err == nil {
		t.Error("expected error")
	}
}
