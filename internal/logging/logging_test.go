package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestInit_WritesJSONToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "logs", "grab.log")
	if err := Init(Config{Level: "debug", Format: "json", OutputPath: out}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { _ = Init(Config{Level: "info", OutputPath: os.DevNull}) })

	Named("store").Debug("saved", zap.Int("count", 3))
	_ = Sync()

	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, `"msg":"saved"`) || !strings.Contains(s, `"logger":"store"`) {
		t.Fatalf("unexpected log line: %s", s)
	}
}

func TestSetLevel_FiltersDebug(t *testing.T) {
	out := filepath.Join(t.TempDir(), "grab.log")
	if err := Init(Config{Level: "info", OutputPath: out}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { _ = Init(Config{Level: "info", OutputPath: os.DevNull}) })

	L().Debug("hidden")
	SetLevel("debug")
	L().Debug("visible")
	_ = Sync()

	b, _ := os.ReadFile(out)
	if strings.Contains(string(b), "hidden") || !strings.Contains(string(b), "visible") {
		t.Fatalf("unexpected log content: %s", b)
	}
}
