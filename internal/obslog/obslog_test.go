package obslog

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"WARNING": zapcore.WarnLevel,
		" error ": zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInitFromEnvWritesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "client.log")
	t.Setenv("LOG_TO_CONSOLE", "false")
	t.Setenv("LOG_TO_FILE", "true")
	t.Setenv("LOG_FILE", path)
	t.Setenv("LOG_FORMAT", "json")
	t.Cleanup(func() { SetLogger(nil) })

	if err := InitFromEnv(); err != nil {
		t.Fatalf("InitFromEnv: %v", err)
	}
	L().Info("hello", zap.String("k", "v"))
	Sync()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if len(b) == 0 {
		t.Fatalf("expected log output in %s", path)
	}
}

func TestInitWithoutOutputsKeepsNop(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })
	SetLogger(nil)
	if err := Init(Options{Console: false, File: ""}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if L().Core().Enabled(zapcore.ErrorLevel) {
		t.Fatalf("expected Nop logger when no outputs are configured")
	}
}

func TestSetLoggerObserver(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	L().Warn("update_rejected")
	if logs.FilterMessage("update_rejected").Len() != 1 {
		t.Fatalf("expected one observed entry")
	}
}
