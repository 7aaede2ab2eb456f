package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" WARN ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"info":    zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNewLoggerWritesConsoleAndFile(t *testing.T) {
	t.Parallel()

	logFile := filepath.Join(t.TempDir(), "logs", "snaptrans.log")
	var console bytes.Buffer

	logger, err := newLogger("info", logFile, &console)
	if err != nil {
		t.Fatalf("newLogger failed: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("Translation started")
	_ = logger.Sync()

	if !strings.Contains(console.String(), "INFO | ") || !strings.Contains(console.String(), "Translation started") {
		t.Fatalf("unexpected console output: %q", console.String())
	}
	if strings.Contains(console.String(), "hidden") {
		t.Fatalf("debug line should be filtered at info level")
	}

	raw, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("read log file failed: %v", err)
	}
	if !strings.Contains(string(raw), "Translation started") {
		t.Fatalf("expected log file to receive the entry, got %q", raw)
	}
}
