package logger

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"chattix/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.LogConfig{LogPath: dir}
	if err := Init(cfg, "release"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if cfg.FileName != filepath.Join(dir, "chattix.log") && cfg.FileName != dir+"/chattix.log" {
		t.Fatalf("FileName = %q", cfg.FileName)
	}
	if cfg.MaxSize != 100 || cfg.MaxBackups != 5 || cfg.MaxAge != 30 || cfg.Level != "info" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestInitRejectsBadLevel(t *testing.T) {
	cfg := &config.LogConfig{LogPath: t.TempDir(), Level: "loud"}
	if err := Init(cfg, "release"); err == nil {
		t.Fatalf("Init with level %q should fail", cfg.Level)
	}
	if err := Init(nil, "dev"); err == nil {
		t.Fatalf("Init(nil) should fail")
	}
}

func TestCronLoggerForwardsErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	cl := NewCronLogger(zap.New(core))

	cl.Info("wake", "now", 1)
	cl.Error(errors.New("tick failed"), "panic", "job", "heartbeat")

	entries := logs.AllUntimed()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Level != zapcore.DebugLevel {
		t.Fatalf("Info should log at debug, got %v", entries[0].Level)
	}
	if entries[1].Level != zapcore.ErrorLevel || entries[1].ContextMap()["error"] != "tick failed" {
		t.Fatalf("unexpected error entry: %+v", entries[1])
	}
}

func TestIsBrokenPipeError(t *testing.T) {
	opErr := &net.OpError{Op: "write", Err: os.NewSyscallError("write", syscall.EPIPE)}
	if !isBrokenPipeError(opErr) {
		t.Fatalf("EPIPE should be a broken pipe")
	}
	if isBrokenPipeError(errors.New("timeout")) {
		t.Fatalf("plain error is not a broken pipe")
	}
	if isBrokenPipeError(nil) {
		t.Fatalf("nil is not a broken pipe")
	}
}
