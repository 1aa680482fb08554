package logger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/leandrodaf/vslpt/sdk/contracts"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFieldsReachZap(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := New(core)

	log.Info("block processed",
		log.Field().Int("events", 3),
		log.Field().Uint8("channel", 2),
		log.Field().Error("error", errors.New("boom")),
	)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["events"] != int64(3) {
		t.Fatalf("events = %v, want 3", ctx["events"])
	}
	if ctx["channel"] != uint8(2) {
		t.Fatalf("channel = %v (%T), want 2", ctx["channel"], ctx["channel"])
	}
	if ctx["error"] != "boom" {
		t.Fatalf("error = %v, want boom", ctx["error"])
	}
}

func TestSetLevelGatesDebug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := New(core)

	log.Debug("hidden")
	if n := logs.Len(); n != 0 {
		t.Fatalf("debug logged at info level: %d entries", n)
	}

	log.SetLevel(contracts.DebugLevel)
	log.Debug("shown")
	if n := logs.FilterMessage("shown").Len(); n != 1 {
		t.Fatalf("debug entries after SetLevel = %d, want 1", n)
	}

	log.SetLevel(contracts.ErrorLevel)
	log.Warn("dropped")
	log.Error("kept")
	if logs.FilterMessage("dropped").Len() != 0 || logs.FilterMessage("kept").Len() != 1 {
		t.Fatalf("unexpected entries at error level: %v", logs.All())
	}
}

func TestNopLoggerIsSilent(t *testing.T) {
	log := NewNopLogger()
	log.Info("nothing", log.Field().String("k", "v"))
	if err := log.Sync(); err != nil {
		t.Fatalf("Sync = %v", err)
	}
}

func TestFileDestination(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vslpt.log")
	log := NewZapLogger()
	log.SetDestination(contracts.FileLog, path)
	log.Info("written to file", log.Field().String("port", "in"))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "written to file") || !strings.Contains(string(data), `"port":"in"`) {
		t.Fatalf("log file missing entry: %s", data)
	}
}

type syncErrCore struct {
	zapcore.Core
	err error
}

func (c syncErrCore) Sync() error { return c.err }

func TestSyncIgnoresUnsyncableConsole(t *testing.T) {
	core, _ := observer.New(zapcore.InfoLevel)

	console := &os.PathError{Op: "sync", Path: "/dev/stderr", Err: syscall.EINVAL}
	if err := New(syncErrCore{core, console}).Sync(); err != nil {
		t.Fatalf("Sync = %v, want nil for an unsyncable console", err)
	}

	full := errors.New("no space left on device")
	if err := New(syncErrCore{core, full}).Sync(); !errors.Is(err, full) {
		t.Fatalf("Sync = %v, want %v", err, full)
	}
}
