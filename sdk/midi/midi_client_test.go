package midi

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/leandrodaf/vslpt/internal/logger"
	"github.com/leandrodaf/vslpt/sdk/contracts"
)

func TestApplyDefaultOptions(t *testing.T) {
	options, err := applyDefaultOptions()
	if err != nil {
		t.Fatal(err)
	}
	if options.Logger == nil {
		t.Fatal("no default logger")
	}
	if options.LogLevel != contracts.InfoLevel {
		t.Fatalf("LogLevel = %v, want InfoLevel", options.LogLevel)
	}
	if options.CoreMIDIConfig == nil || options.CoreMIDIConfig.ClientName != DefaultClientName {
		t.Fatalf("CoreMIDIConfig = %+v", options.CoreMIDIConfig)
	}
	if options.MIDIEventFilter != nil || options.SysEx {
		t.Fatalf("unexpected filter or sysex: %+v", options)
	}
}

func TestApplyDefaultOptionsKeepsExplicitValues(t *testing.T) {
	log := logger.NewNopLogger()
	options, err := applyDefaultOptions(
		contracts.WithLogger(log),
		contracts.WithLogLevel(contracts.DebugLevel),
		contracts.WithCoreMIDIConfig(contracts.CoreMIDIConfig{ClientName: "Studio"}),
		contracts.WithMIDIEventFilter(contracts.MIDIEventFilter{Commands: []contracts.MIDICommand{contracts.NoteOn}}),
		contracts.WithSysEx(),
		contracts.WithLogFile(filepath.Join(t.TempDir(), "client.log")),
	)
	if err != nil {
		t.Fatal(err)
	}
	if options.Logger != log || options.LogLevel != contracts.DebugLevel {
		t.Fatalf("logger options not kept: %+v", options)
	}
	if options.CoreMIDIConfig.ClientName != "Studio" || !options.SysEx {
		t.Fatalf("options = %+v", options)
	}
	if !options.MIDIEventFilter.Allows(0x93) || options.MIDIEventFilter.Allows(0x83) {
		t.Fatal("filter not applied")
	}
}

func TestNewClientUnsupportedOS(t *testing.T) {
	options, _ := applyDefaultOptions(contracts.WithLogger(logger.NewNopLogger()))
	_, err := newClientFor("plan9", &options)
	if !errors.Is(err, ErrUnsupportedOS) {
		t.Fatalf("err = %v, want ErrUnsupportedOS", err)
	}
}
