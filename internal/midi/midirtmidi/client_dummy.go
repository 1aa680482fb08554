//go:build !linux
// +build !linux

package midirtmidi

import (
	"errors"

	"github.com/leandrodaf/vslpt/sdk/contracts"
)

var errUnavailable = errors.New("RtMidi backend is only built on Linux")

type dummyMIDIClient struct {
	logger contracts.Logger
}

// NewMIDIClient initializes a dummy MIDI client for non-Linux systems.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	options.Logger.Info("Using dummy MIDI client for non-Linux system")
	return &dummyMIDIClient{logger: options.Logger}, nil
}

func (m *dummyMIDIClient) ListDevices() ([]contracts.DeviceInfo, error) { return nil, errUnavailable }
func (m *dummyMIDIClient) ListOutputs() ([]contracts.DeviceInfo, error) { return nil, errUnavailable }
func (m *dummyMIDIClient) SelectDevice(int) error                       { return errUnavailable }
func (m *dummyMIDIClient) SelectOutput(int) error                       { return errUnavailable }
func (m *dummyMIDIClient) Send([]byte) error                            { return errUnavailable }

func (m *dummyMIDIClient) StartCapture(chan contracts.MIDI) {
	m.logger.Warn("StartCapture called on dummy MIDI client")
}

func (m *dummyMIDIClient) Stop() error { return nil }
