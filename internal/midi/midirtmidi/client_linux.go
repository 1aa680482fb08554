//go:build linux
// +build linux

package midirtmidi

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/leandrodaf/vslpt/sdk/contracts"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
	"go.uber.org/multierr"
)

var (
	ErrNoMIDIDevices     = errors.New("no MIDI devices found")
	ErrInvalidMIDIDevice = errors.New("invalid MIDI device")
	ErrNoOutputSelected  = errors.New("no MIDI output selected")
)

// ClientMid manages MIDI through RtMidi (ALSA sequencer) on Linux.
type ClientMid struct {
	logger          contracts.Logger
	driver          *rtmididrv.Driver
	eventChannel    atomic.Value
	in              drivers.In
	out             drivers.Out
	send            func(midi.Message) error
	stopListening   func()
	midiEventFilter *contracts.MIDIEventFilter
	sysEx           bool
	mu              sync.Mutex
	stopOnce        sync.Once
}

// NewMIDIClient opens the RtMidi driver.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv.New: %w", err)
	}
	options.Logger.Info("MIDI client created for Linux")

	return &ClientMid{
		logger:          options.Logger,
		driver:          drv,
		midiEventFilter: options.MIDIEventFilter,
		sysEx:           options.SysEx,
	}, nil
}

func portInfo[P interface {
	Number() int
	String() string
}](ports []P) []contracts.DeviceInfo {
	devices := make([]contracts.DeviceInfo, len(ports))
	for i, p := range ports {
		devices[i] = contracts.DeviceInfo{
			ID:         p.Number(),
			Name:       p.String(),
			EntityName: p.String(),
		}
	}
	return devices
}

// ListDevices lists the ALSA input ports.
func (m *ClientMid) ListDevices() ([]contracts.DeviceInfo, error) {
	ins, err := m.driver.Ins()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI inputs: %w", err)
	}
	if len(ins) == 0 {
		m.logger.Warn(ErrNoMIDIDevices.Error())
		return nil, ErrNoMIDIDevices
	}
	return portInfo(ins), nil
}

// ListOutputs lists the ALSA output ports.
func (m *ClientMid) ListOutputs() ([]contracts.DeviceInfo, error) {
	outs, err := m.driver.Outs()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI outputs: %w", err)
	}
	if len(outs) == 0 {
		m.logger.Warn(ErrNoMIDIDevices.Error())
		return nil, ErrNoMIDIDevices
	}
	return portInfo(outs), nil
}

// SelectDevice opens the input port with the given number.
func (m *ClientMid) SelectDevice(deviceID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ins, err := m.driver.Ins()
	if err != nil {
		return fmt.Errorf("error listing MIDI inputs: %w", err)
	}
	if deviceID < 0 || deviceID >= len(ins) {
		m.logger.Error(ErrInvalidMIDIDevice.Error(), m.logger.Field().Int("deviceID", deviceID))
		return ErrInvalidMIDIDevice
	}
	if m.stopListening != nil {
		m.stopListening()
		m.stopListening = nil
	}
	if m.in != nil {
		_ = m.in.Close()
	}

	m.in = ins[deviceID]
	if err := m.in.Open(); err != nil {
		m.in = nil
		return fmt.Errorf("%w: %v", ErrInvalidMIDIDevice, err)
	}
	m.logger.Info("MIDI device selected",
		m.logger.Field().Int("deviceID", deviceID),
		m.logger.Field().String("deviceName", ins[deviceID].String()))
	return nil
}

// SelectOutput opens the output port with the given number.
func (m *ClientMid) SelectOutput(deviceID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	outs, err := m.driver.Outs()
	if err != nil {
		return fmt.Errorf("error listing MIDI outputs: %w", err)
	}
	if deviceID < 0 || deviceID >= len(outs) {
		m.logger.Error(ErrInvalidMIDIDevice.Error(), m.logger.Field().Int("deviceID", deviceID))
		return ErrInvalidMIDIDevice
	}
	if m.out != nil {
		_ = m.out.Close()
		m.out, m.send = nil, nil
	}

	send, err := midi.SendTo(outs[deviceID])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMIDIDevice, err)
	}
	m.out, m.send = outs[deviceID], send
	m.logger.Info("MIDI output selected",
		m.logger.Field().Int("deviceID", deviceID),
		m.logger.Field().String("deviceName", outs[deviceID].String()))
	return nil
}

// Send writes one message to the selected output.
func (m *ClientMid) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.send == nil {
		return ErrNoOutputSelected
	}
	return m.send(midi.Message(data))
}

// StartCapture starts listening on the selected input.
func (m *ClientMid) StartCapture(eventChannel chan contracts.MIDI) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.in == nil {
		m.logger.Error("Cannot start capture: No MIDI device selected")
		return
	}
	if m.stopListening != nil {
		m.logger.Warn("Capture already started; replacing event channel")
		m.eventChannel.Store(eventChannel)
		return
	}
	m.eventChannel.Store(eventChannel)

	var opts []midi.ListenOption
	if m.sysEx {
		opts = append(opts, midi.UseSysEx())
	}
	stop, err := midi.ListenTo(m.in, m.handleMIDIMessage, opts...)
	if err != nil {
		m.logger.Error("Failed to start MIDI capture", m.logger.Field().Error("error", err))
		return
	}
	m.stopListening = stop
	m.logger.Info("MIDI capture started")
}

func (m *ClientMid) handleMIDIMessage(msg midi.Message, _ int32) {
	if len(msg) == 0 || !m.midiEventFilter.Allows(msg[0]) {
		return
	}
	ch, _ := m.eventChannel.Load().(chan contracts.MIDI)
	if ch == nil {
		return
	}
	event := contracts.MIDI{
		Timestamp: uint64(time.Now().UTC().UnixNano()),
		Data:      append([]byte(nil), msg...),
	}
	select {
	case ch <- event:
	default:
		m.logger.Warn("Event buffer full; dropping MIDI event")
	}
}

// Stop ends the capture and closes ports and driver.
func (m *ClientMid) Stop() error {
	var err error
	m.stopOnce.Do(func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		if m.stopListening != nil {
			m.stopListening()
			m.stopListening = nil
		}
		m.eventChannel.Store(make(chan contracts.MIDI))
		if m.in != nil {
			err = multierr.Append(err, m.in.Close())
		}
		if m.out != nil {
			err = multierr.Append(err, m.out.Close())
		}
		m.send = nil
		err = multierr.Append(err, m.driver.Close())
		m.logger.Info("MIDI capture stopped")
	})
	return err
}
