//go:build darwin
// +build darwin

package mididarwin

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/leandrodaf/vslpt/internal/midi"
	"github.com/leandrodaf/vslpt/sdk/contracts"
	"github.com/youpy/go-coremidi"
)

// Error definitions for MIDI connection and handling issues.
var (
	ErrNoMIDIDevices        = errors.New("no MIDI devices found")
	ErrInvalidMIDIDevice    = errors.New("invalid MIDI device")
	ErrMIDIConnectionError  = errors.New("error connecting to MIDI device")
	ErrCreateInputPort      = errors.New("error creating input port")
	ErrCreateOutputPort     = errors.New("error creating output port")
	ErrNoOutputSelected     = errors.New("no MIDI output selected")
	ErrIncompleteMIDIPacket = errors.New("incomplete MIDI packet")
)

// internalPortConnection is an interface for handling disconnection from a MIDI port.
type internalPortConnection interface {
	Disconnect()
}

// ClientMid manages MIDI operations on Darwin (macOS) systems.
// It reads from one CoreMIDI source and writes to one destination.
type ClientMid struct {
	logger          contracts.Logger
	eventChannel    atomic.Value               // Holds the chan contracts.MIDI events are delivered to.
	client          coremidi.Client            // CoreMIDI client instance for MIDI operations.
	inputPort       coremidi.InputPort         // Input port for receiving MIDI events.
	outputPort      coremidi.OutputPort        // Output port for sending MIDI events.
	destination     *coremidi.Destination      // Selected output destination.
	portConn        internalPortConnection     // Connection to the MIDI port.
	midiEventFilter *contracts.MIDIEventFilter // Filter for specific MIDI events.
	coreMIDIConfig  *contracts.CoreMIDIConfig  // Configuration for MIDI client.
	sysEx           bool                       // Whether SysEx messages are delivered.
	mu              sync.Mutex                 // Guards ports and capture state.
	capturing       bool                       // Indicates if event capturing is currently active.
	wg              sync.WaitGroup             // Tracks in-flight read callbacks.
	stopOnce        sync.Once                  // Ensures Stop() is executed only once.
}

// NewMIDIClient initializes a new ClientMid for handling MIDI events on macOS.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	client, err := coremidi.NewClient(options.CoreMIDIConfig.ClientName)
	if err != nil {
		return nil, err
	}
	options.Logger.Info("MIDI client successfully created")

	return &ClientMid{
		logger:          options.Logger,
		client:          client,
		midiEventFilter: options.MIDIEventFilter,
		coreMIDIConfig:  options.CoreMIDIConfig,
		sysEx:           options.SysEx,
	}, nil
}

// ListDevices retrieves and returns available MIDI sources.
func (m *ClientMid) ListDevices() ([]contracts.DeviceInfo, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI sources: %w", err)
	}
	if len(sources) == 0 {
		m.logger.Warn(ErrNoMIDIDevices.Error())
		return nil, ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, len(sources))
	for i, source := range sources {
		sourceEntity := source.Entity()
		devices[i] = contracts.DeviceInfo{
			ID:           i,
			Name:         source.Name(),
			EntityName:   sourceEntity.Name(),
			Manufacturer: sourceEntity.Manufacturer(),
		}
	}
	return devices, nil
}

// ListOutputs retrieves and returns available MIDI destinations.
func (m *ClientMid) ListOutputs() ([]contracts.DeviceInfo, error) {
	destinations, err := coremidi.AllDestinations()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI destinations: %w", err)
	}
	if len(destinations) == 0 {
		m.logger.Warn(ErrNoMIDIDevices.Error())
		return nil, ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, len(destinations))
	for i, destination := range destinations {
		devices[i] = contracts.DeviceInfo{
			ID:         i,
			Name:       destination.Name(),
			EntityName: destination.Name(),
		}
	}
	return devices, nil
}

// SelectDevice selects a MIDI source by ID and connects to it.
// If a source is already connected, it disconnects first.
func (m *ClientMid) SelectDevice(deviceID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sources, err := coremidi.AllSources()
	if err != nil {
		return fmt.Errorf("error retrieving MIDI sources: %w", err)
	}
	if deviceID < 0 || deviceID >= len(sources) {
		m.logger.Error(ErrInvalidMIDIDevice.Error(), m.logger.Field().Int("deviceID", deviceID))
		return ErrInvalidMIDIDevice
	}

	if m.portConn != nil {
		m.portConn.Disconnect()
		m.portConn = nil
	}

	source := sources[deviceID]
	m.logger.Info("MIDI device selected",
		m.logger.Field().Int("deviceID", deviceID),
		m.logger.Field().String("deviceName", source.Name()))

	m.inputPort, err = coremidi.NewInputPort(m.client, "Input Port", m.handleMIDIMessage)
	if err != nil {
		m.logger.Error(ErrCreateInputPort.Error())
		return fmt.Errorf("%w: %v", ErrCreateInputPort, err)
	}

	m.portConn, err = m.inputPort.Connect(source)
	if err != nil {
		m.logger.Error(ErrMIDIConnectionError.Error())
		return fmt.Errorf("%w: %v", ErrMIDIConnectionError, err)
	}

	m.logger.Info("MIDI device successfully connected")
	return nil
}

// SelectOutput opens an output port towards the destination with the given ID.
func (m *ClientMid) SelectOutput(deviceID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	destinations, err := coremidi.AllDestinations()
	if err != nil {
		return fmt.Errorf("error retrieving MIDI destinations: %w", err)
	}
	if deviceID < 0 || deviceID >= len(destinations) {
		m.logger.Error(ErrInvalidMIDIDevice.Error(), m.logger.Field().Int("deviceID", deviceID))
		return ErrInvalidMIDIDevice
	}

	m.outputPort, err = coremidi.NewOutputPort(m.client, "Output Port")
	if err != nil {
		m.logger.Error(ErrCreateOutputPort.Error())
		return fmt.Errorf("%w: %v", ErrCreateOutputPort, err)
	}
	destination := destinations[deviceID]
	m.destination = &destination

	m.logger.Info("MIDI output selected",
		m.logger.Field().Int("deviceID", deviceID),
		m.logger.Field().String("deviceName", destination.Name()))
	return nil
}

// Send writes one message to the selected destination.
func (m *ClientMid) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.destination == nil {
		return ErrNoOutputSelected
	}
	packet := coremidi.NewPacket(data, 0)
	return packet.Send(&m.outputPort, m.destination)
}

// handleMIDIMessage splits an incoming packet into messages, filters them
// and forwards them to the event channel without blocking.
func (m *ClientMid) handleMIDIMessage(source coremidi.Source, packet coremidi.Packet) {
	m.wg.Add(1)
	defer m.wg.Done()

	eventChannel, _ := m.eventChannel.Load().(chan contracts.MIDI)
	if eventChannel == nil {
		m.logger.Warn("eventChannel not initialized or of invalid type")
		return
	}

	messages := midi.Split(packet.Data)
	if len(messages) == 0 {
		m.logger.Warn(ErrIncompleteMIDIPacket.Error())
		return
	}

	now := uint64(time.Now().UTC().UnixNano())
	for _, msg := range messages {
		if msg[0] == 0xF0 && !m.sysEx {
			continue
		}
		if !m.midiEventFilter.Allows(msg[0]) {
			continue
		}
		select {
		case eventChannel <- contracts.MIDI{Timestamp: now, Data: msg}:
		default:
			m.logger.Warn("Event buffer full; dropping MIDI event")
		}
	}
}

// StartCapture begins capturing MIDI events by storing the event channel and marking capturing as active.
func (m *ClientMid) StartCapture(eventChannel chan contracts.MIDI) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if eventChannel == nil {
		m.logger.Error("StartCapture called with nil eventChannel")
		return
	}

	if m.capturing {
		m.logger.Warn("Capture already started; replacing event channel")
	}

	m.logger.Info("Starting MIDI event capture")
	m.eventChannel.Store(eventChannel)
	m.capturing = true
}

// Stop halts MIDI event capturing, disconnects from the device, and waits for ongoing processing to complete.
// This function ensures it only executes once, even if called multiple times.
func (m *ClientMid) Stop() error {
	m.stopOnce.Do(func() {
		m.logger.Info("Stopping MIDI capture")
		m.mu.Lock()
		defer m.mu.Unlock()

		if m.portConn != nil {
			m.portConn.Disconnect()
			m.portConn = nil
		}
		m.destination = nil

		if m.capturing {
			m.capturing = false
			// Swap in a channel nobody reads so late callbacks drop their events.
			m.eventChannel.Store(make(chan contracts.MIDI))
			m.wg.Wait()
		}

		m.logger.Info("MIDI capture stopped")
	})
	return nil
}
