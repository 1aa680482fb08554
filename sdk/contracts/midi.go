package contracts

// MIDI is a raw MIDI message captured from a device, stamped with the
// wall-clock time (Unix nanoseconds) it arrived at.
type MIDI struct {
	Timestamp uint64 // Timestamp indicates the time the event occurred.
	Data      []byte // Data is the complete message, status byte first.
}

// Command returns the status nibble (e.g. 0x90 for Note On), or 0 for an empty message.
func (m MIDI) Command() byte {
	if len(m.Data) == 0 {
		return 0
	}
	return m.Data[0] & 0xF0
}

// Channel returns the zero-based channel of a channel-voice message.
func (m MIDI) Channel() uint8 {
	if len(m.Data) == 0 {
		return 0
	}
	return m.Data[0] & 0x0F
}

// ClientMIDI defines an interface for MIDI client operations.
type ClientMIDI interface {
	Stop() error                         // Stops the MIDI client and releases resources.
	ListDevices() ([]DeviceInfo, error)  // Lists all available MIDI input devices.
	SelectDevice(deviceID int) error     // Selects a MIDI input device by its ID for communication.
	StartCapture(eventChannel chan MIDI) // Starts capturing MIDI events and sends them to the specified channel.

	ListOutputs() ([]DeviceInfo, error) // Lists all available MIDI output devices.
	SelectOutput(deviceID int) error    // Opens a MIDI output device by its ID.
	Send(data []byte) error             // Sends one complete MIDI message to the selected output.
}
