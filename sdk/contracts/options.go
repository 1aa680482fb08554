package contracts

// MIDICommand represents the types of MIDI commands for event filtering.
type MIDICommand byte

const (
	// NoteOff is the MIDI command for a Note Off event (0x80).
	NoteOff MIDICommand = 0x80
	// NoteOn is the MIDI command for a Note On event (0x90).
	NoteOn MIDICommand = 0x90
	// PolyPressure is the MIDI command for polyphonic key pressure (0xA0).
	PolyPressure MIDICommand = 0xA0
	// ControlChange is the MIDI command for a controller change (0xB0).
	ControlChange MIDICommand = 0xB0
	// ProgramChange is the MIDI command for a program change (0xC0).
	ProgramChange MIDICommand = 0xC0
	// ChannelPressure is the MIDI command for channel aftertouch (0xD0).
	ChannelPressure MIDICommand = 0xD0
	// PitchBend is the MIDI command for a pitch bend (0xE0).
	PitchBend MIDICommand = 0xE0
)

// MIDIEventFilter allows users to specify which MIDI commands to capture.
type MIDIEventFilter struct {
	Commands []MIDICommand // List of MIDI commands to filter.
}

// Allows reports whether a message with the given status byte passes the filter.
// System messages (0xF0 and above) are matched on the full status byte.
func (f *MIDIEventFilter) Allows(status byte) bool {
	if f == nil || len(f.Commands) == 0 {
		return true
	}
	command := status
	if status < 0xF0 {
		command = status & 0xF0
	}
	for _, allowed := range f.Commands {
		if command == byte(allowed) {
			return true
		}
	}
	return false
}

// CoreMIDIConfig holds configuration for CoreMIDI.
type CoreMIDIConfig struct {
	ClientName string // Name of the MIDI client.
}

// ClientOptions defines the configuration options for the MIDI client.
type ClientOptions struct {
	Logger          Logger           // Logger for logging events and errors.
	LogLevel        LogLevel         // Level of logging to use.
	LogFilePath     string           // File path for logging if file logging is enabled.
	MIDIEventFilter *MIDIEventFilter // Optional filter for MIDI events to capture.
	CoreMIDIConfig  *CoreMIDIConfig  // Configuration specific to CoreMIDI.
	SysEx           bool             // Whether to deliver system exclusive messages.
}

// Option is a function that modifies ClientOptions.
type Option func(*ClientOptions)

// WithLogger sets the logger for the MIDI client.
func WithLogger(l Logger) Option {
	return func(opts *ClientOptions) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level for the MIDI client.
func WithLogLevel(level LogLevel) Option {
	return func(opts *ClientOptions) {
		opts.LogLevel = level
	}
}

// WithLogFile sends client logs to a file instead of the console.
func WithLogFile(path string) Option {
	return func(opts *ClientOptions) {
		opts.LogFilePath = path
	}
}

// WithMIDIEventFilter sets the MIDI event filter for the MIDI client.
func WithMIDIEventFilter(filter MIDIEventFilter) Option {
	return func(opts *ClientOptions) {
		opts.MIDIEventFilter = &filter
	}
}

// WithCoreMIDIConfig sets the CoreMIDI configuration for the MIDI client.
func WithCoreMIDIConfig(config CoreMIDIConfig) Option {
	return func(opts *ClientOptions) {
		opts.CoreMIDIConfig = &config
	}
}

// WithSysEx enables delivery of system exclusive messages where the backend supports it.
func WithSysEx() Option {
	return func(opts *ClientOptions) {
		opts.SysEx = true
	}
}
