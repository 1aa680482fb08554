package contracts

// DeviceInfo contains information about a MIDI port.
type DeviceInfo struct {
	ID           int    // Index to pass to SelectDevice or SelectOutput.
	Name         string // Device name.
	Manufacturer string // Device manufacturer.
	EntityName   string // Name of the entity to which the device belongs.
}
