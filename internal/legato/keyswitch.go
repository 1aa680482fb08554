package legato

// Key-switch notes understood by the Vienna Symphonic Library interval
// legato patches. An interval of n semitones is key-switch n.
const (
	IntervalKeySwitchBase uint8 = 0x00
	FirstNoteKeySwitch    uint8 = 0x0D
	ReleaseKeySwitch      uint8 = 0x0E // reserved, never emitted
	RepeatKeySwitch       uint8 = 0x0F // reserved, never emitted

	// MaxInterval is the widest interval below the first-note and
	// reserved key-switches.
	MaxInterval = 12
)

const (
	// Transposition is the distance between a played key and the note sent
	// to the engine.
	Transposition = 24
	// RegimeSplit separates active notes that were transposed up (above)
	// from those transposed down (at or below).
	RegimeSplit = 72

	HighestNote = 0x7F

	KeySwitchVelocity uint8 = 100
	NoteOffVelocity   uint8 = 64
)

// IntervalKeySwitch returns the key-switch for a semitone interval.
// Intervals of 13 to 15 would land on the first-note and reserved
// key-switches and share the octave key-switch instead.
func IntervalKeySwitch(semitones int) uint8 {
	if semitones < 0 {
		semitones = -semitones
	}
	if semitones > MaxInterval && semitones <= int(RepeatKeySwitch) {
		semitones = MaxInterval
	}
	if semitones > HighestNote {
		semitones = HighestNote
	}
	return IntervalKeySwitchBase + uint8(semitones)
}

// noteNumber clamps a transposed pitch into the MIDI note range. Only
// keys below 24 leave it.
func noteNumber(pitch int) uint8 {
	switch {
	case pitch < 0:
		return 0
	case pitch > HighestNote:
		return HighestNote
	}
	return uint8(pitch)
}
