package legato

import "github.com/leandrodaf/vslpt/internal/notestack"

// NoNote marks an empty Active or Control slot.
const NoNote uint8 = 0xFF

const (
	statusNoteOff       = 0x80
	statusNoteOn        = 0x90
	statusControlChange = 0xB0

	controllerModWheel = 0x01
)

// Writer receives the messages produced for one input event. Both methods
// report whether the message was accepted; the state machine does not
// depend on the answer.
type Writer interface {
	// Emit writes a three-byte channel message.
	Emit(status, data1, data2 byte) bool
	// Forward writes an input message unchanged.
	Forward(msg []byte) bool
}

// Channel is the legato state of one MIDI channel: the keys held by the
// player and the pair of notes currently sounding downstream.
type Channel struct {
	Stack   notestack.Stack
	Active  uint8 // playable note sounding downstream, or NoNote
	Control uint8 // key-switch sounding downstream, or NoNote

	// pitch is Active before clamping to the note range. The previous
	// key is recovered from it, so a clamped note cannot skew the next
	// interval.
	pitch int
}

func (c *Channel) reset() {
	c.Stack.Reset()
	c.Active = NoNote
	c.Control = NoNote
}

// Sounding reports whether a phrase is in progress downstream.
func (c *Channel) Sounding() bool { return c.Active != NoNote }

// decide brings the downstream notes in line with the held keys.
func (c *Channel) decide(ch uint8, w Writer) {
	top, held := c.Stack.Top()
	switch {
	case !c.Sounding() && !held:
		return
	case !c.Sounding():
		c.start(ch, top, w)
	case !held:
		c.release(ch, w)
	default:
		c.transition(ch, top, w)
	}
}

// start opens a phrase: the first-note key-switch, then the note two
// octaves down.
func (c *Channel) start(ch uint8, top notestack.Entry, w Writer) {
	pitch := int(top.Note) - Transposition
	active := noteNumber(pitch)
	noteOn(w, ch, FirstNoteKeySwitch, KeySwitchVelocity)
	noteOn(w, ch, active, top.Velocity)
	c.Control = FirstNoteKeySwitch
	c.Active = active
	c.pitch = pitch
}

// release ends a phrase.
func (c *Channel) release(ch uint8, w Writer) {
	noteOff(w, ch, c.Active)
	noteOff(w, ch, c.Control)
	c.Active = NoNote
	c.Control = NoNote
}

// transition moves legato from the sounding note to the new top of stack.
func (c *Channel) transition(ch uint8, top notestack.Entry, w Writer) {
	prev := c.pitch + Transposition
	if c.pitch > RegimeSplit {
		prev = c.pitch - Transposition
	}
	next := int(top.Note)
	if next == prev {
		return
	}

	interval, target := next-prev, next-Transposition
	if next < prev {
		interval, target = prev-next, next+Transposition
	}
	control := IntervalKeySwitch(interval)
	active := noteNumber(target)

	noteOff(w, ch, c.Active)
	noteOff(w, ch, c.Control)
	noteOn(w, ch, control, KeySwitchVelocity)
	noteOn(w, ch, active, top.Velocity)
	c.Control = control
	c.Active = active
	c.pitch = target
}

func noteOn(w Writer, ch, note, velocity uint8) bool {
	return w.Emit(statusNoteOn|ch, note, velocity)
}

func noteOff(w Writer, ch, note uint8) bool {
	return w.Emit(statusNoteOff|ch, note, NoteOffVelocity)
}
