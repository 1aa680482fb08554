package legato

import (
	"gitlab.com/gomidi/midi/v2"
)

// Channels is the number of MIDI channels tracked by an Engine.
const Channels = 16

// Action tells the caller which path an input message took.
type Action uint8

const (
	ActionForward   Action = iota // passed through unchanged
	ActionNote                    // note on/off fed to the legato state machine
	ActionPressure                // channel pressure rewritten as mod wheel
	ActionOverflow                // note on dropped, too many keys held
	ActionMalformed               // not a valid channel message, passed through
)

func (a Action) String() string {
	switch a {
	case ActionForward:
		return "forward"
	case ActionNote:
		return "note"
	case ActionPressure:
		return "pressure"
	case ActionOverflow:
		return "overflow"
	case ActionMalformed:
		return "malformed"
	}
	return "unknown"
}

// Engine turns a keyboard's note stream into VSL interval key-switches,
// independently on each channel. It must not be used concurrently.
type Engine struct {
	channels [Channels]Channel
}

// NewEngine returns an engine with every channel at rest.
func NewEngine() *Engine {
	e := &Engine{}
	for i := range e.channels {
		e.channels[i].reset()
	}
	return e
}

// Channel exposes the state of one channel for inspection.
func (e *Engine) Channel(ch uint8) *Channel {
	return &e.channels[ch&0x0F]
}

// Handle processes one MIDI message and writes its replacement to w.
// Note messages never reach w themselves: they update the held keys and
// the resulting key-switch/note pairs are written instead.
func (e *Engine) Handle(msg []byte, w Writer) Action {
	if len(msg) == 0 {
		return ActionMalformed
	}
	if !wellFormed(msg) {
		w.Forward(msg)
		return ActionMalformed
	}

	var ch, key, value uint8
	m := midi.Message(msg)
	switch {
	case m.GetNoteStart(&ch, &key, &value):
		c := &e.channels[ch]
		if !c.Stack.Push(key, value) {
			return ActionOverflow
		}
		c.decide(ch, w)
		return ActionNote
	case m.GetNoteEnd(&ch, &key):
		c := &e.channels[ch]
		c.Stack.Remove(key)
		c.decide(ch, w)
		return ActionNote
	case m.GetAfterTouch(&ch, &value):
		w.Emit(statusControlChange|ch, controllerModWheel, value)
		return ActionPressure
	}
	w.Forward(msg)
	return ActionForward
}

// ReleaseAll ends every sounding phrase and forgets all held keys.
func (e *Engine) ReleaseAll(w Writer) {
	for i := range e.channels {
		c := &e.channels[i]
		if c.Sounding() {
			c.release(uint8(i), w)
		}
		c.reset()
	}
}

// wellFormed checks channel voice messages for the right length and
// 7-bit data bytes. System messages are not inspected.
func wellFormed(msg []byte) bool {
	status := msg[0]
	if status < 0x80 {
		return false
	}
	if status >= 0xF0 {
		return true
	}
	want := 3
	if kind := status & 0xF0; kind == 0xC0 || kind == 0xD0 {
		want = 2
	}
	if len(msg) != want {
		return false
	}
	for _, b := range msg[1:] {
		if b > 0x7F {
			return false
		}
	}
	return true
}
