// Package atom provides a fixed-capacity, timestamped event sequence
// modelled on the LV2 atom:Sequence port buffer.
package atom

import "github.com/leandrodaf/vslpt/sdk/contracts"

const (
	// BodyHeaderSize is the size of the sequence body header (unit + pad).
	BodyHeaderSize = 8
	// EventHeaderSize is the size of an event header (frames + size + type).
	EventHeaderSize = 16
)

// Event is a single timestamped item in a Sequence.
type Event struct {
	Frames int64         // Offset in audio frames from the start of the block.
	Type   contracts.URID // Body type, e.g. the midi:MidiEvent URID.
	Body   []byte
}

// Sequence is an ordered list of events backed by preallocated storage.
// Capacity is expressed in bytes and accounted the way an LV2 host lays
// the sequence out in memory, so appends fail exactly where the host's
// buffer would overflow. Appending never allocates.
type Sequence struct {
	Type     contracts.URID
	capacity int
	size     int
	events   []Event
	arena    []byte
}

// NewSequence allocates a sequence that can hold up to capacity bytes of
// body header, event headers and padded event bodies.
func NewSequence(typ contracts.URID, capacity int) *Sequence {
	if capacity < BodyHeaderSize {
		capacity = BodyHeaderSize
	}
	return &Sequence{
		Type:     typ,
		capacity: capacity,
		size:     BodyHeaderSize,
		events:   make([]Event, 0, (capacity-BodyHeaderSize)/EventHeaderSize),
		arena:    make([]byte, 0, capacity),
	}
}

// Clear empties the sequence, keeping its storage.
func (s *Sequence) Clear() {
	s.size = BodyHeaderSize
	s.events = s.events[:0]
	s.arena = s.arena[:0]
}

// Append copies body into the sequence as a new event. It reports false,
// leaving the sequence untouched, when the event does not fit.
func (s *Sequence) Append(frames int64, typ contracts.URID, body []byte) bool {
	total := EventHeaderSize + pad(len(body))
	if s.size+total > s.capacity || len(s.events) == cap(s.events) {
		return false
	}
	start := len(s.arena)
	s.arena = append(s.arena, body...)
	s.events = append(s.events, Event{
		Frames: frames,
		Type:   typ,
		Body:   s.arena[start:len(s.arena):len(s.arena)],
	})
	s.size += total
	return true
}

// Events returns the events in order. The slice and the bodies alias the
// sequence and are only valid until the next Clear.
func (s *Sequence) Events() []Event { return s.events }

// Len returns the number of events.
func (s *Sequence) Len() int { return len(s.events) }

// Size returns the number of bytes in use, including the body header.
func (s *Sequence) Size() int { return s.size }

// Capacity returns the byte capacity given to NewSequence.
func (s *Sequence) Capacity() int { return s.capacity }

// pad rounds n up to the 64-bit alignment used between events.
func pad(n int) int {
	return (n + 7) &^ 7
}
