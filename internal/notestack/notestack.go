package notestack

// Capacity is the maximum number of held notes tracked per channel.
const Capacity = 32

// Entry is a held key and the velocity it was last struck with.
type Entry struct {
	Note     uint8
	Velocity uint8
}

// Stack keeps the keys currently held on one channel, oldest first.
// Notes are unique; the zero value is an empty stack.
type Stack struct {
	entries [Capacity]Entry
	n       int
}

// Push records a held note. A note already on the stack only has its
// velocity refreshed and keeps its position. Push reports false when the
// stack is full and the note was dropped.
func (s *Stack) Push(note, velocity uint8) bool {
	if i := s.index(note); i >= 0 {
		s.entries[i].Velocity = velocity
		return true
	}
	if s.n == Capacity {
		return false
	}
	s.entries[s.n] = Entry{Note: note, Velocity: velocity}
	s.n++
	return true
}

// Remove releases a note, keeping the order of the remaining entries.
// It reports whether the note was held.
func (s *Stack) Remove(note uint8) bool {
	i := s.index(note)
	if i < 0 {
		return false
	}
	copy(s.entries[i:s.n], s.entries[i+1:s.n])
	s.n--
	s.entries[s.n] = Entry{}
	return true
}

// Top returns the most recently pressed note still held.
func (s *Stack) Top() (Entry, bool) {
	if s.n == 0 {
		return Entry{}, false
	}
	return s.entries[s.n-1], true
}

// Len returns the number of held notes.
func (s *Stack) Len() int { return s.n }

// Entries returns the held notes, oldest first. The slice aliases the
// stack and is only valid until the next mutation.
func (s *Stack) Entries() []Entry { return s.entries[:s.n] }

// Reset forgets every held note.
func (s *Stack) Reset() { *s = Stack{} }

func (s *Stack) index(note uint8) int {
	for i := 0; i < s.n; i++ {
		if s.entries[i].Note == note {
			return i
		}
	}
	return -1
}
