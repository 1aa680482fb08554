// Package midi holds helpers shared by the platform MIDI clients.
package midi

// MessageLength returns the full length of a message starting with
// status, or 0 for variable-length (SysEx) and invalid status bytes.
func MessageLength(status byte) int {
	switch {
	case status < 0x80:
		return 0
	case status < 0xF0:
		switch status & 0xF0 {
		case 0xC0, 0xD0:
			return 2
		default:
			return 3
		}
	}
	switch status {
	case 0xF1, 0xF3:
		return 2
	case 0xF2:
		return 3
	case 0xF0, 0xF4, 0xF5, 0xF7:
		return 0
	default:
		return 1
	}
}

// Split breaks a packet holding several complete messages into individual
// messages. Each returned message is a fresh copy. SysEx runs to the
// terminating 0xF7; stray data bytes and truncated messages are dropped.
func Split(data []byte) [][]byte {
	var out [][]byte
	for i := 0; i < len(data); {
		status := data[i]
		if status < 0x80 {
			i++
			continue
		}
		var n int
		if status == 0xF0 {
			end := i + 1
			for end < len(data) && data[end] != 0xF7 {
				end++
			}
			if end == len(data) {
				return out
			}
			n = end - i + 1
		} else {
			n = MessageLength(status)
			if n == 0 {
				i++
				continue
			}
		}
		if i+n > len(data) {
			return out
		}
		out = append(out, append([]byte(nil), data[i:i+n]...))
		i += n
	}
	return out
}

// ShortMessage unpacks a message packed little-endian into a 32-bit word,
// as delivered by the Windows multimedia API.
func ShortMessage(word uint32) []byte {
	status := byte(word)
	n := MessageLength(status)
	if n == 0 {
		return nil
	}
	msg := []byte{status, byte(word >> 8), byte(word >> 16)}
	return msg[:n]
}

// PackShortMessage is the inverse of ShortMessage. It reports false for
// messages that do not fit in a word.
func PackShortMessage(msg []byte) (uint32, bool) {
	if len(msg) == 0 || len(msg) > 3 || MessageLength(msg[0]) != len(msg) {
		return 0, false
	}
	var word uint32
	for i, b := range msg {
		word |= uint32(b) << (8 * i)
	}
	return word, true
}
