package midi

import (
	"bytes"
	"testing"
)

func TestSplit(t *testing.T) {
	data := []byte{
		0x90, 60, 100,
		0xD0, 12,
		0xF8,
		0xF0, 0x7E, 0x01, 0xF7,
		0x80, 60, 64,
		0xB0, 1, // truncated
	}
	want := [][]byte{
		{0x90, 60, 100},
		{0xD0, 12},
		{0xF8},
		{0xF0, 0x7E, 0x01, 0xF7},
		{0x80, 60, 64},
	}
	got := Split(data)
	if len(got) != len(want) {
		t.Fatalf("got %d messages % X, want %d", len(got), got, len(want))
	}
	for i := range want {
		if !bytes.Equal(got[i], want[i]) {
			t.Fatalf("message %d = % X, want % X", i, got[i], want[i])
		}
	}
	got[0][1] = 0
	if data[1] != 60 {
		t.Fatal("Split returned a slice aliasing the packet")
	}
}

func TestSplitSkipsStrayBytes(t *testing.T) {
	got := Split([]byte{0x12, 0x34, 0xC1, 5, 0xF0, 1, 2})
	if len(got) != 1 || !bytes.Equal(got[0], []byte{0xC1, 5}) {
		t.Fatalf("got % X", got)
	}
}

func TestShortMessageRoundTrip(t *testing.T) {
	cases := [][]byte{{0x93, 60, 100}, {0xD2, 40}, {0xF8}, {0xE0, 0, 64}}
	for _, msg := range cases {
		word, ok := PackShortMessage(msg)
		if !ok {
			t.Fatalf("PackShortMessage(% X) failed", msg)
		}
		if got := ShortMessage(word); !bytes.Equal(got, msg) {
			t.Fatalf("ShortMessage(%#x) = % X, want % X", word, got, msg)
		}
	}
	if _, ok := PackShortMessage([]byte{0xF0, 1, 0xF7}); ok {
		t.Fatal("SysEx packed into a short message")
	}
	if _, ok := PackShortMessage([]byte{0x90, 60}); ok {
		t.Fatal("truncated note on packed into a short message")
	}
}
