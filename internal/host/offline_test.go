package host

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

type absEvent struct {
	tick uint64
	msg  []byte
}

// flatten returns the events of a track with absolute ticks, without the
// end of track marker.
func flatten(tr smf.Track) ([]absEvent, uint64) {
	var (
		tick uint64
		evs  []absEvent
	)
	for _, ev := range tr {
		tick += uint64(ev.Delta)
		if isEndOfTrack(ev.Message) {
			continue
		}
		evs = append(evs, absEvent{tick, []byte(ev.Message)})
	}
	return evs, tick
}

func assertTrack(t *testing.T, tr smf.Track, want []absEvent) {
	t.Helper()
	got, _ := flatten(tr)
	if len(got) != len(want) {
		t.Fatalf("got %d events %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i].tick != want[i].tick || !bytes.Equal(got[i].msg, want[i].msg) {
			t.Fatalf("event %d = @%d % X, want @%d % X", i, got[i].tick, got[i].msg, want[i].tick, want[i].msg)
		}
	}
}

func off(ch, key uint8) []byte { return midi.NoteOffVelocity(ch, key, 64) }

func legatoTrack() smf.Track {
	var tr smf.Track
	tr.Add(0, smf.MetaTempo(120))
	tr.Add(0, midi.NoteOn(0, 84, 100))
	tr.Add(480, midi.NoteOn(0, 88, 90))
	tr.Add(480, midi.NoteOff(0, 88))
	tr.Add(480, midi.NoteOff(0, 84))
	tr.Close(0)
	return tr
}

func TestConvertSMFLegatoPhrase(t *testing.T) {
	src := smf.New()
	src.TimeFormat = smf.MetricTicks(480)
	if err := src.Add(legatoTrack()); err != nil {
		t.Fatal(err)
	}

	dst, report, err := ConvertSMF(src, ConvertOptions{})
	if err != nil {
		t.Fatalf("ConvertSMF: %v", err)
	}
	if dst.TimeFormat != src.TimeFormat {
		t.Fatalf("time format = %v, want %v", dst.TimeFormat, src.TimeFormat)
	}

	assertTrack(t, dst.Tracks[0], []absEvent{
		{0, smf.MetaTempo(120)},
		{0, midi.NoteOn(0, 0x0D, 100)},
		{0, midi.NoteOn(0, 60, 100)},
		{480, off(0, 60)},
		{480, off(0, 0x0D)},
		{480, midi.NoteOn(0, 4, 100)},
		{480, midi.NoteOn(0, 64, 90)},
		{960, off(0, 64)},
		{960, off(0, 4)},
		{960, midi.NoteOn(0, 4, 100)},
		{960, midi.NoteOn(0, 108, 100)},
		{1440, off(0, 108)},
		{1440, off(0, 4)},
	})
	if report.Tracks != 1 || report.EventsIn != 4 || report.EventsOut != 12 || report.Meta != 1 || report.Released != 0 {
		t.Fatalf("report = %+v", report)
	}
}

func TestConvertSMFReleasesHangingNotes(t *testing.T) {
	var tr smf.Track
	tr.Add(0, midi.NoteOn(2, 60, 100))
	tr.Close(960)

	src := smf.New()
	if err := src.Add(tr); err != nil {
		t.Fatal(err)
	}

	dst, report, err := ConvertSMF(src, ConvertOptions{})
	if err != nil {
		t.Fatal(err)
	}
	assertTrack(t, dst.Tracks[0], []absEvent{
		{0, midi.NoteOn(2, 0x0D, 100)},
		{0, midi.NoteOn(2, 36, 100)},
		{960, off(2, 36)},
		{960, off(2, 0x0D)},
	})
	if _, end := flatten(dst.Tracks[0]); end != 960 {
		t.Fatalf("track ends at %d, want 960", end)
	}
	if report.Released != 2 {
		t.Fatalf("report = %+v", report)
	}

	dst, _, err = ConvertSMF(src, ConvertOptions{KeepHanging: true})
	if err != nil {
		t.Fatal(err)
	}
	assertTrack(t, dst.Tracks[0], []absEvent{
		{0, midi.NoteOn(2, 0x0D, 100)},
		{0, midi.NoteOn(2, 36, 100)},
	})
}

func TestConvertSMFTracksAreIndependent(t *testing.T) {
	var a, b smf.Track
	a.Add(0, midi.NoteOn(0, 84, 100))
	a.Add(10, midi.NoteOff(0, 84))
	a.Close(0)
	b.Add(5, midi.NoteOn(0, 88, 100))
	b.Add(10, midi.NoteOff(0, 88))
	b.Close(0)

	src := smf.New()
	for _, tr := range []smf.Track{a, b, a, b} {
		if err := src.Add(tr); err != nil {
			t.Fatal(err)
		}
	}

	dst, report, err := ConvertSMF(src, ConvertOptions{Workers: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(dst.Tracks) != 4 || report.Tracks != 4 {
		t.Fatalf("tracks = %d, report = %+v", len(dst.Tracks), report)
	}
	// no legato across tracks: each is a phrase start and end
	for i, start := range []uint64{0, 5, 0, 5} {
		key := uint8(60)
		if i%2 == 1 {
			key = 64
		}
		assertTrack(t, dst.Tracks[i], []absEvent{
			{start, midi.NoteOn(0, 0x0D, 100)},
			{start, midi.NoteOn(0, key, 100)},
			{start + 10, off(0, key)},
			{start + 10, off(0, 0x0D)},
		})
	}
}

func TestConvertSMFNoTracks(t *testing.T) {
	if _, _, err := ConvertSMF(smf.New(), ConvertOptions{}); !errors.Is(err, ErrNoTracks) {
		t.Fatalf("err = %v, want ErrNoTracks", err)
	}
	if _, _, err := ConvertSMF(nil, ConvertOptions{}); !errors.Is(err, ErrNoTracks) {
		t.Fatalf("err = %v, want ErrNoTracks", err)
	}
}

func TestConvertFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.mid")
	out := filepath.Join(dir, "out.mid")

	src := smf.New()
	if err := src.Add(legatoTrack()); err != nil {
		t.Fatal(err)
	}
	if err := src.WriteFile(in); err != nil {
		t.Fatal(err)
	}

	report, err := ConvertFile(in, out, ConvertOptions{})
	if err != nil {
		t.Fatalf("ConvertFile: %v", err)
	}
	if report.EventsOut != 12 {
		t.Fatalf("report = %+v", report)
	}

	got, err := smf.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	evs, end := flatten(got.Tracks[0])
	if len(evs) != 13 || end != 1440 {
		t.Fatalf("read back %d events ending at %d", len(evs), end)
	}

	if _, err := ConvertFile(filepath.Join(dir, "missing.mid"), out, ConvertOptions{}); err == nil {
		t.Fatal("missing input converted")
	}
}
