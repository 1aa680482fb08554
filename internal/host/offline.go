package host

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/leandrodaf/vslpt/internal/logger"
	"github.com/leandrodaf/vslpt/internal/urid"
	"github.com/leandrodaf/vslpt/sdk/atom"
	"github.com/leandrodaf/vslpt/sdk/contracts"
	"github.com/leandrodaf/vslpt/sdk/plugin"
	"github.com/remeh/sizedwaitgroup"
	"gitlab.com/gomidi/midi/v2/smf"
	"go.uber.org/multierr"
)

// offlineSampleRate is handed to offline instances; frames are ticks there.
const offlineSampleRate = 48000

// worst case output per input event: four three-byte messages
const maxOutputPerEvent = 4 * (atom.EventHeaderSize + 8)

// ErrNoTracks is returned for a file without tracks.
var ErrNoTracks = errors.New("SMF has no tracks")

// ConvertOptions tunes offline conversion.
type ConvertOptions struct {
	Workers int // tracks converted in parallel; 0 means 4
	Logger  contracts.Logger
	// KeepHanging leaves phrases that are still sounding at the end of a
	// track alone instead of releasing them at the last tick.
	KeepHanging bool
}

// ConvertReport sums the per-track plugin counters.
type ConvertReport struct {
	Tracks    int
	EventsIn  uint64
	EventsOut uint64
	Meta      uint64
	Overflow  uint64
	Malformed uint64
	Released  uint64 // note offs added at the end of tracks
}

func (r *ConvertReport) add(s plugin.Stats, meta, released uint64) {
	r.EventsIn += s.EventsIn
	r.EventsOut += s.EventsOut
	r.Overflow += s.Overflow
	r.Malformed += s.Malformed
	r.Meta += meta
	r.Released += released
}

type timedMessage struct {
	tick uint64
	meta bool
	msg  []byte
}

// ConvertSMF runs every track of src through a fresh plugin instance, with
// absolute ticks as frames, and returns a new file with the same time
// format. Meta events keep their ticks and precede MIDI output at the same
// tick.
func ConvertSMF(src *smf.SMF, opts ConvertOptions) (*smf.SMF, ConvertReport, error) {
	var report ConvertReport
	if src == nil || len(src.Tracks) == 0 {
		return nil, report, ErrNoTracks
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}

	tracks := make([]smf.Track, len(src.Tracks))
	var (
		mu   sync.Mutex
		errs error
		swg  = sizedwaitgroup.New(opts.Workers)
	)
	for i := range src.Tracks {
		swg.Add()
		go func(i int) {
			defer swg.Done()
			track, stats, meta, released, err := convertTrack(src.Tracks[i], opts)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("track %d: %w", i, err))
				return
			}
			tracks[i] = track
			report.add(stats, meta, released)
			opts.Logger.Debug("Track converted",
				opts.Logger.Field().Int("track", i),
				opts.Logger.Field().Uint64("eventsIn", stats.EventsIn),
				opts.Logger.Field().Uint64("eventsOut", stats.EventsOut))
		}(i)
	}
	swg.Wait()
	if errs != nil {
		return nil, report, errs
	}

	dst := smf.New()
	dst.TimeFormat = src.TimeFormat
	for _, track := range tracks {
		if err := dst.Add(track); err != nil {
			return nil, report, fmt.Errorf("add track: %w", err)
		}
	}
	report.Tracks = len(tracks)
	return dst, report, nil
}

func convertTrack(src smf.Track, opts ConvertOptions) (smf.Track, plugin.Stats, uint64, uint64, error) {
	p, err := plugin.Instantiate(offlineSampleRate, []contracts.Feature{
		{URI: plugin.URIDMapURI, Data: urid.New()},
		{URI: plugin.LogURI, Data: opts.Logger},
	})
	if err != nil {
		return nil, plugin.Stats{}, 0, 0, err
	}
	// the logger is shared by all tracks and flushed by the caller
	defer func() { _ = p.Cleanup() }()

	var (
		tick      uint64
		endTick   uint64
		metas     []timedMessage
		inBytes   = atom.BodyHeaderSize
		outBytes  = atom.BodyHeaderSize
		midiCount int
	)
	for _, ev := range src {
		tick += uint64(ev.Delta)
		if isMeta(ev.Message) {
			if isEndOfTrack(ev.Message) {
				endTick = tick
				continue
			}
			metas = append(metas, timedMessage{tick: tick, meta: true, msg: append([]byte(nil), ev.Message...)})
			continue
		}
		midiCount++
		size := atom.EventHeaderSize + (len(ev.Message)+7)&^7
		inBytes += size
		outBytes += max(size, maxOutputPerEvent)
	}
	if tick > endTick {
		endTick = tick
	}

	in := atom.NewSequence(p.SequenceType(), inBytes)
	out := atom.NewSequence(p.SequenceType(), outBytes)
	p.ConnectPort(plugin.PortMIDIIn, in)
	p.ConnectPort(plugin.PortMIDIOut, out)

	tick = 0
	for _, ev := range src {
		tick += uint64(ev.Delta)
		if isMeta(ev.Message) {
			continue
		}
		in.Append(int64(tick), p.MIDIEventType(), ev.Message)
	}
	p.Run(uint32(min(endTick+1, uint64(^uint32(0)))))

	merged := make([]timedMessage, 0, len(metas)+out.Len())
	merged = append(merged, metas...)
	for _, ev := range out.Events() {
		merged = append(merged, timedMessage{tick: uint64(ev.Frames), msg: append([]byte(nil), ev.Body...)})
	}

	var released uint64
	if !opts.KeepHanging {
		p.ReleaseAll()
		for _, ev := range out.Events() {
			merged = append(merged, timedMessage{tick: endTick, msg: append([]byte(nil), ev.Body...)})
			released++
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].tick != merged[j].tick {
			return merged[i].tick < merged[j].tick
		}
		return merged[i].meta && !merged[j].meta
	})

	var (
		track smf.Track
		prev  uint64
	)
	for _, m := range merged {
		track.Add(uint32(m.tick-prev), m.msg)
		prev = m.tick
	}
	track.Close(uint32(endTick - prev))

	stats := p.Stats()
	if midiCount > 0 && stats.EventsIn != uint64(midiCount) {
		return nil, stats, 0, 0, fmt.Errorf("only %d of %d events fit the input port", stats.EventsIn, midiCount)
	}
	return track, stats, uint64(len(metas)), released, nil
}

func isMeta(msg smf.Message) bool {
	return len(msg) > 0 && msg[0] == 0xFF
}

func isEndOfTrack(msg smf.Message) bool {
	return len(msg) > 1 && msg[0] == 0xFF && msg[1] == 0x2F
}

// ConvertFile reads a .mid file, converts it and writes the result.
func ConvertFile(inPath, outPath string, opts ConvertOptions) (ConvertReport, error) {
	src, err := smf.ReadFile(inPath)
	if err != nil {
		return ConvertReport{}, fmt.Errorf("read %s: %w", inPath, err)
	}
	dst, report, err := ConvertSMF(src, opts)
	if err != nil {
		return report, err
	}
	if err := dst.WriteFile(outPath); err != nil {
		return report, fmt.Errorf("write %s: %w", outPath, err)
	}
	return report, nil
}
