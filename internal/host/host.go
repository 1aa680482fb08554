// Package host runs the plugin outside a plugin host: live between two
// MIDI devices, or offline over a Standard MIDI File.
package host

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/leandrodaf/vslpt/internal/urid"
	"github.com/leandrodaf/vslpt/sdk/atom"
	"github.com/leandrodaf/vslpt/sdk/contracts"
	"github.com/leandrodaf/vslpt/sdk/plugin"
	"go.uber.org/multierr"
	"golang.org/x/time/rate"
)

// Stats summarises a live session.
type Stats struct {
	Blocks     uint64
	Captured   uint64 // messages taken from the capture channel
	Overrun    uint64 // captured messages that did not fit the input port
	Sent       uint64
	SendErrors uint64
	Plugin     plugin.Stats
	Started    time.Time
	Stopped    time.Time
}

// Host drives one plugin instance in real time. Captured messages are
// gathered per block, stamped with a frame offset from their arrival time,
// run through the plugin and sent to the output device.
type Host struct {
	cfg    Config
	client contracts.ClientMIDI
	logger contracts.Logger

	plugin  *plugin.Instance
	in, out *atom.Sequence
	events  chan contracts.MIDI

	warn *rate.Limiter
	now  func() time.Time

	mu    sync.Mutex
	stats Stats
}

// New validates cfg and instantiates the plugin with its own URID map.
func New(cfg Config, client contracts.ClientMIDI, logger contracts.Logger) (*Host, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.PortCapacity == 0 {
		cfg.PortCapacity = DefaultConfig().PortCapacity
	}
	if cfg.Buffer == 0 {
		cfg.Buffer = DefaultConfig().Buffer
	}

	p, err := plugin.Instantiate(cfg.SampleRate, []contracts.Feature{
		{URI: plugin.URIDMapURI, Data: urid.New()},
		{URI: plugin.LogURI, Data: logger},
	})
	if err != nil {
		return nil, fmt.Errorf("instantiate plugin: %w", err)
	}
	in, out := p.NewPorts(cfg.PortCapacity)

	return &Host{
		cfg:    cfg,
		client: client,
		logger: logger,
		plugin: p,
		in:     in,
		out:    out,
		events: make(chan contracts.MIDI, cfg.Buffer),
		warn:   rate.NewLimiter(rate.Every(time.Second), 1),
		now:    time.Now,
	}, nil
}

// Run opens the configured devices and processes blocks until ctx is
// done. On the way out every sounding phrase is released downstream and
// the client is stopped.
func (h *Host) Run(ctx context.Context) error {
	if err := h.client.SelectDevice(h.cfg.InputDevice); err != nil {
		return fmt.Errorf("select input %d: %w", h.cfg.InputDevice, err)
	}
	if err := h.client.SelectOutput(h.cfg.OutputDevice); err != nil {
		return multierr.Append(fmt.Errorf("select output %d: %w", h.cfg.OutputDevice, err), h.client.Stop())
	}

	h.mu.Lock()
	h.stats.Started = h.now()
	h.mu.Unlock()

	h.client.StartCapture(h.events)
	h.logger.Info("Live host started",
		h.logger.Field().Float64("sampleRate", h.cfg.SampleRate),
		h.logger.Field().Int("blockSize", h.cfg.BlockSize),
		h.logger.Field().Duration("block", h.cfg.BlockDuration()))

	ticker := time.NewTicker(h.cfg.BlockDuration())
	defer ticker.Stop()

	blockStart := h.now()
	for {
		select {
		case <-ctx.Done():
			return h.shutdown()
		case <-ticker.C:
			blockStart = h.processBlock(blockStart)
		}
	}
}

// processBlock drains what has been captured so far and runs one block.
// It returns the start time of the next block.
func (h *Host) processBlock(blockStart time.Time) time.Time {
	h.in.Clear()
	var (
		last     int64
		captured uint64
		overrun  uint64
	)
drain:
	for {
		select {
		case ev := <-h.events:
			captured++
			frames := h.frameOffset(ev.Timestamp, blockStart)
			if frames < last {
				frames = last
			}
			last = frames
			if !h.in.Append(frames, h.plugin.MIDIEventType(), ev.Data) {
				overrun++
			}
		default:
			break drain
		}
	}
	if overrun > 0 && h.warn.Allow() {
		h.logger.Warn("Input port full; MIDI dropped", h.logger.Field().Uint64("count", overrun))
	}

	h.plugin.Run(uint32(h.cfg.BlockSize))
	sent, failed := h.flush()

	h.mu.Lock()
	h.stats.Blocks++
	h.stats.Captured += captured
	h.stats.Overrun += overrun
	h.stats.Sent += sent
	h.stats.SendErrors += failed
	h.stats.Plugin = h.plugin.Stats()
	h.mu.Unlock()

	return blockStart.Add(h.cfg.BlockDuration())
}

// frameOffset converts an arrival time into a frame within the block,
// clamped to [0, BlockSize).
func (h *Host) frameOffset(ts uint64, blockStart time.Time) int64 {
	delta := int64(ts) - blockStart.UnixNano()
	frames := int64(float64(delta) * h.cfg.SampleRate / float64(time.Second))
	switch {
	case frames < 0:
		return 0
	case frames >= int64(h.cfg.BlockSize):
		return int64(h.cfg.BlockSize) - 1
	}
	return frames
}

// flush sends every output event in order.
func (h *Host) flush() (sent, failed uint64) {
	for _, ev := range h.out.Events() {
		if err := h.client.Send(ev.Body); err != nil {
			failed++
			if h.warn.Allow() {
				h.logger.Warn("Failed to send MIDI", h.logger.Field().Error("error", err))
			}
			continue
		}
		sent++
	}
	return sent, failed
}

func (h *Host) shutdown() error {
	h.plugin.ReleaseAll()
	sent, failed := h.flush()

	err := multierr.Append(h.client.Stop(), h.plugin.Cleanup())

	h.mu.Lock()
	h.stats.Sent += sent
	h.stats.SendErrors += failed
	h.stats.Plugin = h.plugin.Stats()
	h.stats.Stopped = h.now()
	stats := h.stats
	h.mu.Unlock()

	h.logger.Info("Live host stopped",
		h.logger.Field().Uint64("blocks", stats.Blocks),
		h.logger.Field().Uint64("eventsIn", stats.Plugin.EventsIn),
		h.logger.Field().Uint64("eventsOut", stats.Plugin.EventsOut),
		h.logger.Field().Uint64("dropped", stats.Plugin.Dropped),
		h.logger.Field().Uint64("sendErrors", stats.SendErrors))

	if failed > 0 {
		err = multierr.Append(err, fmt.Errorf("%d note offs could not be sent on shutdown", failed))
	}
	return err
}

// Stats returns a snapshot of the session counters.
func (h *Host) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}
