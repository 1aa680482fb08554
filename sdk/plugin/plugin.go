// Package plugin is the VSL performance tool: a MIDI effect that rewrites
// a keyboard's notes into interval legato key-switches for Vienna
// Symphonic Library instruments. Its lifecycle mirrors an LV2 plugin:
// Instantiate, ConnectPort, Run once per audio block, Cleanup.
package plugin

import (
	"errors"
	"fmt"

	"github.com/leandrodaf/vslpt/internal/legato"
	"github.com/leandrodaf/vslpt/internal/logger"
	"github.com/leandrodaf/vslpt/sdk/atom"
	"github.com/leandrodaf/vslpt/sdk/contracts"
)

// URI identifies the plugin.
const URI = "https://github.com/ReeseWang/vslpt-lv2"

// Host feature and type URIs.
const (
	URIDMapURI      = "http://lv2plug.in/ns/ext/urid#map"
	LogURI          = "http://lv2plug.in/ns/ext/log#log"
	AtomSequenceURI = "http://lv2plug.in/ns/ext/atom#Sequence"
	MIDIEventURI    = "http://lv2plug.in/ns/ext/midi#MidiEvent"
)

// Port indices.
const (
	PortMIDIIn  uint32 = 0
	PortMIDIOut uint32 = 1
)

var (
	// ErrMissingFeature is returned when a required host feature is absent.
	ErrMissingFeature = errors.New("missing required host feature")
	// ErrInvalidSampleRate is returned for a non-positive sample rate.
	ErrInvalidSampleRate = errors.New("invalid sample rate")
)

type uris struct {
	atomSequence contracts.URID
	midiEvent    contracts.URID
}

// Stats counts what Run has done since instantiation.
type Stats struct {
	EventsIn  uint64 // input events seen
	EventsOut uint64 // output events written
	Dropped   uint64 // output events lost to a full output buffer
	Overflow  uint64 // note ons ignored because too many keys were held
	Malformed uint64 // invalid MIDI passed through untouched
	Discarded uint64 // non-MIDI input events
}

// Instance is one running copy of the plugin. Its methods must not be
// called concurrently.
type Instance struct {
	logger     contracts.Logger
	sampleRate float64
	uris       uris

	in  *atom.Sequence
	out *atom.Sequence

	engine *legato.Engine
	writer blockWriter
	stats  Stats
}

// Instantiate creates an instance. The urid:map feature is required; a
// log:log feature carrying a contracts.Logger is used when present.
func Instantiate(sampleRate float64, features []contracts.Feature) (*Instance, error) {
	var (
		mapper contracts.URIDMapper
		log    contracts.Logger
	)
	for _, f := range features {
		switch f.URI {
		case URIDMapURI:
			mapper, _ = f.Data.(contracts.URIDMapper)
		case LogURI:
			log, _ = f.Data.(contracts.Logger)
		}
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	if mapper == nil {
		log.Error("Missing feature", log.Field().String("feature", URIDMapURI))
		return nil, fmt.Errorf("%w: <%s>", ErrMissingFeature, URIDMapURI)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSampleRate, sampleRate)
	}

	p := &Instance{
		logger:     log,
		sampleRate: sampleRate,
		uris: uris{
			atomSequence: mapper.Map(AtomSequenceURI),
			midiEvent:    mapper.Map(MIDIEventURI),
		},
		engine: legato.NewEngine(),
	}
	p.writer.plugin = p
	log.Debug("Plugin instantiated",
		log.Field().String("uri", URI),
		log.Field().Float64("sampleRate", sampleRate))
	return p, nil
}

// ConnectPort attaches a host buffer to a port. Unknown ports are ignored.
func (p *Instance) ConnectPort(port uint32, seq *atom.Sequence) {
	switch port {
	case PortMIDIIn:
		p.in = seq
	case PortMIDIOut:
		p.out = seq
	}
}

// SampleRate returns the rate given at instantiation.
func (p *Instance) SampleRate() float64 { return p.sampleRate }

// MIDIEventType returns the URID tagging MIDI events in both sequences.
func (p *Instance) MIDIEventType() contracts.URID { return p.uris.midiEvent }

// SequenceType returns the URID of the atom:Sequence type.
func (p *Instance) SequenceType() contracts.URID { return p.uris.atomSequence }

// Stats returns the running counters.
func (p *Instance) Stats() Stats { return p.stats }

// Channel exposes the legato state of a channel.
func (p *Instance) Channel(ch uint8) *legato.Channel { return p.engine.Channel(ch) }

// Cleanup releases the port buffers and flushes the logger, returning
// the flush error.
func (p *Instance) Cleanup() error {
	p.in, p.out = nil, nil
	return p.logger.Sync()
}
