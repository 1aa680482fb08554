package plugin

import (
	"github.com/leandrodaf/vslpt/internal/legato"
	"github.com/leandrodaf/vslpt/sdk/atom"
)

// blockWriter appends engine output to the output port, stamped with the
// frame of the input event being processed.
type blockWriter struct {
	plugin *Instance
	frames int64
}

var _ legato.Writer = (*blockWriter)(nil)

func (w *blockWriter) Emit(status, data1, data2 byte) bool {
	msg := [3]byte{status, data1, data2}
	return w.append(msg[:])
}

func (w *blockWriter) Forward(msg []byte) bool {
	return w.append(msg)
}

func (w *blockWriter) append(msg []byte) bool {
	p := w.plugin
	if p.out.Append(w.frames, p.uris.midiEvent, msg) {
		p.stats.EventsOut++
		return true
	}
	p.stats.Dropped++
	return false
}

// Run processes one block. The output sequence is rebuilt from scratch:
// every input event is dispatched in order and its replacements are
// appended at the same frame. sampleCount bounds the block but does not
// change the outcome. Run does not allocate or block.
func (p *Instance) Run(sampleCount uint32) {
	if p.in == nil || p.out == nil {
		return
	}

	p.out.Clear()
	p.out.Type = p.in.Type

	for _, ev := range p.in.Events() {
		p.stats.EventsIn++
		if ev.Type != p.uris.midiEvent {
			p.stats.Discarded++
			continue
		}
		p.writer.frames = ev.Frames
		switch p.engine.Handle(ev.Body, &p.writer) {
		case legato.ActionOverflow:
			p.stats.Overflow++
			p.logger.Debug("Note stack full; note ignored", p.logger.Field().Int64("frames", ev.Frames))
		case legato.ActionMalformed:
			p.stats.Malformed++
		}
	}
}

// ReleaseAll rewrites the output port with note offs for every sounding
// phrase, at frame 0, and clears all held keys. Hosts call it instead of
// Run when they stop processing so that nothing is left hanging
// downstream.
func (p *Instance) ReleaseAll() {
	if p.out == nil {
		return
	}
	p.out.Clear()
	if p.in != nil {
		p.out.Type = p.in.Type
	}
	p.writer.frames = 0
	p.engine.ReleaseAll(&p.writer)
}

// NewPorts allocates an input and an output sequence of the given byte
// capacity, typed as atom:Sequence for this instance.
func (p *Instance) NewPorts(capacity int) (in, out *atom.Sequence) {
	in = atom.NewSequence(p.uris.atomSequence, capacity)
	out = atom.NewSequence(p.uris.atomSequence, capacity)
	p.ConnectPort(PortMIDIIn, in)
	p.ConnectPort(PortMIDIOut, out)
	return in, out
}
