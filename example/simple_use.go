package main

import (
	"fmt"

	"github.com/leandrodaf/vslpt/internal/logger"
	"github.com/leandrodaf/vslpt/internal/urid"
	"github.com/leandrodaf/vslpt/sdk/contracts"
	"github.com/leandrodaf/vslpt/sdk/plugin"
	"gitlab.com/gomidi/midi/v2"
)

func main() {
	log := logger.NewZapLogger()
	log.SetLevel(contracts.DebugLevel)
	defer log.Sync()

	p, err := plugin.Instantiate(48000, []contracts.Feature{
		{URI: plugin.URIDMapURI, Data: urid.New()},
		{URI: plugin.LogURI, Data: log},
	})
	if err != nil {
		log.Error("Failed to instantiate plugin", log.Field().Error("error", err))
		return
	}
	defer p.Cleanup()

	in, out := p.NewPorts(4096)

	// a three note legato line, played one block at a time
	in.Append(0, p.MIDIEventType(), midi.NoteOn(0, 84, 100))
	in.Append(64, p.MIDIEventType(), midi.NoteOn(0, 88, 96))
	in.Append(96, p.MIDIEventType(), midi.NoteOff(0, 84))
	in.Append(128, p.MIDIEventType(), midi.NoteOn(0, 79, 90))
	in.Append(160, p.MIDIEventType(), midi.NoteOff(0, 88))
	in.Append(200, p.MIDIEventType(), midi.AfterTouch(0, 70))
	in.Append(255, p.MIDIEventType(), midi.NoteOff(0, 79))
	p.Run(256)

	for _, ev := range out.Events() {
		fmt.Printf("%4d  %s\n", ev.Frames, midi.Message(ev.Body))
	}
	fmt.Printf("%+v\n", p.Stats())
}
