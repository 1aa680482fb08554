package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"github.com/leandrodaf/vslpt/internal/host"
	"github.com/leandrodaf/vslpt/internal/logger"
	"github.com/leandrodaf/vslpt/sdk/contracts"
	"github.com/leandrodaf/vslpt/sdk/midi"
	"go.uber.org/multierr"
)

const usage = `usage: vslpt <command> [flags]

commands:
  devices   list MIDI inputs and outputs
  live      rewrite a live MIDI input into VSL interval legato key-switches
  convert   rewrite a Standard MIDI File
`

var shortUnits, _ = durafmt.DefaultUnitsCoder.Decode("y:yrs,wk:wks,d:d,h:h,m:m,s:s,ms:ms,us:us")

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "devices":
		err = runDevices(os.Args[2:])
	case "live":
		err = runLive(os.Args[2:])
	case "convert":
		err = runConvert(os.Args[2:])
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil && !errors.Is(err, flag.ErrHelp) {
		log.Fatal(err)
	}
}

func newClient(level contracts.LogLevel, logFile string) (contracts.ClientMIDI, contracts.Logger, error) {
	log := logger.NewZapLogger()
	opts := []contracts.Option{
		contracts.WithLogger(log),
		contracts.WithLogLevel(level),
	}
	if logFile != "" {
		opts = append(opts, contracts.WithLogFile(logFile))
	}
	client, err := midi.NewMIDIClient(opts...)
	if err != nil {
		return nil, log, err
	}
	return client, log, nil
}

func runDevices(args []string) error {
	fs := flag.NewFlagSet("devices", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, log, err := newClient(contracts.WarnLevel, "")
	if err != nil {
		return err
	}
	defer log.Sync()
	defer client.Stop()

	ins, err := client.ListDevices()
	if err != nil {
		fmt.Println("inputs: none")
	} else {
		fmt.Println("inputs:")
		printDevices(ins)
	}
	outs, err := client.ListOutputs()
	if err != nil {
		fmt.Println("outputs: none")
	} else {
		fmt.Println("outputs:")
		printDevices(outs)
	}
	return nil
}

func printDevices(devices []contracts.DeviceInfo) {
	for _, d := range devices {
		if d.Manufacturer != "" {
			fmt.Printf("  %d: %s (%s)\n", d.ID, d.Name, d.Manufacturer)
			continue
		}
		fmt.Printf("  %d: %s\n", d.ID, d.Name)
	}
}

func runLive(args []string) error {
	cfg := host.DefaultConfig()
	fs := flag.NewFlagSet("live", flag.ContinueOnError)
	var (
		configFile = fs.String("config", "", "load settings from a JSON file; flags override it")
		saveConfig = fs.String("save-config", "", "write the resulting settings to a JSON file and exit")
		in         = fs.Int("in", cfg.InputDevice, "input device id (see vslpt devices)")
		out        = fs.Int("out", cfg.OutputDevice, "output device id")
		sampleRate = fs.Float64("rate", cfg.SampleRate, "block clock sample rate")
		blockSize  = fs.Int("block", cfg.BlockSize, "frames per block")
		buffer     = fs.Int("buffer", cfg.Buffer, "capture buffer in messages")
		level      = fs.String("log-level", cfg.LogLevel, "debug|info|warn|error")
		logFile    = fs.String("log-file", "", "write logs to this file instead of stderr")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *configFile != "" {
		loaded, err := host.LoadConfig(*configFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	// explicitly set flags win over the file
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "in":
			cfg.InputDevice = *in
		case "out":
			cfg.OutputDevice = *out
		case "rate":
			cfg.SampleRate = *sampleRate
		case "block":
			cfg.BlockSize = *blockSize
		case "buffer":
			cfg.Buffer = *buffer
		case "log-level":
			cfg.LogLevel = *level
		case "log-file":
			cfg.LogFile = *logFile
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}
	if *saveConfig != "" {
		if err := cfg.Save(*saveConfig); err != nil {
			return err
		}
		fmt.Printf("Configuration saved to %s\n", *saveConfig)
		return nil
	}

	client, log, err := newClient(cfg.Level(), cfg.LogFile)
	if err != nil {
		return err
	}
	defer log.Sync()

	h, err := host.New(cfg, client, log)
	if err != nil {
		return multierr.Append(err, client.Stop())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Running at %s Hz, %d frames per block (%s). Press Ctrl+C to stop...\n",
		humanize.Ftoa(cfg.SampleRate), cfg.BlockSize,
		durafmt.Parse(cfg.BlockDuration()).LimitFirstN(2).Format(shortUnits))
	runErr := h.Run(ctx)

	s := h.Stats()
	if !s.Started.IsZero() {
		fmt.Printf("%s blocks over %s: %s messages in, %s out, %s dropped, %s send errors\n",
			humanize.Comma(int64(s.Blocks)),
			durafmt.Parse(s.Stopped.Sub(s.Started).Round(time.Millisecond)).LimitFirstN(2).Format(shortUnits),
			humanize.Comma(int64(s.Plugin.EventsIn)),
			humanize.Comma(int64(s.Plugin.EventsOut)),
			humanize.Comma(int64(s.Plugin.Dropped+s.Overrun)),
			humanize.Comma(int64(s.SendErrors)))
	}
	return runErr
}

func runConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	var (
		in          = fs.String("i", "", "input .mid file")
		out         = fs.String("o", "", "output .mid file")
		workers     = fs.Int("workers", 4, "tracks converted in parallel")
		keepHanging = fs.Bool("keep-hanging", false, "do not release phrases still sounding at the end of a track")
		verbose     = fs.Bool("v", false, "log per-track progress")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" {
		fs.Usage()
		return errors.New("convert needs -i and -o")
	}

	log := logger.NewZapLogger()
	log.SetLevel(contracts.WarnLevel)
	if *verbose {
		log.SetLevel(contracts.DebugLevel)
	}
	defer log.Sync()

	start := time.Now()
	report, err := host.ConvertFile(*in, *out, host.ConvertOptions{
		Workers:     *workers,
		Logger:      log,
		KeepHanging: *keepHanging,
	})
	if err != nil {
		return err
	}

	size := "?"
	if fi, err := os.Stat(*out); err == nil {
		size = humanize.Bytes(uint64(fi.Size()))
	}
	fmt.Printf("%s: %d tracks, %s events in, %s out (%s released at track end), %s meta, written %s in %s\n",
		*out, report.Tracks,
		humanize.Comma(int64(report.EventsIn)),
		humanize.Comma(int64(report.EventsOut)),
		humanize.Comma(int64(report.Released)),
		humanize.Comma(int64(report.Meta)),
		size,
		durafmt.Parse(time.Since(start)).LimitFirstN(2).Format(shortUnits))
	if report.Overflow > 0 || report.Malformed > 0 {
		fmt.Printf("warning: %d notes ignored (too many held keys), %d malformed messages passed through\n",
			report.Overflow, report.Malformed)
	}
	return nil
}
