package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/asticode/go-astidvb"
	"github.com/asticode/go-astikit"
	"github.com/pkg/errors"
	"github.com/pkg/profile"
)

// Flags
var (
	ctx, cancel     = context.WithCancel(context.Background())
	checkCRC32      = flag.Bool("crc", false, "if yes, sections whose CRC32 doesn't match are skipped")
	cpuProfiling    = flag.Bool("cp", false, "if yes, cpu profiling is enabled")
	dataTypes       = astikit.NewFlagStrings()
	format          = flag.String("f", "", "the format (text, json)")
	inputPath       = flag.String("i", "", "the input path")
	memoryProfiling = flag.Bool("mp", false, "if yes, memory profiling is enabled")
	outputPath      = flag.String("o", "", "the output path, - for stdout, defaults to the input path with a .txt extension")
	packetSize      = flag.Int("s", astidvb.MpegTsPacketSize, "the packet size (188, 204 or 0 to auto detect it)")
)

func main() {
	// Init
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage of %s <report|packets|tables>:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Var(dataTypes, "d", "the tables whitelist (all, pat, pmt, nit, sdt)")
	cmd := astikit.FlagCmd()
	flag.Parse()

	// Handle signals
	handleSignals()

	// Start profiling
	if *cpuProfiling {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	} else if *memoryProfiling {
		defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
	}

	// Set logger
	astidvb.SetLogger(log.Default())

	// Build the reader
	var r io.ReadCloser
	var err error
	if r, err = buildReader(); err != nil {
		log.Fatal(errors.Wrap(err, "astidvb: building reader failed"))
	}
	defer r.Close()

	// Options
	opts := []func(*astidvb.Analyzer){
		astidvb.AnalyzerOptCheckCRC32(*checkCRC32),
		astidvb.AnalyzerOptLogger(log.Default()),
		astidvb.AnalyzerOptPacketSize(*packetSize),
	}

	// Switch on command
	switch cmd {
	case "packets":
		// Fetch packets
		if err = packets(astidvb.NewAnalyzer(ctx, r, opts...)); err != nil {
			log.Fatal(errors.Wrap(err, "astidvb: fetching packets failed"))
		}
	case "tables":
		// Fetch tables
		if err = tables(astidvb.NewAnalyzer(ctx, r, append(opts, astidvb.AnalyzerOptDataHandler(logData))...)); err != nil {
			log.Fatal(errors.Wrap(err, "astidvb: fetching tables failed"))
		}
	default:
		// Analyze
		var s *astidvb.TransportStream
		if s, err = astidvb.NewAnalyzer(ctx, r, opts...).Analyze(); err != nil {
			log.Fatal(errors.Wrap(err, "astidvb: analyzing failed"))
		}

		// Write report
		if err = writeReport(s); err != nil {
			log.Fatal(errors.Wrap(err, "astidvb: writing report failed"))
		}
	}
}

func handleSignals() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch)
	go func() {
		for s := range ch {
			if s != syscall.SIGURG {
				log.Printf("Received signal %s\n", s)
			}
			switch s {
			case syscall.SIGABRT, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM:
				cancel()
				return
			}
		}
	}()
}

func buildReader() (r io.ReadCloser, err error) {
	// Validate input
	if len(*inputPath) <= 0 {
		err = errors.New("use -i to indicate an input path")
		return
	}

	// Open file
	var f *os.File
	if f, err = os.Open(*inputPath); err != nil {
		err = errors.Wrapf(err, "astidvb: opening %s failed", *inputPath)
		return
	}
	r = f
	return
}

func writeReport(s *astidvb.TransportStream) (err error) {
	// Get writer
	var w io.Writer
	switch p := *outputPath; p {
	case "-":
		w = os.Stdout
	default:
		if p == "" {
			p = astidvb.OutputPath(*inputPath)
		}
		var f *os.File
		if f, err = os.Create(p); err != nil {
			err = errors.Wrapf(err, "astidvb: creating %s failed", p)
			return
		}
		defer f.Close()
		w = f
		log.Printf("Writing report to %s\n", p)
	}

	// Switch on format
	switch *format {
	case "json":
		var e = json.NewEncoder(w)
		e.SetIndent("", "  ")
		if err = e.Encode(astidvb.NewReport(s)); err != nil {
			err = errors.Wrap(err, "astidvb: json encoding failed")
			return
		}
	default:
		if err = astidvb.WriteReport(w, s); err != nil {
			err = errors.Wrap(err, "astidvb: writing text report failed")
			return
		}
	}
	return
}

func packets(a *astidvb.Analyzer) (err error) {
	// Loop through packets
	var p *astidvb.Packet
	log.Println("Fetching packets...")
	for {
		// Get next packet
		if p, err = a.NextPacket(); err != nil {
			if err == astidvb.ErrNoMorePackets {
				break
			}
			err = errors.Wrap(err, "astidvb: getting next packet failed")
			return
		}

		// Log packet
		log.Printf("PKT: %d\n", p.Header.PID)
		log.Printf("  Continuity Counter: %v\n", p.Header.ContinuityCounter)
		log.Printf("  Payload Unit Start Indicator: %v\n", p.Header.PayloadUnitStartIndicator)
		if p.PointerField != nil {
			log.Printf("  Pointer Field: %v\n", *p.PointerField)
		}
		log.Printf("  Has Payload: %v\n", p.Header.HasPayload)
		log.Printf("  Has Adaptation Field: %v\n", p.Header.HasAdaptationField)
		log.Printf("  Transport Error Indicator: %v\n", p.Header.TransportErrorIndicator)
		log.Printf("  Transport Priority: %v\n", p.Header.TransportPriority)
		log.Printf("  Transport Scrambling Control: %v\n", p.Header.TransportScramblingControl)

		// Process packet so that elementary streams can be attached to their program
		if err = a.ProcessPacket(p); err != nil {
			err = errors.Wrap(err, "astidvb: processing packet failed")
			return
		}
		if n, ok := a.Stream().ElementaryStreamProgram(p.Header.PID); ok {
			log.Printf("  Program: %d\n", n)
		}
	}
	return nil
}

func tables(a *astidvb.Analyzer) (err error) {
	log.Println("Fetching tables...")
	if err = a.Run(); err != nil {
		err = errors.Wrap(err, "astidvb: running failed")
		return
	}
	return
}

func logData(d *astidvb.Data) {
	// Determine which data to log
	_, logAll := dataTypes.Map["all"]
	if len(dataTypes.Map) == 0 {
		logAll = true
	}
	_, logNIT := dataTypes.Map["nit"]
	_, logPAT := dataTypes.Map["pat"]
	_, logPMT := dataTypes.Map["pmt"]
	_, logSDT := dataTypes.Map["sdt"]

	// Log data
	if d.NIT != nil && (logAll || logNIT) {
		log.Printf("NIT: %d\n", d.PID)
		log.Printf("  Network ID: %v\n", d.NIT.NetworkID)
		log.Println("  Network Descriptors:")
		for _, dsc := range d.NIT.NetworkDescriptors {
			log.Printf("    %s\n", descriptorToString(dsc))
		}
		log.Println("  Transport Streams:")
		for _, ts := range d.NIT.TransportStreams {
			log.Printf("    [%d] - Original Network ID: %d\n", ts.TransportStreamID, ts.OriginalNetworkID)
			for _, dsc := range ts.TransportDescriptors {
				log.Printf("      %s\n", descriptorToString(dsc))
			}
		}
	} else if d.PAT != nil && (logAll || logPAT) {
		log.Printf("PAT: %d\n", d.PID)
		log.Printf("  Transport Stream ID: %v\n", d.PAT.TransportStreamID)
		if d.PAT.NetworkPID != nil {
			log.Printf("  Network PID: %v\n", *d.PAT.NetworkPID)
		}
		log.Println("  Programs:")
		for _, p := range d.PAT.Programs {
			log.Printf("    %+v\n", p)
		}
	} else if d.PMT != nil && (logAll || logPMT) {
		log.Printf("PMT: %d\n", d.PID)
		log.Printf("  ProgramNumber: %v\n", d.PMT.ProgramNumber)
		log.Printf("  PCR PID: %v\n", d.PMT.PCRPID)
		log.Println("  Elementary Streams:")
		for _, s := range d.PMT.ElementaryStreams {
			log.Printf("    [%d] - Type: %s\n", s.ElementaryPID, streamTypeToString(s.StreamType))
		}
		log.Println("  Program Descriptors:")
		for _, dsc := range d.PMT.ProgramDescriptors {
			log.Printf("    %s\n", descriptorToString(dsc))
		}
	} else if d.SDT != nil && (logAll || logSDT) {
		log.Printf("SDT: %d\n", d.PID)
		log.Printf("  Transport Stream ID: %v\n", d.SDT.TransportStreamID)
		log.Printf("  Original Network ID: %v\n", d.SDT.OriginalNetworkID)
		log.Println("  Services:")
		for _, s := range d.SDT.Services {
			log.Printf("    [%d] - Status: %s\n", s.ServiceID, runningStatusToString(s.RunningStatus))
			for _, dsc := range s.Descriptors {
				log.Printf("      %s\n", descriptorToString(dsc))
			}
		}
	}
}

func streamTypeToString(t uint8) string {
	switch t {
	case astidvb.StreamTypeMPEG1Video:
		return "MPEG-1 video"
	case astidvb.StreamTypeMPEG2Video:
		return "MPEG-2 video"
	case astidvb.StreamTypeMPEG1Audio:
		return "MPEG-1 audio"
	case astidvb.StreamTypeMPEG2HalvedSampleRateAudio:
		return "MPEG-2 halved sample rate audio"
	case astidvb.StreamTypeMPEG2PacketizedData:
		return "DVB subtitles/VBI or AC-3"
	case astidvb.StreamTypeADTS:
		return "ADTS"
	case astidvb.StreamTypeH264Video:
		return "H264 video"
	case astidvb.StreamTypeH265Video:
		return "H265 video"
	}
	return fmt.Sprintf("unlisted stream type %d", t)
}

func runningStatusToString(s uint8) string {
	switch s {
	case astidvb.RunningStatusNotRunning:
		return "not running"
	case astidvb.RunningStatusPausing:
		return "pausing"
	case astidvb.RunningStatusRunning:
		return "running"
	case astidvb.RunningStatusServiceOffAir:
		return "off air"
	case astidvb.RunningStatusStartsInAFewSeconds:
		return "starts in a few seconds"
	}
	return "undefined"
}

func descriptorToString(d *astidvb.Descriptor) string {
	switch {
	case d.NetworkName != nil:
		return fmt.Sprintf("[Network name] network name: %s", d.NetworkName.Name)
	case d.Service != nil:
		return fmt.Sprintf("[Service] service %s | provider: %s | type: %d", d.Service.Name, d.Service.Provider, d.Service.Type)
	case d.TerrestrialDeliverySystem != nil:
		t := d.TerrestrialDeliverySystem
		var os []string
		os = append(os, fmt.Sprintf("centre frequency: %d Hz", uint64(t.CentreFrequency)*10))
		os = append(os, fmt.Sprintf("bandwidth code: %d", t.Bandwidth))
		os = append(os, fmt.Sprintf("constellation code: %d", t.Constellation))
		os = append(os, fmt.Sprintf("code rate HP code: %d", t.CodeRateHPStream))
		os = append(os, fmt.Sprintf("guard interval code: %d", t.GuardInterval))
		os = append(os, fmt.Sprintf("transmission mode code: %d", t.TransmissionMode))
		return "[Terrestrial delivery system] " + strings.Join(os, " | ")
	}
	return fmt.Sprintf("unlisted descriptor tag 0x%x", d.Tag)
}
