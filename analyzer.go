package astidvb

import (
	"context"
	"io"

	"github.com/asticode/go-astikit"
	"github.com/pkg/errors"
)

// Analyzer represents an analyzer
// It dispatches packets per PID, reassembles and parses PAT, PMT, SDT and NIT sections and folds them into a
// transport stream whose program bitrates are computed once all packets have been processed
// https://en.wikipedia.org/wiki/MPEG_transport_stream
// https://www.etsi.org/deliver/etsi_en/300400_300499/300468/01.15.01_60/en_300468v011501p.pdf
type Analyzer struct {
	ctx            context.Context
	l              astikit.CompleteLogger
	optCheckCRC32  bool
	optDataHandler DataHandler
	optPacketSize  int
	packetBuffer   *packetBuffer
	r              io.Reader
	sectionBuffers map[uint16]*sectionBuffer
	stream         *TransportStream
}

// NewAnalyzer creates a new analyzer based on a reader
func NewAnalyzer(ctx context.Context, r io.Reader, opts ...func(*Analyzer)) (a *Analyzer) {
	// Init
	a = &Analyzer{
		ctx:            ctx,
		l:              astikit.AdaptStdLogger(nil),
		optPacketSize:  MpegTsPacketSize,
		r:              r,
		sectionBuffers: make(map[uint16]*sectionBuffer),
	}

	// Apply options
	for _, opt := range opts {
		opt(a)
	}

	// Create stream
	a.stream = newTransportStream(a.l)
	return
}

// AnalyzerOptLogger returns the option to set the logger
func AnalyzerOptLogger(l astikit.StdLogger) func(*Analyzer) {
	return func(a *Analyzer) {
		a.l = astikit.AdaptStdLogger(l)
	}
}

// AnalyzerOptCheckCRC32 returns the option to check the CRC32 of sections
func AnalyzerOptCheckCRC32(checkCRC32 bool) func(*Analyzer) {
	return func(a *Analyzer) {
		a.optCheckCRC32 = checkCRC32
	}
}

// AnalyzerOptDataHandler returns the option to set the handler called with every parsed table
func AnalyzerOptDataHandler(h DataHandler) func(*Analyzer) {
	return func(a *Analyzer) {
		a.optDataHandler = h
	}
}

// AnalyzerOptPacketSize returns the option to set the size of the units read from the reader
// Use 0 to auto detect it
func AnalyzerOptPacketSize(packetSize int) func(*Analyzer) {
	return func(a *Analyzer) {
		a.optPacketSize = packetSize
	}
}

// Stream returns the transport stream
func (a *Analyzer) Stream() *TransportStream { return a.stream }

// NextPacket retrieves the next packet
func (a *Analyzer) NextPacket() (p *Packet, err error) {
	// Check ctx error
	if err = a.ctx.Err(); err != nil {
		return
	}

	// Create packet buffer if not exists
	if a.packetBuffer == nil {
		if a.packetBuffer, err = newPacketBuffer(a.r, a.optPacketSize); err != nil {
			err = errors.Wrap(err, "astidvb: creating packet buffer failed")
			return
		}
	}

	// Fetch next packet from buffer
	if p, err = a.packetBuffer.next(); err != nil {
		if err != ErrNoMorePackets {
			err = errors.Wrap(err, "astidvb: fetching next packet from buffer failed")
		}
		return
	}
	return
}

// ProcessBytes parses a 188 bytes packet and processes it
func (a *Analyzer) ProcessBytes(bs []byte) (err error) {
	// Parse packet
	var p *Packet
	if p, err = parsePacket(bs); err != nil {
		err = errors.Wrap(err, "astidvb: parsing packet failed")
		return
	}

	// Process packet
	if err = a.ProcessPacket(p); err != nil {
		err = errors.Wrap(err, "astidvb: processing packet failed")
		return
	}
	return
}

// ProcessPacket dispatches a packet according to its PID
func (a *Analyzer) ProcessPacket(p *Packet) (err error) {
	// Check state
	if a.stream.finalized {
		err = ErrFinalized
		return
	}

	// Every packet is counted
	pid := p.Header.PID
	a.stream.countPacket(pid)

	// Dispatch
	switch {
	case pid == PIDPAT:
		err = a.processPSIPacket(p, PSITableIDPAT)
	case pid == PIDNIT:
		err = a.processPSIPacket(p, PSITableIDNITActual)
	case pid == PIDSDT:
		err = a.processPSIPacket(p, PSITableIDSDTActual)
	case a.stream.programMap.exists(pid):
		a.stream.pmtPIDCounters.inc(pid)
		err = a.processPSIPacket(p, PSITableIDPMT)
	case a.stream.elementaryStreams.exists(pid):
		a.stream.elementaryPIDCounters.inc(pid)
	}
	if err != nil {
		err = errors.Wrapf(err, "astidvb: processing packet of PID %d failed", pid)
		return
	}
	return
}

// processPSIPacket reassembles the sections of the PID and folds the ones whose table id is expected
func (a *Analyzer) processPSIPacket(p *Packet, tableID PSITableID) (err error) {
	// Get section buffer
	sb, ok := a.sectionBuffers[p.Header.PID]
	if !ok {
		sb = newSectionBuffer(p.Header.PID, a.l)
		a.sectionBuffers[p.Header.PID] = sb
	}

	// Add packet
	var ss [][]byte
	if ss, err = sb.add(p); err != nil {
		err = errors.Wrap(err, "astidvb: adding packet to section buffer failed")
		return
	}

	// Loop through sections
	for _, bs := range ss {
		// Filter table id
		if id := PSITableID(bs[0]); id != tableID {
			a.l.Debugf("astidvb: skipping %s section with table id 0x%x on PID %d", id, uint8(id), p.Header.PID)
			continue
		}

		// Parse section
		s, errParse := parsePSISection(bs, a.optCheckCRC32)
		if errParse != nil {
			// Only this section is lost
			a.l.Errorf("astidvb: skipping %s section on PID %d: %s", tableID, p.Header.PID, errParse)
			continue
		}

		// Fold
		a.stream.applyPSISection(p.Header.PID, s)

		// Handle data
		if a.optDataHandler != nil {
			a.optDataHandler(newData(p.Header.PID, s))
		}
	}
	return
}

// Run processes packets until the reader is exhausted
func (a *Analyzer) Run() (err error) {
	for {
		// Get next packet
		var p *Packet
		if p, err = a.NextPacket(); err != nil {
			if err == ErrNoMorePackets {
				err = nil
				return
			}
			err = errors.Wrap(err, "astidvb: fetching next packet failed")
			return
		}

		// Process packet
		if err = a.ProcessPacket(p); err != nil {
			err = errors.Wrap(err, "astidvb: processing packet failed")
			return
		}
	}
}

// Finalize computes program bitrates. The transport stream can't be updated afterwards
func (a *Analyzer) Finalize() (err error) {
	// Unfinished sections are lost
	for pid, sb := range a.sectionBuffers {
		if sb.accumulating() {
			a.l.Errorf("astidvb: dropping unfinished %d bytes section of PID %d", len(sb.buf), pid)
			sb.reset()
		}
	}

	// Finalize stream
	if err = a.stream.finalize(); err != nil {
		err = errors.Wrap(err, "astidvb: finalizing transport stream failed")
		return
	}
	return
}

// Analyze processes every packet of the reader and finalizes the transport stream
func (a *Analyzer) Analyze() (s *TransportStream, err error) {
	// Run
	if err = a.Run(); err != nil {
		err = errors.Wrap(err, "astidvb: running failed")
		return
	}

	// Finalize
	if err = a.Finalize(); err != nil {
		err = errors.Wrap(err, "astidvb: finalizing failed")
		return
	}
	s = a.stream
	return
}
