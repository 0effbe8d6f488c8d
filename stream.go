package astidvb

import (
	"unicode/utf8"

	"github.com/asticode/go-astikit"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Program represents a program of the transport stream
type Program struct {
	Bitrate         *float64 // In bits per second, only set once the transport stream is finalized
	ElementaryPIDs  []uint16 // In first seen order
	Number          uint16
	PMTPID          uint16
	ServiceName     *string
	ServiceProvider *string
}

// PIDCount represents the number of packets seen for a PID
type PIDCount struct {
	Count uint64 `json:"count"`
	PID   uint16 `json:"pid"`
}

// pidCounters counts packets per PID
type pidCounters map[uint16]uint64

// ensure creates the counter if it doesn't exist yet
func (c pidCounters) ensure(pid uint16) {
	if _, ok := c[pid]; !ok {
		c[pid] = 0
	}
}

func (c pidCounters) inc(pid uint16) { c[pid]++ }

// TransportStream holds everything learnt about the transport stream so far
type TransportStream struct {
	CentreFrequency   *uint64 // In Hz
	NetworkID         *uint16
	NetworkName       *string
	TransmissionMode  TransmissionMode
	TransportStreamID *uint16
	TransmissionParameters

	elementaryPIDCounters pidCounters
	elementaryStreams     *elementaryStreamMap
	errFinalize           error
	finalized             bool
	l                     astikit.CompleteLogger
	perPIDCounters        pidCounters
	pmtPIDCounters        pidCounters
	programMap            programMap
	programNumbers        []uint16
	programs              map[uint16]*Program
	totalPacketCount      uint64
}

func newTransportStream(l astikit.CompleteLogger) *TransportStream {
	if l == nil {
		l = astikit.AdaptStdLogger(nil)
	}
	return &TransportStream{
		elementaryPIDCounters: make(pidCounters),
		elementaryStreams:     newElementaryStreamMap(),
		l:                     l,
		perPIDCounters:        make(pidCounters),
		pmtPIDCounters:        make(pidCounters),
		programMap:            newProgramMap(),
		programs:              make(map[uint16]*Program),
	}
}

// Programs returns the programs in the order they have been discovered
func (s *TransportStream) Programs() (ps []*Program) {
	for _, n := range s.programNumbers {
		ps = append(ps, s.programs[n])
	}
	return
}

// Program returns the program with this number
func (s *TransportStream) Program(number uint16) (p *Program, ok bool) {
	p, ok = s.programs[number]
	return
}

// PIDs returns the packet count of every PID seen, sorted by PID
func (s *TransportStream) PIDs() (o []PIDCount) {
	pids := maps.Keys(s.perPIDCounters)
	slices.Sort(pids)
	for _, pid := range pids {
		o = append(o, PIDCount{
			Count: s.perPIDCounters[pid],
			PID:   pid,
		})
	}
	return
}

// PacketCount returns the number of packets seen for this PID
func (s *TransportStream) PacketCount(pid uint16) uint64 { return s.perPIDCounters[pid] }

// TotalPacketCount returns the number of packets seen
func (s *TransportStream) TotalPacketCount() uint64 { return s.totalPacketCount }

// IsFinalized returns whether bitrates have been computed successfully
// Once finalization has been attempted the transport stream is read-only, even if it failed
func (s *TransportStream) IsFinalized() bool { return s.finalized && s.errFinalize == nil }

func (s *TransportStream) countPacket(pid uint16) {
	s.perPIDCounters.inc(pid)
	s.totalPacketCount++
}

// program returns the program with this number and creates it if it doesn't exist yet
func (s *TransportStream) program(number, pmtPID uint16) *Program {
	p, ok := s.programs[number]
	if !ok {
		p = &Program{
			Number: number,
			PMTPID: pmtPID,
		}
		s.programs[number] = p
		s.programNumbers = append(s.programNumbers, number)
	}
	return p
}

func (s *TransportStream) applyPSISection(pid uint16, ps *PSISection) {
	switch {
	case ps.Data.NIT != nil:
		s.applyNIT(ps.Data.NIT)
	case ps.Data.PAT != nil:
		s.applyPAT(ps.Data.PAT)
	case ps.Data.PMT != nil:
		s.applyPMT(pid, ps.Data.PMT)
	case ps.Data.SDT != nil:
		s.applySDT(ps.Data.SDT)
	}
}

func (s *TransportStream) applyPAT(d *PATData) {
	// Transport stream id
	id := d.TransportStreamID
	s.TransportStreamID = &id

	// Loop through programs
	for _, pp := range d.Programs {
		// Unknown programs keep the PMT PID they are discovered with
		s.program(pp.ProgramNumber, pp.ProgramMapID)
		s.programMap.set(pp.ProgramNumber, pp.ProgramMapID)
		s.pmtPIDCounters.ensure(pp.ProgramMapID)
	}
}

func (s *TransportStream) applyPMT(pid uint16, d *PMTData) {
	// A PMT may be found before the PAT advertising it
	p := s.program(d.ProgramNumber, pid)
	if _, ok := s.programMap.pid(d.ProgramNumber); !ok {
		s.programMap.set(d.ProgramNumber, pid)
		s.pmtPIDCounters.ensure(pid)
	}

	// Loop through elementary streams
	for _, es := range d.ElementaryStreams {
		s.elementaryPIDCounters.ensure(es.ElementaryPID)
		s.elementaryStreams.set(es.ElementaryPID, d.ProgramNumber)
		if !slices.Contains(p.ElementaryPIDs, es.ElementaryPID) {
			p.ElementaryPIDs = append(p.ElementaryPIDs, es.ElementaryPID)
		}
	}
}

func (s *TransportStream) applySDT(d *SDTData) {
	for _, sv := range d.Services {
		// Service id is the program number
		p, ok := s.programs[sv.ServiceID]
		if !ok {
			continue
		}

		// Loop through descriptors
		for _, dsc := range sv.Descriptors {
			if dsc.Service == nil {
				continue
			}
			if v, ok := s.validString(dsc.Service.Provider, "service provider"); ok {
				p.ServiceProvider = &v
			}
			if v, ok := s.validString(dsc.Service.Name, "service name"); ok {
				p.ServiceName = &v
			}
		}
	}
}

func (s *TransportStream) applyNIT(d *NITData) {
	// Network id
	id := d.NetworkID
	s.NetworkID = &id

	// Network name
	for _, dsc := range d.NetworkDescriptors {
		if dsc.NetworkName == nil {
			continue
		}
		if v, ok := s.validString(dsc.NetworkName.Name, "network name"); ok {
			s.NetworkName = &v
		}
	}

	// When the PAT has already told us which transport stream we're in, only its entry is used
	var matched bool
	if s.TransportStreamID != nil {
		for _, ts := range d.TransportStreams {
			if ts.TransportStreamID == *s.TransportStreamID {
				matched = true
				s.applyTransportDescriptors(ts.TransportDescriptors)
			}
		}
	}
	if matched {
		return
	}
	for _, ts := range d.TransportStreams {
		s.applyTransportDescriptors(ts.TransportDescriptors)
	}
}

func (s *TransportStream) applyTransportDescriptors(ds []*Descriptor) {
	for _, dsc := range ds {
		if dsc.TerrestrialDeliverySystem == nil {
			continue
		}
		t := dsc.TerrestrialDeliverySystem
		f := uint64(t.CentreFrequency) * 10
		s.CentreFrequency = &f
		if m := newTransmissionMode(t.TransmissionMode); m != TransmissionModeUnset {
			s.TransmissionMode = m
		}
		s.TransmissionParameters.update(t)
	}
}

// validString returns bs as a string unless it is not valid UTF-8
func (s *TransportStream) validString(bs []byte, name string) (string, bool) {
	if !utf8.Valid(bs) {
		s.l.Errorf("astidvb: %s %x is not valid UTF-8, leaving it unset", name, bs)
		return "", false
	}
	return string(bs), true
}

// ElementaryStreamProgram returns the number of the program the elementary stream belongs to
func (s *TransportStream) ElementaryStreamProgram(pid uint16) (uint16, bool) {
	return s.elementaryStreams.programNumber(pid)
}
