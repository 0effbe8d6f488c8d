package astidvb

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

// finalize computes the bitrate of every program and makes the transport stream read-only, even when it fails
// Bitrates are only set when they could all be computed
func (s *TransportStream) finalize() (err error) {
	// Check state
	if s.finalized {
		err = ErrFinalized
		return
	}
	s.finalized = true

	// Compute bitrates
	if err = s.computeBitrates(); err != nil {
		s.errFinalize = err
		err = errors.Wrap(err, "astidvb: computing bitrates failed")
		return
	}
	return
}

func (s *TransportStream) computeBitrates() (err error) {
	// No packets
	if s.totalPacketCount == 0 {
		err = ErrEmptyStream
		return
	}

	// Get useful bitrate
	var b float64
	if b, err = s.UsefulBitrate(); err != nil {
		err = errors.Wrap(err, "astidvb: computing useful bitrate failed")
		return
	}

	// Loop through programs
	for _, p := range s.Programs() {
		v := float64(s.programPacketCount(p)) / float64(s.totalPacketCount) * b
		p.Bitrate = &v
	}
	return
}

// programPacketCount sums the packets of the program elementary streams and of its PMT, each PID being counted once
func (s *TransportStream) programPacketCount(p *Program) (n uint64) {
	for _, pid := range p.ElementaryPIDs {
		n += s.perPIDCounters[pid]
	}
	if !slices.Contains(p.ElementaryPIDs, p.PMTPID) {
		n += s.perPIDCounters[p.PMTPID]
	}
	return
}
