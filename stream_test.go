package astidvb

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIDCounters(t *testing.T) {
	c := make(pidCounters)
	c.ensure(1)
	assert.Equal(t, pidCounters{1: 0}, c)
	c.inc(1)
	c.ensure(1)
	assert.Equal(t, uint64(1), c[1])
}

func TestTransportStreamApplyPMT(t *testing.T) {
	s := newTransportStream(nil)
	s.applyPAT(&PATData{Programs: []*PATProgram{{ProgramMapID: 0x100, ProgramNumber: 1}}, TransportStreamID: 1})

	// Elementary PIDs are deduped and kept in first seen order
	d := &PMTData{
		ElementaryStreams: []*PMTElementaryStream{{ElementaryPID: 0x102}, {ElementaryPID: 0x101}},
		ProgramNumber:     1,
	}
	s.applyPMT(0x100, d)
	s.applyPMT(0x100, d)
	p, ok := s.Program(1)
	require.True(t, ok)
	assert.Equal(t, []uint16{0x102, 0x101}, p.ElementaryPIDs)
	assert.Equal(t, pidCounters{0x101: 0, 0x102: 0}, s.elementaryPIDCounters)

	// PMT of a program absent from the PAT
	s.applyPMT(0x300, &PMTData{ElementaryStreams: []*PMTElementaryStream{{ElementaryPID: 0x301}}, ProgramNumber: 3})
	p, ok = s.Program(3)
	require.True(t, ok)
	assert.Equal(t, uint16(0x300), p.PMTPID)
	assert.True(t, s.programMap.exists(0x300))
	assert.Equal(t, []uint16{1, 3}, []uint16{s.Programs()[0].Number, s.Programs()[1].Number})
}

func TestTransportStreamApplyNIT(t *testing.T) {
	s := newTransportStream(nil)
	tds := func(bandwidth uint8) []*Descriptor {
		return []*Descriptor{{TerrestrialDeliverySystem: &DescriptorTerrestrialDeliverySystem{Bandwidth: bandwidth, Constellation: 3}}}
	}
	d := &NITData{
		NetworkID: 5,
		TransportStreams: []*NITDataTransportStream{
			{TransportDescriptors: tds(1), TransportStreamID: 1},
			{TransportDescriptors: tds(2), TransportStreamID: 2},
		},
	}

	// Last entry wins when the transport stream id is unknown
	s.applyNIT(d)
	assert.Equal(t, uint16(5), *s.NetworkID)
	assert.Nil(t, s.NetworkName)
	assert.Equal(t, Bandwidth(6), s.Bandwidth)
	assert.Equal(t, ConstellationUnset, s.Constellation)

	// Matching entry is used otherwise
	id := uint16(1)
	s.TransportStreamID = &id
	s.applyNIT(d)
	assert.Equal(t, Bandwidth(7), s.Bandwidth)

	// Reserved codes don't reset known values
	s = newTransportStream(nil)
	s.applyNIT(&NITData{TransportStreams: []*NITDataTransportStream{{TransportDescriptors: []*Descriptor{{TerrestrialDeliverySystem: descriptorTerrestrialDeliverySystem}}}}})
	s.applyNIT(&NITData{TransportStreams: []*NITDataTransportStream{{TransportDescriptors: []*Descriptor{{TerrestrialDeliverySystem: &DescriptorTerrestrialDeliverySystem{
		Bandwidth:        5,
		CodeRateHPStream: 2,
		Constellation:    2,
		GuardInterval:    2,
		TransmissionMode: 3,
	}}}}}})
	assert.Equal(t, Bandwidth(8), s.Bandwidth)
	assert.Equal(t, TransmissionMode8k, s.TransmissionMode)
	_, err := s.UsefulBitrate()
	assert.NoError(t, err)
}

func TestComputeBitrates(t *testing.T) {
	s := newTransportStream(nil)
	s.TransmissionParameters = TransmissionParameters{
		Bandwidth:     8,
		CodeRate:      CodeRate2_3,
		Constellation: Constellation16QAM,
		GuardInterval: GuardInterval1_4,
	}

	// PMT PID also carrying an elementary stream is counted once
	p := s.program(1, 0x100)
	p.ElementaryPIDs = []uint16{0x100, 0x101}
	for _, pid := range []uint16{0x100, 0x100, 0x101, 0x200} {
		s.countPacket(pid)
	}
	assert.Equal(t, uint64(3), s.programPacketCount(p))

	require.NoError(t, s.computeBitrates())
	b, err := s.UsefulBitrate()
	require.NoError(t, err)
	require.NotNil(t, p.Bitrate)
	assert.InDelta(t, 3./4*b, *p.Bitrate, 1e-6)

	// Empty stream is checked first
	s = newTransportStream(nil)
	assert.True(t, errors.Is(s.computeBitrates(), ErrEmptyStream))
}
