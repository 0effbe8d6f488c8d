package astidvb

import (
	"github.com/pkg/errors"
)

// Packet sizes
const (
	MpegTsPacketSize     = 188
	MpegTsRSPacketSize   = 204 // Packet followed by 16 Reed-Solomon parity bytes
	mpegTsRSParityLength = MpegTsRSPacketSize - MpegTsPacketSize
)

// Sync byte
const syncByte = '\x47'

// Scrambling Controls
const (
	ScramblingControlNotScrambled         = 0
	ScramblingControlReservedForFutureUse = 1
	ScramblingControlScrambledWithEvenKey = 2
	ScramblingControlScrambledWithOddKey  = 3
)

// Packet represents a packet
// https://en.wikipedia.org/wiki/MPEG_transport_stream
type Packet struct {
	Header       PacketHeader
	Payload      []byte // Everything after the header and, when present, the pointer field
	PointerField *uint8 // Only present when the payload unit start indicator is set
}

// PacketHeader represents a packet header
type PacketHeader struct {
	ContinuityCounter          uint8 // Sequence number of payload packets (0x00 to 0x0F) within each stream (except PID 8191)
	HasAdaptationField         bool
	HasPayload                 bool
	PayloadUnitStartIndicator  bool   // Set when a PSI section begins in this packet
	PID                        uint16 // Packet Identifier, describing the payload data.
	TransportErrorIndicator    bool   // Set when a demodulator can't correct errors from FEC data; indicating the packet is corrupt.
	TransportPriority          bool   // Set when the current packet has a higher priority than other packets with the same PID.
	TransportScramblingControl uint8
}

// parsePacket parses a packet
// The adaptation field control bits are decoded but do not move the payload: PSI payloads start right after the
// header or, when a section starts in the packet, right after the pointer field
func parsePacket(bs []byte) (p *Packet, err error) {
	// Check length
	if len(bs) != MpegTsPacketSize {
		err = errors.Wrapf(ErrMalformedPacket, "astidvb: packet is %d bytes long instead of %d", len(bs), MpegTsPacketSize)
		return
	}

	// Create packet
	p = &Packet{}

	// Parse header
	if p.Header, err = parsePacketHeader(bs[1:4]); err != nil {
		err = errors.Wrap(err, "astidvb: parsing packet header failed")
		return
	}

	// Build payload
	offset := 4
	if p.Header.PayloadUnitStartIndicator {
		pf := bs[offset]
		p.PointerField = &pf
		offset++
	}
	p.Payload = bs[offset:]
	return
}

// parsePacketHeader parses the 3 bytes following the sync byte
func parsePacketHeader(bs []byte) (h PacketHeader, err error) {
	// PID
	var pid uint64
	if pid, err = maskedUint(bs[0:2], mask13Bits); err != nil {
		err = errors.Wrap(err, "astidvb: masking PID failed")
		return
	}

	// Create header
	h = PacketHeader{
		ContinuityCounter:          uint8(bs[2] & 0xf),
		HasAdaptationField:         bs[2]&0x20 > 0,
		HasPayload:                 bs[2]&0x10 > 0,
		PayloadUnitStartIndicator:  bs[0]&0x40 > 0,
		PID:                        uint16(pid),
		TransportErrorIndicator:    bs[0]&0x80 > 0,
		TransportPriority:          bs[0]&0x20 > 0,
		TransportScramblingControl: uint8(bs[2]) >> 6 & 0x3,
	}
	return
}
