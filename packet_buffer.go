package astidvb

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
)

// packetBuffer reads fixed size units out of a reader
type packetBuffer struct {
	packetSize int
	r          io.Reader
}

// newPacketBuffer creates a new packet buffer
func newPacketBuffer(r io.Reader, packetSize int) (pb *packetBuffer, err error) {
	// Init
	pb = &packetBuffer{
		packetSize: packetSize,
		r:          r,
	}

	// Packet size is not set
	if pb.packetSize == 0 {
		// Auto detect packet size
		if pb.packetSize, pb.r, err = autoDetectPacketSize(r); err != nil {
			err = errors.Wrap(err, "astidvb: auto detecting packet size failed")
			return
		}
	}

	// Validate packet size
	if pb.packetSize != MpegTsPacketSize && pb.packetSize != MpegTsRSPacketSize {
		err = errors.Wrapf(ErrInvalidInput, "astidvb: packet size %d is not supported", pb.packetSize)
		return
	}
	return
}

// autoDetectPacketSize looks for the second sync byte right after a 188 bytes or a 204 bytes unit
// Assumption is made that the first byte of the reader is a sync byte. Bytes read during detection are
// put back in front of the returned reader
func autoDetectPacketSize(r io.Reader) (packetSize int, o io.Reader, err error) {
	// Read first bytes
	b := make([]byte, MpegTsRSPacketSize+1)
	var n int
	if n, err = io.ReadFull(r, b); err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		err = errors.Wrapf(err, "astidvb: reading first %d bytes failed", len(b))
		return
	}
	err = nil
	b = b[:n]
	o = io.MultiReader(bytes.NewReader(b), r)

	// Not enough bytes to look for a second sync byte
	if n <= MpegTsPacketSize {
		packetSize = MpegTsPacketSize
		return
	}

	// Packet must start with a sync byte
	if b[0] != syncByte {
		err = ErrPacketMustStartWithASyncByte
		return
	}

	// Look for sync bytes
	switch {
	case b[MpegTsPacketSize] == syncByte:
		packetSize = MpegTsPacketSize
	case n > MpegTsRSPacketSize && b[MpegTsRSPacketSize] == syncByte:
		packetSize = MpegTsRSPacketSize
	default:
		err = errors.Wrapf(ErrMalformedPacket, "astidvb: no sync byte found after %d or %d bytes", MpegTsPacketSize, MpegTsRSPacketSize)
	}
	return
}

// next fetches the next packet from the buffer
// A short final unit ends the input the same way EOF does
func (pb *packetBuffer) next() (p *Packet, err error) {
	// Read
	b := make([]byte, pb.packetSize)
	if _, err = io.ReadFull(pb.r, b); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			err = ErrNoMorePackets
		} else {
			err = errors.Wrapf(err, "astidvb: reading %d bytes failed", pb.packetSize)
		}
		return
	}

	// Parse packet, Reed-Solomon parity bytes are dropped
	if p, err = parsePacket(b[:pb.packetSize-parityLength(pb.packetSize)]); err != nil {
		err = errors.Wrap(err, "astidvb: building packet failed")
		return
	}
	return
}

func parityLength(packetSize int) int {
	if packetSize == MpegTsRSPacketSize {
		return mpegTsRSParityLength
	}
	return 0
}
