package astidvb

import (
	"fmt"

	"github.com/asticode/go-astikit"
)

// sectionHeaderLength is the number of bytes preceding the bytes counted by the section length
const sectionHeaderLength = 3

// sectionBuffer reassembles the sections carried by the packets of one PID
// It is either awaiting a packet starting a section (buf is nil) or accumulating the bytes of a section
type sectionBuffer struct {
	buf []byte
	l   astikit.CompleteLogger
	pid uint16
}

func newSectionBuffer(pid uint16, l astikit.CompleteLogger) *sectionBuffer {
	return &sectionBuffer{
		l:   l,
		pid: pid,
	}
}

// accumulating returns whether a section has been started but is not complete yet
func (b *sectionBuffer) accumulating() bool { return b.buf != nil }

// add adds a packet to the buffer and returns the sections it completes
func (b *sectionBuffer) add(p *Packet) (ss [][]byte, err error) {
	// Packet doesn't start a section
	if !p.Header.PayloadUnitStartIndicator {
		// Nothing to continue
		if !b.accumulating() {
			b.l.Errorf("astidvb: dropping continuation packet of PID %d since no section has been started", b.pid)
			return
		}

		// Append
		b.buf = append(b.buf, p.Payload...)

		// Check completion
		var s []byte
		if s, err = b.cut(); err != nil {
			err = fmt.Errorf("astidvb: cutting section failed: %w", err)
			return
		} else if s != nil {
			ss = append(ss, s)
		}
		return
	}

	// Pointer field overflows the payload
	payload := p.Payload
	pointerField := 0
	if p.PointerField != nil {
		pointerField = int(*p.PointerField)
	}
	if pointerField > len(payload) {
		b.l.Errorf("astidvb: pointer field %d of PID %d overflows the %d bytes payload", pointerField, b.pid, len(payload))
		b.reset()
		return
	}

	// Bytes preceding the pointer field complete the section in progress
	if b.accumulating() {
		b.buf = append(b.buf, payload[:pointerField]...)
		var s []byte
		if s, err = b.cut(); err != nil {
			err = fmt.Errorf("astidvb: cutting section failed: %w", err)
			return
		} else if s != nil {
			ss = append(ss, s)
		} else {
			b.l.Errorf("astidvb: dropping unfinished %d bytes section of PID %d", len(b.buf), b.pid)
			b.reset()
		}
	}

	// Loop through sections starting in this packet
	payload = payload[pointerField:]
	for len(payload) > 0 {
		// Stuffing
		if payload[0] == byte(PSITableIDNull) {
			b.l.Debugf("astidvb: skipping %d stuffing bytes of PID %d", len(payload), b.pid)
			break
		}

		// Start section
		b.buf = append(make([]byte, 0, len(payload)), payload...)

		// Check completion
		var s []byte
		if s, err = b.cut(); err != nil {
			err = fmt.Errorf("astidvb: cutting section failed: %w", err)
			return
		} else if s == nil {
			break
		}
		ss = append(ss, s)
		payload = payload[len(s):]
	}
	return
}

// cut returns the section and resets the buffer once enough bytes have been buffered
func (b *sectionBuffer) cut() (s []byte, err error) {
	// Section length is not known yet
	if len(b.buf) < sectionHeaderLength {
		return
	}

	// Get section length
	var l uint64
	if l, err = maskedUint(b.buf[1:3], mask12Bits); err != nil {
		err = fmt.Errorf("astidvb: masking section length failed: %w", err)
		return
	}

	// Not complete
	n := sectionHeaderLength + int(l)
	if len(b.buf) < n {
		return
	}

	// Cut
	s = b.buf[:n]
	b.reset()
	return
}

func (b *sectionBuffer) reset() { b.buf = nil }
