package astidvb

import (
	"fmt"

	"github.com/asticode/go-astikit"
	"github.com/q191201771/naza/pkg/bele"
)

// Masks
var (
	mask12Bits = []byte{0x0f, 0xff}
	mask13Bits = []byte{0x1f, 0xff}
)

// ExtractMasked ANDs bs with mask byte by byte. The output is truncated to the shortest input.
func ExtractMasked(bs, mask []byte) (o []byte, err error) {
	if len(bs) == 0 || len(mask) == 0 {
		err = fmt.Errorf("astidvb: bytes length is %d, mask length is %d: %w", len(bs), len(mask), ErrInvalidInput)
		return
	}
	l := len(bs)
	if len(mask) < l {
		l = len(mask)
	}
	o = make([]byte, l)
	for idx := range o {
		o[idx] = bs[idx] & mask[idx]
	}
	return
}

// uintFromBytes reads up to 8 bytes as a big-endian unsigned integer
func uintFromBytes(bs []byte) (v uint64) {
	switch len(bs) {
	case 0:
		return
	case 1:
		return uint64(bs[0])
	case 2:
		return uint64(bele.BeUint16(bs))
	case 3:
		return uint64(bele.BeUint24(bs))
	case 4:
		return uint64(bele.BeUint32(bs))
	}
	for _, b := range bs {
		v = v<<8 | uint64(b)
	}
	return
}

// maskedUint strips the bits outside of mask and reads the rest as a big-endian unsigned integer
func maskedUint(bs, mask []byte) (v uint64, err error) {
	var m []byte
	if m, err = ExtractMasked(bs, mask); err != nil {
		return
	}
	v = uintFromBytes(m)
	return
}

// nextMaskedUint16 fetches as many bytes as the mask is long and returns them masked
func nextMaskedUint16(i *astikit.BytesIterator, mask []byte) (v uint16, err error) {
	// Get next bytes
	var bs []byte
	if bs, err = i.NextBytesNoCopy(len(mask)); err != nil {
		err = fmt.Errorf("astidvb: fetching next bytes failed: %w", err)
		return
	}

	// Mask
	var u uint64
	if u, err = maskedUint(bs, mask); err != nil {
		err = fmt.Errorf("astidvb: masking failed: %w", err)
		return
	}
	v = uint16(u)
	return
}
