package astidvb

import (
	"testing"

	"github.com/asticode/go-astikit"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestExtractMasked(t *testing.T) {
	o, err := ExtractMasked([]byte{0xff, 0xff}, mask13Bits)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x1f, 0xff}, o)

	// Output is truncated to the shortest input
	o, err = ExtractMasked([]byte{0xab, 0xcd, 0xef}, []byte{0x0f, 0xf0})
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x0b, 0xc0}, o)
	o, err = ExtractMasked([]byte{0xab}, mask12Bits)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x0b}, o)

	// Empty inputs
	_, err = ExtractMasked(nil, mask12Bits)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, err = ExtractMasked([]byte{0x1}, []byte{})
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestUintFromBytes(t *testing.T) {
	assert.Equal(t, uint64(0), uintFromBytes(nil))
	assert.Equal(t, uint64(0x12), uintFromBytes([]byte{0x12}))
	assert.Equal(t, uint64(0x1234), uintFromBytes([]byte{0x12, 0x34}))
	assert.Equal(t, uint64(0x123456), uintFromBytes([]byte{0x12, 0x34, 0x56}))
	assert.Equal(t, uint64(0x12345678), uintFromBytes([]byte{0x12, 0x34, 0x56, 0x78}))
	assert.Equal(t, uint64(0x123456789a), uintFromBytes([]byte{0x12, 0x34, 0x56, 0x78, 0x9a}))
}

func TestMaskedUint(t *testing.T) {
	v, err := maskedUint([]byte{0xb0, 0x1d}, mask12Bits)
	assert.NoError(t, err)
	assert.Equal(t, uint64(0x1d), v)
	v, err = maskedUint([]byte{0xe1, 0x00}, mask13Bits)
	assert.NoError(t, err)
	assert.Equal(t, uint64(0x100), v)
}

func TestNextMaskedUint16(t *testing.T) {
	i := astikit.NewBytesIterator([]byte{0xf0, 0x0a, 0xff})
	v, err := nextMaskedUint16(i, mask12Bits)
	assert.NoError(t, err)
	assert.Equal(t, uint16(0xa), v)
	assert.Equal(t, 2, i.Offset())
	_, err = nextMaskedUint16(i, mask12Bits)
	assert.Error(t, err)
}
