package astidvb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestElementaryStreamMap(t *testing.T) {
	esm := newElementaryStreamMap()
	assert.False(t, esm.exists(0x16))
	esm.set(0x16, 1)
	assert.True(t, esm.exists(0x16))
	n, ok := esm.programNumber(0x16)
	assert.True(t, ok)
	assert.Equal(t, uint16(1), n)
	_, ok = esm.programNumber(0x17)
	assert.False(t, ok)
}
