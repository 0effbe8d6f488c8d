package astidvb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgramMap(t *testing.T) {
	pm := newProgramMap()
	assert.False(t, pm.exists(0x100))
	pm.set(1, 0x100)
	assert.True(t, pm.exists(0x100))
	pid, ok := pm.pid(1)
	assert.True(t, ok)
	assert.Equal(t, uint16(0x100), pid)

	// Shared program map id
	pm.set(2, 0x100)
	pm.set(1, 0x200)
	assert.True(t, pm.exists(0x100))
	assert.True(t, pm.exists(0x200))
	pm.set(2, 0x300)
	assert.False(t, pm.exists(0x100))
	_, ok = pm.pid(3)
	assert.False(t, ok)
}
