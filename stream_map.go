package astidvb

// elementaryStreamMap represents an elementary stream ids map
type elementaryStreamMap struct {
	// We use map[uint32] instead map[uint16] as go runtime provide optimized hash functions for (u)int32/64 keys
	es map[uint32]uint16 // map[ElementaryPID]ProgramNumber
}

// newElementaryStreamMap creates a new elementary stream ids map
func newElementaryStreamMap() *elementaryStreamMap {
	return &elementaryStreamMap{
		es: make(map[uint32]uint16),
	}
}

// set sets the program an elementary stream belongs to
func (m elementaryStreamMap) set(pid, number uint16) {
	m.es[uint32(pid)] = number
}

// exists checks whether the stream with this pid exists
func (m elementaryStreamMap) exists(pid uint16) (ok bool) {
	_, ok = m.es[uint32(pid)]
	return
}

// programNumber returns the number of the program the stream belongs to
func (m elementaryStreamMap) programNumber(pid uint16) (number uint16, ok bool) {
	number, ok = m.es[uint32(pid)]
	return
}
