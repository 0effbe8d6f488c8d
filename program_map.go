package astidvb

// programMap represents a program map ids map
type programMap struct {
	// We use map[uint32] instead map[uint16] as go runtime provide optimized hash functions for (u)int32/64 keys
	numbers map[uint32]uint16 // map[ProgramNumber]ProgramMapID
	pids    map[uint32]int    // map[ProgramMapID]number of programs carried by it
}

// newProgramMap creates a new program map ids map
func newProgramMap() programMap {
	return programMap{
		numbers: make(map[uint32]uint16),
		pids:    make(map[uint32]int),
	}
}

// exists checks whether a program map is carried by this pid
func (m programMap) exists(pid uint16) (ok bool) {
	_, ok = m.pids[uint32(pid)]
	return
}

// pid returns the program map id of the program
func (m programMap) pid(number uint16) (pid uint16, ok bool) {
	pid, ok = m.numbers[uint32(number)]
	return
}

// set sets the program map id of a program
func (m programMap) set(number, pid uint16) {
	// Program map id has not changed
	old, ok := m.numbers[uint32(number)]
	if ok && old == pid {
		return
	}

	// Release the previous program map id
	if ok {
		if m.pids[uint32(old)]--; m.pids[uint32(old)] <= 0 {
			delete(m.pids, uint32(old))
		}
	}

	// Set
	m.numbers[uint32(number)] = pid
	m.pids[uint32(pid)]++
}
