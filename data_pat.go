package astidvb

import (
	"fmt"

	"github.com/asticode/go-astikit"
)

const patProgramLength = 4

// PATData represents a PAT data
// https://en.wikipedia.org/wiki/Program-specific_information
type PATData struct {
	NetworkPID        *uint16 // PID carrying the NIT, advertised by the program number 0 entry
	Programs          []*PATProgram
	TransportStreamID uint16
}

// PATProgram represents a PAT program
type PATProgram struct {
	ProgramMapID  uint16 // The packet identifier that contains the associated PMT
	ProgramNumber uint16 // Relates to the Table ID extension in the associated PMT. Never 0 here.
}

// parsePATSection parses a PAT section
func parsePATSection(i *astikit.BytesIterator, offsetSectionsEnd int, tableIDExtension uint16) (d *PATData, err error) {
	// Init
	d = &PATData{TransportStreamID: tableIDExtension}

	// Loop until end of section data is reached
	for i.Offset()+patProgramLength <= offsetSectionsEnd {
		// Program number
		var bs []byte
		if bs, err = i.NextBytesNoCopy(2); err != nil {
			err = fmt.Errorf("astidvb: fetching next bytes failed: %w", err)
			return
		}
		number := uint16(uintFromBytes(bs))

		// Program map ID
		var pid uint16
		if pid, err = nextMaskedUint16(i, mask13Bits); err != nil {
			err = fmt.Errorf("astidvb: fetching program map ID failed: %w", err)
			return
		}

		// Program number 0 is reserved to the network PID
		if number == 0 {
			networkPID := pid
			d.NetworkPID = &networkPID
			continue
		}

		// Append program
		d.Programs = append(d.Programs, &PATProgram{
			ProgramMapID:  pid,
			ProgramNumber: number,
		})
	}
	return
}
