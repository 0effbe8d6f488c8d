package astidvb

import (
	"fmt"

	"github.com/asticode/go-astikit"
	"github.com/pkg/errors"
)

// Stream types
const (
	StreamTypeMPEG1Video                 = 0x01 // ISO/IEC 11172-2
	StreamTypeMPEG2Video                 = 0x02 // ITU-T Rec. H.262 and ISO/IEC 13818-2
	StreamTypeMPEG1Audio                 = 0x03 // ISO/IEC 11172-3
	StreamTypeMPEG2HalvedSampleRateAudio = 0x04 // ISO/IEC 13818-3
	StreamTypeMPEG2PacketizedData        = 0x06 // ITU-T Rec. H.222 and ISO/IEC 13818-1 i.e., DVB subtitles/VBI and AC-3
	StreamTypeADTS                       = 0x0f // ISO/IEC 13818-7 Audio with ADTS transport syntax
	StreamTypeH264Video                  = 0x1b // ITU-T Rec. H.264 and ISO/IEC 14496-10
	StreamTypeH265Video                  = 0x24 // ITU-T Rec. H.265 and ISO/IEC 23008-2
)

const pmtElementaryStreamHeaderLength = 5

// PMTData represents a PMT data
// https://en.wikipedia.org/wiki/Program-specific_information
type PMTData struct {
	ElementaryStreams  []*PMTElementaryStream
	PCRPID             uint16 // The packet identifier that contains the program clock reference. 0x1FFF when unused.
	ProgramDescriptors []*Descriptor
	ProgramInfoLength  uint16
	ProgramNumber      uint16
}

// PMTElementaryStream represents a PMT elementary stream
type PMTElementaryStream struct {
	ElementaryPID               uint16 // The packet identifier that contains the stream type data.
	ElementaryStreamDescriptors []*Descriptor
	ESInfoLength                uint16
	StreamType                  uint8 // This defines the structure of the data contained within the elementary packet identifier.
}

// parsePMTSection parses a PMT section
func parsePMTSection(i *astikit.BytesIterator, offsetSectionsEnd int, tableIDExtension uint16) (d *PMTData, err error) {
	// Init
	d = &PMTData{ProgramNumber: tableIDExtension}

	// PCR PID
	if d.PCRPID, err = nextMaskedUint16(i, mask13Bits); err != nil {
		err = fmt.Errorf("astidvb: fetching PCR PID failed: %w", err)
		return
	}

	// Program descriptors
	offsetProgramInfo := i.Offset()
	if d.ProgramDescriptors, err = parseDescriptorsWithLength(i, offsetSectionsEnd); err != nil {
		err = fmt.Errorf("astidvb: parsing program descriptors failed: %w", err)
		return
	}
	d.ProgramInfoLength = uint16(i.Offset() - offsetProgramInfo - 2)

	// Loop until end of section data is reached
	for i.Offset() < offsetSectionsEnd {
		var e *PMTElementaryStream
		if e, err = parsePMTElementaryStream(i, offsetSectionsEnd); err != nil {
			// Garbled entries are dropped along with the rest of the loop
			if errors.Is(err, ErrTruncatedSection) {
				logger.Debugf("astidvb: dropping elementary stream of program %d: %s", d.ProgramNumber, err)
				err = nil
				break
			}
			err = fmt.Errorf("astidvb: parsing elementary stream failed: %w", err)
			return
		}
		d.ElementaryStreams = append(d.ElementaryStreams, e)
	}
	return
}

// parsePMTElementaryStream parses a [stream type][PID][ES info length][descriptors] entry
func parsePMTElementaryStream(i *astikit.BytesIterator, offsetSectionsEnd int) (e *PMTElementaryStream, err error) {
	// Check length
	if i.Offset()+pmtElementaryStreamHeaderLength > offsetSectionsEnd {
		err = fmt.Errorf("astidvb: %d bytes left for an elementary stream header: %w", offsetSectionsEnd-i.Offset(), ErrTruncatedSection)
		return
	}

	// Stream type
	e = &PMTElementaryStream{}
	var b byte
	if b, err = i.NextByte(); err != nil {
		err = fmt.Errorf("astidvb: fetching next byte failed: %w", err)
		return
	}
	e.StreamType = uint8(b)

	// Elementary PID
	if e.ElementaryPID, err = nextMaskedUint16(i, mask13Bits); err != nil {
		err = fmt.Errorf("astidvb: fetching elementary PID failed: %w", err)
		return
	}

	// Elementary descriptors
	offsetESInfo := i.Offset()
	if e.ElementaryStreamDescriptors, err = parseDescriptorsWithLength(i, offsetSectionsEnd); err != nil {
		err = fmt.Errorf("astidvb: parsing elementary stream descriptors failed: %w", err)
		return
	}
	e.ESInfoLength = uint16(i.Offset() - offsetESInfo - 2)
	return
}
