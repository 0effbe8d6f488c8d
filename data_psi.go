package astidvb

import (
	"encoding/binary"
	"fmt"

	"github.com/asticode/go-astikit"
)

// PSI table types
const (
	PSITableTypeBAT     = "BAT"
	PSITableTypeNIT     = "NIT"
	PSITableTypeNull    = "Null"
	PSITableTypePAT     = "PAT"
	PSITableTypePMT     = "PMT"
	PSITableTypeSDT     = "SDT"
	PSITableTypeUnknown = "Unknown"
)

// PSITableID is the first byte of a section
type PSITableID uint8

// PSI table ids
// Page: 28 | https://dvb.org/wp-content/uploads/2019/12/a038_tm1217r37_en300468v1_17_1_-_rev-134_-_si_specification.pdf
const (
	PSITableIDPAT       PSITableID = 0x00
	PSITableIDPMT       PSITableID = 0x02
	PSITableIDNITActual PSITableID = 0x40
	PSITableIDNITOther  PSITableID = 0x41
	PSITableIDSDTActual PSITableID = 0x42
	PSITableIDSDTOther  PSITableID = 0x46
	PSITableIDBAT       PSITableID = 0x4a
	PSITableIDNull      PSITableID = 0xff
)

// psiSectionSyntaxHeaderLength is the length of the syntax header following the section length
const psiSectionSyntaxHeaderLength = 5

// PSISection represents a PSI section
type PSISection struct {
	CRC32  uint32 // A checksum of the entire section excluding the trailing CRC32
	Data   *PSISectionData
	Header *PSISectionHeader
	Syntax *PSISectionSyntaxHeader
}

// PSISectionHeader represents a PSI section header
type PSISectionHeader struct {
	PrivateBit             bool
	SectionLength          uint16 // The number of bytes that follow the section length, CRC32 included
	SectionSyntaxIndicator bool
	TableID                PSITableID
}

// PSISectionSyntaxHeader represents a PSI section syntax header
type PSISectionSyntaxHeader struct {
	CurrentNextIndicator bool
	LastSectionNumber    uint8
	SectionNumber        uint8
	TableIDExtension     uint16 // Transport stream id for PAT and SDT, program number for PMT, network id for NIT
	VersionNumber        uint8
}

// PSISectionData holds the table specific data. Only one field is set
type PSISectionData struct {
	NIT *NITData
	PAT *PATData
	PMT *PMTData
	SDT *SDTData
}

// String implements the Stringer interface
func (t PSITableID) String() string {
	switch t {
	case PSITableIDBAT:
		return PSITableTypeBAT
	case PSITableIDNITActual, PSITableIDNITOther:
		return PSITableTypeNIT
	case PSITableIDNull:
		return PSITableTypeNull
	case PSITableIDPAT:
		return PSITableTypePAT
	case PSITableIDPMT:
		return PSITableTypePMT
	case PSITableIDSDTActual, PSITableIDSDTOther:
		return PSITableTypeSDT
	default:
		return PSITableTypeUnknown
	}
}

// parsePSISection parses a complete section starting with its table id
func parsePSISection(bs []byte, checkCRC32 bool) (s *PSISection, err error) {
	// Init
	s = &PSISection{Data: &PSISectionData{}}
	i := astikit.NewBytesIterator(bs)

	// Parse header
	var offsetSectionsEnd, offsetEnd int
	if s.Header, offsetSectionsEnd, offsetEnd, err = parsePSISectionHeader(i); err != nil {
		err = fmt.Errorf("astidvb: parsing PSI section header failed: %w", err)
		return
	}

	// Check lengths
	if offsetEnd > len(bs) {
		err = fmt.Errorf("astidvb: section length %d exceeds the %d available bytes: %w", s.Header.SectionLength, len(bs)-i.Offset(), ErrTruncatedSection)
		return
	}
	if s.Header.SectionLength < psiSectionSyntaxHeaderLength+4 {
		err = fmt.Errorf("astidvb: section length %d is too small: %w", s.Header.SectionLength, ErrTruncatedSection)
		return
	}

	// CRC32
	s.CRC32 = binary.BigEndian.Uint32(bs[offsetSectionsEnd:offsetEnd])
	if checkCRC32 {
		if crc32 := computeCRC32(bs[:offsetSectionsEnd]); crc32 != s.CRC32 {
			err = fmt.Errorf("astidvb: table CRC32 %x != computed CRC32 %x: %w", s.CRC32, crc32, ErrCRC32Mismatch)
			return
		}
	}

	// Parse syntax header
	if s.Syntax, err = parsePSISectionSyntaxHeader(i); err != nil {
		err = fmt.Errorf("astidvb: parsing PSI section syntax header failed: %w", err)
		return
	}

	// Parse data
	if err = parsePSISectionData(i, s, offsetSectionsEnd); err != nil {
		err = fmt.Errorf("astidvb: parsing %s section failed: %w", s.Header.TableID, err)
		return
	}
	return
}

// parsePSISectionHeader parses a PSI section header
func parsePSISectionHeader(i *astikit.BytesIterator) (h *PSISectionHeader, offsetSectionsEnd, offsetEnd int, err error) {
	// Init
	h = &PSISectionHeader{}

	// Get next byte
	var b byte
	if b, err = i.NextByte(); err != nil {
		err = fmt.Errorf("astidvb: fetching next byte failed: %w", err)
		return
	}

	// Table ID
	h.TableID = PSITableID(b)

	// Get next bytes
	var bs []byte
	if bs, err = i.NextBytesNoCopy(2); err != nil {
		err = fmt.Errorf("astidvb: fetching next bytes failed: %w", err)
		return
	}

	// Section syntax indicator
	h.SectionSyntaxIndicator = bs[0]&0x80 > 0

	// Private bit
	h.PrivateBit = bs[0]&0x40 > 0

	// Section length
	var l uint64
	if l, err = maskedUint(bs, mask12Bits); err != nil {
		err = fmt.Errorf("astidvb: masking section length failed: %w", err)
		return
	}
	h.SectionLength = uint16(l)

	// Offsets
	offsetEnd = i.Offset() + int(h.SectionLength)
	offsetSectionsEnd = offsetEnd - 4
	return
}

// parsePSISectionSyntaxHeader parses a PSI section syntax header
func parsePSISectionSyntaxHeader(i *astikit.BytesIterator) (h *PSISectionSyntaxHeader, err error) {
	// Get next bytes
	var bs []byte
	if bs, err = i.NextBytesNoCopy(psiSectionSyntaxHeaderLength); err != nil {
		err = fmt.Errorf("astidvb: fetching next bytes failed: %w", err)
		return
	}

	// Create header
	h = &PSISectionSyntaxHeader{
		CurrentNextIndicator: bs[2]&0x1 > 0,
		LastSectionNumber:    uint8(bs[4]),
		SectionNumber:        uint8(bs[3]),
		TableIDExtension:     uint16(bs[0])<<8 | uint16(bs[1]),
		VersionNumber:        uint8(bs[2]&0x3f) >> 1,
	}
	return
}

// parsePSISectionData parses the table specific data
func parsePSISectionData(i *astikit.BytesIterator, s *PSISection, offsetSectionsEnd int) (err error) {
	// Switch on table type
	switch s.Header.TableID {
	case PSITableIDNITActual, PSITableIDNITOther:
		if s.Data.NIT, err = parseNITSection(i, offsetSectionsEnd, s.Syntax.TableIDExtension); err != nil {
			err = fmt.Errorf("astidvb: parsing NIT section failed: %w", err)
			return
		}
	case PSITableIDPAT:
		if s.Data.PAT, err = parsePATSection(i, offsetSectionsEnd, s.Syntax.TableIDExtension); err != nil {
			err = fmt.Errorf("astidvb: parsing PAT section failed: %w", err)
			return
		}
	case PSITableIDPMT:
		if s.Data.PMT, err = parsePMTSection(i, offsetSectionsEnd, s.Syntax.TableIDExtension); err != nil {
			err = fmt.Errorf("astidvb: parsing PMT section failed: %w", err)
			return
		}
	case PSITableIDSDTActual, PSITableIDSDTOther:
		if s.Data.SDT, err = parseSDTSection(i, offsetSectionsEnd, s.Syntax.TableIDExtension); err != nil {
			err = fmt.Errorf("astidvb: parsing SDT section failed: %w", err)
			return
		}
	}
	return
}
