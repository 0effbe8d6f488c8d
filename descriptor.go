package astidvb

import (
	"bytes"
	"fmt"

	"github.com/asticode/go-astikit"
	"github.com/icza/bitio"
)

// Descriptor tags
// Chapter: 6.1 | Link: https://www.etsi.org/deliver/etsi_en/300400_300499/300468/01.15.01_60/en_300468v011501p.pdf
const (
	DescriptorTagNetworkName               = 0x40
	DescriptorTagService                   = 0x48
	DescriptorTagTerrestrialDeliverySystem = 0x5a
)

// Service types
// Chapter: 6.2.33 | Link: https://www.etsi.org/deliver/etsi_en/300400_300499/300468/01.15.01_60/en_300468v011501p.pdf
const (
	ServiceTypeDigitalTelevisionService = 0x1
	ServiceTypeDigitalRadioSoundService = 0x2
)

// terrestrialDeliverySystemMinLength is the number of bytes up to and including the guard interval
const terrestrialDeliverySystemMinLength = 7

// Descriptor represents a descriptor
// Descriptors with an unlisted tag only have their Tag and Length set
type Descriptor struct {
	Length                    uint8
	NetworkName               *DescriptorNetworkName
	Service                   *DescriptorService
	Tag                       uint8 // the tag defines the structure of the contained data following the descriptor length.
	TerrestrialDeliverySystem *DescriptorTerrestrialDeliverySystem
}

// DescriptorNetworkName represents a network name descriptor
// Chapter: 6.2.27 | Link: https://www.etsi.org/deliver/etsi_en/300400_300499/300468/01.15.01_60/en_300468v011501p.pdf
type DescriptorNetworkName struct {
	Name []byte
}

func newDescriptorNetworkName(i []byte) *DescriptorNetworkName {
	return &DescriptorNetworkName{Name: i}
}

// DescriptorService represents a service descriptor
// Chapter: 6.2.33 | Link: https://www.etsi.org/deliver/etsi_en/300400_300499/300468/01.15.01_60/en_300468v011501p.pdf
type DescriptorService struct {
	Name     []byte
	Provider []byte
	Type     uint8
}

func newDescriptorService(i []byte) (d *DescriptorService, err error) {
	var offset int
	if len(i) < 2 {
		err = fmt.Errorf("astidvb: service descriptor is %d bytes long: %w", len(i), ErrTruncatedSection)
		return
	}
	d = &DescriptorService{Type: uint8(i[offset])}
	offset += 1

	// Provider
	var providerLength = int(i[offset])
	offset += 1
	if offset+providerLength+1 > len(i) {
		err = fmt.Errorf("astidvb: service provider length %d overflows the descriptor: %w", providerLength, ErrTruncatedSection)
		return
	}
	d.Provider = i[offset : offset+providerLength]
	offset += providerLength

	// Name
	var nameLength = int(i[offset])
	offset += 1
	if offset+nameLength > len(i) {
		err = fmt.Errorf("astidvb: service name length %d overflows the descriptor: %w", nameLength, ErrTruncatedSection)
		return
	}
	d.Name = i[offset : offset+nameLength]
	return
}

// DescriptorTerrestrialDeliverySystem represents a terrestrial delivery system descriptor
// Fields hold the raw coded values, see transmission.go for their meaning
// Chapter: 6.2.13.4 | Link: https://www.etsi.org/deliver/etsi_en/300400_300499/300468/01.15.01_60/en_300468v011501p.pdf
type DescriptorTerrestrialDeliverySystem struct {
	Bandwidth            uint8
	CentreFrequency      uint32 // In 10 Hz units
	CodeRateHPStream     uint8
	CodeRateLPStream     uint8
	Constellation        uint8
	GuardInterval        uint8
	HierarchyInformation uint8
	MPEFECIndicator      bool // Set when no elementary stream uses MPE-FEC
	OtherFrequencyFlag   bool
	Priority             bool // Set for the high priority stream or a non hierarchical transmission
	TimeSlicingIndicator bool // Set when no elementary stream uses time slicing
	TransmissionMode     uint8
}

func newDescriptorTerrestrialDeliverySystem(i []byte) (d *DescriptorTerrestrialDeliverySystem, err error) {
	// Check length
	if len(i) < terrestrialDeliverySystemMinLength {
		err = fmt.Errorf("astidvb: terrestrial delivery system descriptor is %d bytes long: %w", len(i), ErrTruncatedSection)
		return
	}

	// Read bits
	r := bitio.NewReader(bytes.NewReader(i))
	d = &DescriptorTerrestrialDeliverySystem{}
	d.CentreFrequency = uint32(r.TryReadBits(32))
	d.Bandwidth = uint8(r.TryReadBits(3))
	d.Priority = r.TryReadBool()
	d.TimeSlicingIndicator = r.TryReadBool()
	d.MPEFECIndicator = r.TryReadBool()
	_ = r.TryReadBits(2) // Reserved
	d.Constellation = uint8(r.TryReadBits(2))
	d.HierarchyInformation = uint8(r.TryReadBits(3))
	d.CodeRateHPStream = uint8(r.TryReadBits(3))
	d.CodeRateLPStream = uint8(r.TryReadBits(3))
	d.GuardInterval = uint8(r.TryReadBits(2))
	d.TransmissionMode = uint8(r.TryReadBits(2))
	d.OtherFrequencyFlag = r.TryReadBool()
	if err = r.TryError; err != nil {
		err = fmt.Errorf("astidvb: reading bits failed: %w", err)
		return
	}
	return
}

// parseDescriptorsWithLength parses a 12 bits length followed by the descriptors it covers
func parseDescriptorsWithLength(i *astikit.BytesIterator, offsetEnd int) (o []*Descriptor, err error) {
	// Get length
	var length uint16
	if length, err = nextMaskedUint16(i, mask12Bits); err != nil {
		err = fmt.Errorf("astidvb: fetching descriptors length failed: %w", err)
		return
	}

	// Check length
	offsetDescriptorsEnd := i.Offset() + int(length)
	if offsetDescriptorsEnd > offsetEnd {
		err = fmt.Errorf("astidvb: descriptors length %d overflows the available %d bytes: %w", length, offsetEnd-i.Offset(), ErrTruncatedSection)
		return
	}

	// Parse
	o = parseDescriptors(i, offsetDescriptorsEnd)
	return
}

// parseDescriptors parses tag-length-value descriptors until offsetEnd is reached
// A descriptor overflowing offsetEnd ends the loop, a descriptor whose content is invalid is dropped. In both
// cases the iterator is left at offsetEnd
func parseDescriptors(i *astikit.BytesIterator, offsetEnd int) (o []*Descriptor) {
	// Make sure we move to the end of the descriptors
	defer i.Seek(offsetEnd)

	// Loop
	for i.Offset()+2 <= offsetEnd {
		// Get next bytes
		bs, err := i.NextBytesNoCopy(2)
		if err != nil {
			logger.Debugf("astidvb: fetching next bytes failed: %s", err)
			return
		}

		// Init
		var d = &Descriptor{
			Length: uint8(bs[1]),
			Tag:    uint8(bs[0]),
		}

		// Descriptor overflows
		offsetDescriptorEnd := i.Offset() + int(d.Length)
		if offsetDescriptorEnd > offsetEnd {
			logger.Debugf("astidvb: descriptor 0x%x of length %d overflows the available %d bytes", d.Tag, d.Length, offsetEnd-i.Offset())
			return
		}

		// Parse data
		if d.Length > 0 {
			// Get data
			var b []byte
			if b, err = i.NextBytes(int(d.Length)); err != nil {
				logger.Debugf("astidvb: fetching next bytes failed: %s", err)
				return
			}

			// Switch on tag
			switch d.Tag {
			case DescriptorTagNetworkName:
				d.NetworkName = newDescriptorNetworkName(b)
			case DescriptorTagService:
				d.Service, err = newDescriptorService(b)
			case DescriptorTagTerrestrialDeliverySystem:
				d.TerrestrialDeliverySystem, err = newDescriptorTerrestrialDeliverySystem(b)
			default:
				logger.Debugf("astidvb: unlisted descriptor tag 0x%x", d.Tag)
			}

			// Invalid content
			if err != nil {
				logger.Debugf("astidvb: dropping descriptor 0x%x: %s", d.Tag, err)
				i.Seek(offsetDescriptorEnd)
				continue
			}
		}
		o = append(o, d)
	}
	return
}
