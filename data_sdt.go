package astidvb

import (
	"fmt"

	"github.com/asticode/go-astikit"
	"github.com/pkg/errors"
)

// Running statuses.
const (
	RunningStatusNotRunning          = 1
	RunningStatusPausing             = 3
	RunningStatusRunning             = 4
	RunningStatusServiceOffAir       = 5
	RunningStatusStartsInAFewSeconds = 2
	RunningStatusUndefined           = 0
)

const sdtServiceHeaderLength = 3

// SDTData represents an SDT data.
// Chapter: 5.2.3 | Link: https://www.etsi.org/deliver/etsi_en/300400_300499/300468/01.15.01_60/en_300468v011501p.pdf
type SDTData struct {
	OriginalNetworkID uint16
	Services          []*SDTDataService
	TransportStreamID uint16
}

// SDTDataService represents an SDT data service.
type SDTDataService struct {
	Descriptors []*Descriptor

	// When true indicates that EIT present/following
	// information for the service is present in the current TS.
	HasEITPresentFollowing bool

	// When true indicates that EIT schedule information
	// for the service is present in the current TS.
	HasEITSchedule bool

	// When true indicates that access to one or
	// more streams may be controlled by a CA system.
	HasFreeCSAMode bool
	RunningStatus  uint8
	ServiceID      uint16 // Same value as the program number in the PAT
}

// parseSDTSection parses an SDT section.
func parseSDTSection(i *astikit.BytesIterator, offsetSectionsEnd int, tableIDExtension uint16) (d *SDTData, err error) {
	// Init
	d = &SDTData{TransportStreamID: tableIDExtension}

	// Original network ID
	var bs []byte
	if bs, err = i.NextBytesNoCopy(2); err != nil {
		err = fmt.Errorf("astidvb: fetching next bytes failed: %w", err)
		return
	}
	d.OriginalNetworkID = uint16(uintFromBytes(bs))

	// Reserved
	i.Skip(1)

	// Loop until end of section data is reached.
	for i.Offset() < offsetSectionsEnd {
		var s *SDTDataService
		if s, err = parseSDTDataService(i, offsetSectionsEnd); err != nil {
			// Garbled entries are dropped along with the rest of the loop
			if errors.Is(err, ErrTruncatedSection) {
				logger.Debugf("astidvb: dropping SDT service: %s", err)
				err = nil
				break
			}
			err = fmt.Errorf("astidvb: parsing service failed: %w", err)
			return
		}
		d.Services = append(d.Services, s)
	}
	return
}

// parseSDTDataService parses a [service id][flags][running status, free CA mode, descriptors length][descriptors] entry
func parseSDTDataService(i *astikit.BytesIterator, offsetSectionsEnd int) (s *SDTDataService, err error) {
	// Check length
	if i.Offset()+sdtServiceHeaderLength+2 > offsetSectionsEnd {
		err = fmt.Errorf("astidvb: %d bytes left for a service header: %w", offsetSectionsEnd-i.Offset(), ErrTruncatedSection)
		return
	}

	// Get next bytes
	var bs []byte
	if bs, err = i.NextBytesNoCopy(sdtServiceHeaderLength); err != nil {
		err = fmt.Errorf("astidvb: fetching next bytes failed: %w", err)
		return
	}

	// Create service
	s = &SDTDataService{
		HasEITPresentFollowing: bs[2]&0x1 > 0,
		HasEITSchedule:         bs[2]&0x2 > 0,
		ServiceID:              uint16(uintFromBytes(bs[0:2])),
	}

	// Running status and free CA mode share their byte with the descriptors length
	var b byte
	if b, err = i.NextByte(); err != nil {
		err = fmt.Errorf("astidvb: fetching next byte failed: %w", err)
		return
	}
	s.RunningStatus = uint8(b) >> 5
	s.HasFreeCSAMode = b&0x10 > 0
	i.Skip(-1)

	// Descriptors
	if s.Descriptors, err = parseDescriptorsWithLength(i, offsetSectionsEnd); err != nil {
		err = fmt.Errorf("astidvb: parsing descriptors of service %d failed: %w", s.ServiceID, err)
		return
	}
	return
}
