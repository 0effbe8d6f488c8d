package astidvb

import (
	"fmt"

	"github.com/asticode/go-astikit"
	"github.com/pkg/errors"
)

const nitTransportStreamHeaderLength = 6

// NITData represents a NIT data
// Chapter: 5.2.1 | Link: https://www.etsi.org/deliver/etsi_en/300400_300499/300468/01.15.01_60/en_300468v011501p.pdf
type NITData struct {
	NetworkDescriptors []*Descriptor
	NetworkID          uint16
	TransportStreams   []*NITDataTransportStream
}

// NITDataTransportStream represents a NIT data transport stream
type NITDataTransportStream struct {
	OriginalNetworkID    uint16
	TransportDescriptors []*Descriptor
	TransportStreamID    uint16
}

// parseNITSection parses a NIT section
func parseNITSection(i *astikit.BytesIterator, offsetSectionsEnd int, tableIDExtension uint16) (d *NITData, err error) {
	// Init
	d = &NITData{NetworkID: tableIDExtension}

	// Network descriptors
	if d.NetworkDescriptors, err = parseDescriptorsWithLength(i, offsetSectionsEnd); err != nil {
		err = fmt.Errorf("astidvb: parsing network descriptors failed: %w", err)
		return
	}

	// Transport stream loop length
	var transportStreamLoopLength uint16
	if transportStreamLoopLength, err = nextMaskedUint16(i, mask12Bits); err != nil {
		err = fmt.Errorf("astidvb: fetching transport stream loop length failed: %w", err)
		return
	}

	// Transport stream loop
	offsetEnd := i.Offset() + int(transportStreamLoopLength)
	if offsetEnd > offsetSectionsEnd {
		logger.Debugf("astidvb: transport stream loop length %d overflows the section", transportStreamLoopLength)
		offsetEnd = offsetSectionsEnd
	}
	for i.Offset() < offsetEnd {
		var ts *NITDataTransportStream
		if ts, err = parseNITDataTransportStream(i, offsetEnd); err != nil {
			// Garbled entries are dropped along with the rest of the loop
			if errors.Is(err, ErrTruncatedSection) {
				logger.Debugf("astidvb: dropping NIT transport stream: %s", err)
				err = nil
				break
			}
			err = fmt.Errorf("astidvb: parsing transport stream failed: %w", err)
			return
		}
		d.TransportStreams = append(d.TransportStreams, ts)
	}
	return
}

// parseNITDataTransportStream parses a [transport stream id][original network id][descriptors length][descriptors] entry
func parseNITDataTransportStream(i *astikit.BytesIterator, offsetEnd int) (ts *NITDataTransportStream, err error) {
	// Check length
	if i.Offset()+nitTransportStreamHeaderLength > offsetEnd {
		err = fmt.Errorf("astidvb: %d bytes left for a transport stream header: %w", offsetEnd-i.Offset(), ErrTruncatedSection)
		return
	}

	// Get next bytes
	var bs []byte
	if bs, err = i.NextBytesNoCopy(4); err != nil {
		err = fmt.Errorf("astidvb: fetching next bytes failed: %w", err)
		return
	}

	// Create transport stream
	ts = &NITDataTransportStream{
		OriginalNetworkID: uint16(uintFromBytes(bs[2:4])),
		TransportStreamID: uint16(uintFromBytes(bs[0:2])),
	}

	// Transport descriptors
	if ts.TransportDescriptors, err = parseDescriptorsWithLength(i, offsetEnd); err != nil {
		err = fmt.Errorf("astidvb: parsing descriptors of transport stream %d failed: %w", ts.TransportStreamID, err)
		return
	}
	return
}
