package astidvb

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/asticode/go-astikit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nitTransportStreamBytes builds a NIT transport stream loop entry
func nitTransportStreamBytes(transportStreamID, originalNetworkID uint16, descriptors ...[]byte) []byte {
	buf := &bytes.Buffer{}
	w := astikit.NewBitsWriter(astikit.BitsWriterOptions{Writer: buf})
	w.Write(transportStreamID)                          // Transport stream ID
	w.Write(originalNetworkID)                          // Original network ID
	w.Write(descriptorsWithLengthBytes(descriptors...)) // Transport descriptors
	return buf.Bytes()
}

// nitDataBytes builds NIT data out of network descriptors and transport stream loop entries
func nitDataBytes(networkDescriptors [][]byte, transportStreams ...[]byte) []byte {
	b := bytes.Join(transportStreams, nil)
	buf := &bytes.Buffer{}
	w := astikit.NewBitsWriter(astikit.BitsWriterOptions{Writer: buf})
	w.Write(descriptorsWithLengthBytes(networkDescriptors...)) // Network descriptors
	w.Write("1111")                                            // Reserved
	w.Write(fmt.Sprintf("%.12b", len(b)))                      // Transport stream loop length
	w.Write(b)                                                 // Transport streams
	return buf.Bytes()
}

func nitBytes() []byte {
	return nitDataBytes([][]byte{networkNameDescriptorBytes("network")},
		nitTransportStreamBytes(1, 2,
			[]byte{0x41, 0x3, 0x0, 0x1, 0x1}, // Service list descriptor, unlisted
			terrestrialDeliverySystemDescriptorBytes(descriptorTerrestrialDeliverySystem),
		),
		nitTransportStreamBytes(3, 2),
	)
}

func TestParseNITSection(t *testing.T) {
	var b = nitBytes()
	d, err := parseNITSection(astikit.NewBytesIterator(b), len(b), uint16(12))
	require.NoError(t, err)
	assert.Equal(t, &NITData{
		NetworkDescriptors: []*Descriptor{{Length: 7, NetworkName: &DescriptorNetworkName{Name: []byte("network")}, Tag: DescriptorTagNetworkName}},
		NetworkID:          12,
		TransportStreams: []*NITDataTransportStream{
			{
				OriginalNetworkID: 2,
				TransportDescriptors: []*Descriptor{
					{Length: 3, Tag: 0x41},
					{Length: 11, Tag: DescriptorTagTerrestrialDeliverySystem, TerrestrialDeliverySystem: descriptorTerrestrialDeliverySystem},
				},
				TransportStreamID: 1,
			},
			{OriginalNetworkID: 2, TransportStreamID: 3},
		},
	}, d)
}

func TestParseNITSectionBoundaries(t *testing.T) {
	// Transport stream loop overflowing the section is bounded by it
	b := nitBytes()
	d, err := parseNITSection(astikit.NewBytesIterator(b), len(b)-6, uint16(12))
	require.NoError(t, err)
	require.Len(t, d.TransportStreams, 1)
	assert.Len(t, d.TransportStreams[0].TransportDescriptors, 2)

	// Network descriptors overflowing the section
	b = nitDataBytes([][]byte{networkNameDescriptorBytes("network")})
	_, err = parseNITSection(astikit.NewBytesIterator(b), 5, uint16(12))
	assert.Error(t, err)
}

func BenchmarkParseNITSection(b *testing.B) {
	b.ReportAllocs()
	bs := nitBytes()

	for i := 0; i < b.N; i++ {
		parseNITSection(astikit.NewBytesIterator(bs), len(bs), uint16(12))
	}
}
