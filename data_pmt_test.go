package astidvb

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/asticode/go-astikit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pmtElementaryStreamBytes builds a PMT loop entry
func pmtElementaryStreamBytes(streamType uint8, pid uint16, descriptors ...[]byte) []byte {
	buf := &bytes.Buffer{}
	w := astikit.NewBitsWriter(astikit.BitsWriterOptions{Writer: buf})
	w.Write(streamType)                                 // Stream type
	w.Write("111")                                      // Reserved
	w.Write(fmt.Sprintf("%.13b", pid))                  // Elementary PID
	w.Write(descriptorsWithLengthBytes(descriptors...)) // Descriptors
	return buf.Bytes()
}

// pmtDataBytes builds PMT data out of loop entries
func pmtDataBytes(pcrPID uint16, programDescriptors [][]byte, entries ...[]byte) []byte {
	buf := &bytes.Buffer{}
	w := astikit.NewBitsWriter(astikit.BitsWriterOptions{Writer: buf})
	w.Write("111")                                             // Reserved
	w.Write(fmt.Sprintf("%.13b", pcrPID))                      // PCR PID
	w.Write(descriptorsWithLengthBytes(programDescriptors...)) // Program descriptors
	w.Write(bytes.Join(entries, nil))                          // Elementary streams
	return buf.Bytes()
}

func pmtBytes() []byte {
	return pmtDataBytes(0x101, [][]byte{networkNameDescriptorBytes("p")},
		pmtElementaryStreamBytes(StreamTypeH264Video, 0x101),
		pmtElementaryStreamBytes(StreamTypeADTS, 0x102, []byte{0x0a, 0x4, 'f', 'r', 'a', 0x0}),
	)
}

func TestParsePMTSection(t *testing.T) {
	var b = pmtBytes()
	d, err := parsePMTSection(astikit.NewBytesIterator(b), len(b), uint16(1))
	require.NoError(t, err)
	assert.Equal(t, &PMTData{
		ElementaryStreams: []*PMTElementaryStream{
			{ElementaryPID: 0x101, StreamType: StreamTypeH264Video},
			{
				ElementaryPID:               0x102,
				ElementaryStreamDescriptors: []*Descriptor{{Length: 4, Tag: 0x0a}},
				ESInfoLength:                6,
				StreamType:                  StreamTypeADTS,
			},
		},
		PCRPID:             0x101,
		ProgramDescriptors: []*Descriptor{{Length: 1, NetworkName: &DescriptorNetworkName{Name: []byte("p")}, Tag: DescriptorTagNetworkName}},
		ProgramInfoLength:  3,
		ProgramNumber:      1,
	}, d)
}

func TestParsePMTSectionBoundaries(t *testing.T) {
	// Entry landing exactly on the loop end terminates cleanly
	b := pmtDataBytes(0x1fff, nil, pmtElementaryStreamBytes(StreamTypeMPEG2Video, 0x101, networkNameDescriptorBytes("abc")))
	d, err := parsePMTSection(astikit.NewBytesIterator(b), len(b), uint16(2))
	require.NoError(t, err)
	require.Len(t, d.ElementaryStreams, 1)
	assert.Equal(t, uint16(5), d.ElementaryStreams[0].ESInfoLength)

	// Entry running past the loop end is dropped, previous ones are kept
	b = pmtDataBytes(0x1fff, nil,
		pmtElementaryStreamBytes(StreamTypeMPEG2Video, 0x101),
		pmtElementaryStreamBytes(StreamTypeMPEG1Audio, 0x102, networkNameDescriptorBytes("abc")),
	)
	d, err = parsePMTSection(astikit.NewBytesIterator(b), len(b)-2, uint16(2))
	require.NoError(t, err)
	require.Len(t, d.ElementaryStreams, 1)
	assert.Equal(t, uint16(0x101), d.ElementaryStreams[0].ElementaryPID)

	// Entry header running past the loop end is dropped as well
	b = append(pmtDataBytes(0x1fff, nil, pmtElementaryStreamBytes(StreamTypeMPEG2Video, 0x101)), 0x1b, 0xe1)
	d, err = parsePMTSection(astikit.NewBytesIterator(b), len(b), uint16(2))
	require.NoError(t, err)
	assert.Len(t, d.ElementaryStreams, 1)
}

func BenchmarkParsePMTSection(b *testing.B) {
	b.ReportAllocs()
	bs := pmtBytes()

	for i := 0; i < b.N; i++ {
		parsePMTSection(astikit.NewBytesIterator(bs), len(bs), uint16(1))
	}
}
