package astidvb

import "github.com/pkg/errors"

// Errors
var (
	ErrCRC32Mismatch                 = errors.New("astidvb: CRC32 mismatch")
	ErrEmptyStream                   = errors.New("astidvb: empty stream")
	ErrFinalized                     = errors.New("astidvb: transport stream is finalized")
	ErrInvalidInput                  = errors.New("astidvb: invalid input")
	ErrMalformedPacket               = errors.New("astidvb: malformed packet")
	ErrMissingTransmissionParameters = errors.New("astidvb: missing transmission parameters")
	ErrNoMorePackets                 = errors.New("astidvb: no more packets")
	ErrPacketMustStartWithASyncByte  = errors.New("astidvb: packet must start with a sync byte")
	ErrTruncatedSection              = errors.New("astidvb: truncated section")
)
