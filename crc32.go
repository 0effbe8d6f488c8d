package astidvb

const (
	crc32Init       = uint32(0xffffffff)
	crc32Polynomial = uint32(0x04c11db7)
)

// MPEG-2 CRC32: MSB first, no reflection, no final xor
var tableCRC32 [256]uint32

func init() {
	for idx := range tableCRC32 {
		c := uint32(idx) << 24
		for j := 0; j < 8; j++ {
			if c&0x80000000 > 0 {
				c = c<<1 ^ crc32Polynomial
			} else {
				c <<= 1
			}
		}
		tableCRC32[idx] = c
	}
}

func computeCRC32(bs []byte) uint32 {
	return updateCRC32(crc32Init, bs)
}

func updateCRC32(iCrc uint32, bs []byte) uint32 {
	for _, b := range bs {
		iCrc = (iCrc << 8) ^ tableCRC32[((iCrc>>24)^uint32(b))&0xff]
	}
	return iCrc
}
