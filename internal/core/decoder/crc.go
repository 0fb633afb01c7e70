package decoder

import "hash/crc32"

// dllpCRC16 computes the 16-bit CRC protecting a DLLP, as transmitted on
// the wire: polynomial 0x100B over the inverted shift register, final
// complement, then per-byte bit reversal with the bytes swapped.
func dllpCRC16(buf []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range buf {
		for j := 0; j < 8; j++ {
			bit := uint16(b>>j) & 1
			bit ^= crc >> 15
			crc = crc<<1 | bit
			if bit != 0 {
				crc ^= 0x100B & 0xFFFE
			}
		}
	}
	crc ^= 0xFFFF
	return uint16(reverseBits(uint8(crc)))<<8 | uint16(reverseBits(uint8(crc>>8)))
}

func reverseBits(b uint8) uint8 {
	b = b>>4 | b<<4
	b = b>>2&0x33 | b<<2&0xCC
	b = b>>1&0x55 | b<<1&0xAA
	return b
}

// lcrc32 computes the link CRC over the sequence number bytes and the TLP.
func lcrc32(buf []byte) uint32 {
	return crc32.ChecksumIEEE(buf)
}

// ecrc32 computes the end-to-end CRC. The EP and Type[0] bits of dword 0
// are forced to one before the CRC is taken, so the first dword is passed
// separately in its already-modified big-endian form.
func ecrc32(dw0 [4]byte, rest []byte) uint32 {
	buf := make([]byte, 0, 4+len(rest))
	buf = append(buf, dw0[:]...)
	buf = append(buf, rest...)
	return crc32.ChecksumIEEE(buf)
}
