package protocol

import "encoding/binary"

// PutCodes encodes codes as little-endian 16-bit words into dst and returns
// the number of bytes written. dst must hold 2*len(codes) bytes.
func PutCodes(dst []byte, codes []uint16) int {
	for i, c := range codes {
		binary.LittleEndian.PutUint16(dst[2*i:], c)
	}
	return 2 * len(codes)
}

// DecodeCodes is the inverse of PutCodes. A trailing odd byte is ignored.
func DecodeCodes(src []byte) []uint16 {
	out := make([]uint16, len(src)/2)
	for i := range out {
		out[i] = binary.LittleEndian.Uint16(src[2*i:])
	}
	return out
}
