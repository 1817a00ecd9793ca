package protocol

// CRC16 computes the CRC-16/CCITT (0xFFFF seed, reflected) checksum that
// guards records kept in the board EEPROM.
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		b = b ^ uint8(crc&0xFF)
		b = b ^ (b << 4)
		b16 := uint16(b)
		crc = (b16<<8 | crc>>8) ^ (b16 >> 4) ^ (b16 << 3)
	}
	return crc
}

// AppendCRC16 appends the little-endian checksum of data to data
func AppendCRC16(data []byte) []byte {
	crc := CRC16(data)
	return append(data, byte(crc), byte(crc>>8))
}

// CheckCRC16 reports whether rec ends with a valid checksum of the bytes before it
func CheckCRC16(rec []byte) bool {
	if len(rec) < 2 {
		return false
	}
	n := len(rec) - 2
	return CRC16(rec[:n]) == uint16(rec[n])|uint16(rec[n+1])<<8
}
