package core

// Number formatting for replies and debug lines. The firmware avoids fmt and
// strconv to keep the image small.

func appendUint(dst []byte, n uint32) []byte {
	var buf [10]byte
	pos := len(buf)
	for {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
		if n == 0 {
			break
		}
	}
	return append(dst, buf[pos:]...)
}

func appendInt(dst []byte, n int) []byte {
	if n < 0 {
		dst = append(dst, '-')
		return appendUint(dst, uint32(-int64(n)))
	}
	return appendUint(dst, uint32(n))
}

// itoa formats a signed value, as used in replies
func itoa(n int) string {
	var buf [12]byte
	return string(appendInt(buf[:0], n))
}

// utoa formats a clock or counter value
func utoa(n uint32) string {
	var buf [10]byte
	return string(appendUint(buf[:0], n))
}
