package protocol

import "errors"

var (
	ErrNotDigit = errors.New("non-digit in numeric field")
	ErrNoDigits = errors.New("empty numeric field")
)

// ParseDigits converts an ASCII decimal field to an integer. Unlike the
// classic firmware parser it rejects anything that is not a digit.
func ParseDigits(b []byte) (uint32, error) {
	if len(b) == 0 {
		return 0, ErrNoDigits
	}
	var num uint32
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, ErrNotDigit
		}
		num = num*10 + uint32(c-'0')
	}
	return num, nil
}

// AppendDigits appends the decimal form of n to dst
func AppendDigits(dst []byte, n uint32) []byte {
	var tmp [10]byte
	i := len(tmp)
	for {
		i--
		tmp[i] = byte('0' + n%10)
		n /= 10
		if n == 0 {
			break
		}
	}
	return append(dst, tmp[i:]...)
}
