package protocol

import (
	"errors"
	"testing"
)

func TestParseDigits(t *testing.T) {
	tests := []struct {
		in   string
		want uint32
		err  error
	}{
		{"0", 0, nil},
		{"0042", 42, nil},
		{"65535", 65535, nil},
		{"", 0, ErrNoDigits},
		{"12a", 0, ErrNotDigit},
		{"-1", 0, ErrNotDigit},
	}
	for _, tt := range tests {
		got, err := ParseDigits([]byte(tt.in))
		if !errors.Is(err, tt.err) || got != tt.want {
			t.Errorf("ParseDigits(%q) = %d, %v; want %d, %v", tt.in, got, err, tt.want, tt.err)
		}
	}
}

func TestAppendDigits(t *testing.T) {
	for _, n := range []uint32{0, 7, 2002, 4294967295} {
		b := AppendDigits([]byte("n="), n)
		got, err := ParseDigits(b[2:])
		if err != nil || got != n {
			t.Errorf("AppendDigits(%d) produced %q", n, b)
		}
	}
}

func TestPutCodes(t *testing.T) {
	dst := make([]byte, 6)
	n := PutCodes(dst, []uint16{0x0001, 0xF800, 0xC000})
	want := []byte{0x01, 0x00, 0x00, 0xF8, 0x00, 0xC0}
	if n != 6 || string(dst) != string(want) {
		t.Errorf("PutCodes wrote % x (%d), want % x", dst, n, want)
	}
	codes := DecodeCodes(append(dst, 0xFF))
	if len(codes) != 3 || codes[2] != 0xC000 {
		t.Errorf("DecodeCodes mismatch: %v", codes)
	}
}
