package sim

import (
	"errors"
	"fmt"
	"os"
)

// ErrAddressRange is returned for an access past the end of the EEPROM
var ErrAddressRange = errors.New("eeprom address out of range")

// EEPROM is a byte store that starts erased (0xFF). With a path set, every
// write goes through to the file so settings survive a restart.
type EEPROM struct {
	data []byte
	path string
}

// NewEEPROM creates an in-memory store of size bytes
func NewEEPROM(size int) *EEPROM {
	e := &EEPROM{data: make([]byte, size)}
	for i := range e.data {
		e.data[i] = 0xFF
	}
	return e
}

// OpenEEPROM loads a file-backed store, creating it erased when missing
func OpenEEPROM(path string, size int) (*EEPROM, error) {
	e := NewEEPROM(size)
	e.path = path
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return e, e.flush()
	case err != nil:
		return nil, fmt.Errorf("failed to read eeprom image: %w", err)
	}
	copy(e.data, b)
	return e, nil
}

// LoadByte reads one byte
func (e *EEPROM) LoadByte(addr uint16) (uint8, error) {
	if int(addr) >= len(e.data) {
		return 0, ErrAddressRange
	}
	return e.data[addr], nil
}

// StoreByte writes one byte
func (e *EEPROM) StoreByte(addr uint16, v uint8) error {
	if int(addr) >= len(e.data) {
		return ErrAddressRange
	}
	e.data[addr] = v
	return e.flush()
}

func (e *EEPROM) flush() error {
	if e.path == "" {
		return nil
	}
	if err := os.WriteFile(e.path, e.data, 0644); err != nil {
		return fmt.Errorf("failed to write eeprom image: %w", err)
	}
	return nil
}
