// Package serial opens the host side of the instrument's serial link.
package serial

import (
	"io"
	"time"
)

// DefaultBaud is the rate used when none is configured. USB CDC ignores it.
const DefaultBaud = 115200

// Port is an open serial device
type Port interface {
	io.ReadWriteCloser

	// Flush discards input received before the call
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string `yaml:"device"`

	// Baud rate
	Baud int `yaml:"baud"`

	// Read timeout (0 = blocking)
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// DefaultConfig returns a default configuration for device
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: 100 * time.Millisecond,
	}
}
