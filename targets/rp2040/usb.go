//go:build rp2040

package main

import "machine"

// maxWriteFailures is how many failed writes in a row mean the host is gone
const maxWriteFailures = 10

// usbLink is the host connection over the USB CDC-ACM port TinyGo sets up
type usbLink struct {
	writeFailures uint32
}

func newUSBLink() *usbLink {
	machine.Serial.Configure(machine.UARTConfig{})
	return &usbLink{}
}

func (l *usbLink) Available() int {
	return machine.Serial.Buffered()
}

func (l *usbLink) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) && machine.Serial.Buffered() > 0 {
		b, err := machine.Serial.ReadByte()
		if err != nil {
			return n, err
		}
		p[n] = b
		n++
	}
	return n, nil
}

// Write drops the reply once the host has stopped draining the port, so a
// closed terminal cannot stall the main loop.
func (l *usbLink) Write(p []byte) (int, error) {
	n, err := machine.Serial.Write(p)
	if err != nil || n == 0 {
		l.writeFailures++
		if l.writeFailures > maxWriteFailures {
			return len(p), nil
		}
		return n, err
	}
	l.writeFailures = 0
	return n, nil
}
