//go:build rp2040

package main

import (
	"machine"

	"tinygo.org/x/drivers/hd44780"
)

// lcd shows the last command on a 16x2 character display
type lcd struct {
	dev hd44780.Device
	buf [16]byte
}

func newLCD() (*lcd, error) {
	data := []machine.Pin{lcdD4, lcdD4 + 1, lcdD4 + 2, lcdD4 + 3}
	dev, err := hd44780.NewGPIO4Bit(data, lcdE, lcdRS, machine.NoPin)
	if err != nil {
		return nil, err
	}
	if err := dev.Configure(hd44780.Config{Width: 16, Height: 2}); err != nil {
		return nil, err
	}
	l := &lcd{dev: dev}
	l.Show("ready")
	return l, nil
}

func (l *lcd) Show(line string) {
	n := copy(l.buf[:], line)
	for i := n; i < len(l.buf); i++ {
		l.buf[i] = ' '
	}
	l.dev.SetCursor(0, 0)
	l.dev.Write(l.buf[:])
	l.dev.Display()
}
