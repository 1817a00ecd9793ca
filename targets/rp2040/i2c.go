//go:build rp2040

package main

import (
	"machine"

	"tinygo.org/x/drivers/at24cx"
)

// settingsEEPROM keeps the voltage source choice and the calibration fit
// in an AT24C32 on I2C0
type settingsEEPROM struct {
	dev at24cx.Device
}

func newSettingsEEPROM() (*settingsEEPROM, error) {
	bus := machine.I2C0
	if err := bus.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       eepromSDA,
		SCL:       eepromSCL,
	}); err != nil {
		return nil, err
	}
	dev := at24cx.New(bus)
	dev.Configure(at24cx.Config{})
	return &settingsEEPROM{dev: dev}, nil
}

func (e *settingsEEPROM) LoadByte(addr uint16) (uint8, error) {
	return e.dev.ReadByte(addr)
}

func (e *settingsEEPROM) StoreByte(addr uint16, v uint8) error {
	return e.dev.WriteByte(addr, v)
}
