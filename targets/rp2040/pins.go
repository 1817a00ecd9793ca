//go:build rp2040

package main

import "machine"

// Board wiring
const (
	eepromSDA = machine.GPIO0
	eepromSCL = machine.GPIO1

	lcdRS = machine.GPIO2
	lcdE  = machine.GPIO3
	lcdD4 = machine.GPIO9 // D4..D7 on GPIO9..12

	debugTX = machine.GPIO4 // UART1

	gainPin0      = machine.GPIO5  // two-bit buffer gain
	rangeHalfPin  = machine.GPIO7  // ADC front attenuator bypass
	stimEnablePin = machine.GPIO8  // control amplifier enable
	resistorPin0  = machine.GPIO13 // three-bit resistor mux

	stimulusPin  = machine.GPIO16 // PWM0 A, RC filtered into the control amplifier
	calSelectPin = machine.GPIO17 // TIA input from the calibration source
	refValuePin  = machine.GPIO18 // PWM1 A, calibration current source
	refSinkPin   = machine.GPIO19 // high selects sink
	shortPin     = machine.GPIO20 // TIA feedback short
	twoElectrode = machine.GPIO21 // RE tied to CE

	samplePin = machine.ADC0 // TIA output biased to mid-rail
)
