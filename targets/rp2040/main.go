//go:build rp2040

package main

import (
	"machine"
	"time"

	"pstat/core"
)

var (
	// Debug counters
	panics uint32
)

func main() {
	// Clear any watchdog state left from before the reset
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0}); err != nil {
		return
	}

	link := newUSBLink()
	initDebugUART()
	core.TimerInit()
	UpdateSystemTime()

	cfg := core.DefaultConfig()
	if err := registerDrivers(cfg); err != nil {
		halt("drivers: " + err.Error())
	}
	core.SetLink(link)

	inst, err := core.NewInstrument(cfg, core.RegisteredDrivers())
	if err != nil {
		halt("instrument: " + err.Error())
	}
	core.DebugPrintln("[BOOT] " + cfg.Identity)

	for {
		// A panic in a command must not take the instrument off the bus
		func() {
			defer func() {
				if r := recover(); r != nil {
					panics++
					inst.Pipeline().Reset()
					core.DumpTimingRing()
				}
			}()
			UpdateSystemTime()
			inst.Poll()
		}()

		// Let the USB stack run
		time.Sleep(10 * time.Microsecond)
	}
}

// registerDrivers brings up the board peripherals and installs them in core
func registerDrivers(cfg core.Config) error {
	stim, err := newStimulusDAC(cfg)
	if err != nil {
		return err
	}
	core.SetStimulusDriver(stim)

	ref, err := newRefSource()
	if err != nil {
		return err
	}
	core.SetReferenceSource(ref)

	core.SetSampleDriver(newSampleADC())
	core.SetFrontEnd(newAnalogFrontEnd())
	core.SetTickSource(core.NewSoftTicker(cfg.Period, cfg.Compare))

	store, err := newSettingsEEPROM()
	if err != nil {
		return err
	}
	core.SetStore(store)

	// The display is optional
	if disp, err := newLCD(); err == nil {
		core.SetDisplay(disp)
	} else {
		core.DebugPrintln("[BOOT] lcd: " + err.Error())
	}
	return nil
}

// halt blinks the LED forever after a fatal start-up error
func halt(msg string) {
	core.DebugPrintln("[BOOT] " + msg)
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	for {
		led.High()
		time.Sleep(100 * time.Millisecond)
		led.Low()
		time.Sleep(100 * time.Millisecond)
	}
}
