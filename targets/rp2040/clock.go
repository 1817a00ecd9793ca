//go:build rp2040

package main

import (
	"runtime/volatile"
	"unsafe"

	"pstat/core"
)

// RP2040 timer peripheral, a free running 64-bit microsecond counter. The
// core clock is 32 bits and wraps, so only the low word is read.
const (
	timerBase     = 0x40054000
	timerTIMERAWL = timerBase + 0x28
)

var timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))

// GetHardwareTime returns the low 32 bits of the microsecond counter
func GetHardwareTime() uint32 {
	return timerRAWL.Get()
}

// UpdateSystemTime feeds the hardware time to the core timer list
func UpdateSystemTime() {
	core.SetTime(GetHardwareTime())
}
