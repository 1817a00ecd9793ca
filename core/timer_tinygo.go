//go:build tinygo

package core

import "sync/atomic"

// On the board the main loop refreshes the clock from the hardware timer.
// Access is atomic since goroutines other than the main loop may read it.
var hwTicks atomic.Uint32

func getSystemTicks() uint32 {
	return hwTicks.Load()
}

func setSystemTicks(ticks uint32) {
	hwTicks.Store(ticks)
}
