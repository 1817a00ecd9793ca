//go:build !tinygo

package core

// On the host the clock only moves when the simulator or a test calls
// SetTime, from the goroutine that also runs the main loop.

var systemTicks uint32

func getSystemTicks() uint32 {
	return systemTicks
}

func setSystemTicks(ticks uint32) {
	systemTicks = ticks
}
