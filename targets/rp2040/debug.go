//go:build rp2040

package main

import (
	"machine"

	"pstat/core"
)

// debugUART carries core debug output, transmit only
var debugUART *machine.UART

// initDebugUART routes core.DebugPrintln to UART1 at 115200 baud
func initDebugUART() {
	debugUART = machine.UART1
	err := debugUART.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       debugTX,
		RX:       machine.NoPin,
	})
	if err != nil {
		return
	}
	core.SetDebugWriter(func(s string) {
		debugUART.Write([]byte(s))
		debugUART.Write([]byte("\r\n"))
	})
	core.SetDebugEnabled(true)
	core.DebugPrintln("[BOOT] debug uart up")
}
