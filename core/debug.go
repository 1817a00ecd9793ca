package core

// DebugWriter receives one debug line at a time
type DebugWriter func(string)

// TimingEvent captures a timing-critical event for post-mortem analysis
type TimingEvent struct {
	EventType uint8  // Event type code
	ID        uint8  // Mode or channel, depending on the event
	Clock     uint32 // System clock at event
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes
const (
	EvtArm       = 1 // pipeline armed, v1 = target length
	EvtDone      = 2 // buffer completed, v1 = length
	EvtReset     = 3 // run aborted
	EvtOverrun   = 4 // export raced a fill, v1 = length
	EvtTimerPast = 5 // tick timer woke late, v1 = lateness in timer ticks
	EvtCalibrate = 6 // calibration step, v1 = reference, v2 = sample
)

// TimingRingSize is the number of most recent events kept
const TimingRingSize = 32

var eventNames = [...]string{
	EvtArm:       "ARM",
	EvtDone:      "DONE",
	EvtReset:     "RESET",
	EvtOverrun:   "OVERRUN!",
	EvtTimerPast: "TIMER_PAST!",
	EvtCalibrate: "CALIBRATE",
}

var (
	debugPrintln DebugWriter = func(string) {}
	debugEnabled bool

	// Written from the tick handlers, read from the main loop
	timingRing     [TimingRingSize]TimingEvent
	timingRingHead uint8
)

// SetDebugWriter redirects debug output to a UART, a log, etc.
func SetDebugWriter(writer DebugWriter) {
	if writer == nil {
		writer = func(string) {}
	}
	debugPrintln = writer
}

// SetDebugEnabled turns DebugPrintln on or off. Timing capture is unaffected.
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// DebugPrintln writes a line when debug output is enabled. Not for use in
// the tick handlers.
func DebugPrintln(msg string) {
	if debugEnabled {
		debugPrintln(msg)
	}
}

// RecordTiming captures an event in the ring. Safe from the tick handlers.
func RecordTiming(eventType, id uint8, clock, value1, value2 uint32) {
	idx := timingRingHead
	timingRing[idx] = TimingEvent{
		EventType: eventType,
		ID:        id,
		Clock:     clock,
		Value1:    value1,
		Value2:    value2,
	}
	timingRingHead = (idx + 1) % TimingRingSize
}

// EventName returns the display name of an event code
func EventName(code uint8) string {
	if int(code) < len(eventNames) && eventNames[code] != "" {
		return eventNames[code]
	}
	return "UNKNOWN"
}

// DumpTimingRing writes the captured events, oldest first, to the debug
// writer regardless of SetDebugEnabled. Meant for after a fault.
func DumpTimingRing() {
	events := TimingEvents()
	debugPrintln("[TIMING] " + utoa(uint32(len(events))) + " events")
	for _, evt := range events {
		line := make([]byte, 0, 64)
		line = append(line, "[TIMING] "...)
		line = append(line, EventName(evt.EventType)...)
		line = append(line, " id="...)
		line = appendUint(line, uint32(evt.ID))
		line = append(line, " clock="...)
		line = appendUint(line, evt.Clock)
		line = append(line, " v1="...)
		line = appendUint(line, evt.Value1)
		line = append(line, " v2="...)
		line = appendUint(line, evt.Value2)
		debugPrintln(string(line))
	}
}

// ClearTimingRing empties the ring
func ClearTimingRing() {
	timingRing = [TimingRingSize]TimingEvent{}
	timingRingHead = 0
}

// TimingEvents returns the captured events, oldest first
func TimingEvents() []TimingEvent {
	var out []TimingEvent
	for i := uint8(0); i < TimingRingSize; i++ {
		evt := timingRing[(timingRingHead+i)%TimingRingSize]
		if evt.EventType != 0 {
			out = append(out, evt)
		}
	}
	return out
}
