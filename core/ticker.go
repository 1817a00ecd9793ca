package core

// TickClockHz is the rate at which period and compare counts are expressed
const TickClockHz = 240000

// SoftTicker implements TickSource on top of the timer list for boards whose
// period/compare timer is not wired to an interrupt. The stimulus source fires
// at the start of each tick and the sample source Compare counts later; both
// are driven from ProcessTimers in the main loop.
type SoftTicker struct {
	period   uint32 // timer ticks
	compare  uint32 // timer ticks
	handlers [2]func()
	enabled  [2]bool
	timers   [2]Timer
	base     uint32 // wake time of the next tick start
}

// NewSoftTicker creates a ticker with the given period and compare counts
func NewSoftTicker(period, compare uint16) *SoftTicker {
	s := &SoftTicker{}
	s.WritePeriod(period)
	s.WriteCompare(compare)
	for i := range s.timers {
		src := IRQSource(i)
		s.timers[i].Handler = func(t *Timer) uint8 { return s.fire(src, t) }
	}
	return s
}

func countsToTicks(counts uint16) uint32 {
	t := uint32(uint64(counts) * TimerFreq / TickClockHz)
	if t == 0 {
		t = 1
	}
	return t
}

// WritePeriod sets the tick period in TickClockHz counts
func (s *SoftTicker) WritePeriod(counts uint16) {
	s.period = countsToTicks(counts)
}

// WriteCompare sets the stimulus-to-sample delay in TickClockHz counts
func (s *SoftTicker) WriteCompare(counts uint16) {
	s.compare = countsToTicks(counts)
}

// Attach installs the handler of a source
func (s *SoftTicker) Attach(src IRQSource, handler func()) {
	s.handlers[src] = handler
}

// Enable starts a source. When both sources are enabled back to back they
// share the same tick start.
func (s *SoftTicker) Enable(src IRQSource) {
	if s.enabled[src] {
		return
	}
	if !s.enabled[IRQStimulus] && !s.enabled[IRQSample] {
		s.base = GetTime() + s.period
	}
	s.enabled[src] = true
	t := &s.timers[src]
	t.WakeTime = s.base
	if src == IRQSample {
		t.WakeTime += s.compare
	}
	ScheduleTimer(t)
}

// Disable stops a source
func (s *SoftTicker) Disable(src IRQSource) {
	if !s.enabled[src] {
		return
	}
	s.enabled[src] = false
	DeleteTimer(&s.timers[src])
}

func (s *SoftTicker) fire(src IRQSource, t *Timer) uint8 {
	if !s.enabled[src] {
		return SF_DONE
	}
	if late := currentTime - t.WakeTime; late >= s.period {
		RecordTiming(EvtTimerPast, uint8(src), currentTime, late, 0)
	}
	if h := s.handlers[src]; h != nil {
		h()
	}
	if !s.enabled[src] {
		return SF_DONE
	}
	t.WakeTime += s.period
	if src == IRQStimulus {
		s.base = t.WakeTime
	}
	return SF_RESCHEDULE
}
