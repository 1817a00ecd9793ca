package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pstat/protocol"
)

type pipeRig struct {
	*rig
	pool  *BufferPool
	notes notifier
	pipe  *Pipeline
}

func newPipeRig() *pipeRig {
	cfg := DefaultConfig()
	r := &pipeRig{rig: newRig(), pool: NewBufferPool(cfg.Channels, cfg.MaxLUTSize)}
	r.pipe = NewPipeline(cfg, r.pool, r.stim, r.adc, r.ticks, &r.notes)
	return r
}

// counter makes the fake ADC return 0, 1, 2, ... on successive reads
func (r *pipeRig) counter() {
	n := int16(0)
	r.adc.next = func() int16 {
		v := n
		n++
		return v
	}
}

func (r *pipeRig) drainNotes() []string {
	var out []string
	for {
		ch, ok := r.notes.take()
		if !ok {
			return out
		}
		out = append(out, string(appendNote(nil, ch)))
	}
}

func TestStreamFillsAndRotates(t *testing.T) {
	r := newPipeRig()
	r.adc.value = 123

	require.NoError(t, r.pipe.ArmStream(2048, 1000))
	assert.Equal(t, uint16(2048), r.stim.code)
	assert.False(t, r.stim.asleep)
	assert.Equal(t, 2002, r.pool.BufferSizeBytes())

	r.ticks.run(999)
	assert.Empty(t, r.drainNotes())
	assert.Equal(t, 0, r.pipe.CurrentStreamingChannel())

	r.ticks.tick()
	assert.Equal(t, Sentinel, r.pool.bufs[0][1000])
	assert.Equal(t, uint16(123), r.pool.bufs[0][999])
	assert.Equal(t, []string{"Done0\r\n"}, r.drainNotes())
	assert.Equal(t, 1, r.pipe.CurrentStreamingChannel())
	assert.True(t, r.pipe.Running())

	// the stimulus source stays off in stream mode
	assert.False(t, r.ticks.enabled[IRQStimulus])
	assert.Len(t, r.stim.writes, 1)
}

func TestStreamWrapsChannels(t *testing.T) {
	r := newPipeRig()
	require.NoError(t, r.pipe.ArmStream(2048, 10))

	r.ticks.run(10 * DefaultChannels)
	assert.Equal(t, []string{"Done0\r\n", "Done1\r\n", "Done2\r\n", "Done3\r\n"}, r.drainNotes())
	assert.Equal(t, 0, r.pipe.CurrentStreamingChannel())

	// buffer 0 is being refilled, the others are exportable
	_, err := r.pool.ExportStream(0)
	assert.ErrorIs(t, err, ErrBufferBusy)
	for ch := 1; ch < DefaultChannels; ch++ {
		data, err := r.pool.ExportStream(ch)
		require.NoError(t, err)
		assert.Len(t, data, 22)
	}
}

func TestSweepRun(t *testing.T) {
	r := newPipeRig()
	r.counter()
	table := NewWaveform(DefaultMaxLUTSize)
	require.NoError(t, NewGenerator(DefaultConfig()).Sweep(table, SweepParams{
		Start: 1000, End: 1010, Sweep: SweepLinear, Polarity: StartAtRequestedValue,
	}))

	require.NoError(t, r.pipe.ArmSweep(table))
	assert.Equal(t, uint16(1000), r.stim.code, "stimulus is preset to the first entry")

	r.ticks.run(9)
	assert.True(t, r.pipe.Running())
	assert.Equal(t, 9, r.pipe.State().Index)

	r.ticks.tick()
	assert.False(t, r.pipe.Running())
	assert.True(t, r.stim.asleep)
	assert.False(t, r.ticks.anyEnabled())
	assert.Equal(t, []string{"Done\r\n"}, r.drainNotes())
	assert.Equal(t, 0, r.pipe.State().Index)

	// preset write, then one write per entry
	require.Len(t, r.stim.writes, 11)
	assert.Equal(t, table.Codes(), r.stim.writes[1:])

	data, err := r.pool.Export(0)
	require.NoError(t, err)
	codes := protocol.DecodeCodes(data)
	require.Len(t, codes, 11)
	for i := 0; i < 10; i++ {
		assert.Equal(t, uint16(i), codes[i], "sample %d", i)
	}
	assert.Equal(t, Sentinel, codes[10])

	// more ticks after completion change nothing
	r.ticks.run(5)
	assert.Empty(t, r.drainNotes())
}

func TestSweepSentinelScenario(t *testing.T) {
	r := newPipeRig()
	table := NewWaveform(DefaultMaxLUTSize)
	require.NoError(t, NewGenerator(DefaultConfig()).Sweep(table, SweepParams{
		Start: 100, End: 500, Sweep: SweepLinear, Polarity: StartAtZero,
	}))
	require.NoError(t, r.pipe.ArmSweep(table))
	r.ticks.run(table.Len())

	assert.Equal(t, Sentinel, r.pool.bufs[0][table.Len()])
	assert.Equal(t, table.Len(), r.pool.length[0])
	assert.Equal(t, 2*(table.Len()+1), r.pool.BufferSizeBytes())
}

func TestSampleClamping(t *testing.T) {
	r := newPipeRig()
	r.adc.value = -16384
	require.NoError(t, r.pipe.ArmStream(2048, 3))
	r.ticks.run(3)

	data, err := r.pool.Export(0)
	require.NoError(t, err)
	codes := protocol.DecodeCodes(data)
	assert.Equal(t, []uint16{0xF800, 0xF800, 0xF800, Sentinel}, codes)
}

func TestWideSampleSaturatesAboveSentinel(t *testing.T) {
	for _, bits := range []int{MaxSampleBits, MaxSampleBits + 1} {
		cfg := DefaultConfig()
		cfg.SampleBits = bits
		r := newPipeRig()
		r.adc.value = -20000
		r.pipe = NewPipeline(cfg, r.pool, r.stim, r.adc, r.ticks, &r.notes)

		require.NoError(t, r.pipe.ArmStream(2048, 2))
		r.ticks.run(2)

		data, err := r.pool.Export(0)
		require.NoError(t, err)
		codes := protocol.DecodeCodes(data)
		require.Len(t, codes, 3, "%d bits", bits)
		assert.NotEqual(t, Sentinel, codes[0], "%d bits", bits)
		assert.NotEqual(t, Sentinel, codes[1], "%d bits", bits)
		assert.Equal(t, Sentinel, codes[2])
	}
}

func TestResetIdempotent(t *testing.T) {
	ClearTimingRing()
	r := newPipeRig()

	r.pipe.Reset()
	assert.True(t, r.stim.asleep)
	assert.False(t, r.pipe.Running())
	assert.Empty(t, TimingEvents(), "resetting an idle pipeline records nothing")

	require.NoError(t, r.pipe.ArmStream(2048, 100))
	r.ticks.run(50)
	r.pipe.Reset()
	r.pipe.Reset()

	st := r.pipe.State()
	assert.False(t, st.Armed)
	assert.Equal(t, 0, st.Index)
	assert.False(t, r.ticks.anyEnabled())
	assert.True(t, r.stim.asleep)

	resets := 0
	for _, e := range TimingEvents() {
		if e.EventType == EvtReset {
			resets++
		}
	}
	assert.Equal(t, 1, resets)

	r.ticks.run(100)
	assert.Empty(t, r.drainNotes())
}

func TestRearmWhileRunning(t *testing.T) {
	r := newPipeRig()
	require.NoError(t, r.pipe.ArmStream(2048, 100))
	r.ticks.run(40)

	table := NewWaveform(DefaultMaxLUTSize)
	require.NoError(t, NewGenerator(DefaultConfig()).Chrono(table, []Segment{{Code: 3000, Ticks: 5}}))
	require.NoError(t, r.pipe.ArmSweep(table))

	st := r.pipe.State()
	assert.Equal(t, ModeSweep, st.Mode)
	assert.Equal(t, 0, st.Index)
	assert.Equal(t, 0, st.Channel)
	assert.Equal(t, 5, st.TargetLength)

	r.ticks.run(5)
	assert.Equal(t, []string{"Done\r\n"}, r.drainNotes())
}

func TestArmRejectsBadRequests(t *testing.T) {
	r := newPipeRig()
	assert.ErrorIs(t, r.pipe.ArmSweep(NewWaveform(10)), ErrEmptyTable)
	assert.ErrorIs(t, r.pipe.ArmSweep(nil), ErrEmptyTable)
	assert.ErrorIs(t, r.pipe.ArmStream(2048, 0), ErrBadLength)
	assert.ErrorIs(t, r.pipe.ArmStream(2048, DefaultMaxLUTSize+1), ErrBadLength)
	assert.False(t, r.pipe.Running())
}

func TestExportErrors(t *testing.T) {
	r := newPipeRig()

	_, err := r.pool.Export(DefaultChannels)
	assert.ErrorIs(t, err, ErrBadChannel)
	_, err = r.pool.Export(-1)
	assert.ErrorIs(t, err, ErrBadChannel)
	_, err = r.pool.Export(2)
	assert.ErrorIs(t, err, ErrBufferNotReady)

	require.NoError(t, r.pipe.ArmStream(2048, 20))
	r.ticks.run(5)
	_, err = r.pool.Export(0)
	assert.ErrorIs(t, err, ErrBufferBusy)

	r.ticks.run(35)
	_, err = r.pool.Export(0)
	assert.NoError(t, err)

	// a fill of a different length is not a stream buffer for the new target
	require.NoError(t, r.pipe.ArmStream(2048, 30))
	_, err = r.pool.ExportStream(0)
	assert.ErrorIs(t, err, ErrBufferBusy)
	_, err = r.pool.ExportStream(1)
	assert.ErrorIs(t, err, ErrBufferNotReady)
	_, err = r.pool.Export(1)
	assert.NoError(t, err)
}

func TestNotifierOverflow(t *testing.T) {
	var n notifier
	for i := 0; i < noteQueueSize+3; i++ {
		n.post(int8(i % 4))
	}
	assert.Equal(t, uint32(3), n.dropped)

	count := 0
	for {
		if _, ok := n.take(); !ok {
			break
		}
		count++
	}
	assert.Equal(t, noteQueueSize, count)
}
