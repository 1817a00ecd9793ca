package core

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearSweep(t *testing.T) {
	g := NewGenerator(DefaultConfig())
	rnd := rand.New(rand.NewSource(1))

	for i := 0; i < 200; i++ {
		start := uint16(rnd.Intn(DefaultDACMax))
		end := start + uint16(1+rnd.Intn(DefaultMaxLUTSize))
		if end > DefaultDACMax {
			end = DefaultDACMax
		}
		if end == start {
			continue
		}
		w := NewWaveform(DefaultMaxLUTSize)
		require.NoError(t, g.Sweep(w, SweepParams{Start: start, End: end, Sweep: SweepLinear, Polarity: StartAtRequestedValue}))

		require.Equal(t, int(end-start), w.Len())
		assert.Equal(t, start, w.At(0))
		assert.Equal(t, end-1, w.At(w.Len()-1), "last code is exclusive")
		for j := 1; j < w.Len(); j++ {
			require.Equal(t, w.At(j-1)+1, w.At(j))
		}
	}
}

func TestLinearSweepDescending(t *testing.T) {
	g := NewGenerator(DefaultConfig())
	w := NewWaveform(DefaultMaxLUTSize)
	require.NoError(t, g.Sweep(w, SweepParams{Start: 3000, End: 1000, Sweep: SweepLinear, Polarity: StartAtRequestedValue}))
	require.Equal(t, 2000, w.Len())
	assert.Equal(t, uint16(3000), w.At(0))
	assert.Equal(t, uint16(1001), w.At(1999))
}

func TestCyclicSweep(t *testing.T) {
	g := NewGenerator(DefaultConfig())
	tests := []struct{ start, end uint16 }{
		{100, 500},
		{2048, 2049},
		{4000, 2000},
		{0, 2500},
	}
	for _, tt := range tests {
		w := NewWaveform(DefaultMaxLUTSize)
		require.NoError(t, g.Sweep(w, SweepParams{Start: tt.start, End: tt.end, Sweep: SweepCyclic, Polarity: StartAtRequestedValue}))

		steps := absDiff(tt.start, tt.end)
		require.Equal(t, 2*steps, w.Len())
		assert.Equal(t, tt.start, w.At(0))
		assert.Equal(t, tt.start, w.At(w.Len()-1))
		codes := w.Codes()
		for i := range codes {
			require.Equal(t, codes[i], codes[len(codes)-1-i], "palindrome at %d", i)
		}
	}
}

func TestStartAtZeroSweep(t *testing.T) {
	cfg := DefaultConfig()
	g := NewGenerator(cfg)
	w := NewWaveform(cfg.MaxLUTSize)

	require.NoError(t, g.Sweep(w, SweepParams{Start: 100, End: 500, Sweep: SweepLinear, Polarity: StartAtZero}))

	assert.Equal(t, 400, w.SweepLen())
	assert.Equal(t, int(cfg.ZeroCode-100), w.Lead())
	assert.Equal(t, cfg.ZeroCode, w.At(0))
	assert.Equal(t, uint16(101), w.At(w.Lead()-1), "lead-in ramps down toward the start code")
	assert.Equal(t, uint16(100), w.At(w.Lead()))
	assert.Equal(t, uint16(499), w.At(w.Len()-1))
}

func TestSweepTooLarge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxLUTSize = 1000
	g := NewGenerator(cfg)
	w := NewWaveform(cfg.MaxLUTSize)

	require.NoError(t, g.Sweep(w, SweepParams{Start: 1000, End: 1500, Sweep: SweepLinear, Polarity: StartAtRequestedValue}))
	before := append([]uint16(nil), w.Codes()...)

	// 600 steps cycled is 1200 entries
	err := g.Sweep(w, SweepParams{Start: 1000, End: 1600, Sweep: SweepCyclic, Polarity: StartAtRequestedValue})
	assert.ErrorIs(t, err, ErrTableTooLarge)

	// lead-in counts against capacity: 1548 + 100
	err = g.Sweep(w, SweepParams{Start: 500, End: 600, Sweep: SweepLinear, Polarity: StartAtZero})
	assert.ErrorIs(t, err, ErrTableTooLarge)

	assert.Equal(t, before, w.Codes(), "rejected request must leave the table untouched")
}

func TestSweepInvalid(t *testing.T) {
	g := NewGenerator(DefaultConfig())
	w := NewWaveform(DefaultMaxLUTSize)

	assert.ErrorIs(t, g.Sweep(w, SweepParams{Start: 0, End: 5000, Sweep: SweepLinear, Polarity: StartAtRequestedValue}), ErrCodeOutOfRange)
	assert.ErrorIs(t, g.Sweep(w, SweepParams{Start: 0, End: 10, Sweep: 'X', Polarity: StartAtRequestedValue}), ErrBadSweepType)
	assert.ErrorIs(t, g.Sweep(w, SweepParams{Start: 0, End: 10, Sweep: SweepLinear, Polarity: 'Q'}), ErrBadPolarity)
	assert.ErrorIs(t, g.Sweep(w, SweepParams{Start: 10, End: 10, Sweep: SweepLinear, Polarity: StartAtRequestedValue}), ErrEmptyTable)
	assert.Equal(t, 0, w.Len())
}

func TestChrono(t *testing.T) {
	g := NewGenerator(DefaultConfig())
	w := NewWaveform(DefaultMaxLUTSize)

	segs := []Segment{{Code: 2048, Ticks: 3}, {Code: 2548, Ticks: 5}, {Code: 2048, Ticks: 2}}
	require.NoError(t, g.Chrono(w, segs))
	assert.Equal(t, []uint16{2048, 2048, 2048, 2548, 2548, 2548, 2548, 2548, 2048, 2048}, w.Codes())

	assert.ErrorIs(t, g.Chrono(w, nil), ErrEmptyTable)
	assert.ErrorIs(t, g.Chrono(w, []Segment{{Code: 1, Ticks: 4000}, {Code: 2, Ticks: 1001}}), ErrTableTooLarge)
	assert.ErrorIs(t, g.Chrono(w, []Segment{{Code: 9999, Ticks: 1}}), ErrCodeOutOfRange)
	assert.Equal(t, 10, w.Len(), "failed builds keep the previous table")
}

func TestSquareWave(t *testing.T) {
	g := NewGenerator(DefaultConfig())
	w := NewWaveform(DefaultMaxLUTSize)

	require.NoError(t, g.SquareWave(w, SquareWaveParams{
		Start: 1000, End: 1030, Inc: 10, Pulse: 25,
		Sweep: SweepLinear, Polarity: StartAtRequestedValue,
	}))
	assert.Equal(t, []uint16{1025, 975, 1035, 985, 1045, 995}, w.Codes())

	require.NoError(t, g.SquareWave(w, SquareWaveParams{
		Start: 10, End: 0, Inc: 4, Pulse: 20,
		Sweep: SweepCyclic, Polarity: StartAtRequestedValue,
	}))
	// steps at 10, 6, 2; low pulses clamp at 0
	assert.Equal(t, []uint16{30, 0, 26, 0, 22, 0, 0, 22, 0, 26, 0, 30}, w.Codes())

	assert.ErrorIs(t, g.SquareWave(w, SquareWaveParams{Start: 0, End: 10, Sweep: SweepLinear, Polarity: StartAtZero}), ErrBadIncrement)
}
