package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"pstat/core"
	"pstat/host/config"
)

// PollInterval is how often the runner advances the clock and polls the instrument
const PollInterval = time.Millisecond

const rxQueue = 64

// Runner drives a simulated instrument from host bytes. The firmware core keeps
// its clock and timer list in package state, so only one Runner may be active
// in a process.
type Runner struct {
	cfg   *config.Config
	board *Board
	link  *Link
	store *EEPROM
	ticks *core.SoftTicker
	inst  *core.Instrument

	src io.Reader
	rx  chan []byte
	eof atomic.Bool

	logger *log.Logger

	closeOnce sync.Once
	closeErr  error
}

// NewRunner builds the board, its drivers and the instrument. Replies go to
// dst; src may be nil when input only arrives through Inject.
func NewRunner(cfg *config.Config, src io.Reader, dst io.Writer, logger *log.Logger) (*Runner, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}

	var store *EEPROM
	if cfg.Storage.EEPROMFile != "" {
		var err error
		store, err = OpenEEPROM(cfg.Storage.EEPROMFile, cfg.Storage.EEPROMSize)
		if err != nil {
			return nil, err
		}
	} else {
		store = NewEEPROM(cfg.Storage.EEPROMSize)
	}

	core.SetTime(0)
	core.TimerInit()

	c := cfg.Core()
	r := &Runner{
		cfg:    cfg,
		board:  NewBoard(cfg),
		link:   NewLink(dst),
		store:  store,
		ticks:  core.NewSoftTicker(c.Period, c.Compare),
		src:    src,
		rx:     make(chan []byte, rxQueue),
		logger: logger,
	}

	inst, err := core.NewInstrument(c, core.Drivers{
		Stimulus:  r.board.Stimulus(),
		Sample:    r.board.ADC(),
		Ticks:     r.ticks,
		Link:      r.link,
		Reference: r.board.Reference(),
		FrontEnd:  r.board.FrontEnd(),
		Store:     store,
		Display:   &LogDisplay{Logger: logger},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start instrument: %w", err)
	}
	r.inst = inst
	return r, nil
}

// Instrument returns the firmware instance
func (r *Runner) Instrument() *core.Instrument { return r.inst }

// Board returns the simulated hardware
func (r *Runner) Board() *Board { return r.board }

// Inject queues host bytes. Safe to call from another goroutine.
func (r *Runner) Inject(b []byte) {
	r.rx <- append([]byte(nil), b...)
}

// Step moves the clock to now (microseconds) and runs one main-loop pass
func (r *Runner) Step(now uint32) {
drain:
	for {
		select {
		case b := <-r.rx:
			r.link.Feed(b)
		default:
			break drain
		}
	}
	core.SetTime(now)
	r.inst.Poll()
}

// idle reports that the input is exhausted and nothing is left to do
func (r *Runner) idle() bool {
	return r.eof.Load() && len(r.rx) == 0 && r.link.Available() == 0 && !r.inst.Pipeline().Running()
}

// Run polls the instrument in real time until src is exhausted and the last
// acquisition has finished, or ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	if r.src != nil {
		g.Go(func() error { return r.readLoop(ctx) })
	}
	g.Go(func() error { return r.loop(ctx) })
	return g.Wait()
}

func (r *Runner) readLoop(ctx context.Context) error {
	defer r.eof.Store(true)
	buf := make([]byte, 256)
	for {
		n, err := r.src.Read(buf)
		if n > 0 {
			select {
			case r.rx <- append([]byte(nil), buf[:n]...):
			case <-ctx.Done():
				return nil
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to read host input: %w", err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (r *Runner) loop(ctx context.Context) error {
	// a blocked Read only returns once its source is closed
	defer func() {
		if !r.eof.Load() {
			r.closeSource()
		}
	}()

	start := time.Now()
	t := time.NewTicker(PollInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
		r.Step(uint32(time.Since(start) / time.Microsecond))
		if r.src != nil && r.idle() {
			return nil
		}
	}
}

// Close closes the input source when it is closable and flushes the EEPROM
// image. The output belongs to the caller.
func (r *Runner) Close() error {
	return multierr.Append(r.closeSource(), r.store.flush())
}

func (r *Runner) closeSource() error {
	r.closeOnce.Do(func() {
		if c, ok := r.src.(io.Closer); ok {
			r.closeErr = c.Close()
		}
	})
	return r.closeErr
}
