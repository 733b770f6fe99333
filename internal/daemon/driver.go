package daemon

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmylchreest/fademix/internal/mixer"
)

// ErrStopped is returned by Do once the driver loop has exited.
var ErrStopped = errors.New("driver stopped")

// ErrRunning is returned by Run when the loop is already running.
var ErrRunning = errors.New("driver already running")

// Dispatcher delivers completion notifications queued by the output.
type Dispatcher interface {
	Dispatch() int
}

// Driver owns a mixer and runs it on a single goroutine. Each tick
// dispatches pending completions and then advances every fade effect.
// Other goroutines reach the mixer only through Do.
type Driver struct {
	logger     *slog.Logger
	mixer      *mixer.Mixer
	dispatcher Dispatcher
	tick       time.Duration
	tickHook   func(*mixer.Mixer)

	cmds  chan command
	done  chan struct{}
	ticks atomic.Uint64

	mu      sync.Mutex
	running bool
}

type command struct {
	fn   func(*mixer.Mixer)
	done chan struct{}
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithTickHook sets a function run on the driver goroutine after every tick.
func WithTickHook(fn func(*mixer.Mixer)) DriverOption {
	return func(d *Driver) {
		d.tickHook = fn
	}
}

// NewDriver creates a driver for mx. dispatcher may be nil.
func NewDriver(mx *mixer.Mixer, dispatcher Dispatcher, tick time.Duration, logger *slog.Logger, opts ...DriverOption) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	if tick <= 0 {
		tick = 16 * time.Millisecond
	}

	d := &Driver{
		logger:     logger,
		mixer:      mx,
		dispatcher: dispatcher,
		tick:       tick,
		cmds:       make(chan command),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Tick returns the tick interval.
func (d *Driver) Tick() time.Duration {
	return d.tick
}

// Ticks returns the number of ticks run so far.
func (d *Driver) Ticks() uint64 {
	return d.ticks.Load()
}

// Done is closed when Run returns.
func (d *Driver) Done() <-chan struct{} {
	return d.done
}

// Run drives the mixer until ctx is cancelled. The mixer is released on
// the way out, so a driver runs once.
func (d *Driver) Run(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return ErrRunning
	}
	d.running = true
	d.mu.Unlock()

	defer close(d.done)
	defer d.mixer.Release()

	ticker := time.NewTicker(d.tick)
	defer ticker.Stop()

	d.logger.Debug("driver started", "tick", d.tick)

	for {
		select {
		case <-ctx.Done():
			d.logger.Debug("driver stopped", "ticks", d.Ticks())
			return nil
		case cmd := <-d.cmds:
			cmd.fn(d.mixer)
			close(cmd.done)
		case <-ticker.C:
			d.Step()
		}
	}
}

// Step runs a single tick. Only call it from the goroutine that owns the
// mixer: inside Do, or when the loop is not running.
func (d *Driver) Step() {
	if d.dispatcher != nil {
		d.dispatcher.Dispatch()
	}
	d.mixer.Update()
	d.ticks.Add(1)

	if d.tickHook != nil {
		d.tickHook(d.mixer)
	}
}

// Do runs fn on the driver goroutine and waits for it to finish.
func (d *Driver) Do(ctx context.Context, fn func(*mixer.Mixer)) error {
	cmd := command{fn: fn, done: make(chan struct{})}

	select {
	case d.cmds <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	case <-d.done:
		return ErrStopped
	}

	select {
	case <-cmd.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-d.done:
		return ErrStopped
	}
}
