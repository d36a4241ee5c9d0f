// Package runtime provides the shared tick source and cancellation signal
// every other component reads instead of sampling the wall clock or a
// global mutable singleton.
package runtime

import (
	"sync"
	"sync/atomic"
	"time"
)

// TickInterval is the wall-clock period of one tick, per spec.md §2.
const TickInterval = 100 * time.Millisecond

// Runtime is the explicit context passed into every component that needs
// to read the current tick or check for shutdown. It owns no scheduling
// state of its own beyond the tick counter and the stop flag.
type Runtime struct {
	tick           atomic.Uint64
	stopRequested  atomic.Bool
	globalQuantum  atomic.Uint64
	ticker         *time.Ticker
	stopTickerOnce sync.Once
	done           chan struct{}
}

// New creates a Runtime with its tick counter at zero. The tick source
// does not start advancing until Start is called.
func New() *Runtime {
	return &Runtime{done: make(chan struct{})}
}

// Start launches the background goroutine that advances the tick counter
// every TickInterval. Calling Start more than once is a no-op.
func (r *Runtime) Start() {
	if r.ticker != nil {
		return
	}
	r.ticker = time.NewTicker(TickInterval)
	go func() {
		for {
			select {
			case <-r.ticker.C:
				r.tick.Add(1)
			case <-r.done:
				return
			}
		}
	}()
}

// Stop halts the tick source. Idempotent.
func (r *Runtime) Stop() {
	r.stopTickerOnce.Do(func() {
		if r.ticker != nil {
			r.ticker.Stop()
		}
		close(r.done)
	})
}

// Tick returns the current tick count. This is the single source of
// truth for all time-dependent decisions in the emulator.
func (r *Runtime) Tick() uint64 {
	return r.tick.Load()
}

// AdvanceForTest bumps the tick counter directly, bypassing the ticker.
// Used by deterministic tests that don't want to wait on wall-clock time.
func (r *Runtime) AdvanceForTest(n uint64) {
	r.tick.Add(n)
}

// RequestStop sets the global stop flag, readable via StopRequested. The
// scheduler and batch loops do not read this flag; they stop when their
// own done channels are closed.
func (r *Runtime) RequestStop() {
	r.stopRequested.Store(true)
}

// ClearStop resets the stop flag so the scheduler can be started again.
func (r *Runtime) ClearStop() {
	r.stopRequested.Store(false)
}

// StopRequested reports whether shutdown has been requested.
func (r *Runtime) StopRequested() bool {
	return r.stopRequested.Load()
}

// IncrementQuantum advances the global quantum counter by one and
// returns the new value. Used by workers after every instruction executed
// under RR to decide when a memory snapshot is due (spec.md §4.4 step 8).
func (r *Runtime) IncrementQuantum() uint64 {
	return r.globalQuantum.Add(1)
}

// GlobalQuantum returns the current global quantum counter value.
func (r *Runtime) GlobalQuantum() uint64 {
	return r.globalQuantum.Load()
}
