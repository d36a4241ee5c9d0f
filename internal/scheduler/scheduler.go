// Package scheduler ties together the Ready Queue, Dispatcher, and
// per-core Workers (spec.md §4.3, §4.4, §5), grounded on
// original_source/os-emulator/scheduler.cpp's schedule()/worker() loops
// and the teacher's mutex-per-resource discipline.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/stinson122/csopesy-os-emulator/internal/logging"
	"github.com/stinson122/csopesy-os-emulator/internal/memory"
	"github.com/stinson122/csopesy-os-emulator/internal/process"
	"github.com/stinson122/csopesy-os-emulator/internal/runtime"
)

// Policy selects the core-assignment discipline.
type Policy string

const (
	FCFS Policy = "fcfs"
	RR   Policy = "rr"
)

// ErrNotInitialized names the NotInitialized condition (spec.md §7). No
// Scheduler method returns it; the shell rejects commands issued before
// "initialize" with its own shell.ErrNotInitialized.
var ErrNotInitialized = errors.New("scheduler not initialized")

// ErrDuplicateProcess is returned when AddProcess is called with a name
// already present in the global process table (spec.md §7).
var ErrDuplicateProcess = errors.New("duplicate process name")

// ErrUnknownProcess is returned when a name has no entry in the global
// process table, or the entry has already finished (spec.md §7).
var ErrUnknownProcess = errors.New("unknown process")

// Config is the subset of the configuration record the scheduler needs.
type Config struct {
	NumCores      int
	Policy        Policy
	QuantumCycles int
	DelayPerExec  uint64
	ProcMemory    uint64
}

// Scheduler owns the ready queue, core slots, finished list, and global
// process table, and drives the Dispatcher + Worker goroutines.
type Scheduler struct {
	cfg Config
	rt  *runtime.Runtime
	mem *memory.Manager
	log *logging.Logger

	queue    *readyQueue
	cores    *coreArray
	finished *finishedList

	tableMu sync.Mutex
	table   map[string]*process.Process

	quantumCounters []int // per-core RR quantum progress

	runMu      sync.Mutex
	running    bool
	stopCh     chan struct{}
	wg         sync.WaitGroup
	onSnapshot func(quantum uint64)
}

// New builds a Scheduler. It does not start any goroutines.
func New(cfg Config, rt *runtime.Runtime, mem *memory.Manager, log *logging.Logger) *Scheduler {
	return &Scheduler{
		cfg:             cfg,
		rt:              rt,
		mem:             mem,
		log:             log.With("scheduler"),
		queue:           newReadyQueue(),
		cores:           newCoreArray(cfg.NumCores),
		finished:        newFinishedList(),
		table:           make(map[string]*process.Process),
		quantumCounters: make([]int, cfg.NumCores),
	}
}

// OnSnapshot registers a callback invoked with the global quantum number
// every time it rolls over a multiple of QuantumCycles (spec.md §4.4
// step 8). Intended for the report package to hook a memory snapshot
// emission without the scheduler importing it directly.
func (s *Scheduler) OnSnapshot(fn func(quantum uint64)) {
	s.onSnapshot = fn
}

// AddProcess registers p in the global process table and enqueues it.
// Returns ErrDuplicateProcess if the name is already taken by a process
// that hasn't finished.
func (s *Scheduler) AddProcess(p *process.Process) error {
	s.tableMu.Lock()
	if existing, ok := s.table[p.Name]; ok && existing.State() != process.Finished {
		s.tableMu.Unlock()
		return ErrDuplicateProcess
	}
	s.table[p.Name] = p
	s.tableMu.Unlock()

	s.queue.enqueue(p)
	return nil
}

// Lookup returns the process registered under name, or
// ErrUnknownProcess.
func (s *Scheduler) Lookup(name string) (*process.Process, error) {
	s.tableMu.Lock()
	defer s.tableMu.Unlock()
	p, ok := s.table[name]
	if !ok {
		return nil, ErrUnknownProcess
	}
	return p, nil
}

// IsRunning reports whether the scheduler's dispatcher/workers are
// active.
func (s *Scheduler) IsRunning() bool {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.running
}

// Start launches the Dispatcher and one Worker per core. Idempotent
// (spec.md §8 property 8): a second call while already running is a
// no-op.
func (s *Scheduler) Start() {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.rt.ClearStop()

	s.wg.Add(1)
	go s.dispatchLoop(s.stopCh)

	for i := 0; i < s.cfg.NumCores; i++ {
		s.wg.Add(1)
		go s.workerLoop(i, s.stopCh)
	}
	s.log.Info("scheduler started", zap.Int("cores", s.cfg.NumCores), zap.String("policy", string(s.cfg.Policy)))
}

// Stop requests shutdown and joins the Dispatcher and all Workers,
// matching spec.md §5's shutdown sequence. Idempotent.
func (s *Scheduler) Stop() {
	s.runMu.Lock()
	if !s.running {
		s.runMu.Unlock()
		return
	}
	close(s.stopCh)
	s.running = false
	s.runMu.Unlock()

	s.wg.Wait()
	s.log.Info("scheduler stopped")
}

// StopAndWaitWithContext is Stop bounded by ctx, for callers (the shell)
// that want a deadline on shutdown.
func (s *Scheduler) StopAndWaitWithContext(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ActiveCores, QueueDepth, RunningSnapshot, and FinishedSnapshot back
// the Status Reporter (spec.md §4.6); see internal/report.

func (s *Scheduler) ActiveCores() int       { return s.cores.activeCount() }
func (s *Scheduler) NumCores() int          { return s.cores.size() }
func (s *Scheduler) QueueDepth() int        { return s.queue.Len() }
func (s *Scheduler) RunningSnapshot() []*process.Process  { return s.cores.snapshot() }
func (s *Scheduler) FinishedSnapshot() []*process.Process { return s.finished.snapshot() }

func (s *Scheduler) maybeSnapshot(quantum uint64) {
	if s.onSnapshot != nil && int(quantum)%s.cfg.QuantumCycles == 0 {
		s.onSnapshot(quantum)
	}
}

func sleepTick(d time.Duration, done <-chan struct{}) bool {
	select {
	case <-time.After(d):
		return true
	case <-done:
		return false
	}
}
