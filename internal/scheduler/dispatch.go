package scheduler

import (
	"time"

	"go.uber.org/zap"

	"github.com/stinson122/csopesy-os-emulator/internal/process"
	"github.com/stinson122/csopesy-os-emulator/internal/runtime"
)

// dispatcherPollInterval is the backoff between polls of the core-slot
// array while every core is busy (spec.md §4.3 step 2).
const dispatcherPollInterval = 10 * time.Millisecond

// dispatchLoop pops the ready queue head and assigns it to the first
// idle core, per spec.md §4.3. Memory allocation is deliberately left
// to the Worker.
func (s *Scheduler) dispatchLoop(done <-chan struct{}) {
	defer s.wg.Done()

	for {
		p := s.queue.dequeue(done)
		if p == nil {
			return // done fired while waiting for work
		}

		assigned := false
		for !assigned {
			select {
			case <-done:
				return
			default:
			}

			core := s.cores.assignFirstIdle(p)
			if core < 0 {
				if !sleepTick(dispatcherPollInterval, done) {
					return
				}
				continue
			}

			p.SetState(process.Running)
			p.SetAssignedCore(core)
			s.quantumCounters[core] = 0
			p.MarkStarted(time.Now())
			assigned = true
			s.log.Info("dispatched", zap.String("process", p.Name), zap.Int("core", core))
		}
	}
}

// workerLoop is the per-core executor: allocate memory, respect sleep,
// execute one step, retire or preempt, per spec.md §4.4.
func (s *Scheduler) workerLoop(core int, done <-chan struct{}) {
	defer s.wg.Done()

	idlePoll := 10 * time.Millisecond

	for {
		select {
		case <-done:
			return
		default:
		}

		p := s.cores.get(core)
		if p == nil {
			if !sleepTick(idlePoll, done) {
				return
			}
			continue
		}

		if p.MemoryRange() == nil {
			if _, err := s.mem.Allocate(p, s.cfg.ProcMemory); err != nil {
				p.SetState(process.Waiting)
				s.cores.clear(core)
				s.queue.enqueue(p)
				s.log.Info("out of memory, requeued", zap.String("process", p.Name))
				continue
			}
		}

		tick := s.rt.Tick()
		beforeTick := tick

		if p.IsSleeping(tick) {
			if !sleepTick(runtime.TickInterval, done) {
				return
			}
			continue
		}

		p.SetState(process.Running)

		result := p.ExecuteOneStep(core, tick)

		if s.cfg.DelayPerExec > 0 {
			target := beforeTick + s.cfg.DelayPerExec
			for s.rt.Tick() < target {
				if !sleepTick(time.Millisecond, done) {
					return
				}
			}
		}

		switch result {
		case process.StepFinished:
			s.mem.Deallocate(p)
			s.finished.add(p)
			s.cores.clear(core)
			s.quantumCounters[core] = 0
			continue
		case process.Sleeping:
			continue
		case process.Advanced:
			if s.cfg.Policy == RR {
				s.quantumCounters[core]++
				q := s.rt.IncrementQuantum()
				s.maybeSnapshot(q)

				if s.quantumCounters[core] >= s.cfg.QuantumCycles {
					p.SetState(process.Waiting)
					s.cores.clear(core)
					s.quantumCounters[core] = 0
					s.queue.enqueue(p)
					s.log.Info("preempted", zap.String("process", p.Name), zap.Int("core", core))
				}
			}
		}
	}
}
