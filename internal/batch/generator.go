// Package batch implements the Batch Generator (spec.md §4.5): a
// tick-gated loop that synthesizes a new toy process on a fixed cadence
// and hands it to whatever accepts new processes (the scheduler).
//
// The generated program template is grounded on
// original_source/os-emulator/process.cpp's generateRandomInstructions:
// declare x, y, z; wrap three ADD+PRINT pairs (padded to six
// instructions with NOOP) in a single FOR(100); pad the remainder with
// NOOP to reach the requested instruction count (SPEC_FULL.md's
// SUPPLEMENTED FEATURES).
package batch

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/stinson122/csopesy-os-emulator/internal/logging"
	"github.com/stinson122/csopesy-os-emulator/internal/process"
	"github.com/stinson122/csopesy-os-emulator/internal/runtime"
)

// Sink accepts a newly generated process. The scheduler satisfies this.
type Sink interface {
	AddProcess(p *process.Process) error
}

// Config controls spawn cadence and generated program size (spec.md §6:
// batch-process-freq, min-ins, max-ins).
type Config struct {
	Frequency       uint64 // ticks between spawns
	MinInstructions int
	MaxInstructions int
}

// Generator drives the batch-spawn loop. Start/Stop are idempotent
// (spec.md §4.5).
type Generator struct {
	cfg  Config
	rt   *runtime.Runtime
	sink Sink
	log  *logging.Logger
	rng  *rand.Rand

	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	wg       sync.WaitGroup
	counter  int
}

// New builds a Generator. It does not start spawning until Start.
func New(cfg Config, rt *runtime.Runtime, sink Sink, log *logging.Logger) *Generator {
	return &Generator{
		cfg:  cfg,
		rt:   rt,
		sink: sink,
		log:  log.With("batch"),
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start launches the spawn loop. A second call while running is a no-op.
func (g *Generator) Start() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		return
	}
	g.running = true
	g.stopCh = make(chan struct{})
	g.wg.Add(1)
	go g.loop(g.stopCh)
}

// Stop halts the spawn loop and joins it. In-flight processes already
// handed to the sink are not recalled (spec.md §4.5: "stopping does not
// cancel in-flight processes").
func (g *Generator) Stop() {
	g.mu.Lock()
	if !g.running {
		g.mu.Unlock()
		return
	}
	close(g.stopCh)
	g.running = false
	g.mu.Unlock()
	g.wg.Wait()
}

func (g *Generator) loop(done <-chan struct{}) {
	defer g.wg.Done()

	recorded := g.rt.Tick()
	for {
		for g.rt.Tick()-recorded < g.cfg.Frequency {
			select {
			case <-done:
				return
			case <-time.After(runtime.TickInterval / 4):
			}
		}

		g.mu.Lock()
		g.counter++
		n := g.counter
		g.mu.Unlock()

		name := fmt.Sprintf("p%d", n)
		count := g.randomInstructionCount()
		p := process.New(name, GenerateProgram(count))

		if err := g.sink.AddProcess(p); err != nil {
			g.log.Warn("batch spawn rejected", zap.String("process", name), zap.Error(err))
		} else {
			g.log.Info("batch spawned", zap.String("process", name), zap.Int("instructions", count))
		}

		recorded = g.rt.Tick()
	}
}

func (g *Generator) randomInstructionCount() int {
	lo, hi := g.cfg.MinInstructions, g.cfg.MaxInstructions
	if hi <= lo {
		return lo
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return lo + g.rng.Intn(hi-lo+1)
}

// GenerateProgram builds the standard toy program: DECLARE x,y,z; a
// single FOR(100) wrapping three ADD+PRINT pairs padded to six
// instructions with NOOP; then NOOP padding out to total instructions.
// If total is smaller than the 10-instruction template, the FOR loop is
// left out: the program is up to three DECLAREs padded with NOOP to
// exactly total (a process always has at least one instruction).
func GenerateProgram(total int) []process.Instruction {
	if total < 1 {
		total = 1
	}

	prefix := []process.Instruction{
		process.Declare("x", 0),
		process.Declare("y", 0),
		process.Declare("z", 0),
		process.For(100),
		process.Add("x", process.Ref("x"), process.Lit(1)),
		process.Print("Value from: x = ", "x"),
		process.Add("y", process.Ref("y"), process.Lit(1)),
		process.Print("Value from: y = ", "y"),
		process.Add("z", process.Ref("z"), process.Lit(1)),
		process.Print("Value from: z = ", "z"),
	}

	// A truncated FOR (fewer than its 6-instruction body) is well-formed
	// but pointless, so short random programs skip the loop template
	// entirely and are just DECLAREs padded with NOOP.
	if total < len(prefix) {
		program := make([]process.Instruction, 0, total)
		for _, name := range []string{"x", "y", "z"} {
			if len(program) >= total {
				break
			}
			program = append(program, process.Declare(name, 0))
		}
		for len(program) < total {
			program = append(program, process.Noop())
		}
		return program
	}

	program := make([]process.Instruction, 0, total)
	program = append(program, prefix...)
	for len(program) < total {
		program = append(program, process.Noop())
	}
	return program
}
