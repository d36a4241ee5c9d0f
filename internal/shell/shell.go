// Package shell implements the interactive command surface spec.md §6
// lists as an external collaborator: initialize, scheduler-start,
// scheduler-stop, screen -s/-r/-ls, report-util, clear, exit. Grounded
// on original_source/os-emulator/main.cpp's command loop, including its
// "current screen" attach/detach behavior for screen -s / -r
// (SPEC_FULL.md's SUPPLEMENTED FEATURES).
package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/stinson122/csopesy-os-emulator/internal/batch"
	"github.com/stinson122/csopesy-os-emulator/internal/config"
	"github.com/stinson122/csopesy-os-emulator/internal/logging"
	"github.com/stinson122/csopesy-os-emulator/internal/memory"
	"github.com/stinson122/csopesy-os-emulator/internal/process"
	"github.com/stinson122/csopesy-os-emulator/internal/report"
	"github.com/stinson122/csopesy-os-emulator/internal/runtime"
	"github.com/stinson122/csopesy-os-emulator/internal/scheduler"
)

// ErrNotInitialized mirrors spec.md §7: any command other than
// "initialize" or "exit" issued beforehand is rejected without state
// change.
var ErrNotInitialized = errors.New("not initialized: run \"initialize\" first")

// Environment is built once the operator runs "initialize" and holds
// every live component.
type Environment struct {
	Config    config.Config
	Runtime   *runtime.Runtime
	Memory    *memory.Manager
	Scheduler *scheduler.Scheduler
	Batch     *batch.Generator
	Log       *logging.Logger
}

// BuildEnvironment wires a full Environment from a loaded configuration,
// per SPEC_FULL.md's MODULE MAP.
func BuildEnvironment(cfg config.Config, log *logging.Logger) *Environment {
	rt := runtime.New()
	mem := memory.New(cfg.MaxOverallMem, log)

	policy := scheduler.FCFS
	if strings.EqualFold(cfg.Scheduler, "rr") {
		policy = scheduler.RR
	}

	sched := scheduler.New(scheduler.Config{
		NumCores:      cfg.NumCPU,
		Policy:        policy,
		QuantumCycles: cfg.QuantumCycles,
		DelayPerExec:  cfg.DelayPerExec,
		ProcMemory:    cfg.MemPerProc,
	}, rt, mem, log)

	sched.OnSnapshot(func(quantum uint64) {
		snap := mem.TakeSnapshot(quantum, report.Now())
		if err := report.WriteMemorySnapshot(snap); err != nil {
			log.Warn("failed to write memory snapshot", zap.Error(err))
		}
	})

	gen := batch.New(batch.Config{
		Frequency:       cfg.BatchProcessFreq,
		MinInstructions: cfg.MinInstructions,
		MaxInstructions: cfg.MaxInstructions,
	}, rt, sched, log)

	return &Environment{Config: cfg, Runtime: rt, Memory: mem, Scheduler: sched, Batch: gen, Log: log}
}

// Shell is the REPL: it reads commands from in and writes responses to
// out, dispatching to an Environment built lazily by "initialize".
type Shell struct {
	in     *bufio.Scanner
	out    io.Writer
	log    *logging.Logger
	cfgSrc func() (config.Config, error)

	env           *Environment
	currentScreen string // name of the process the shell is "attached" to; empty when detached
}

// New builds a Shell reading commands from in and writing to out.
// cfgSrc loads the configuration record on "initialize".
func New(in io.Reader, out io.Writer, log *logging.Logger, cfgSrc func() (config.Config, error)) *Shell {
	return &Shell{in: bufio.NewScanner(in), out: out, log: log, cfgSrc: cfgSrc}
}

// Run reads and dispatches commands until "exit" or EOF. It returns the
// process exit code per spec.md §6: 0 on a clean exit.
func (s *Shell) Run() int {
	fmt.Fprint(s.out, bannerText)
	for {
		fmt.Fprint(s.out, "> ")
		if !s.in.Scan() {
			return 0
		}
		line := strings.TrimSpace(s.in.Text())
		if line == "" {
			continue
		}
		if line == "exit" {
			s.shutdown()
			return 0
		}
		if err := s.dispatch(line); err != nil {
			fmt.Fprintln(s.out, "error:", err)
		}
	}
}

func (s *Shell) shutdown() {
	if s.env == nil {
		return
	}
	if s.env.Scheduler.IsRunning() {
		s.env.Batch.Stop()
		s.env.Scheduler.Stop()
	}
	s.env.Runtime.Stop()
}

func (s *Shell) dispatch(line string) error {
	fields := strings.Fields(line)
	cmd := fields[0]
	args := fields[1:]

	if cmd == "initialize" {
		return s.cmdInitialize()
	}
	if s.env == nil {
		return ErrNotInitialized
	}

	switch cmd {
	case "scheduler-start":
		return s.cmdSchedulerStart()
	case "scheduler-stop":
		return s.cmdSchedulerStop()
	case "screen":
		return s.cmdScreen(args)
	case "report-util":
		return s.cmdReportUtil()
	case "clear":
		return s.cmdClear()
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func (s *Shell) cmdInitialize() error {
	cfg, err := s.cfgSrc()
	if err != nil && !errors.Is(err, config.ErrConfigurationMissing) {
		return err
	}
	if errors.Is(err, config.ErrConfigurationMissing) {
		fmt.Fprintln(s.out, "warning:", err)
	}
	s.env = BuildEnvironment(cfg, s.log)
	s.env.Runtime.Start()
	fmt.Fprintln(s.out, "initialized with", cfg.NumCPU, "cores,", cfg.Scheduler, "scheduler")
	return nil
}

func (s *Shell) cmdSchedulerStart() error {
	s.env.Scheduler.Start()
	s.env.Batch.Start()
	fmt.Fprintln(s.out, "scheduler started")
	return nil
}

func (s *Shell) cmdSchedulerStop() error {
	s.env.Batch.Stop()
	s.env.Scheduler.Stop()
	fmt.Fprintln(s.out, "scheduler stopped")
	return nil
}

func (s *Shell) cmdReportUtil() error {
	return report.WriteStatusToFile(s.env.Scheduler)
}

func (s *Shell) cmdClear() error {
	s.currentScreen = ""
	fmt.Fprint(s.out, "\033[H\033[2J")
	return nil
}

// cmdScreen implements screen -s <name>, screen -r <name>, screen -ls,
// per original_source/os-emulator/main.cpp.
func (s *Shell) cmdScreen(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: screen -s <name> | screen -r <name> | screen -ls")
	}

	switch args[0] {
	case "-ls":
		return report.WriteStatus(s.out, s.env.Scheduler)

	case "-s":
		if len(args) < 2 {
			return errors.New("usage: screen -s <name>")
		}
		name := args[1]
		count := s.env.Config.MaxInstructions
		if count < s.env.Config.MinInstructions {
			count = s.env.Config.MinInstructions
		}
		p := process.New(name, batch.GenerateProgram(count))
		if err := s.env.Scheduler.AddProcess(p); err != nil {
			return err
		}
		s.currentScreen = name
		fmt.Fprintf(s.out, "attached to %s\n", name)
		return nil

	case "-r":
		if len(args) < 2 {
			return errors.New("usage: screen -r <name>")
		}
		name := args[1]
		p, err := s.env.Scheduler.Lookup(name)
		if err != nil {
			return err
		}
		if p.State() == process.Finished {
			return fmt.Errorf("screen -r %s: %w", name, scheduler.ErrUnknownProcess)
		}
		s.currentScreen = name
		fmt.Fprintf(s.out, "attached to %s (%s)\n", name, p.State())
		for _, line := range p.Log() {
			fmt.Fprint(s.out, line)
		}
		return nil

	default:
		return fmt.Errorf("unknown screen option: %s", args[0])
	}
}

const bannerText = `
   ____ ____   ___  ____  _____ ______   __
  / ___/ ___| / _ \|  _ \| ____/ ___\ \ / /
 | |   \___ \| | | | |_) |  _| \___ \\ V /
 | |___ ___) | |_| |  __/| |___ ___) || |
  \____|____/ \___/|_|   |_____|____/ |_|

  multi-core scheduler emulator
`
