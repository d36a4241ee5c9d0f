// Package report renders the read-only views the core exposes: CPU
// utilization / process status (spec.md §4.6) and memory snapshots
// (spec.md §4.1, §6). Neither the Scheduler nor the Memory Manager
// perform I/O themselves; this package is the "external renderer" the
// spec describes, grounded on
// original_source/os-emulator/scheduler.cpp's printStatus and
// generateMemorySnapshot for the exact literal output formats.
package report

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/stinson122/csopesy-os-emulator/internal/process"
)

// SchedulerView is the read side of the scheduler the Status Reporter
// needs. internal/scheduler.Scheduler satisfies this.
type SchedulerView interface {
	ActiveCores() int
	NumCores() int
	QueueDepth() int
	RunningSnapshot() []*process.Process
	FinishedSnapshot() []*process.Process
}

const timeLayout = "01/02/2006 03:04:05PM"

// Utilization computes the percentage of cores actively Running,
// rounded to the nearest integer (spec.md §4.6).
func Utilization(s SchedulerView) int {
	total := s.NumCores()
	if total == 0 {
		return 0
	}
	active := s.ActiveCores()
	return int((float64(active)/float64(total))*100 + 0.5)
}

// WriteStatus renders the utilization report (spec.md §4.6) to w. The
// caller decides whether w is os.Stdout (report-util's console form) or
// the csopesy-log.txt file.
func WriteStatus(w io.Writer, s SchedulerView) error {
	active := s.ActiveCores()
	total := s.NumCores()

	lines := []string{
		"--------------------------------------",
		fmt.Sprintf("CPU Utilization: %d%%", Utilization(s)),
		fmt.Sprintf("Active Cores: %d", active),
		fmt.Sprintf("Cores Available: %d", total-active),
		fmt.Sprintf("Processes in queue: %d", s.QueueDepth()),
		"--------------------------------------",
		"Running processes:",
	}
	for _, p := range s.RunningSnapshot() {
		if p == nil {
			continue
		}
		done := p.TotalInstructions - p.Remaining()
		lines = append(lines, fmt.Sprintf("%s     (%s)     Core: %d     %d / %d",
			p.Name, p.StartAt.Format(timeLayout), p.AssignedCore(), done, p.TotalInstructions))
	}

	lines = append(lines, "", "Finished processes:")
	for _, p := range s.FinishedSnapshot() {
		lines = append(lines, fmt.Sprintf("%s     (%s)     Finished     %d / %d",
			p.Name, p.EndAt.Format(timeLayout), p.TotalInstructions, p.TotalInstructions))
	}
	lines = append(lines, "--------------------------------------")

	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}

// UtilizationLogFile is the literal filename spec.md §6 names for
// report-util's file form.
const UtilizationLogFile = "csopesy-log.txt"

// WriteStatusToFile renders the utilization report to
// UtilizationLogFile, overwriting any previous contents.
func WriteStatusToFile(s SchedulerView) error {
	f, err := os.Create(UtilizationLogFile)
	if err != nil {
		return fmt.Errorf("opening %s: %w", UtilizationLogFile, err)
	}
	defer f.Close()
	return WriteStatus(f, s)
}

// Now is overridable in tests that need deterministic timestamps.
var Now = time.Now
