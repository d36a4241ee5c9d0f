package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/stinson122/csopesy-os-emulator/internal/memory"
)

// snapshotDir matches original_source/os-emulator/scheduler.cpp's
// "memory_snapshots/" folder.
const snapshotDir = "memory_snapshots"

// WriteMemorySnapshot renders snap into the literal on-disk layout
// spec.md §6 specifies, to memory_snapshots/memory_stamp_<quantum>.txt.
func WriteMemorySnapshot(snap memory.Snapshot) error {
	if err := os.MkdirAll(snapshotDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", snapshotDir, err)
	}
	path := filepath.Join(snapshotDir, fmt.Sprintf("memory_stamp_%d.txt", snap.Quantum))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	fmt.Fprintf(f, "Timestamp: %s\n", snap.Timestamp.Format(timeLayout))
	fmt.Fprintf(f, "Number of processes in memory: %d\n", snap.AllocatedBlockCount)
	fmt.Fprintf(f, "Total external fragmentation in KB: %d\n\n", snap.ExternalFragmentation/1024)
	fmt.Fprintf(f, "----end---- = %d (max-overall-mem)\n\n", snap.TotalMemory)

	for i := len(snap.Blocks) - 1; i >= 0; i-- {
		b := snap.Blocks[i]
		fmt.Fprintf(f, "%d\n", b.End)
		if b.Allocated {
			fmt.Fprintf(f, "%s\n", b.Owner)
		}
		fmt.Fprintf(f, "%d\n\n", b.Start)
	}

	fmt.Fprintf(f, "----start---- = 0\n")
	return nil
}
