package memory

import (
	"errors"
	"testing"
	"time"

	"github.com/stinson122/csopesy-os-emulator/internal/logging"
	"github.com/stinson122/csopesy-os-emulator/internal/process"
)

func newTestManager(total uint64) *Manager {
	return New(total, logging.Noop())
}

func TestAllocate_FirstFit_MemoryPressure(t *testing.T) {
	// spec.md scenario S4: total=100, proc_memory=40, three processes.
	m := newTestManager(100)
	p1 := process.New("p1", nil)
	p2 := process.New("p2", nil)
	p3 := process.New("p3", nil)

	r1, err := m.Allocate(p1, 40)
	if err != nil || r1.Start != 0 || r1.End != 40 {
		t.Fatalf("p1 allocate = %+v, %v", r1, err)
	}
	r2, err := m.Allocate(p2, 40)
	if err != nil || r2.Start != 40 || r2.End != 80 {
		t.Fatalf("p2 allocate = %+v, %v", r2, err)
	}
	if _, err := m.Allocate(p3, 40); !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("p3 allocate err = %v, want ErrOutOfMemory", err)
	}

	m.Deallocate(p1)
	r3, err := m.Allocate(p3, 40)
	if err != nil || r3.Start != 0 || r3.End != 40 {
		t.Fatalf("p3 allocate after p1 freed = %+v, %v", r3, err)
	}

	if got := m.SumBlockSizes(); got != m.TotalBytes() {
		t.Fatalf("mass conservation violated: sum=%d total=%d", got, m.TotalBytes())
	}
}

func TestDeallocate_CoalescesNeighbors(t *testing.T) {
	m := newTestManager(100)
	a := process.New("A", nil)
	b := process.New("B", nil)
	c := process.New("C", nil)

	mustAllocate(t, m, a, 30)
	mustAllocate(t, m, b, 30)
	mustAllocate(t, m, c, 30)

	m.Deallocate(b)

	// B's neighbors A and C are both allocated, so nothing merges: the
	// freed [30,60) and the untouched tail [90,100) stay separate.
	snap := m.TakeSnapshot(0, time.Now())
	freeCount := 0
	for i := 0; i < len(snap.Blocks)-1; i++ {
		if !snap.Blocks[i].Allocated && !snap.Blocks[i+1].Allocated {
			t.Fatalf("two adjacent free blocks after deallocate: %+v", snap.Blocks)
		}
	}
	for _, bv := range snap.Blocks {
		if !bv.Allocated {
			freeCount++
		}
	}
	if freeCount != 2 {
		t.Fatalf("free block count = %d, want 2", freeCount)
	}
}

func TestTakeSnapshot_FragmentationOrdering(t *testing.T) {
	// spec.md scenario S6.
	m := newTestManager(100)
	a := process.New("A", nil)
	b := process.New("B", nil)
	c := process.New("C", nil)
	mustAllocate(t, m, a, 30)
	mustAllocate(t, m, b, 30)
	mustAllocate(t, m, c, 30)
	m.Deallocate(b)

	snap := m.TakeSnapshot(1, time.Now())
	if snap.AllocatedBlockCount != 2 {
		t.Fatalf("allocated blocks = %d, want 2", snap.AllocatedBlockCount)
	}
	if snap.ExternalFragmentation != 30 {
		t.Fatalf("fragmentation = %d, want 30", snap.ExternalFragmentation)
	}
	if len(snap.Blocks) != 4 {
		t.Fatalf("blocks = %d, want 4 (A, free30, C, free10)", len(snap.Blocks))
	}
	// Blocks are stored low to high; high-to-low rendering is the
	// report package's job (spec.md §6's file layout), not the
	// manager's.
	want := []struct {
		start, end uint64
		allocated  bool
	}{
		{0, 30, true},   // A
		{30, 60, false}, // B freed
		{60, 90, true},  // C
		{90, 100, false},
	}
	for i, w := range want {
		if snap.Blocks[i].Start != w.start || snap.Blocks[i].End != w.end || snap.Blocks[i].Allocated != w.allocated {
			t.Errorf("block[%d] = %+v, want start=%d end=%d allocated=%v", i, snap.Blocks[i], w.start, w.end, w.allocated)
		}
	}
}

func mustAllocate(t *testing.T, m *Manager, p *process.Process, size uint64) {
	t.Helper()
	if _, err := m.Allocate(p, size); err != nil {
		t.Fatalf("allocate %s: %v", p.Name, err)
	}
}
