// Package memory implements the contiguous, first-fit memory allocator
// (spec.md §4.1). Blocks are held in a stdlib container/list.List, the
// doubly-linked list the spec calls for directly — there is no
// third-party allocator library in the pack to reach for instead, and
// this is core domain logic rather than an ambient concern.
package memory

import (
	"container/list"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/stinson122/csopesy-os-emulator/internal/logging"
	"github.com/stinson122/csopesy-os-emulator/internal/process"
)

// ErrOutOfMemory is returned by Allocate when no free block is large
// enough to satisfy the request (spec.md §7).
var ErrOutOfMemory = errors.New("out of memory")

// block is one contiguous region of the address space.
type block struct {
	start, end uint64 // [start, end)
	owner      *process.Process
	allocated  bool
}

func (b *block) size() uint64 { return b.end - b.start }

// Manager owns the block list over [0, total). A single mutex guards
// every operation, per spec.md §4.1's concurrency note.
type Manager struct {
	mu     sync.Mutex
	blocks *list.List
	total  uint64
	log    *logging.Logger
}

// New creates a Manager with one free block spanning the whole address
// range.
func New(total uint64, log *logging.Logger) *Manager {
	blocks := list.New()
	blocks.PushBack(&block{start: 0, end: total})
	return &Manager{blocks: blocks, total: total, log: log.With("memory")}
}

// Allocate finds the first free block at least procMemory bytes, splits
// it if there's a remainder, and assigns the low part to p (spec.md
// §4.1's first-fit rule: scan from the lowest address).
func (m *Manager) Allocate(p *process.Process, procMemory uint64) (process.Range, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for e := m.blocks.Front(); e != nil; e = e.Next() {
		b := e.Value.(*block)
		if b.allocated || b.size() < procMemory {
			continue
		}

		start := b.start
		end := start + procMemory
		remainder := b.size() - procMemory

		b.end = end
		b.allocated = true
		b.owner = p

		if remainder > 0 {
			m.blocks.InsertAfter(&block{start: end, end: end + remainder}, e)
		}

		r := process.Range{Start: start, End: end}
		p.SetMemoryRange(&r)
		m.log.Logf("allocated [%d,%d) to %s", start, end, p.Name)
		return r, nil
	}

	return process.Range{}, fmt.Errorf("allocate %s (%d bytes): %w", p.Name, procMemory, ErrOutOfMemory)
}

// Deallocate frees the block owned by p, then coalesces it with an
// adjacent free neighbor on either side (spec.md §4.1). A no-op if p
// holds no allocation.
func (m *Manager) Deallocate(p *process.Process) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var target *list.Element
	for e := m.blocks.Front(); e != nil; e = e.Next() {
		if b := e.Value.(*block); b.allocated && b.owner == p {
			target = e
			break
		}
	}
	if target == nil {
		return
	}

	b := target.Value.(*block)
	b.allocated = false
	b.owner = nil

	if prev := target.Prev(); prev != nil {
		if pb := prev.Value.(*block); !pb.allocated {
			pb.end = b.end
			m.blocks.Remove(target)
			target = prev
			b = pb
		}
	}
	if next := target.Next(); next != nil {
		if nb := next.Value.(*block); !nb.allocated {
			b.end = nb.end
			m.blocks.Remove(next)
		}
	}

	p.SetMemoryRange(nil)
	m.log.Logf("deallocated %s, block now [%d,%d) free", p.Name, b.start, b.end)
}

// BlockView is one block of a Snapshot, owner name populated only when
// allocated.
type BlockView struct {
	Start, End uint64
	Owner      string
	Allocated  bool
}

// Snapshot is a point-in-time serializable view of the memory layout
// (spec.md §4.1). The Manager performs no I/O itself; callers (the
// report package) render this into the literal on-disk format.
type Snapshot struct {
	Timestamp             time.Time
	Quantum                uint64
	TotalMemory             uint64
	Blocks                  []BlockView // low to high address
	AllocatedBlockCount     int
	ExternalFragmentation   uint64 // total free bytes
}

// TakeSnapshot produces a Snapshot of the current block list.
func (m *Manager) TakeSnapshot(quantum uint64, at time.Time) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{Timestamp: at, Quantum: quantum, TotalMemory: m.total}
	for e := m.blocks.Front(); e != nil; e = e.Next() {
		b := e.Value.(*block)
		bv := BlockView{Start: b.start, End: b.end, Allocated: b.allocated}
		if b.allocated {
			bv.Owner = b.owner.Name
			snap.AllocatedBlockCount++
		} else {
			snap.ExternalFragmentation += b.size()
		}
		snap.Blocks = append(snap.Blocks, bv)
	}
	return snap
}

// TotalBytes reports the total size of the managed address space, used
// by tests asserting the mass-conservation invariant (spec.md §8).
func (m *Manager) TotalBytes() uint64 { return m.total }

// SumBlockSizes reports the sum of all block sizes, which must always
// equal TotalBytes (spec.md §8 property 1).
func (m *Manager) SumBlockSizes() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum uint64
	for e := m.blocks.Front(); e != nil; e = e.Next() {
		sum += e.Value.(*block).size()
	}
	return sum
}
