package scheduler

import (
	"sync"

	"github.com/stinson122/csopesy-os-emulator/internal/process"
)

// coreArray is the fixed-size slot table Dispatcher and Worker share:
// one slot per core, nil when idle. Guarded by its own mutex, per
// spec.md §5.
type coreArray struct {
	mu    sync.Mutex
	slots []*process.Process
}

func newCoreArray(n int) *coreArray {
	return &coreArray{slots: make([]*process.Process, n)}
}

func (c *coreArray) size() int {
	return len(c.slots)
}

// assignFirstIdle places p into the lowest-index nil slot and returns
// that index, or -1 if every core is busy (spec.md §4.3's tie-break:
// lowest core index).
func (c *coreArray) assignFirstIdle(p *process.Process) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, occupant := range c.slots {
		if occupant == nil {
			c.slots[i] = p
			return i
		}
	}
	return -1
}

// get returns the process occupying core, or nil.
func (c *coreArray) get(core int) *process.Process {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slots[core]
}

// clear empties a core's slot.
func (c *coreArray) clear(core int) {
	c.mu.Lock()
	c.slots[core] = nil
	c.mu.Unlock()
}

// activeCount returns the number of slots occupied by a Running process
// (spec.md §4.6).
func (c *coreArray) activeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, p := range c.slots {
		if p != nil && p.State() == process.Running {
			n++
		}
	}
	return n
}

// snapshot returns a copy of the occupant list for read-only reporting.
func (c *coreArray) snapshot() []*process.Process {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*process.Process, len(c.slots))
	copy(out, c.slots)
	return out
}

// finishedList is the append-only list of retired processes, guarded by
// its own mutex per spec.md §5.
type finishedList struct {
	mu    sync.Mutex
	items []*process.Process
}

func newFinishedList() *finishedList {
	return &finishedList{}
}

func (f *finishedList) add(p *process.Process) {
	f.mu.Lock()
	f.items = append(f.items, p)
	f.mu.Unlock()
}

func (f *finishedList) snapshot() []*process.Process {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*process.Process, len(f.items))
	copy(out, f.items)
	return out
}
