package sim

import "fmt"

// AgentID names one agent. Slots are reused after destruction; the generation
// makes an ID for a destroyed agent stop resolving once its slot is reused.
type AgentID struct {
	Index uint32
	Gen   uint32
}

// Key packs the ID into one integer for maps and the integrator.
func (id AgentID) Key() uint64 { return uint64(id.Gen)<<32 | uint64(id.Index) }

func (id AgentID) String() string { return fmt.Sprintf("A%d", id.Index) }

// arena hands out slot indices with generations, reusing freed slots.
type arena struct {
	gen  []uint32
	live []bool
	free []uint32
}

// alloc returns a fresh ID and whether a new slot had to be appended.
func (a *arena) alloc() (AgentID, bool) {
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		a.live[idx] = true
		return AgentID{Index: idx, Gen: a.gen[idx]}, false
	}
	idx := uint32(len(a.gen))
	a.gen = append(a.gen, 0)
	a.live = append(a.live, true)
	return AgentID{Index: idx}, true
}

// release frees the slot and bumps its generation. Stale IDs are ignored.
func (a *arena) release(id AgentID) bool {
	if !a.valid(id) {
		return false
	}
	a.gen[id.Index]++
	a.live[id.Index] = false
	a.free = append(a.free, id.Index)
	return true
}

func (a *arena) valid(id AgentID) bool {
	return int(id.Index) < len(a.gen) && a.live[id.Index] && a.gen[id.Index] == id.Gen
}

// idAt returns the live ID in slot i.
func (a *arena) idAt(i int) (AgentID, bool) {
	if i < 0 || i >= len(a.gen) || !a.live[i] {
		return AgentID{}, false
	}
	return AgentID{Index: uint32(i), Gen: a.gen[i]}, true
}

func (a *arena) size() int { return len(a.gen) }

func (a *arena) count() int { return len(a.gen) - len(a.free) }
