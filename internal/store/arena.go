package store

import (
	"github.com/Harshitk-cp/breathcosmos/internal/domain"
)

type arenaSlot struct {
	gen    uint32
	live   bool
	entity domain.Entity
}

// EntityArena stores entities in a dense slot array addressed by
// generation-tagged handles. A freed slot bumps its generation, so stale
// handles held by connections or mentors resolve to nothing instead of to
// whichever entity reuses the slot. Iteration follows insertion order.
type EntityArena struct {
	slots []arenaSlot
	free  []uint32
	order []domain.Handle
}

func NewEntityArena() *EntityArena {
	return &EntityArena{}
}

func (a *EntityArena) Insert(e domain.Entity) domain.Handle {
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.slots = append(a.slots, arenaSlot{})
		idx = uint32(len(a.slots) - 1)
	}

	slot := &a.slots[idx]
	slot.gen++
	if slot.gen == 0 {
		slot.gen = 1
	}
	slot.live = true

	h := domain.Handle{Index: idx, Gen: slot.gen}
	e.Handle = h
	slot.entity = e
	a.order = append(a.order, h)
	return h
}

func (a *EntityArena) Get(h domain.Handle) (*domain.Entity, bool) {
	if !h.Valid() || int(h.Index) >= len(a.slots) {
		return nil, false
	}
	slot := &a.slots[h.Index]
	if !slot.live || slot.gen != h.Gen {
		return nil, false
	}
	return &slot.entity, true
}

// Retain drops every entity for which keep returns false and reports how many
// were dropped. keep may mutate the entity it is given.
func (a *EntityArena) Retain(keep func(*domain.Entity) bool) int {
	kept := a.order[:0]
	removed := 0
	for _, h := range a.order {
		slot := &a.slots[h.Index]
		if keep(&slot.entity) {
			kept = append(kept, h)
			continue
		}
		a.release(h.Index)
		removed++
	}
	a.order = kept
	return removed
}

// Handles returns the live handles in insertion order.
func (a *EntityArena) Handles() []domain.Handle {
	out := make([]domain.Handle, len(a.order))
	copy(out, a.order)
	return out
}

func (a *EntityArena) Len() int {
	return len(a.order)
}

// Reset frees every slot but keeps generations, so handles from before the
// reset never resolve again.
func (a *EntityArena) Reset() {
	for _, h := range a.order {
		a.release(h.Index)
	}
	a.order = nil
}

func (a *EntityArena) release(idx uint32) {
	slot := &a.slots[idx]
	slot.live = false
	slot.entity = domain.Entity{}
	a.free = append(a.free, idx)
}
