package state

import (
	"fmt"

	"github.com/google/uuid"
)

// PositionLedger owns the authoritative set of positions and the
// per-hedger active-position indices. Position ids are monotonic and
// never reused; removal from a hedger's index is O(1) via swap-with-last.
type PositionLedger struct {
	positions map[uint64]*Position
	indices   map[uuid.UUID]*HedgerIndex
	nextID    uint64
}

// HedgerIndex is one hedger's set of active position ids: a dense array
// plus an id->slot map so removal never scans.
type HedgerIndex struct {
	ids   []uint64
	slots map[uint64]int
}

func NewPositionLedger() *PositionLedger {
	return &PositionLedger{
		positions: make(map[uint64]*Position),
		indices:   make(map[uuid.UUID]*HedgerIndex),
		nextID:    1,
	}
}

// Insert registers a new position, assigns its id, and indexes it under
// its owner. The position must arrive Active with ID unset.
func (pl *PositionLedger) Insert(pos *Position) uint64 {
	if pos.ID != 0 {
		panic(fmt.Sprintf("FATAL: inserting position with pre-assigned id %d", pos.ID))
	}

	pos.ID = pl.nextID
	pl.nextID++
	pos.Active = true
	pl.positions[pos.ID] = pos

	idx := pl.indices[pos.Owner]
	if idx == nil {
		idx = &HedgerIndex{slots: make(map[uint64]int)}
		pl.indices[pos.Owner] = idx
	}
	idx.slots[pos.ID] = len(idx.ids)
	idx.ids = append(idx.ids, pos.ID)

	return pos.ID
}

// Get returns the position by id, or nil.
func (pl *PositionLedger) Get(id uint64) *Position {
	return pl.positions[id]
}

// GetActiveOwned returns the position only if it is active and owned by
// owner. Not-found and wrong-owner are deliberately indistinguishable so
// callers cannot probe for the existence of other hedgers' positions.
func (pl *PositionLedger) GetActiveOwned(owner uuid.UUID, id uint64) (*Position, error) {
	pos := pl.positions[id]
	if pos == nil || !pos.Active || pos.Owner != owner {
		return nil, ErrPositionOwnerMismatch
	}
	return pos, nil
}

// Deactivate marks the position inactive and removes it from its owner's
// index in O(1): swap the last element into the vacated slot, fix the
// swapped element's slot entry, pop.
func (pl *PositionLedger) Deactivate(id uint64) error {
	pos := pl.positions[id]
	if pos == nil || !pos.Active {
		return ErrPositionOwnerMismatch
	}

	idx := pl.indices[pos.Owner]
	slot, ok := idx.slots[id]
	if !ok {
		panic(fmt.Sprintf("FATAL: active position %d missing from owner index", id))
	}

	last := len(idx.ids) - 1
	if slot != last {
		moved := idx.ids[last]
		idx.ids[slot] = moved
		idx.slots[moved] = slot
	}
	idx.ids = idx.ids[:last]
	delete(idx.slots, id)

	pos.Active = false
	pos.Version++

	return nil
}

// ActiveIDs returns a copy of the hedger's active position ids.
func (pl *PositionLedger) ActiveIDs(owner uuid.UUID) []uint64 {
	idx := pl.indices[owner]
	if idx == nil {
		return nil
	}
	out := make([]uint64, len(idx.ids))
	copy(out, idx.ids)
	return out
}

// ActiveCount returns how many active positions the hedger holds.
func (pl *PositionLedger) ActiveCount(owner uuid.UUID) int {
	idx := pl.indices[owner]
	if idx == nil {
		return 0
	}
	return len(idx.ids)
}

// HasOpened reports whether the hedger has ever opened a position
// (the index outlives its members).
func (pl *PositionLedger) HasOpened(owner uuid.UUID) bool {
	return pl.indices[owner] != nil
}

// AllPositions returns every position ever recorded, active or not.
func (pl *PositionLedger) AllPositions() []*Position {
	result := make([]*Position, 0, len(pl.positions))
	for _, pos := range pl.positions {
		result = append(result, pos)
	}
	return result
}

// ActivePositions returns every active position.
func (pl *PositionLedger) ActivePositions() []*Position {
	result := make([]*Position, 0)
	for _, pos := range pl.positions {
		if pos.Active {
			result = append(result, pos)
		}
	}
	return result
}

// NextID returns the next id to be assigned (for snapshots).
func (pl *PositionLedger) NextID() uint64 {
	return pl.nextID
}

// Restore re-seats a position and its index membership from a snapshot.
func (pl *PositionLedger) Restore(pos *Position, nextID uint64) {
	pl.positions[pos.ID] = pos
	if nextID > pl.nextID {
		pl.nextID = nextID
	}

	idx := pl.indices[pos.Owner]
	if idx == nil {
		idx = &HedgerIndex{slots: make(map[uint64]int)}
		pl.indices[pos.Owner] = idx
	}
	if pos.Active {
		idx.slots[pos.ID] = len(idx.ids)
		idx.ids = append(idx.ids, pos.ID)
	}
}
