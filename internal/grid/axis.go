package grid

import "fmt"

// axis is a bidirectional map between ids and indexes along one dimension.
type axis[ID comparable] struct {
	byIndex map[int64]ID
	byID    map[ID]int64
}

func newAxis[ID comparable]() axis[ID] {
	return axis[ID]{byIndex: make(map[int64]ID), byID: make(map[ID]int64)}
}

func (a axis[ID]) id(index int64) (ID, bool) {
	id, ok := a.byIndex[index]
	return id, ok
}

func (a axis[ID]) index(id ID) (int64, bool) {
	idx, ok := a.byID[id]
	return idx, ok
}

// register binds id to index. Re-registering the same pair is a no-op; any
// other overlap is a conflict.
func (a axis[ID]) register(id ID, index int64) error {
	if existing, ok := a.byIndex[index]; ok && existing != id {
		return fmt.Errorf("index %d already bound to %v", index, existing)
	}
	if existing, ok := a.byID[id]; ok && existing != index {
		return fmt.Errorf("id %v already bound to index %d", id, existing)
	}
	a.byIndex[index] = id
	a.byID[id] = index
	return nil
}

func (a axis[ID]) len() int {
	return len(a.byID)
}

// entries returns every binding as index -> id.
func (a axis[ID]) entries() map[int64]ID {
	out := make(map[int64]ID, len(a.byIndex))
	for k, v := range a.byIndex {
		out[k] = v
	}
	return out
}
