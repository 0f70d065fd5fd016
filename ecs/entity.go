package ecs

import "strconv"

// EntityId identifies an entity. Ids are allocated in increasing order starting
// at 1 and are never reused, so id order is creation order.
type EntityId uint64

// String returns the decimal form of the id.
func (e EntityId) String() string {
	return strconv.FormatUint(uint64(e), 10)
}

// Valid reports whether the id could have been allocated by a Storage.
func (e EntityId) Valid() bool {
	return e > 0
}

// entityArena hands out entity ids and tracks which ones are alive.
type entityArena struct {
	nextId EntityId
	alive  map[EntityId]struct{}
}

func newEntityArena() entityArena {
	return entityArena{alive: make(map[EntityId]struct{})}
}

func (a *entityArena) create() EntityId {
	a.nextId++
	a.alive[a.nextId] = struct{}{}
	return a.nextId
}

func (a *entityArena) destroy(id EntityId) bool {
	if _, ok := a.alive[id]; !ok {
		return false
	}
	delete(a.alive, id)
	return true
}

func (a *entityArena) isAlive(id EntityId) bool {
	_, ok := a.alive[id]
	return ok
}
