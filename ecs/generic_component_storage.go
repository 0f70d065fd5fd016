package ecs

import (
	"iter"
	"reflect"
	"slices"

	"github.com/kamstrup/intmap"
)

// ComponentRegistry manages component type registration for an ECS instance.
// Each Storage instance has its own ComponentRegistry, allowing multiple
// independent worlds to coexist without interference.
type ComponentRegistry struct {
	factories map[reflect.Type]func() iComponentStorage
}

// NewComponentRegistry creates a new component registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		factories: make(map[reflect.Type]func() iComponentStorage),
	}
}

// RegisterComponent registers a new component type with the given registry.
// This must be called for each component type before it can be used.
func RegisterComponent[T any](r *ComponentRegistry) {
	t := reflect.TypeFor[T]()
	r.factories[t] = func() iComponentStorage {
		return newGenericComponentStorage[T]()
	}
}

// getFactory returns the factory function for a given component type.
// Returns nil if the type is not registered.
func (r *ComponentRegistry) getFactory(t reflect.Type) func() iComponentStorage {
	return r.factories[t]
}

// iComponentStorage is a type-erased sparse set of one component type.
type iComponentStorage interface {
	Set(id EntityId, item any) bool
	Delete(id EntityId) bool
	Get(id EntityId) any
	Has(id EntityId) bool
	Len() int
	Entities() iter.Seq[EntityId]
}

const (
	genericBlockSize = 64
)

// genericComponentStorage is a sparse set keyed by EntityId. The sparse side is
// an intmap from entity to slot; the dense side stores values in fixed-size
// blocks so pointers handed out by Get survive later inserts.
type genericComponentStorage[T any] struct {
	slots     *intmap.Map[EntityId, int]
	blocks    []*[genericBlockSize]T
	owners    []*[genericBlockSize]EntityId
	freeSlots []int
	nextIndex int
}

func newGenericComponentStorage[T any]() *genericComponentStorage[T] {
	return &genericComponentStorage[T]{
		slots: intmap.New[EntityId, int](64),
	}
}

// Set inserts or replaces the component for id. It returns false when item is
// not a T or *T.
func (cs *genericComponentStorage[T]) Set(id EntityId, item any) bool {
	var concreteItem T
	if ptr, ok := item.(*T); ok {
		concreteItem = *ptr
	} else if val, ok := item.(T); ok {
		concreteItem = val
	} else {
		return false
	}

	if index, ok := cs.slots.Get(id); ok {
		cs.blocks[index/genericBlockSize][index%genericBlockSize] = concreteItem
		return true
	}

	var index int
	if len(cs.freeSlots) > 0 {
		index = cs.freeSlots[len(cs.freeSlots)-1]
		cs.freeSlots = cs.freeSlots[:len(cs.freeSlots)-1]
	} else {
		index = cs.nextIndex
		cs.nextIndex++
		if index/genericBlockSize >= len(cs.blocks) {
			cs.blocks = append(cs.blocks, new([genericBlockSize]T))
			cs.owners = append(cs.owners, new([genericBlockSize]EntityId))
		}
	}

	blockIdx := index / genericBlockSize
	slotIdx := index % genericBlockSize
	cs.blocks[blockIdx][slotIdx] = concreteItem
	cs.owners[blockIdx][slotIdx] = id
	cs.slots.Put(id, index)
	return true
}

// Get returns a *T for id, or nil.
func (cs *genericComponentStorage[T]) Get(id EntityId) any {
	index, ok := cs.slots.Get(id)
	if !ok {
		return nil
	}
	return &cs.blocks[index/genericBlockSize][index%genericBlockSize]
}

// Delete removes the component for id and recycles its slot.
func (cs *genericComponentStorage[T]) Delete(id EntityId) bool {
	index, ok := cs.slots.Get(id)
	if !ok {
		return false
	}

	blockIdx := index / genericBlockSize
	slotIdx := index % genericBlockSize

	var zero T
	cs.blocks[blockIdx][slotIdx] = zero
	cs.owners[blockIdx][slotIdx] = 0
	cs.freeSlots = append(cs.freeSlots, index)
	cs.slots.Del(id)
	return true
}

// Has checks if a component exists for id.
func (cs *genericComponentStorage[T]) Has(id EntityId) bool {
	return cs.slots.Has(id)
}

// Len returns the number of stored components.
func (cs *genericComponentStorage[T]) Len() int {
	return cs.slots.Len()
}

// Entities yields the owning entities in ascending id order.
func (cs *genericComponentStorage[T]) Entities() iter.Seq[EntityId] {
	ids := make([]EntityId, 0, cs.slots.Len())
	for i := 0; i < cs.nextIndex; i++ {
		owner := cs.owners[i/genericBlockSize][i%genericBlockSize]
		if owner != 0 {
			ids = append(ids, owner)
		}
	}
	slices.Sort(ids)

	return func(yield func(EntityId) bool) {
		for _, id := range ids {
			if !yield(id) {
				return
			}
		}
	}
}
