package ecs

import (
	"fmt"
	"reflect"
	"slices"
	"sort"
	"unsafe"
)

// Storage is the world: an entity arena, one sparse store per component type,
// and a table of singleton resources keyed by type.
type Storage struct {
	entities   entityArena
	stores     map[reflect.Type]iComponentStorage
	singletons map[reflect.Type]*singletonEntry
	registry   *ComponentRegistry
}

type singletonEntry struct {
	value   reflect.Value
	dataPtr unsafe.Pointer
}

// NewStorage creates a new ECS storage with the given component registry
func NewStorage(registry *ComponentRegistry) *Storage {
	return &Storage{
		entities:   newEntityArena(),
		stores:     make(map[reflect.Type]iComponentStorage),
		singletons: make(map[reflect.Type]*singletonEntry),
		registry:   registry,
	}
}

// Spawn creates a new entity with the provided components
func (s *Storage) Spawn(components ...any) EntityId {
	if len(components) == 0 {
		panic("cannot spawn entity without components")
	}

	types := extractComponentTypes(components)
	for _, typ := range types {
		s.storeFor(typ)
	}

	id := s.entities.create()
	for i, comp := range components {
		s.stores[types[i]].Set(id, comp)
	}
	return id
}

// Delete removes the entity and all of its components
func (s *Storage) Delete(id EntityId) {
	if !s.entities.destroy(id) {
		return
	}
	for _, store := range s.stores {
		store.Delete(id)
	}
}

// IsAlive reports whether id refers to a spawned, undeleted entity
func (s *Storage) IsAlive(id EntityId) bool {
	return s.entities.isAlive(id)
}

// EntityCount returns the number of live entities
func (s *Storage) EntityCount() int {
	return len(s.entities.alive)
}

// AddComponent attaches or replaces a component on a live entity
func (s *Storage) AddComponent(id EntityId, component any) EntityId {
	if !s.entities.isAlive(id) {
		return 0
	}
	compType := extractComponentTypes([]any{component})[0]
	s.storeFor(compType).Set(id, component)
	return id
}

// RemoveComponent detaches a component. An entity left without components is deleted
// and 0 is returned.
func (s *Storage) RemoveComponent(id EntityId, compType reflect.Type) EntityId {
	if !s.entities.isAlive(id) {
		return 0
	}
	if store, ok := s.stores[compType]; ok {
		store.Delete(id)
	}
	for _, store := range s.stores {
		if store.Has(id) {
			return id
		}
	}
	s.entities.destroy(id)
	return 0
}

// GetComponent returns the component for the given entity ID and component type
func (s *Storage) GetComponent(id EntityId, compType reflect.Type) any {
	store, ok := s.stores[compType]
	if !ok {
		return nil
	}
	return store.Get(id)
}

// HasComponent checks if an entity has a specific component type
func (s *Storage) HasComponent(id EntityId, compType reflect.Type) bool {
	store, ok := s.stores[compType]
	if !ok {
		return false
	}
	return store.Has(id)
}

func (s *Storage) storeFor(typ reflect.Type) iComponentStorage {
	store, ok := s.stores[typ]
	if ok {
		return store
	}
	factory := s.registry.getFactory(typ)
	if factory == nil {
		panic("component type " + typ.String() + " not registered")
	}
	store = factory()
	s.stores[typ] = store
	return store
}

// AddSingleton stores value as the singleton of its dynamic type, replacing any
// previous value. Pass a pointer to store the pointed-to value.
func (s *Storage) AddSingleton(value any) {
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	s.putSingleton(v.Type(), v)
}

// InsertSingleton stores value as the singleton of type T. Unlike AddSingleton
// it works for interface types.
func InsertSingleton[T any](s *Storage, value T) {
	s.putSingleton(reflect.TypeFor[T](), reflect.ValueOf(&value).Elem())
}

func (s *Storage) putSingleton(typ reflect.Type, v reflect.Value) {
	if entry, ok := s.singletons[typ]; ok {
		entry.value.Set(v)
		return
	}
	ptr := reflect.New(typ)
	ptr.Elem().Set(v)
	s.singletons[typ] = &singletonEntry{
		value:   ptr.Elem(),
		dataPtr: ptr.UnsafePointer(),
	}
}

// RemoveSingleton drops the singleton of the given type.
func (s *Storage) RemoveSingleton(typ reflect.Type) bool {
	if _, ok := s.singletons[typ]; !ok {
		return false
	}
	delete(s.singletons, typ)
	return true
}

func (s *Storage) getSingletonEntry(typ reflect.Type) *singletonEntry {
	return s.singletons[typ]
}

// ReadSingleton points target (a **T) at the stored singleton of type T.
// It returns false when no such singleton exists.
func (s *Storage) ReadSingleton(target any) bool {
	tv := reflect.ValueOf(target)
	if tv.Kind() != reflect.Ptr || tv.Elem().Kind() != reflect.Ptr {
		panic(fmt.Sprintf("ReadSingleton target must be **T, got %T", target))
	}
	entry := s.singletons[tv.Elem().Type().Elem()]
	if entry == nil {
		return false
	}
	tv.Elem().Set(entry.value.Addr())
	return true
}

// GetSingleton returns the singleton of type T, or nil.
func GetSingleton[T any](s *Storage) *T {
	entry := s.singletons[reflect.TypeFor[T]()]
	if entry == nil {
		return nil
	}
	return (*T)(entry.dataPtr)
}

// extractComponentTypes resolves the component type of each value, dereferencing pointers
func extractComponentTypes(components []any) []reflect.Type {
	types := make([]reflect.Type, 0, len(components))
	for _, comp := range components {
		compType := reflect.TypeOf(comp)

		// If it's a pointer, get the underlying type
		if compType.Kind() == reflect.Ptr {
			compType = compType.Elem()
		}

		// Components can be structs or primitives (int, string, etc.)
		// But not pointers, maps, channels, or functions (those aren't value types)
		if compType.Kind() == reflect.Ptr || compType.Kind() == reflect.Map ||
			compType.Kind() == reflect.Chan || compType.Kind() == reflect.Func {
			panic("components cannot be pointers, maps, channels, or functions")
		}

		types = append(types, compType)
	}
	return types
}

type byTypeName []reflect.Type

func (a byTypeName) Len() int           { return len(a) }
func (a byTypeName) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a byTypeName) Less(i, j int) bool { return a[i].String() < a[j].String() }

func sortedTypes(types []reflect.Type) []reflect.Type {
	out := append([]reflect.Type(nil), types...)
	sort.Sort(byTypeName(out))
	return out
}

type ComponentReader interface {
	GetComponent(EntityId, reflect.Type) any
}

// ReadComponent returns the T of entityId, or nil when it has none.
func ReadComponent[T any](reader ComponentReader, entityId EntityId) *T {
	comp := reader.GetComponent(entityId, reflect.TypeFor[T]())
	if comp == nil {
		return nil
	}
	return comp.(*T)
}

// sortedEntities returns the live entity ids in creation order.
func (s *Storage) sortedEntities() []EntityId {
	ids := make([]EntityId, 0, len(s.entities.alive))
	for id := range s.entities.alive {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
