package ecs

import "reflect"

// System represents a behavior that operates on entities with specific components.
// User-defined systems should implement this interface and can include Query and
// Singleton fields for accessing the world, as well as custom state fields that
// persist between ticks. A returned error aborts the current tick.
type System interface {
	Execute(frame *UpdateFrame) error
}

// SystemFunc adapts a plain function to the System interface. It declares no
// access, so it should be the only system in its stage unless it is wrapped
// with Access.
type SystemFunc func(frame *UpdateFrame) error

func (f SystemFunc) Execute(frame *UpdateFrame) error {
	return f(frame)
}

// Access lists the types a system reads and writes outside of its Query and
// Singleton fields.
type Access struct {
	Reads  []reflect.Type
	Writes []reflect.Type
}

// AccessDeclarer is implemented by systems that touch the world through
// Storage or Commands directly and want the scheduler to know about it.
type AccessDeclarer interface {
	DeclareAccess() Access
}

// Reads returns a one-type read declaration for T.
func Reads[T any]() Access {
	return Access{Reads: []reflect.Type{reflect.TypeFor[T]()}}
}

// Writes returns a one-type write declaration for T.
func Writes[T any]() Access {
	return Access{Writes: []reflect.Type{reflect.TypeFor[T]()}}
}

// Merge combines declarations.
func (a Access) Merge(others ...Access) Access {
	for _, o := range others {
		a.Reads = append(a.Reads, o.Reads...)
		a.Writes = append(a.Writes, o.Writes...)
	}
	return a
}
