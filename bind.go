package slotarena

import (
	"iter"
	"math"
	"reflect"
	"unsafe"
)

// DefaultConstructor is implemented by element types that need more than
// the zero value when default-constructed. The default constructor zeroes
// the slot and then calls ConstructDefault on it.
type DefaultConstructor interface {
	ConstructDefault()
}

// Destroyer is implemented by element types with teardown logic. The
// default destructor calls Destroy on the slot.
type Destroyer interface {
	Destroy()
}

type lifecycle struct {
	construct     Constructor
	constructType reflect.Type
	destroy       Destructor
	destroyType   reflect.Type
}

// Option overrides part of the lifecycle bound by InitFor.
type Option func(*lifecycle)

// WithConstructor replaces the default constructor. A nil fn keeps the default.
func WithConstructor(fn Constructor) Option {
	return func(l *lifecycle) {
		if fn != nil {
			l.construct = fn
			l.constructType = nil
		}
	}
}

// WithDestructor replaces the default destructor. A nil fn keeps the default.
func WithDestructor(fn Destructor) Option {
	return func(l *lifecycle) {
		if fn != nil {
			l.destroy = fn
			l.destroyType = nil
		}
	}
}

// ConstructWith replaces the default constructor with fn, which receives a
// zeroed *T. InitFor panics if T is not the type being bound.
func ConstructWith[T any](fn func(*T)) Option {
	return func(l *lifecycle) {
		l.construct = ConstructorFor(fn)
		l.constructType = reflect.TypeFor[T]()
	}
}

// DestroyWith replaces the default destructor with fn. InitFor panics if T
// is not the type being bound.
func DestroyWith[T any](fn func(*T)) Option {
	return func(l *lifecycle) {
		l.destroy = DestructorFor(fn)
		l.destroyType = reflect.TypeFor[T]()
	}
}

// ConstructorFor adapts a typed initializer to a Constructor. The slot is
// zeroed before fn runs.
func ConstructorFor[T any](fn func(*T)) Constructor {
	return func(p unsafe.Pointer) unsafe.Pointer {
		v := (*T)(p)
		var zero T
		*v = zero
		fn(v)
		return p
	}
}

// DestructorFor adapts a typed teardown function to a Destructor.
func DestructorFor[T any](fn func(*T)) Destructor {
	return func(p unsafe.Pointer) {
		fn((*T)(p))
	}
}

func constructDefault[T any](p unsafe.Pointer) unsafe.Pointer {
	v := (*T)(p)
	var zero T
	*v = zero
	if c, ok := any(v).(DefaultConstructor); ok {
		c.ConstructDefault()
	}
	return p
}

func destroyDefault[T any](p unsafe.Pointer) {
	if d, ok := any((*T)(p)).(Destroyer); ok {
		d.Destroy()
	}
}

// InitFor binds a to T. It records the size and type of T, stores the
// lifecycle callbacks and reserves room for capacity slots.
//
// InitFor may be called once per arena. T must have a non-zero size and
// must not contain Go pointers, since slots are plain bytes the garbage
// collector does not look into.
func InitFor[T any](a *Arena, capacity int, opts ...Option) {
	ty := reflect.TypeFor[T]()
	switch a.state {
	case stateInitialized:
		violation(ErrAlreadyInitialized, "InitFor[%s]: arena holds %s", ty, a.typ)
	case stateReleased:
		violation(ErrReleased, "InitFor[%s]", ty)
	}
	if capacity < 0 {
		violation(ErrNegativeSize, "InitFor[%s](%d)", ty, capacity)
	}
	checkStorable(ty)
	if capacity > math.MaxInt/int(ty.Size()) {
		violation(ErrTooLarge, "InitFor[%s](%d)", ty, capacity)
	}

	l := lifecycle{
		construct: constructDefault[T],
		destroy:   destroyDefault[T],
	}
	for _, opt := range opts {
		opt(&l)
	}
	if l.constructType != nil && l.constructType != ty {
		violation(ErrTypeMismatch, "InitFor[%s]: constructor is for %s", ty, l.constructType)
	}
	if l.destroyType != nil && l.destroyType != ty {
		violation(ErrTypeMismatch, "InitFor[%s]: destructor is for %s", ty, l.destroyType)
	}

	a.typ = ty
	a.elemSize = ty.Size()
	a.construct = l.construct
	a.destroy = l.destroy
	a.state = stateInitialized

	if capacity > 0 {
		a.reserve(capacity)
	}
}

// EmplaceBack appends a slot and constructs a T in it: the slot is zeroed,
// then init, if non-nil, fills it in. The returned pointer borrows the
// arena's storage.
func EmplaceBack[T any](a *Arena, init func(*T)) *T {
	checkType[T](a, "EmplaceBack")
	a.checkMutable("EmplaceBack")

	i := a.pushSlot()
	v := (*T)(a.slot(i))
	var zero T
	*v = zero
	if init != nil {
		a.callback(func() { init(v) })
	}
	a.occupied[i] = true
	return v
}

// PushBack appends a slot holding a copy of v.
func PushBack[T any](a *Arena, v T) *T {
	checkType[T](a, "PushBack")
	a.checkMutable("PushBack")

	i := a.pushSlot()
	p := (*T)(a.slot(i))
	*p = v
	a.occupied[i] = true
	return p
}

// At returns slot i as a *T. Occupancy is not checked.
func At[T any](a *Arena, i int) *T {
	checkType[T](a, "At")
	a.checkIndex("At", i)
	return (*T)(a.slot(i))
}

// All iterates over the occupied slots in index order. The arena must not be
// resized or erased from during iteration.
func (a *Arena) All() iter.Seq2[int, unsafe.Pointer] {
	a.checkLive("All")
	return func(yield func(int, unsafe.Pointer) bool) {
		for i := 0; i < a.Size(); i++ {
			if a.occupied[i] && !yield(i, a.slot(i)) {
				return
			}
		}
	}
}

// Values is the typed form of All.
func Values[T any](a *Arena) iter.Seq2[int, *T] {
	checkType[T](a, "Values")
	return func(yield func(int, *T) bool) {
		for i, p := range a.All() {
			if !yield(i, (*T)(p)) {
				return
			}
		}
	}
}

func checkType[T any](a *Arena, op string) {
	a.checkLive(op)
	ty := reflect.TypeFor[T]()
	if ty.Size() != a.elemSize {
		violation(ErrSizeMismatch, "%s[%s]: %d bytes, element size is %d", op, ty, ty.Size(), a.elemSize)
	}
	if ty != a.typ {
		violation(ErrTypeMismatch, "%s[%s]: arena holds %s", op, ty, a.typ)
	}
}
